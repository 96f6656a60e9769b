package models

import (
	"fmt"
	"strings"
	"time"
)

// Content is implemented by the pointer of every reference content entity.
type Content interface {
	GetID() string
	Stamp(id string, createdAt time.Time)
	SortOrder() int
	// Parent returns the collection and id this record references, if any.
	Parent() (collection, id string)
	Summary() string
	Validate() error
}

// Section groups lessons and questions by topic
type Section struct {
	ID            string    `json:"id"`
	NameAr        string    `json:"nameAr"`
	NameIt        string    `json:"nameIt"`
	DescriptionAr string    `json:"descriptionAr"`
	DescriptionIt string    `json:"descriptionIt"`
	Image         string    `json:"image"`
	Icon          string    `json:"icon"`
	Color         string    `json:"color"`
	Order         int       `json:"order"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Lesson struct {
	ID        string    `json:"id"`
	SectionID string    `json:"sectionId"`
	TitleAr   string    `json:"titleAr"`
	TitleIt   string    `json:"titleIt"`
	ContentAr string    `json:"contentAr"`
	ContentIt string    `json:"contentIt"`
	Image     string    `json:"image"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

// Question is a true/false exam question
type Question struct {
	ID            string    `json:"id"`
	LessonID      string    `json:"lessonId"`
	SectionID     string    `json:"sectionId"`
	QuestionAr    string    `json:"questionAr"`
	QuestionIt    string    `json:"questionIt"`
	IsTrue        bool      `json:"isTrue"`
	ExplanationAr string    `json:"explanationAr"`
	ExplanationIt string    `json:"explanationIt"`
	Difficulty    string    `json:"difficulty"`
	Image         string    `json:"image"`
	Order         int       `json:"order"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Sign struct {
	ID            string    `json:"id"`
	NameAr        string    `json:"nameAr"`
	NameIt        string    `json:"nameIt"`
	DescriptionAr string    `json:"descriptionAr"`
	DescriptionIt string    `json:"descriptionIt"`
	Category      string    `json:"category"`
	Image         string    `json:"image"`
	Order         int       `json:"order"`
	CreatedAt     time.Time `json:"createdAt"`
}

type DictionarySection struct {
	ID        string    `json:"id"`
	NameAr    string    `json:"nameAr"`
	NameIt    string    `json:"nameIt"`
	Icon      string    `json:"icon"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

type DictionaryEntry struct {
	ID           string    `json:"id"`
	SectionID    string    `json:"sectionId"`
	TermIt       string    `json:"termIt"`
	TermAr       string    `json:"termAr"`
	DefinitionIt string    `json:"definitionIt"`
	DefinitionAr string    `json:"definitionAr"`
	Order        int       `json:"order"`
	CreatedAt    time.Time `json:"createdAt"`
}

var validDifficulties = []string{"easy", "medium", "hard"}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func (s *Section) GetID() string { return s.ID }
func (s *Section) Stamp(id string, createdAt time.Time) {
	s.ID, s.CreatedAt = id, createdAt
}
func (s *Section) SortOrder() int           { return s.Order }
func (s *Section) Parent() (string, string) { return "", "" }
func (s *Section) Summary() string          { return s.NameAr }
func (s *Section) Validate() error {
	if err := requireText("nameAr", s.NameAr); err != nil {
		return err
	}
	return requireText("nameIt", s.NameIt)
}

func (l *Lesson) GetID() string { return l.ID }
func (l *Lesson) Stamp(id string, createdAt time.Time) {
	l.ID, l.CreatedAt = id, createdAt
}
func (l *Lesson) SortOrder() int           { return l.Order }
func (l *Lesson) Parent() (string, string) { return "sections", l.SectionID }
func (l *Lesson) Summary() string          { return l.TitleAr }
func (l *Lesson) Validate() error {
	if err := requireText("sectionId", l.SectionID); err != nil {
		return err
	}
	if err := requireText("titleAr", l.TitleAr); err != nil {
		return err
	}
	return requireText("titleIt", l.TitleIt)
}

func (q *Question) GetID() string { return q.ID }
func (q *Question) Stamp(id string, createdAt time.Time) {
	q.ID, q.CreatedAt = id, createdAt
}
func (q *Question) SortOrder() int { return q.Order }

// Parent points at the lesson when set, the section otherwise.
func (q *Question) Parent() (string, string) {
	if q.LessonID != "" {
		return "lessons", q.LessonID
	}
	return "sections", q.SectionID
}
func (q *Question) Summary() string { return q.QuestionAr }
func (q *Question) Validate() error {
	if q.LessonID == "" && q.SectionID == "" {
		return fmt.Errorf("lessonId or sectionId is required")
	}
	if err := requireText("questionAr", q.QuestionAr); err != nil {
		return err
	}
	if err := requireText("questionIt", q.QuestionIt); err != nil {
		return err
	}
	if q.Difficulty == "" {
		q.Difficulty = "medium"
	}
	for _, d := range validDifficulties {
		if q.Difficulty == d {
			return nil
		}
	}
	return fmt.Errorf("invalid difficulty: %s", q.Difficulty)
}

func (s *Sign) GetID() string { return s.ID }
func (s *Sign) Stamp(id string, createdAt time.Time) {
	s.ID, s.CreatedAt = id, createdAt
}
func (s *Sign) SortOrder() int           { return s.Order }
func (s *Sign) Parent() (string, string) { return "", "" }
func (s *Sign) Summary() string          { return s.NameAr }
func (s *Sign) Validate() error {
	if err := requireText("nameAr", s.NameAr); err != nil {
		return err
	}
	if err := requireText("nameIt", s.NameIt); err != nil {
		return err
	}
	return requireText("category", s.Category)
}

func (s *DictionarySection) GetID() string { return s.ID }
func (s *DictionarySection) Stamp(id string, createdAt time.Time) {
	s.ID, s.CreatedAt = id, createdAt
}
func (s *DictionarySection) SortOrder() int           { return s.Order }
func (s *DictionarySection) Parent() (string, string) { return "", "" }
func (s *DictionarySection) Summary() string          { return s.NameAr }
func (s *DictionarySection) Validate() error {
	if err := requireText("nameAr", s.NameAr); err != nil {
		return err
	}
	return requireText("nameIt", s.NameIt)
}

func (e *DictionaryEntry) GetID() string { return e.ID }
func (e *DictionaryEntry) Stamp(id string, createdAt time.Time) {
	e.ID, e.CreatedAt = id, createdAt
}
func (e *DictionaryEntry) SortOrder() int           { return e.Order }
func (e *DictionaryEntry) Parent() (string, string) { return "dictionarySections", e.SectionID }
func (e *DictionaryEntry) Summary() string          { return e.TermIt }
func (e *DictionaryEntry) Validate() error {
	if err := requireText("sectionId", e.SectionID); err != nil {
		return err
	}
	if err := requireText("termIt", e.TermIt); err != nil {
		return err
	}
	return requireText("termAr", e.TermAr)
}
