package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	XPPerCorrectAnswer = 10
	HighScoreBonusXP   = 50
	HighScoreThreshold = 80
	XPPerLevel         = 500

	LessonPassScore = 70
	ReadinessWindow = 20

	// Exam simulation: 30 questions in 30 minutes, passed with at most 3 errors.
	ExamQuestionCount = 30
	ExamTimeLimit     = 30 * time.Minute
	ExamMaxErrors     = 3
)

const (
	BadgeNewcomer     = "newcomer"
	BadgeQuizMaster   = "quiz_master"
	BadgePerfectScore = "perfect_score"
	BadgeWeekStreak   = "week_streak"
	BadgeLevel5       = "level_5"
)

// UserProgress is embedded in the user record
type UserProgress struct {
	TotalQuizzes     int        `json:"totalQuizzes"`
	CorrectAnswers   int        `json:"correctAnswers"`
	WrongAnswers     int        `json:"wrongAnswers"`
	CompletedLessons []string   `json:"completedLessons"`
	CompletedTopics  []string   `json:"completedTopics"`
	CurrentStreak    int        `json:"currentStreak"`
	BestStreak       int        `json:"bestStreak"`
	LastStudyDate    *time.Time `json:"lastStudyDate,omitempty"`
	Level            int        `json:"level"`
	XP               int        `json:"xp"`
	Badges           []string   `json:"badges"`
	ExamReadiness    int        `json:"examReadiness"`
}

// QuizAnswer is one answered question inside a quiz result
type QuizAnswer struct {
	QuestionID string `json:"questionId"`
	UserAnswer bool   `json:"userAnswer"`
	Correct    bool   `json:"correct"`
}

// QuizResult is immutable once stored
type QuizResult struct {
	ID             string       `json:"id"`
	UserID         string       `json:"userId"`
	TopicID        string       `json:"topicId"`
	LessonID       string       `json:"lessonId"`
	Score          int          `json:"score"`
	TotalQuestions int          `json:"totalQuestions"`
	CorrectAnswers int          `json:"correctAnswers"`
	WrongAnswers   int          `json:"wrongAnswers"`
	TimeSpent      int          `json:"timeSpent"`
	Answers        []QuizAnswer `json:"answers"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// QuizResultRequest carries a finished quiz as submitted by the caller
type QuizResultRequest struct {
	TopicID        string       `json:"topicId"`
	LessonID       string       `json:"lessonId"`
	Score          int          `json:"score"`
	TotalQuestions int          `json:"totalQuestions"`
	CorrectAnswers int          `json:"correctAnswers"`
	WrongAnswers   int          `json:"wrongAnswers"`
	TimeSpent      int          `json:"timeSpent"`
	Answers        []QuizAnswer `json:"answers"`
}

func (r *QuizResultRequest) Validate() error {
	if r.Score < 0 || r.Score > 100 {
		return fmt.Errorf("score must be between 0 and 100")
	}
	if r.TotalQuestions < 0 || r.CorrectAnswers < 0 || r.WrongAnswers < 0 || r.TimeSpent < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	for i, a := range r.Answers {
		if a.QuestionID == "" {
			return fmt.Errorf("answer %d has no questionId", i)
		}
	}
	return nil
}

// UserMistake counts repeated misses of one question by one user
type UserMistake struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	QuestionID    string    `json:"questionId"`
	QuestionAr    string    `json:"questionAr"`
	QuestionIt    string    `json:"questionIt"`
	CorrectAnswer bool      `json:"correctAnswer"`
	UserAnswer    bool      `json:"userAnswer"`
	Count         int       `json:"count"`
	LastMistakeAt time.Time `json:"lastMistakeAt"`
}

type TrainingSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	TimeSpent int       `json:"timeSpent"`
	CreatedAt time.Time `json:"createdAt"`
}

type TrainingSessionRequest struct {
	Type      string `json:"type"`
	Score     int    `json:"score"`
	Total     int    `json:"total"`
	TimeSpent int    `json:"timeSpent"`
}

var validTrainingTypes = []string{"questions", "signs", "dictionary"}

func (r *TrainingSessionRequest) Validate() error {
	if err := oneOf("type", r.Type, validTrainingTypes); err != nil {
		return err
	}
	if r.Score < 0 || r.Total < 0 || r.TimeSpent < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	if r.Score > r.Total {
		return fmt.Errorf("score cannot exceed total")
	}
	return nil
}

// QuizOutcome summarizes what a quiz changed on the user's progress
type QuizOutcome struct {
	XPGained  int      `json:"xpGained"`
	NewBadges []string `json:"newBadges"`
	LeveledUp bool     `json:"leveledUp"`
}

func NewProgress() UserProgress {
	return UserProgress{
		CompletedLessons: []string{},
		CompletedTopics:  []string{},
		Level:            1,
		Badges:           []string{BadgeNewcomer},
	}
}

// LevelFor returns floor(xp/500)+1.
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// XPFor is the experience awarded for one quiz.
func XPFor(correctAnswers, score int) int {
	xp := correctAnswers * XPPerCorrectAnswer
	if score >= HighScoreThreshold {
		xp += HighScoreBonusXP
	}
	return xp
}

// ApplyQuizResult updates totals, XP, level, streak, lesson completion and
// badges. Exam readiness depends on the stored history and is set separately
// through SetReadiness.
func (p *UserProgress) ApplyQuizResult(r *QuizResult, now time.Time) QuizOutcome {
	out := QuizOutcome{NewBadges: []string{}}
	prevLevel := p.Level

	p.TotalQuizzes++
	p.CorrectAnswers += r.CorrectAnswers
	p.WrongAnswers += r.WrongAnswers

	out.XPGained = XPFor(r.CorrectAnswers, r.Score)
	p.XP += out.XPGained
	p.Level = LevelFor(p.XP)
	out.LeveledUp = p.Level > prevLevel

	p.touchStreak(now)

	if r.Score >= LessonPassScore && r.LessonID != "" {
		p.CompletedLessons = appendMissing(p.CompletedLessons, r.LessonID)
	}

	award := func(badge string, earned bool) {
		if earned && !contains(p.Badges, badge) {
			p.Badges = append(p.Badges, badge)
			out.NewBadges = append(out.NewBadges, badge)
		}
	}
	award(BadgeQuizMaster, p.TotalQuizzes >= 10)
	award(BadgePerfectScore, r.Score == 100)
	award(BadgeWeekStreak, p.CurrentStreak >= 7)
	award(BadgeLevel5, p.Level >= 5)

	return out
}

// touchStreak counts a study day. A gap of two or more days leaves the
// streak alone here; ResetBrokenStreak zeroes it at login.
func (p *UserProgress) touchStreak(now time.Time) {
	switch {
	case p.LastStudyDate == nil:
		p.CurrentStreak = 1
	case SameDay(*p.LastStudyDate, now):
	case SameDay(*p.LastStudyDate, now.AddDate(0, 0, -1)):
		p.CurrentStreak++
	}
	if p.CurrentStreak > p.BestStreak {
		p.BestStreak = p.CurrentStreak
	}
	t := now
	p.LastStudyDate = &t
}

// ResetBrokenStreak zeroes the streak when the last study day is neither
// today nor yesterday. It reports whether anything changed.
func (p *UserProgress) ResetBrokenStreak(now time.Time) bool {
	if p.LastStudyDate == nil || p.CurrentStreak == 0 {
		return false
	}
	last := *p.LastStudyDate
	if SameDay(last, now) || SameDay(last, now.AddDate(0, 0, -1)) {
		return false
	}
	p.CurrentStreak = 0
	return true
}

// CompleteTopic records a finished topic once.
func (p *UserProgress) CompleteTopic(topicID string) bool {
	if contains(p.CompletedTopics, topicID) {
		return false
	}
	p.CompletedTopics = append(p.CompletedTopics, topicID)
	return true
}

// SetReadiness replaces ExamReadiness with the rounded mean score of the
// most recent results.
func (p *UserProgress) SetReadiness(results []QuizResult) {
	if len(results) == 0 {
		return
	}
	p.ExamReadiness = ExamReadiness(results)
}

// ExamReadiness is the rounded mean of the 20 most recent scores, ordered by
// creation time.
func ExamReadiness(results []QuizResult) int {
	if len(results) == 0 {
		return 0
	}
	sorted := make([]QuizResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	if len(sorted) > ReadinessWindow {
		sorted = sorted[len(sorted)-ReadinessWindow:]
	}
	sum := 0
	for _, r := range sorted {
		sum += r.Score
	}
	return int(math.Round(float64(sum) / float64(len(sorted))))
}

// ExamPassed reports whether an exam simulation with the given number of
// errors is a pass.
func ExamPassed(errors int) bool {
	return errors <= ExamMaxErrors
}

// SameDay compares calendar dates in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func appendMissing(list []string, v string) []string {
	if contains(list, v) {
		return list
	}
	return append(list, v)
}
