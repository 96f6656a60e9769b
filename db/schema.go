package db

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Index is a secondary index over one or more top-level document fields.
type Index struct {
	Name   string
	Fields []string
	Unique bool
}

// Collection declares a named set of records keyed by the Key field.
type Collection struct {
	Name    string
	Key     string
	Indexes []Index
}

// Schema is declared once at startup. Bump Version whenever collections or
// indexes are added; Open applies the additions to existing stores.
type Schema struct {
	Version     int
	Collections []Collection
}

// On indexes a single field under its own name.
func On(field string) Index {
	return Index{Name: field, Fields: []string{field}}
}

// UniqueOn builds a unique index, composite when several fields are given.
func UniqueOn(name string, fields ...string) Index {
	return Index{Name: name, Fields: fields, Unique: true}
}

const compositeSep = "\x1f"

func (c *Collection) index(name string) (*Index, error) {
	for i := range c.Indexes {
		if c.Indexes[i].Name == name {
			return &c.Indexes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrUnknownIndex, c.Name, name)
}

func (c *Collection) keyOf(fields map[string]interface{}) (string, error) {
	key, err := cast.ToStringE(fields[c.Key])
	if err != nil || key == "" {
		return "", fmt.Errorf("%w: %s.%s", ErrMissingKey, c.Name, c.Key)
	}
	return key, nil
}

func decodeDoc(doc []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if fields == nil {
		return nil, ErrInvalidRecord
	}
	return fields, nil
}

// indexValue returns nil (stored as NULL) when any indexed field is absent
// or empty, so unique indexes never collide on missing values.
func indexValue(fields map[string]interface{}, idx Index) interface{} {
	parts := make([]string, 0, len(idx.Fields))
	for _, f := range idx.Fields {
		v, ok := fields[f]
		if !ok || v == nil {
			return nil
		}
		s, err := cast.ToStringE(v)
		if err != nil || s == "" {
			return nil
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, compositeSep)
}

// Collection names.
const (
	Users              = "users"
	Sections           = "sections"
	Lessons            = "lessons"
	Questions          = "questions"
	Signs              = "signs"
	DictionarySections = "dictionarySections"
	DictionaryEntries  = "dictionaryEntries"
	Posts              = "posts"
	Comments           = "comments"
	Likes              = "likes"
	Reports            = "reports"
	QuizResults        = "quizResults"
	UserMistakes       = "userMistakes"
	TrainingSessions   = "trainingSessions"
	Notifications      = "notifications"
	AdminLogs          = "adminLogs"
	AuthTokens         = "authTokens"
)

// Index names that are not plain field names.
const (
	IndexPostUser     = "postUser"
	IndexUserQuestion = "userQuestion"
)

// SchemaVersion 2 added comments.parentId, authTokens.refreshToken and the
// composite uniqueness of likes and mistakes.
const SchemaVersion = 2

// AppSchema is the layout used by the application.
func AppSchema() Schema {
	return Schema{
		Version: SchemaVersion,
		Collections: []Collection{
			{Name: Users, Key: "id", Indexes: []Index{UniqueOn("email", "email")}},
			{Name: Sections, Key: "id", Indexes: []Index{On("order")}},
			{Name: Lessons, Key: "id", Indexes: []Index{On("sectionId")}},
			{Name: Questions, Key: "id", Indexes: []Index{On("lessonId"), On("sectionId")}},
			{Name: Signs, Key: "id", Indexes: []Index{On("category")}},
			{Name: DictionarySections, Key: "id"},
			{Name: DictionaryEntries, Key: "id", Indexes: []Index{On("sectionId")}},
			{Name: Posts, Key: "id", Indexes: []Index{On("userId")}},
			{Name: Comments, Key: "id", Indexes: []Index{On("postId"), On("parentId")}},
			{Name: Likes, Key: "id", Indexes: []Index{On("postId"), On("userId"), UniqueOn(IndexPostUser, "postId", "userId")}},
			{Name: Reports, Key: "id", Indexes: []Index{On("status")}},
			{Name: QuizResults, Key: "id", Indexes: []Index{On("userId")}},
			{Name: UserMistakes, Key: "id", Indexes: []Index{On("userId"), UniqueOn(IndexUserQuestion, "userId", "questionId")}},
			{Name: TrainingSessions, Key: "id", Indexes: []Index{On("userId")}},
			{Name: Notifications, Key: "id", Indexes: []Index{On("userId")}},
			{Name: AdminLogs, Key: "id"},
			{Name: AuthTokens, Key: "token", Indexes: []Index{On("userId"), UniqueOn("refreshToken", "refreshToken")}},
		},
	}
}
