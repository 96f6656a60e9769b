package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
	"github.com/adamspd/patentehub/utils"
)

const summaryLength = 50

// contentPtr is satisfied by *T for every content entity T.
type contentPtr[T any] interface {
	*T
	models.Content
}

// contentKind describes how one content collection is stored and audited.
// Empty audit actions are not logged.
type contentKind[T any, P contentPtr[T]] struct {
	collection string
	noun       string
	onCreate   string
	onUpdate   string
	onDelete   string
}

var (
	sectionKind = contentKind[models.Section, *models.Section]{
		collection: db.Sections, noun: "section",
		onCreate: models.ActionCreateSection, onUpdate: models.ActionUpdateSection, onDelete: models.ActionDeleteSection,
	}
	lessonKind = contentKind[models.Lesson, *models.Lesson]{
		collection: db.Lessons, noun: "lesson",
		onCreate: models.ActionCreateLesson, onUpdate: models.ActionUpdateLesson, onDelete: models.ActionDeleteLesson,
	}
	questionKind = contentKind[models.Question, *models.Question]{
		collection: db.Questions, noun: "question",
		onCreate: models.ActionCreateQuestion, onUpdate: models.ActionUpdateQuestion, onDelete: models.ActionDeleteQuestion,
	}
	signKind      = contentKind[models.Sign, *models.Sign]{collection: db.Signs, noun: "sign"}
	dictSectKind  = contentKind[models.DictionarySection, *models.DictionarySection]{collection: db.DictionarySections, noun: "dictionary section"}
	dictEntryKind = contentKind[models.DictionaryEntry, *models.DictionaryEntry]{collection: db.DictionaryEntries, noun: "dictionary entry"}
)

type ContentHandlers struct {
	*base
}

// listContent returns the collection, or the records whose index equals
// value when value is set, sorted by display order.
func listContent[T any, P contentPtr[T]](ctx context.Context, b *base, k contentKind[T, P], index, value string) Response[[]T] {
	var items []T
	err := b.db.View(ctx, func(tx *db.Tx) error {
		var err error
		if value != "" {
			items, err = db.ByIndex[T](tx, k.collection, index, value)
		} else {
			items, err = db.All[T](tx, k.collection)
		}
		return err
	})
	if err != nil {
		return fail[[]T](err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return P(&items[i]).SortOrder() < P(&items[j]).SortOrder()
	})
	return ok(items)
}

func getContent[T any, P contentPtr[T]](ctx context.Context, b *base, k contentKind[T, P], id string) Response[*T] {
	var item *T
	err := b.db.View(ctx, func(tx *db.Tx) error {
		var err error
		item, err = db.Get[T](tx, k.collection, id)
		if errors.Is(err, db.ErrNotFound) {
			return notFound("%s not found", k.noun)
		}
		return err
	})
	if err != nil {
		return fail[*T](err)
	}
	return ok(item)
}

func createContent[T any, P contentPtr[T]](ctx context.Context, b *base, k contentKind[T, P], token string, record T) Response[*T] {
	p := P(&record)
	err := b.asAdmin(ctx, token, func(tx *db.Tx, admin *models.User) error {
		if err := p.Validate(); err != nil {
			return badRequest("%v", err)
		}
		if err := requireParent(tx, p); err != nil {
			return err
		}

		p.Stamp(utils.GenerateID(), b.now())
		if err := tx.Put(k.collection, p); err != nil {
			return err
		}
		if k.onCreate != "" {
			return b.audit(tx, admin.ID, k.onCreate, utils.Truncate(p.Summary(), summaryLength))
		}
		return nil
	})
	if err != nil {
		return fail[*T](err)
	}

	utils.LogAPI("Created %s %s", k.noun, p.GetID())
	return created(&record)
}

// updateContent merges patch into the stored record field by field. id and
// createdAt cannot be changed.
func updateContent[T any, P contentPtr[T]](ctx context.Context, b *base, k contentKind[T, P], token, id string, patch map[string]interface{}) Response[*T] {
	var updated T
	err := b.asAdmin(ctx, token, func(tx *db.Tx, admin *models.User) error {
		raw, err := tx.Get(k.collection, id)
		if errors.Is(err, db.ErrNotFound) {
			return notFound("%s not found", k.noun)
		}
		if err != nil {
			return err
		}

		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return err
		}
		for key, v := range patch {
			if key == "id" || key == "createdAt" {
				continue
			}
			fields[key] = v
		}
		merged, err := json.Marshal(fields)
		if err != nil {
			return badRequest("invalid %s fields: %v", k.noun, err)
		}
		if err := json.Unmarshal(merged, &updated); err != nil {
			return badRequest("invalid %s fields: %v", k.noun, err)
		}

		p := P(&updated)
		if err := p.Validate(); err != nil {
			return badRequest("%v", err)
		}
		if err := requireParent(tx, p); err != nil {
			return err
		}
		if err := tx.Put(k.collection, p); err != nil {
			return err
		}
		if k.onUpdate != "" {
			return b.audit(tx, admin.ID, k.onUpdate, utils.Truncate(p.Summary(), summaryLength))
		}
		return nil
	})
	if err != nil {
		return fail[*T](err)
	}
	return ok(&updated)
}

// deleteContent removes one record. Children referencing it are left alone.
func deleteContent[T any, P contentPtr[T]](ctx context.Context, b *base, k contentKind[T, P], token, id string) Response[any] {
	err := b.asAdmin(ctx, token, func(tx *db.Tx, admin *models.User) error {
		if err := tx.Delete(k.collection, id); err != nil {
			return err
		}
		if k.onDelete != "" {
			return b.audit(tx, admin.ID, k.onDelete, id)
		}
		return nil
	})
	if err != nil {
		return fail[any](err)
	}
	utils.LogAPI("Deleted %s %s", k.noun, id)
	return ok[any](nil)
}

func requireParent(tx *db.Tx, c models.Content) error {
	coll, id := c.Parent()
	if id == "" {
		return nil
	}
	_, err := tx.Get(coll, id)
	if errors.Is(err, db.ErrNotFound) {
		return notFound("referenced %s %s not found", coll, id)
	}
	return err
}

// Sections

func (ch *ContentHandlers) ListSections(ctx context.Context) Response[[]models.Section] {
	return listContent(ctx, ch.base, sectionKind, "", "")
}

func (ch *ContentHandlers) GetSection(ctx context.Context, id string) Response[*models.Section] {
	return getContent(ctx, ch.base, sectionKind, id)
}

func (ch *ContentHandlers) CreateSection(ctx context.Context, token string, s models.Section) Response[*models.Section] {
	return createContent(ctx, ch.base, sectionKind, token, s)
}

func (ch *ContentHandlers) UpdateSection(ctx context.Context, token, id string, patch map[string]interface{}) Response[*models.Section] {
	return updateContent(ctx, ch.base, sectionKind, token, id, patch)
}

func (ch *ContentHandlers) DeleteSection(ctx context.Context, token, id string) Response[any] {
	return deleteContent(ctx, ch.base, sectionKind, token, id)
}

// Lessons

// ListLessons returns every lesson, or only those of sectionID when set.
func (ch *ContentHandlers) ListLessons(ctx context.Context, sectionID string) Response[[]models.Lesson] {
	return listContent(ctx, ch.base, lessonKind, "sectionId", sectionID)
}

func (ch *ContentHandlers) GetLesson(ctx context.Context, id string) Response[*models.Lesson] {
	return getContent(ctx, ch.base, lessonKind, id)
}

func (ch *ContentHandlers) CreateLesson(ctx context.Context, token string, l models.Lesson) Response[*models.Lesson] {
	return createContent(ctx, ch.base, lessonKind, token, l)
}

func (ch *ContentHandlers) UpdateLesson(ctx context.Context, token, id string, patch map[string]interface{}) Response[*models.Lesson] {
	return updateContent(ctx, ch.base, lessonKind, token, id, patch)
}

func (ch *ContentHandlers) DeleteLesson(ctx context.Context, token, id string) Response[any] {
	return deleteContent(ctx, ch.base, lessonKind, token, id)
}

// Questions

// ListQuestions filters by lessonID first, then sectionID.
func (ch *ContentHandlers) ListQuestions(ctx context.Context, lessonID, sectionID string) Response[[]models.Question] {
	if lessonID != "" {
		return listContent(ctx, ch.base, questionKind, "lessonId", lessonID)
	}
	return listContent(ctx, ch.base, questionKind, "sectionId", sectionID)
}

func (ch *ContentHandlers) GetQuestion(ctx context.Context, id string) Response[*models.Question] {
	return getContent(ctx, ch.base, questionKind, id)
}

func (ch *ContentHandlers) CreateQuestion(ctx context.Context, token string, q models.Question) Response[*models.Question] {
	return createContent(ctx, ch.base, questionKind, token, q)
}

func (ch *ContentHandlers) UpdateQuestion(ctx context.Context, token, id string, patch map[string]interface{}) Response[*models.Question] {
	return updateContent(ctx, ch.base, questionKind, token, id, patch)
}

func (ch *ContentHandlers) DeleteQuestion(ctx context.Context, token, id string) Response[any] {
	return deleteContent(ctx, ch.base, questionKind, token, id)
}

// Signs

func (ch *ContentHandlers) ListSigns(ctx context.Context, category string) Response[[]models.Sign] {
	return listContent(ctx, ch.base, signKind, "category", category)
}

func (ch *ContentHandlers) GetSign(ctx context.Context, id string) Response[*models.Sign] {
	return getContent(ctx, ch.base, signKind, id)
}

func (ch *ContentHandlers) CreateSign(ctx context.Context, token string, s models.Sign) Response[*models.Sign] {
	return createContent(ctx, ch.base, signKind, token, s)
}

func (ch *ContentHandlers) UpdateSign(ctx context.Context, token, id string, patch map[string]interface{}) Response[*models.Sign] {
	return updateContent(ctx, ch.base, signKind, token, id, patch)
}

func (ch *ContentHandlers) DeleteSign(ctx context.Context, token, id string) Response[any] {
	return deleteContent(ctx, ch.base, signKind, token, id)
}

// Dictionary

func (ch *ContentHandlers) ListDictionarySections(ctx context.Context) Response[[]models.DictionarySection] {
	return listContent(ctx, ch.base, dictSectKind, "", "")
}

func (ch *ContentHandlers) GetDictionarySection(ctx context.Context, id string) Response[*models.DictionarySection] {
	return getContent(ctx, ch.base, dictSectKind, id)
}

func (ch *ContentHandlers) CreateDictionarySection(ctx context.Context, token string, s models.DictionarySection) Response[*models.DictionarySection] {
	return createContent(ctx, ch.base, dictSectKind, token, s)
}

func (ch *ContentHandlers) UpdateDictionarySection(ctx context.Context, token, id string, patch map[string]interface{}) Response[*models.DictionarySection] {
	return updateContent(ctx, ch.base, dictSectKind, token, id, patch)
}

func (ch *ContentHandlers) DeleteDictionarySection(ctx context.Context, token, id string) Response[any] {
	return deleteContent(ctx, ch.base, dictSectKind, token, id)
}

func (ch *ContentHandlers) ListDictionaryEntries(ctx context.Context, sectionID string) Response[[]models.DictionaryEntry] {
	return listContent(ctx, ch.base, dictEntryKind, "sectionId", sectionID)
}

func (ch *ContentHandlers) GetDictionaryEntry(ctx context.Context, id string) Response[*models.DictionaryEntry] {
	return getContent(ctx, ch.base, dictEntryKind, id)
}

func (ch *ContentHandlers) CreateDictionaryEntry(ctx context.Context, token string, e models.DictionaryEntry) Response[*models.DictionaryEntry] {
	return createContent(ctx, ch.base, dictEntryKind, token, e)
}

func (ch *ContentHandlers) UpdateDictionaryEntry(ctx context.Context, token, id string, patch map[string]interface{}) Response[*models.DictionaryEntry] {
	return updateContent(ctx, ch.base, dictEntryKind, token, id, patch)
}

func (ch *ContentHandlers) DeleteDictionaryEntry(ctx context.Context, token, id string) Response[any] {
	return deleteContent(ctx, ch.base, dictEntryKind, token, id)
}
