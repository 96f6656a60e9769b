package handlers

import (
	"net/http"
	"testing"

	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentWritesNeedAdmin(t *testing.T) {
	e := setup(t)
	user := e.register(t, "luca@example.it", "Luca")
	s := models.Section{NameAr: "قسم", NameIt: "Sezione"}

	assert.Equal(t, http.StatusForbidden, e.api.CreateSection(e.ctx, user.Token, s).Code)
	assert.Equal(t, http.StatusForbidden, e.api.CreateSection(e.ctx, "", s).Code)
	assert.Equal(t, http.StatusForbidden, e.api.DeleteSign(e.ctx, user.Token, "sg1").Code)
	assert.Zero(t, e.count(t, db.Sections))
}

func TestSectionLessonQuestionLifecycle(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)

	sec := e.api.CreateSection(e.ctx, admin, models.Section{ID: "ignored", NameAr: "قسم", NameIt: "Sezione", Order: 2})
	require.True(t, sec.Success, sec.Error)
	assert.Equal(t, http.StatusCreated, sec.Code)
	assert.NotEqual(t, "ignored", sec.Data.ID)
	assert.Equal(t, e.clock.Now(), sec.Data.CreatedAt)

	orphan := e.api.CreateLesson(e.ctx, admin, models.Lesson{SectionID: "missing", TitleAr: "درس", TitleIt: "Lezione"})
	assert.Equal(t, http.StatusNotFound, orphan.Code)

	lesson := e.api.CreateLesson(e.ctx, admin, models.Lesson{SectionID: sec.Data.ID, TitleAr: "درس", TitleIt: "Lezione"})
	require.True(t, lesson.Success, lesson.Error)

	q := e.api.CreateQuestion(e.ctx, admin, models.Question{
		LessonID: lesson.Data.ID, SectionID: sec.Data.ID, QuestionAr: "سؤال", QuestionIt: "Domanda?", IsTrue: true,
	})
	require.True(t, q.Success, q.Error)
	assert.Equal(t, "medium", q.Data.Difficulty)

	byLesson := e.api.ListQuestions(e.ctx, lesson.Data.ID, "")
	require.Len(t, byLesson.Data, 1)
	bySection := e.api.ListQuestions(e.ctx, "", sec.Data.ID)
	require.Len(t, bySection.Data, 1)
	assert.Len(t, e.api.ListLessons(e.ctx, sec.Data.ID).Data, 1)

	upd := e.api.UpdateQuestion(e.ctx, admin, q.Data.ID, map[string]interface{}{
		"isTrue": false, "difficulty": "hard", "id": "hijacked", "createdAt": "1999-01-01T00:00:00Z",
	})
	require.True(t, upd.Success, upd.Error)
	assert.Equal(t, q.Data.ID, upd.Data.ID)
	assert.False(t, upd.Data.IsTrue)
	assert.Equal(t, "hard", upd.Data.Difficulty)
	assert.Equal(t, q.Data.CreatedAt, upd.Data.CreatedAt)
	assert.Equal(t, "Domanda?", upd.Data.QuestionIt)

	bad := e.api.UpdateQuestion(e.ctx, admin, q.Data.ID, map[string]interface{}{"difficulty": "extreme"})
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, http.StatusNotFound, e.api.UpdateQuestion(e.ctx, admin, "missing", map[string]interface{}{}).Code)

	require.True(t, e.api.DeleteQuestion(e.ctx, admin, q.Data.ID).Success)
	assert.Equal(t, http.StatusNotFound, e.api.GetQuestion(e.ctx, q.Data.ID).Code)

	// Deleting a section leaves its lessons in place.
	require.True(t, e.api.DeleteSection(e.ctx, admin, sec.Data.ID).Success)
	assert.True(t, e.api.GetLesson(e.ctx, lesson.Data.ID).Success)

	logs := e.api.ListLogs(e.ctx, admin)
	require.True(t, logs.Success)
	var actions []string
	for _, l := range logs.Data {
		actions = append(actions, l.Action)
	}
	assert.ElementsMatch(t, []string{
		models.ActionCreateSection, models.ActionCreateLesson, models.ActionCreateQuestion,
		models.ActionUpdateQuestion, models.ActionDeleteQuestion, models.ActionDeleteSection,
	}, actions)
}

func TestCreateContentValidation(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)

	assert.Equal(t, http.StatusBadRequest, e.api.CreateSection(e.ctx, admin, models.Section{NameAr: "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, e.api.CreateQuestion(e.ctx, admin, models.Question{QuestionAr: "x", QuestionIt: "y"}).Code)
	assert.Equal(t, http.StatusBadRequest, e.api.CreateSign(e.ctx, admin, models.Sign{NameAr: "x", NameIt: "y"}).Code)
	assert.Zero(t, e.count(t, db.AdminLogs))
}

func TestListsSortedByOrder(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)

	for _, order := range []int{3, 1, 2} {
		resp := e.api.CreateSection(e.ctx, admin, models.Section{NameAr: "قسم", NameIt: "Sezione", Order: order})
		require.True(t, resp.Success, resp.Error)
	}
	list := e.api.ListSections(e.ctx).Data
	require.Len(t, list, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{list[0].Order, list[1].Order, list[2].Order})
}

func TestSeededReferenceContent(t *testing.T) {
	e := setup(t)
	e.seed(t, e.admin(t))

	assert.Len(t, e.api.ListSections(e.ctx).Data, 6)
	assert.Len(t, e.api.ListLessons(e.ctx, "s1").Data, 2)
	assert.Len(t, e.api.ListQuestions(e.ctx, "l1", "").Data, 4)
	assert.Len(t, e.api.ListSigns(e.ctx, "divieto").Data, 2)
	assert.Len(t, e.api.ListSigns(e.ctx, "").Data, 5)
	assert.Len(t, e.api.ListDictionarySections(e.ctx).Data, 3)
	assert.Len(t, e.api.ListDictionaryEntries(e.ctx, "").Data, 10)

	entry := e.api.GetDictionaryEntry(e.ctx, "de1")
	require.True(t, entry.Success)
	assert.Equal(t, "Patente", entry.Data.TermIt)
	assert.Equal(t, SeedEpoch, entry.Data.CreatedAt)
}

func TestSignAndDictionaryWrites(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)

	sign := e.api.CreateSign(e.ctx, admin, models.Sign{NameAr: "قف", NameIt: "Stop", Category: "precedenza"})
	require.True(t, sign.Success, sign.Error)
	upd := e.api.UpdateSign(e.ctx, admin, sign.Data.ID, map[string]interface{}{"nameIt": "Fermarsi e dare precedenza"})
	require.True(t, upd.Success, upd.Error)
	assert.Equal(t, "Fermarsi e dare precedenza", upd.Data.NameIt)

	ds := e.api.CreateDictionarySection(e.ctx, admin, models.DictionarySection{NameAr: "قسم", NameIt: "Sezione"})
	require.True(t, ds.Success, ds.Error)
	missing := e.api.CreateDictionaryEntry(e.ctx, admin, models.DictionaryEntry{SectionID: "nope", TermIt: "Casco", TermAr: "خوذة"})
	assert.Equal(t, http.StatusNotFound, missing.Code)
	entry := e.api.CreateDictionaryEntry(e.ctx, admin, models.DictionaryEntry{SectionID: ds.Data.ID, TermIt: "Casco", TermAr: "خوذة"})
	require.True(t, entry.Success, entry.Error)
	assert.Len(t, e.api.ListDictionaryEntries(e.ctx, ds.Data.ID).Data, 1)

	require.True(t, e.api.DeleteDictionaryEntry(e.ctx, admin, entry.Data.ID).Success)
	require.True(t, e.api.DeleteDictionarySection(e.ctx, admin, ds.Data.ID).Success)
	require.True(t, e.api.DeleteSign(e.ctx, admin, sign.Data.ID).Success)
	assert.Zero(t, e.count(t, db.Signs))

	// Signs and dictionary writes are not audited.
	assert.Zero(t, e.count(t, db.AdminLogs))
}

func TestUpdateChecksParent(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)
	e.seed(t, admin)

	resp := e.api.UpdateLesson(e.ctx, admin, "l1", map[string]interface{}{"sectionId": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "s1", e.api.GetLesson(e.ctx, "l1").Data.SectionID)

	moved := e.api.UpdateLesson(e.ctx, admin, "l1", map[string]interface{}{"sectionId": "s2"})
	require.True(t, moved.Success, moved.Error)
	assert.Equal(t, "s2", moved.Data.SectionID)
}
