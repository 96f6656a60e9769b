package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRequiresRoleAndEmail(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)
	user := e.register(t, "luca@example.it", "Luca")

	// Promote the ordinary account in storage: the role alone is not enough.
	require.NoError(t, e.db.Update(e.ctx, func(tx *db.Tx) error {
		stored, err := db.Get[models.User](tx, db.Users, user.User.ID)
		if err != nil {
			return err
		}
		stored.Role = models.RoleAdmin
		return tx.Put(db.Users, stored)
	}))
	assert.Equal(t, http.StatusForbidden, e.api.Stats(e.ctx, user.Token).Code)

	// Demote the superuser: the email alone is not enough either.
	require.True(t, e.api.Stats(e.ctx, admin).Success)
	require.NoError(t, e.db.Update(e.ctx, func(tx *db.Tx) error {
		stored, err := db.Unique[models.User](tx, db.Users, "email", models.SuperAdminEmail)
		if err != nil {
			return err
		}
		stored.Role = models.RoleUser
		return tx.Put(db.Users, stored)
	}))
	assert.Equal(t, http.StatusForbidden, e.api.Stats(e.ctx, admin).Code)
	assert.Equal(t, http.StatusForbidden, e.api.ListUsers(e.ctx, "").Code)
}

func TestStats(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)
	e.seed(t, admin)
	user := e.register(t, "luca@example.it", "Luca")
	e.post(t, user.Token, "hello")
	require.True(t, e.api.CreateReport(e.ctx, user.Token, "user", "x", "").Success)

	e.clock.Advance(25 * time.Hour)
	require.True(t, e.api.Login(e.ctx, models.LoginRequest{Email: "luca@example.it", Password: testPassword}).Success)

	resp := e.api.Stats(e.ctx, admin)
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, models.Stats{
		TotalUsers:     2,
		TotalPosts:     1,
		TotalQuestions: 16,
		TotalSections:  6,
		TotalLessons:   6,
		TotalSigns:     5,
		TotalReports:   1,
		ActiveToday:    1,
	}, resp.Data)
}

func TestListUsersHidesHashes(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)
	e.register(t, "luca@example.it", "Luca")

	resp := e.api.ListUsers(e.ctx, admin)
	require.True(t, resp.Success, resp.Error)
	require.Len(t, resp.Data, 2)
	for _, u := range resp.Data {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestBanAndDeleteUser(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)
	user := e.register(t, "luca@example.it", "Luca")

	assert.Equal(t, http.StatusNotFound, e.api.BanUser(e.ctx, admin, "ghost", true).Code)
	assert.Equal(t, http.StatusForbidden, e.api.BanUser(e.ctx, user.Token, user.User.ID, true).Code)

	require.True(t, e.api.BanUser(e.ctx, admin, user.User.ID, true).Success)
	assert.True(t, e.me(t, user.Token).IsBanned)
	e.clock.Advance(time.Second)
	require.True(t, e.api.BanUser(e.ctx, admin, user.User.ID, false).Success)
	assert.False(t, e.me(t, user.Token).IsBanned)
	e.clock.Advance(time.Second)

	require.True(t, e.api.DeleteUser(e.ctx, admin, user.User.ID).Success)
	assert.Equal(t, http.StatusUnauthorized, e.api.Me(e.ctx, user.Token).Code)

	logs := e.api.ListLogs(e.ctx, admin).Data
	require.Len(t, logs, 3)
	assert.Equal(t, models.ActionDeleteUser, logs[0].Action)
	assert.Equal(t, user.User.ID, logs[0].Details)
}

func TestReportModeration(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)
	user := e.register(t, "luca@example.it", "Luca")

	first := e.api.CreateReport(e.ctx, user.Token, "post", "p1", "spam")
	require.True(t, first.Success)
	e.clock.Advance(time.Minute)
	second := e.api.CreateReport(e.ctx, user.Token, "comment", "c1", "rude")
	require.True(t, second.Success)

	list := e.api.ListReports(e.ctx, admin)
	require.True(t, list.Success, list.Error)
	require.Len(t, list.Data, 2)
	assert.Equal(t, second.Data.ID, list.Data[0].ID)

	assert.Equal(t, http.StatusBadRequest, e.api.UpdateReportStatus(e.ctx, admin, first.Data.ID, "closed").Code)
	assert.Equal(t, http.StatusNotFound, e.api.UpdateReportStatus(e.ctx, admin, "missing", models.ReportReviewed).Code)
	assert.Equal(t, http.StatusForbidden, e.api.UpdateReportStatus(e.ctx, user.Token, first.Data.ID, models.ReportReviewed).Code)

	upd := e.api.UpdateReportStatus(e.ctx, admin, first.Data.ID, models.ReportDismissed)
	require.True(t, upd.Success, upd.Error)
	assert.Equal(t, models.ReportDismissed, upd.Data.Status)
}

func TestSeedIsRepeatable(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)

	first := e.api.Seed(e.ctx, admin)
	require.True(t, first.Success, first.Error)
	assert.Equal(t, 46, first.Data)
	before := e.api.ExportCollection(e.ctx, admin, db.Questions).Data

	e.clock.Advance(time.Hour)
	second := e.api.Seed(e.ctx, admin)
	require.True(t, second.Success, second.Error)
	assert.Equal(t, 46, second.Data)

	assert.Equal(t, before, e.api.ExportCollection(e.ctx, admin, db.Questions).Data)
	assert.Equal(t, 16, e.count(t, db.Questions))
	assert.Equal(t, 10, e.count(t, db.DictionaryEntries))

	user := e.register(t, "luca@example.it", "Luca")
	assert.Equal(t, http.StatusForbidden, e.api.Seed(e.ctx, user.Token).Code)
}

func TestImportTwiceIsIdempotent(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)
	e.seed(t, admin)

	exported := e.api.ExportCollection(e.ctx, admin, db.Signs)
	require.True(t, exported.Success, exported.Error)
	require.Len(t, exported.Data, 5)

	target := setup(t)
	targetAdmin := target.admin(t)
	for i := 0; i < 2; i++ {
		resp := target.api.ImportCollection(target.ctx, targetAdmin, db.Signs, exported.Data)
		require.True(t, resp.Success, resp.Error)
		assert.Equal(t, 5, resp.Data)
	}
	assert.Equal(t, 5, target.count(t, db.Signs))
	assert.Equal(t, exported.Data, target.api.ExportCollection(target.ctx, targetAdmin, db.Signs).Data)
}

func TestImportRejectsBadInput(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)

	records := []json.RawMessage{
		json.RawMessage(`{"id":"sg1","nameIt":"Stop","category":"precedenza"}`),
		json.RawMessage(`{"nameIt":"no id"}`),
	}
	assert.Equal(t, http.StatusBadRequest, e.api.ImportCollection(e.ctx, admin, db.Signs, records).Code)
	assert.Zero(t, e.count(t, db.Signs))

	bad := e.api.ImportCollection(e.ctx, admin, "widgets", records[:1])
	assert.Equal(t, http.StatusNotFound, bad.Code)
	assert.Equal(t, http.StatusNotFound, e.api.ExportCollection(e.ctx, admin, "widgets").Code)

	user := e.register(t, "luca@example.it", "Luca")
	assert.Equal(t, http.StatusForbidden, e.api.ImportCollection(e.ctx, user.Token, db.Signs, records[:1]).Code)
}

func TestImportRejectsMistypedRecords(t *testing.T) {
	e := setup(t)
	admin := e.admin(t)

	good := json.RawMessage(`{"id":"p1","userId":"u1","userName":"Luca","content":"ciao","createdAt":"2024-01-01T00:00:00Z"}`)
	mistyped := json.RawMessage(`{"id":"bad","likesCount":"lots","createdAt":"yesterday"}`)

	resp := e.api.ImportCollection(e.ctx, admin, db.Posts, []json.RawMessage{good, mistyped})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, e.count(t, db.Posts))
	assert.Zero(t, e.count(t, db.AdminLogs))

	list := e.api.ListPosts(e.ctx)
	require.True(t, list.Success, list.Error)
	assert.Empty(t, list.Data)

	resp = e.api.ImportCollection(e.ctx, admin, db.Posts, []json.RawMessage{good})
	require.True(t, resp.Success, resp.Error)
	list = e.api.ListPosts(e.ctx)
	require.True(t, list.Success, list.Error)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "ciao", list.Data[0].Content)
}

func TestCheckRecordsCoversEveryCollection(t *testing.T) {
	for _, c := range db.AppSchema().Collections {
		assert.Contains(t, recordTypes, c.Name)
	}
	assert.NoError(t, CheckRecords("widgets", []json.RawMessage{json.RawMessage(`{"x":1}`)}))
	assert.ErrorIs(t, CheckRecords(db.Users, []json.RawMessage{json.RawMessage(`{"id":"u","isBanned":"no"}`)}), db.ErrInvalidRecord)
}
