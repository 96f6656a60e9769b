package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
	"github.com/adamspd/patentehub/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password1"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	api   *API
	db    *db.DB
	clock *testClock
	ctx   context.Context
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	database, err := db.Open(ctx, ":memory:", db.AppSchema())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	cfg := utils.DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost

	clock := &testClock{t: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	return &testEnv{
		api:   NewAPI(database, cfg, WithClock(clock.Now)),
		db:    database,
		clock: clock,
		ctx:   ctx,
	}
}

// register creates an account and returns its session.
func (e *testEnv) register(t *testing.T, email, name string) *models.AuthResponse {
	t.Helper()
	resp := e.api.Register(e.ctx, models.RegisterRequest{Email: email, Password: testPassword, Name: name})
	require.True(t, resp.Success, resp.Error)
	require.Equal(t, http.StatusCreated, resp.Code)
	return resp.Data
}

func (e *testEnv) admin(t *testing.T) string {
	t.Helper()
	return e.register(t, models.SuperAdminEmail, "Admin").Token
}

func (e *testEnv) seed(t *testing.T, adminToken string) {
	t.Helper()
	resp := e.api.Seed(e.ctx, adminToken)
	require.True(t, resp.Success, resp.Error)
}

func (e *testEnv) me(t *testing.T, token string) *models.User {
	t.Helper()
	resp := e.api.Me(e.ctx, token)
	require.True(t, resp.Success, resp.Error)
	return resp.Data
}

func (e *testEnv) count(t *testing.T, coll string) int {
	t.Helper()
	n, err := e.db.Count(e.ctx, coll)
	require.NoError(t, err)
	return n
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func TestWithNotifierReplacesStore(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, ":memory:", db.AppSchema())
	require.NoError(t, err)
	defer database.Close()

	cfg := utils.DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	rec := &recordingNotifier{}
	api := NewAPI(database, cfg, WithNotifier(rec))

	reg := api.Register(ctx, models.RegisterRequest{Email: "luca@example.it", Password: testPassword, Name: "Luca"})
	require.True(t, reg.Success)

	resp := api.SaveQuizResult(ctx, reg.Data.Token, models.QuizResultRequest{Score: 100, TotalQuestions: 10, CorrectAnswers: 10})
	require.True(t, resp.Success, resp.Error)

	require.Len(t, rec.sent, 1)
	assert.Equal(t, reg.Data.User.ID, rec.sent[0].UserID)
	assert.Equal(t, models.NotificationSuccess, rec.sent[0].Type)

	n, err := database.Count(ctx, db.Notifications)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFailMapsErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{badRequest("x"), http.StatusBadRequest},
		{errRateLimited, http.StatusTooManyRequests},
		{db.ErrNotFound, http.StatusNotFound},
		{db.ErrConflict, http.StatusConflict},
		{db.ErrMissingKey, http.StatusBadRequest},
		{db.ErrUnknownCollection, http.StatusNotFound},
		{models.ErrBanned, http.StatusForbidden},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, c := range cases {
		resp := fail[any](c.err)
		assert.False(t, resp.Success)
		assert.Equal(t, c.code, resp.Code, "%v", c.err)
		assert.NotEmpty(t, resp.Error)
	}
}

func TestResponseKeepsZeroData(t *testing.T) {
	raw, err := json.Marshal(ok(false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":false,"code":200}`, string(raw))

	raw, err = json.Marshal(ok(0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":0,"code":200}`, string(raw))
}
