package handlers

import (
	"context"
	"time"

	"github.com/adamspd/patentehub/auth"
	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
	"github.com/adamspd/patentehub/utils"
)

// Notifier delivers user notifications. Implementations must not write
// through a transaction that is still open.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// StoreNotifier writes notifications straight into the store.
type StoreNotifier struct {
	db *db.DB
}

func NewStoreNotifier(database *db.DB) *StoreNotifier {
	return &StoreNotifier{db: database}
}

func (s *StoreNotifier) Notify(ctx context.Context, n models.Notification) error {
	return s.db.Put(ctx, db.Notifications, n)
}

// base carries the dependencies shared by every handler group.
type base struct {
	db       *db.DB
	sessions *auth.SessionStore
	locks    *utils.KeyedMutex
	notifier Notifier
	now      func() time.Time
}

// API wrapper to hold all handlers
type API struct {
	*AuthHandlers
	*ContentHandlers
	*CommunityHandlers
	*ProgressHandlers
	*AdminHandlers
	*NotificationHandlers

	sessions *auth.SessionStore
	limiter  *auth.RateLimiter
}

type options struct {
	now      func() time.Time
	notifier Notifier
	limiter  *auth.RateLimiter
}

type Option func(*options)

// WithClock replaces time.Now for handlers, sessions and the rate limiter.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithRateLimiter(l *auth.RateLimiter) Option {
	return func(o *options) { o.limiter = l }
}

func NewAPI(database *db.DB, cfg *models.Config, opts ...Option) *API {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = NewStoreNotifier(database)
	}
	if o.limiter == nil {
		o.limiter = auth.NewRateLimiter()
	}

	sessions := auth.NewSessionStore(database, cfg.SessionTTL)
	sessions.SetClock(o.now)
	o.limiter.SetClock(o.now)

	b := &base{
		db:       database,
		sessions: sessions,
		locks:    utils.NewKeyedMutex(),
		notifier: o.notifier,
		now:      o.now,
	}

	return &API{
		AuthHandlers:         NewAuthHandlers(b, o.limiter, cfg),
		ContentHandlers:      &ContentHandlers{base: b},
		CommunityHandlers:    &CommunityHandlers{base: b},
		ProgressHandlers:     &ProgressHandlers{base: b},
		AdminHandlers:        &AdminHandlers{base: b},
		NotificationHandlers: &NotificationHandlers{base: b},
		sessions:             sessions,
		limiter:              o.limiter,
	}
}

// Sessions exposes the session store for maintenance jobs.
func (a *API) Sessions() *auth.SessionStore {
	return a.sessions
}

func (a *API) RateLimiter() *auth.RateLimiter {
	return a.limiter
}

func (b *base) audit(tx *db.Tx, adminID, action, details string) error {
	entry := models.AdminLog{
		ID:        utils.GenerateID(),
		AdminID:   adminID,
		Action:    action,
		Details:   details,
		CreatedAt: b.now(),
	}
	return tx.Put(db.AdminLogs, entry)
}

// notify runs after commit; delivery failures are logged, never returned.
func (b *base) notify(ctx context.Context, userID, title, message, kind string) {
	n := models.Notification{
		ID:        utils.GenerateID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      kind,
		CreatedAt: b.now(),
	}
	if err := b.notifier.Notify(ctx, n); err != nil {
		utils.LogError("Failed to deliver notification to user %s: %v", userID, err)
	}
}
