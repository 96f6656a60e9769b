package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
	"github.com/adamspd/patentehub/utils"
)

var (
	ErrNoSession = errors.New("no live session")
	ErrForbidden = errors.New("forbidden")
)

// SessionStore issues and resolves bearer tokens persisted in the
// authTokens collection. Expired tokens stay stored until SweepExpired runs.
type SessionStore struct {
	db  *db.DB
	ttl time.Duration
	now func() time.Time
}

func NewSessionStore(database *db.DB, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = models.DefaultSessionTTL
	}
	return &SessionStore{
		db:  database,
		ttl: ttl,
		now: time.Now,
	}
}

// SetClock replaces the time source used for issuing and expiring tokens.
func (s *SessionStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SessionStore) CreateSession(tx *db.Tx, userID string) (*models.AuthToken, error) {
	token, err := utils.GenerateToken()
	if err != nil {
		return nil, err
	}
	refresh, err := utils.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	at := &models.AuthToken{
		Token:        token,
		RefreshToken: refresh,
		UserID:       userID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := tx.Put(db.AuthTokens, at); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return at, nil
}

// ResolveTx returns the user behind token, or ErrNoSession when the token is
// unknown, expired, or its user no longer exists.
func (s *SessionStore) ResolveTx(tx *db.Tx, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	at, err := db.Get[models.AuthToken](tx, db.AuthTokens, token)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	if at.Expired(s.now()) {
		return nil, ErrNoSession
	}

	user, err := db.Get[models.User](tx, db.Users, at.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNoSession
	}
	return user, err
}

func (s *SessionStore) Resolve(ctx context.Context, token string) (*models.User, error) {
	var user *models.User
	err := s.db.View(ctx, func(tx *db.Tx) error {
		var err error
		user, err = s.ResolveTx(tx, token)
		return err
	})
	return user, err
}

// AdminTx resolves token and requires the superuser. Any failure to resolve
// is reported as ErrForbidden.
func (s *SessionStore) AdminTx(tx *db.Tx, token string) (*models.User, error) {
	user, err := s.ResolveTx(tx, token)
	if errors.Is(err, ErrNoSession) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if !user.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	return user, nil
}

func (s *SessionStore) IsAdmin(ctx context.Context, token string) bool {
	var ok bool
	err := s.db.View(ctx, func(tx *db.Tx) error {
		_, err := s.AdminTx(tx, token)
		ok = err == nil
		return nil
	})
	return err == nil && ok
}

func (s *SessionStore) DeleteSession(ctx context.Context, token string) error {
	return s.db.Delete(ctx, db.AuthTokens, token)
}

// Refresh rotates a live token pair: the old pair is removed and a new one
// issued for the same user.
func (s *SessionStore) Refresh(tx *db.Tx, refreshToken string) (*models.User, *models.AuthToken, error) {
	if refreshToken == "" {
		return nil, nil, ErrNoSession
	}
	old, err := db.Unique[models.AuthToken](tx, db.AuthTokens, "refreshToken", refreshToken)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, ErrNoSession
	}
	if err != nil {
		return nil, nil, err
	}
	if old.Expired(s.now()) {
		return nil, nil, ErrNoSession
	}

	user, err := db.Get[models.User](tx, db.Users, old.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, ErrNoSession
	}
	if err != nil {
		return nil, nil, err
	}
	if user.IsBanned {
		return nil, nil, models.ErrBanned
	}

	if err := tx.Delete(db.AuthTokens, old.Token); err != nil {
		return nil, nil, err
	}
	at, err := s.CreateSession(tx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, at, nil
}

// SweepExpired deletes every expired token and returns how many were removed.
func (s *SessionStore) SweepExpired(ctx context.Context) (int, error) {
	start := time.Now()
	removed := 0
	err := s.db.Update(ctx, func(tx *db.Tx) error {
		tokens, err := db.All[models.AuthToken](tx, db.AuthTokens)
		if err != nil {
			return err
		}
		now := s.now()
		for _, at := range tokens {
			if !at.Expired(now) {
				continue
			}
			if err := tx.Delete(db.AuthTokens, at.Token); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	utils.LogDB("Swept %d expired session(s) in %v", removed, time.Since(start))
	return removed, nil
}
