package handlers

import (
	"context"

	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
)

func postLock(id string) string { return "post:" + id }
func userLock(id string) string { return "user:" + id }

// withUser resolves token, then runs fn in a write transaction while holding
// the user's lock. The user is resolved again inside the transaction so fn
// always sees the latest record.
func (b *base) withUser(ctx context.Context, token string, fn func(tx *db.Tx, user *models.User) error) error {
	user, err := b.sessions.Resolve(ctx, token)
	if err != nil {
		return err
	}

	unlock := b.locks.Lock(userLock(user.ID))
	defer unlock()

	return b.db.Update(ctx, func(tx *db.Tx) error {
		current, err := b.sessions.ResolveTx(tx, token)
		if err != nil {
			return err
		}
		return fn(tx, current)
	})
}

// withPost runs fn in a write transaction while holding the post's lock.
// Counters on a post are only changed through here.
func (b *base) withPost(ctx context.Context, postID string, fn func(tx *db.Tx) error) error {
	unlock := b.locks.Lock(postLock(postID))
	defer unlock()
	return b.db.Update(ctx, fn)
}

// viewUser resolves token and runs fn in a read transaction.
func (b *base) viewUser(ctx context.Context, token string, fn func(tx *db.Tx, user *models.User) error) error {
	return b.db.View(ctx, func(tx *db.Tx) error {
		user, err := b.sessions.ResolveTx(tx, token)
		if err != nil {
			return err
		}
		return fn(tx, user)
	})
}

// asAdmin runs fn in a write transaction after checking for the superuser.
func (b *base) asAdmin(ctx context.Context, token string, fn func(tx *db.Tx, admin *models.User) error) error {
	return b.db.Update(ctx, func(tx *db.Tx) error {
		admin, err := b.sessions.AdminTx(tx, token)
		if err != nil {
			return err
		}
		return fn(tx, admin)
	})
}

func (b *base) viewAdmin(ctx context.Context, token string, fn func(tx *db.Tx, admin *models.User) error) error {
	return b.db.View(ctx, func(tx *db.Tx) error {
		admin, err := b.sessions.AdminTx(tx, token)
		if err != nil {
			return err
		}
		return fn(tx, admin)
	})
}
