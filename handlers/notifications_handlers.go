package handlers

import (
	"context"
	"errors"
	"sort"

	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
)

type NotificationHandlers struct {
	*base
}

// Notifications returns the caller's notifications, newest first.
func (nh *NotificationHandlers) Notifications(ctx context.Context, token string) Response[[]models.Notification] {
	var list []models.Notification
	err := nh.viewUser(ctx, token, func(tx *db.Tx, user *models.User) error {
		var err error
		list, err = db.ByIndex[models.Notification](tx, db.Notifications, "userId", user.ID)
		return err
	})
	if err != nil {
		return fail[[]models.Notification](err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return ok(list)
}

// MarkNotificationRead succeeds without effect for unknown ids and for
// notifications owned by someone else.
func (nh *NotificationHandlers) MarkNotificationRead(ctx context.Context, token, id string) Response[any] {
	err := nh.db.Update(ctx, func(tx *db.Tx) error {
		user, err := nh.sessions.ResolveTx(tx, token)
		if err != nil {
			return err
		}
		n, err := db.Get[models.Notification](tx, db.Notifications, id)
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if n.UserID != user.ID || n.Read {
			return nil
		}
		n.Read = true
		return tx.Put(db.Notifications, n)
	})
	if err != nil {
		return fail[any](err)
	}
	return ok[any](nil)
}
