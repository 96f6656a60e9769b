package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
	"github.com/adamspd/patentehub/utils"
)

// AdminHandlers are only available to the superuser.
type AdminHandlers struct {
	*base
}

func (ah *AdminHandlers) ListUsers(ctx context.Context, token string) Response[[]*models.User] {
	var users []*models.User
	err := ah.viewAdmin(ctx, token, func(tx *db.Tx, _ *models.User) error {
		all, err := db.All[models.User](tx, db.Users)
		if err != nil {
			return err
		}
		users = make([]*models.User, 0, len(all))
		for i := range all {
			users = append(users, all[i].Safe())
		}
		return nil
	})
	if err != nil {
		return fail[[]*models.User](err)
	}
	return ok(users)
}

func (ah *AdminHandlers) BanUser(ctx context.Context, token, userID string, banned bool) Response[any] {
	unlock := ah.locks.Lock(userLock(userID))
	defer unlock()

	err := ah.asAdmin(ctx, token, func(tx *db.Tx, admin *models.User) error {
		user, err := db.Get[models.User](tx, db.Users, userID)
		if errors.Is(err, db.ErrNotFound) {
			return notFound("user not found")
		}
		if err != nil {
			return err
		}
		user.IsBanned = banned
		if err := tx.Put(db.Users, user); err != nil {
			return err
		}
		action := models.ActionBanUser
		if !banned {
			action = models.ActionUnbanUser
		}
		return ah.audit(tx, admin.ID, action, user.Email)
	})
	if err != nil {
		return fail[any](err)
	}

	utils.LogAPI("User %s banned=%t", userID, banned)
	return ok[any](nil)
}

// DeleteUser removes the account only. Content, results and sessions that
// reference it are kept.
func (ah *AdminHandlers) DeleteUser(ctx context.Context, token, userID string) Response[any] {
	unlock := ah.locks.Lock(userLock(userID))
	defer unlock()

	err := ah.asAdmin(ctx, token, func(tx *db.Tx, admin *models.User) error {
		if err := tx.Delete(db.Users, userID); err != nil {
			return err
		}
		return ah.audit(tx, admin.ID, models.ActionDeleteUser, userID)
	})
	if err != nil {
		return fail[any](err)
	}

	utils.LogAPI("User %s deleted", userID)
	return ok[any](nil)
}

// ListReports returns every report, newest first.
func (ah *AdminHandlers) ListReports(ctx context.Context, token string) Response[[]models.Report] {
	var reports []models.Report
	err := ah.viewAdmin(ctx, token, func(tx *db.Tx, _ *models.User) error {
		var err error
		reports, err = db.All[models.Report](tx, db.Reports)
		return err
	})
	if err != nil {
		return fail[[]models.Report](err)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return ok(reports)
}

func (ah *AdminHandlers) UpdateReportStatus(ctx context.Context, token, id, status string) Response[*models.Report] {
	var report *models.Report
	err := ah.asAdmin(ctx, token, func(tx *db.Tx, _ *models.User) error {
		if err := models.ValidateReportStatus(status); err != nil {
			return badRequest("%v", err)
		}
		var err error
		report, err = db.Get[models.Report](tx, db.Reports, id)
		if errors.Is(err, db.ErrNotFound) {
			return notFound("report not found")
		}
		if err != nil {
			return err
		}
		report.Status = status
		return tx.Put(db.Reports, report)
	})
	if err != nil {
		return fail[*models.Report](err)
	}
	return ok(report)
}

// ListLogs returns the audit trail, newest first.
func (ah *AdminHandlers) ListLogs(ctx context.Context, token string) Response[[]models.AdminLog] {
	var logs []models.AdminLog
	err := ah.viewAdmin(ctx, token, func(tx *db.Tx, _ *models.User) error {
		var err error
		logs, err = db.All[models.AdminLog](tx, db.AdminLogs)
		return err
	})
	if err != nil {
		return fail[[]models.AdminLog](err)
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
	return ok(logs)
}

func (ah *AdminHandlers) Stats(ctx context.Context, token string) Response[models.Stats] {
	var stats models.Stats
	err := ah.viewAdmin(ctx, token, func(tx *db.Tx, _ *models.User) error {
		var err error
		stats, err = collectStats(tx, ah.now())
		return err
	})
	if err != nil {
		return fail[models.Stats](err)
	}
	return ok(stats)
}

// collectStats counts the main collections. activeToday counts users whose
// last login falls on the calendar day of now.
func collectStats(tx *db.Tx, now time.Time) (models.Stats, error) {
	var s models.Stats
	counts := []struct {
		coll string
		dst  *int
	}{
		{db.Posts, &s.TotalPosts},
		{db.Questions, &s.TotalQuestions},
		{db.Sections, &s.TotalSections},
		{db.Lessons, &s.TotalLessons},
		{db.Signs, &s.TotalSigns},
		{db.Reports, &s.TotalReports},
	}
	for _, c := range counts {
		n, err := tx.Count(c.coll)
		if err != nil {
			return s, err
		}
		*c.dst = n
	}

	users, err := db.All[models.User](tx, db.Users)
	if err != nil {
		return s, err
	}
	s.TotalUsers = len(users)
	for _, u := range users {
		if models.SameDay(now, u.LastLogin) {
			s.ActiveToday++
		}
	}
	return s, nil
}

// ExportCollection returns every raw record of a collection.
func (ah *AdminHandlers) ExportCollection(ctx context.Context, token, name string) Response[[]json.RawMessage] {
	var records []json.RawMessage
	err := ah.viewAdmin(ctx, token, func(tx *db.Tx, _ *models.User) error {
		var err error
		records, err = tx.All(name)
		return err
	})
	if err != nil {
		return fail[[]json.RawMessage](err)
	}
	utils.LogAPI("Exported %d %s record(s)", len(records), name)
	return ok(records)
}

// ImportCollection upserts records by primary key, all or nothing, and
// returns how many were written.
func (ah *AdminHandlers) ImportCollection(ctx context.Context, token, name string, records []json.RawMessage) Response[int] {
	start := time.Now()
	err := ah.asAdmin(ctx, token, func(tx *db.Tx, admin *models.User) error {
		if err := CheckRecords(name, records); err != nil {
			return err
		}
		for i, raw := range records {
			if err := tx.PutRaw(name, raw); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}
		return ah.audit(tx, admin.ID, models.ActionImport, fmt.Sprintf("%s: %d", name, len(records)))
	})
	if err != nil {
		return fail[int](err)
	}

	utils.LogAPI("Imported %d %s record(s) in %v", len(records), name, time.Since(start))
	return ok(len(records))
}

// recordTypes decodes a raw record into the model stored in each collection.
var recordTypes = map[string]func(json.RawMessage) error{
	db.Users:              decodeAs[models.User],
	db.Sections:           decodeAs[models.Section],
	db.Lessons:            decodeAs[models.Lesson],
	db.Questions:          decodeAs[models.Question],
	db.Signs:              decodeAs[models.Sign],
	db.DictionarySections: decodeAs[models.DictionarySection],
	db.DictionaryEntries:  decodeAs[models.DictionaryEntry],
	db.Posts:              decodeAs[models.Post],
	db.Comments:           decodeAs[models.Comment],
	db.Likes:              decodeAs[models.Like],
	db.Reports:            decodeAs[models.Report],
	db.QuizResults:        decodeAs[models.QuizResult],
	db.UserMistakes:       decodeAs[models.UserMistake],
	db.TrainingSessions:   decodeAs[models.TrainingSession],
	db.Notifications:      decodeAs[models.Notification],
	db.AdminLogs:          decodeAs[models.AdminLog],
	db.AuthTokens:         decodeAs[models.AuthToken],
}

func decodeAs[T any](raw json.RawMessage) error {
	var v T
	return json.Unmarshal(raw, &v)
}

// CheckRecords reports the first record that does not decode into the
// collection's model. Unknown collections are left to the store.
func CheckRecords(name string, records []json.RawMessage) error {
	decode, ok := recordTypes[name]
	if !ok {
		return nil
	}
	for i, raw := range records {
		if err := decode(raw); err != nil {
			return fmt.Errorf("%w: %s record %d: %v", db.ErrInvalidRecord, name, i, err)
		}
	}
	return nil
}
