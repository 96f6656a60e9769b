package handlers

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
	"github.com/adamspd/patentehub/utils"
)

type ProgressHandlers struct {
	*base
}

// SaveQuizResult stores a finished quiz and applies everything it earns in
// one transaction: totals, XP and level, streak, lesson completion, badges,
// exam readiness and mistake tracking.
func (ph *ProgressHandlers) SaveQuizResult(ctx context.Context, token string, req models.QuizResultRequest) Response[*models.QuizResult] {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return fail[*models.QuizResult](badRequest("%v", err))
	}

	var (
		result  *models.QuizResult
		userID  string
		outcome models.QuizOutcome
		level   int
	)
	err := ph.withUser(ctx, token, func(tx *db.Tx, user *models.User) error {
		now := ph.now()
		answers := req.Answers
		if answers == nil {
			answers = []models.QuizAnswer{}
		}
		result = &models.QuizResult{
			ID:             utils.GenerateID(),
			UserID:         user.ID,
			TopicID:        req.TopicID,
			LessonID:       req.LessonID,
			Score:          req.Score,
			TotalQuestions: req.TotalQuestions,
			CorrectAnswers: req.CorrectAnswers,
			WrongAnswers:   req.WrongAnswers,
			TimeSpent:      req.TimeSpent,
			Answers:        answers,
			CreatedAt:      now,
		}
		if err := tx.Put(db.QuizResults, result); err != nil {
			return err
		}

		outcome = user.Progress.ApplyQuizResult(result, now)

		history, err := db.ByIndex[models.QuizResult](tx, db.QuizResults, "userId", user.ID)
		if err != nil {
			return err
		}
		user.Progress.SetReadiness(history)

		if err := tx.Put(db.Users, user); err != nil {
			return err
		}

		for _, a := range result.Answers {
			if a.Correct {
				continue
			}
			if err := recordMistake(tx, user.ID, a, now); err != nil {
				return err
			}
		}

		userID = user.ID
		level = user.Progress.Level
		return nil
	})
	if err != nil {
		return fail[*models.QuizResult](err)
	}

	utils.LogAPI("Quiz result %s saved for user %s: score=%d xp=+%d in %v",
		result.ID, userID, result.Score, outcome.XPGained, time.Since(start))

	for _, badge := range outcome.NewBadges {
		ph.notify(ctx, userID, "New badge", fmt.Sprintf("You unlocked the %s badge", badge), models.NotificationSuccess)
	}
	if outcome.LeveledUp {
		ph.notify(ctx, userID, "Level up", fmt.Sprintf("You reached level %d", level), models.NotificationSuccess)
	}
	return created(result)
}

// recordMistake bumps the (user, question) mistake or creates it with a
// snapshot of the question as it is now.
func recordMistake(tx *db.Tx, userID string, a models.QuizAnswer, now time.Time) error {
	m, err := db.Unique[models.UserMistake](tx, db.UserMistakes, db.IndexUserQuestion, userID, a.QuestionID)
	if err == nil {
		m.Count++
		m.UserAnswer = a.UserAnswer
		m.LastMistakeAt = now
		return tx.Put(db.UserMistakes, m)
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	m = &models.UserMistake{
		ID:            utils.GenerateID(),
		UserID:        userID,
		QuestionID:    a.QuestionID,
		CorrectAnswer: true,
		UserAnswer:    a.UserAnswer,
		Count:         1,
		LastMistakeAt: now,
	}
	q, err := db.Get[models.Question](tx, db.Questions, a.QuestionID)
	switch {
	case err == nil:
		m.QuestionAr = q.QuestionAr
		m.QuestionIt = q.QuestionIt
		m.CorrectAnswer = q.IsTrue
	case !errors.Is(err, db.ErrNotFound):
		return err
	}
	return tx.Put(db.UserMistakes, m)
}

// QuizHistory returns the caller's results, newest first.
func (ph *ProgressHandlers) QuizHistory(ctx context.Context, token string) Response[[]models.QuizResult] {
	var results []models.QuizResult
	err := ph.viewUser(ctx, token, func(tx *db.Tx, user *models.User) error {
		var err error
		results, err = db.ByIndex[models.QuizResult](tx, db.QuizResults, "userId", user.ID)
		return err
	})
	if err != nil {
		return fail[[]models.QuizResult](err)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return ok(results)
}

// Mistakes returns the caller's mistakes, most repeated first.
func (ph *ProgressHandlers) Mistakes(ctx context.Context, token string) Response[[]models.UserMistake] {
	var mistakes []models.UserMistake
	err := ph.viewUser(ctx, token, func(tx *db.Tx, user *models.User) error {
		var err error
		mistakes, err = db.ByIndex[models.UserMistake](tx, db.UserMistakes, "userId", user.ID)
		return err
	})
	if err != nil {
		return fail[[]models.UserMistake](err)
	}
	sort.SliceStable(mistakes, func(i, j int) bool {
		return mistakes[i].Count > mistakes[j].Count
	})
	return ok(mistakes)
}

func (ph *ProgressHandlers) SaveTrainingSession(ctx context.Context, token string, req models.TrainingSessionRequest) Response[*models.TrainingSession] {
	if err := req.Validate(); err != nil {
		return fail[*models.TrainingSession](badRequest("%v", err))
	}

	var session *models.TrainingSession
	err := ph.db.Update(ctx, func(tx *db.Tx) error {
		user, err := ph.sessions.ResolveTx(tx, token)
		if err != nil {
			return err
		}
		session = &models.TrainingSession{
			ID:        utils.GenerateID(),
			UserID:    user.ID,
			Type:      req.Type,
			Score:     req.Score,
			Total:     req.Total,
			TimeSpent: req.TimeSpent,
			CreatedAt: ph.now(),
		}
		return tx.Put(db.TrainingSessions, session)
	})
	if err != nil {
		return fail[*models.TrainingSession](err)
	}
	return created(session)
}

// CompleteTopic marks a topic as finished for the caller.
func (ph *ProgressHandlers) CompleteTopic(ctx context.Context, token, topicID string) Response[models.UserProgress] {
	if topicID == "" {
		return fail[models.UserProgress](badRequest("topic is required"))
	}

	var progress models.UserProgress
	err := ph.withUser(ctx, token, func(tx *db.Tx, user *models.User) error {
		added := user.Progress.CompleteTopic(topicID)
		progress = user.Progress
		if !added {
			return nil
		}
		return tx.Put(db.Users, user)
	})
	if err != nil {
		return fail[models.UserProgress](err)
	}
	return ok(progress)
}

// ExamQuestions draws n random questions for an exam simulation, or the
// standard exam size when n <= 0.
func (ph *ProgressHandlers) ExamQuestions(ctx context.Context, n int) Response[[]models.Question] {
	if n <= 0 {
		n = models.ExamQuestionCount
	}

	var questions []models.Question
	err := ph.db.View(ctx, func(tx *db.Tx) error {
		var err error
		questions, err = db.All[models.Question](tx, db.Questions)
		return err
	})
	if err != nil {
		return fail[[]models.Question](err)
	}

	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	if len(questions) > n {
		questions = questions[:n]
	}
	return ok(questions)
}
