package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/adamspd/patentehub/models"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSweeperRejectsBadSchedule(t *testing.T) {
	_, err := NewSweeper("not a schedule", func(context.Context) (int, error) { return 0, nil })
	assert.Error(t, err)
}

func TestSweeperRun(t *testing.T) {
	calls := 0
	s, err := NewSweeper("@hourly", func(ctx context.Context) (int, error) {
		calls++
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return 3, nil
	})
	require.NoError(t, err)

	s.Run()
	assert.Equal(t, 1, calls)
}

func TestSweeperRunLogsFailure(t *testing.T) {
	s, err := NewSweeper("@every 1h", func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	require.NoError(t, err)
	assert.NotPanics(t, s.Run)
}

func TestNotificationTaskRoundTrip(t *testing.T) {
	n := models.Notification{ID: "n1", UserID: "u1", Title: "Level up", Message: "You reached level 2", Type: models.NotificationSuccess}
	task, err := NewNotificationTask(n)
	require.NoError(t, err)
	assert.Equal(t, TypeDeliverNotification, task.Type())

	var delivered models.Notification
	handler := handleDeliverNotification(func(_ context.Context, got models.Notification) error {
		delivered = got
		return nil
	})
	require.NoError(t, handler(context.Background(), task))
	assert.Equal(t, n, delivered)
}

func TestDeliverBadPayloadSkipsRetry(t *testing.T) {
	handler := handleDeliverNotification(func(context.Context, models.Notification) error {
		t.Fatal("deliver must not be called")
		return nil
	})
	err := handler(context.Background(), asynq.NewTask(TypeDeliverNotification, []byte("{")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestDeliverErrorPropagates(t *testing.T) {
	boom := errors.New("store down")
	handler := handleDeliverNotification(func(context.Context, models.Notification) error { return boom })
	task, err := NewNotificationTask(models.Notification{ID: "n2"})
	require.NoError(t, err)
	assert.ErrorIs(t, handler(context.Background(), task), boom)
}

func TestNewJobManagerRejectsBadURL(t *testing.T) {
	_, err := NewJobManager("http://not-redis")
	assert.Error(t, err)
}

func TestNotifyTargetsAServedQueue(t *testing.T) {
	queues := workerQueues()
	require.Len(t, queues, 1)

	var target string
	for _, opt := range notifyOptions() {
		if opt.Type() == asynq.QueueOpt {
			target, _ = opt.Value().(string)
		}
	}
	assert.Contains(t, queues, target)
}
