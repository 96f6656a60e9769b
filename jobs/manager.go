package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adamspd/patentehub/models"
	"github.com/adamspd/patentehub/utils"
	"github.com/hibiken/asynq"
)

const (
	TypeDeliverNotification = "notification:deliver"

	// queueDefault is the only queue the worker serves and Notify enqueues to.
	queueDefault = "default"
)

// DeliverFunc persists a notification once the worker picks it up.
type DeliverFunc func(ctx context.Context, n models.Notification) error

type JobManager struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewJobManager(redisURL string) (*JobManager, error) {
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues:      workerQueues(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			utils.LogError("Job failed: type=%s error=%v", task.Type(), err)
		}),
		Logger: &AsynqLogger{},
	})

	return &JobManager{
		client: client,
		server: server,
		mux:    asynq.NewServeMux(),
	}, nil
}

func (jm *JobManager) RegisterHandlers(deliver DeliverFunc) {
	jm.mux.HandleFunc(TypeDeliverNotification, handleDeliverNotification(deliver))
}

// Start begins processing in the background.
func (jm *JobManager) Start() error {
	utils.LogStartup("Starting job queue worker...")
	return jm.server.Start(jm.mux)
}

func (jm *JobManager) Stop() {
	utils.LogShutdown("Stopping job queue...")
	jm.server.Stop()
	jm.server.Shutdown()
	jm.client.Close()
}

// Close releases the enqueueing client only.
func (jm *JobManager) Close() error {
	return jm.client.Close()
}

// Notify queues n for delivery by the worker. It satisfies the handlers'
// Notifier interface.
func (jm *JobManager) Notify(ctx context.Context, n models.Notification) error {
	task, err := NewNotificationTask(n)
	if err != nil {
		return err
	}

	info, err := jm.client.EnqueueContext(ctx, task, notifyOptions()...)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification task: %w", err)
	}

	utils.LogJob("Queued notification job: ID=%s user=%s title=%q", info.ID, n.UserID, n.Title)
	return nil
}

func workerQueues() map[string]int {
	return map[string]int{queueDefault: 1}
}

func notifyOptions() []asynq.Option {
	return []asynq.Option{
		asynq.Queue(queueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(30 * time.Second),
	}
}

func NewNotificationTask(n models.Notification) (*asynq.Task, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification payload: %w", err)
	}
	return asynq.NewTask(TypeDeliverNotification, payload), nil
}

func handleDeliverNotification(deliver DeliverFunc) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var n models.Notification
		if err := json.Unmarshal(task.Payload(), &n); err != nil {
			return fmt.Errorf("failed to unmarshal notification payload: %w: %w", err, asynq.SkipRetry)
		}

		utils.LogJob("Delivering notification %s to user %s", n.ID, n.UserID)
		if err := deliver(ctx, n); err != nil {
			return fmt.Errorf("failed to deliver notification %s: %w", n.ID, err)
		}
		return nil
	}
}

// AsynqLogger routes asynq's logging through the tagged loggers.
type AsynqLogger struct{}

func (l *AsynqLogger) Debug(args ...interface{}) {
	utils.LogDebug("%s", fmt.Sprint(args...))
}

func (l *AsynqLogger) Info(args ...interface{}) {
	utils.LogJob("%s", fmt.Sprint(args...))
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	utils.LogJob("warning: %s", fmt.Sprint(args...))
}

func (l *AsynqLogger) Error(args ...interface{}) {
	utils.LogError("%s", fmt.Sprint(args...))
}

// Fatal exits the process, as asynq expects of its logger.
func (l *AsynqLogger) Fatal(args ...interface{}) {
	utils.LogFatal("%s", fmt.Sprint(args...))
}
