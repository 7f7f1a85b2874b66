package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
)

// Worker runs ledger background tasks and their cron schedule.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// WorkerConfig bootstraps a Worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisConnOpt
	Logger      *slog.Logger
	Concurrency int
}

// NewWorker constructs a Worker bound to the ledger queue.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueLedger: 1},
		Logger:      asynqLogger{logger: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			logger.Error("task failed",
				slog.String("task", task.Type()),
				slog.Int("retried", retried),
				slog.Any("error", err))
		}),
	})
	return &Worker{
		server:    srv,
		mux:       asynq.NewServeMux(),
		scheduler: asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC}),
		logger:    logger,
	}
}

// Handle registers the handler for taskType.
func (w *Worker) Handle(taskType string, h asynq.HandlerFunc) {
	w.mux.HandleFunc(taskType, h)
}

// Schedule enqueues task on the cron spec. An empty spec disables the entry.
func (w *Worker) Schedule(spec string, task *asynq.Task, opts ...asynq.Option) error {
	if spec == "" {
		return nil
	}
	if _, err := w.scheduler.Register(spec, task, append([]asynq.Option{asynq.Queue(QueueLedger)}, opts...)...); err != nil {
		return fmt.Errorf("jobs: schedule %s %q: %w", task.Type(), spec, err)
	}
	w.logger.Info("task scheduled", slog.String("task", task.Type()), slog.String("cron", spec))
	return nil
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("jobs: worker not configured")
	}
	if err := w.scheduler.Start(); err != nil {
		return err
	}
	defer w.scheduler.Shutdown()
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.logger.Info("worker started", slog.String("queue", QueueLedger))
	<-ctx.Done()
	w.server.Shutdown()
	return ctx.Err()
}

// asynqLogger routes asynq's internal logging through slog.
type asynqLogger struct {
	logger *slog.Logger
}

func (l asynqLogger) Debug(args ...any) { l.logger.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { l.logger.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { l.logger.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...any) { l.logger.Error(fmt.Sprint(args...)) }

func (l asynqLogger) Fatal(args ...any) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
