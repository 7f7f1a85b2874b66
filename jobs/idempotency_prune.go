package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

// KeyPruner drops idempotency claims older than a retention window.
type KeyPruner interface {
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

// IdempotencyPruneJob expires idempotency keys once replays can no longer arrive.
type IdempotencyPruneJob struct {
	Store     KeyPruner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewIdempotencyPruneJob builds the prune handler.
func NewIdempotencyPruneJob(store KeyPruner, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyPruneJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencyPruneJob{Store: store, Retention: retention, Logger: logger, Metrics: metrics}
}

// Handle runs one prune pass.
func (j *IdempotencyPruneJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("idempotency prune: handler not configured")
	}
	if j.Retention <= 0 {
		return fmt.Errorf("idempotency prune: retention must be positive: %w", asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskIdempotencyPrune)
	defer func() {
		err = tracker.End(err)
	}()
	removed, err := j.Store.Cleanup(ctx, j.Retention)
	if err != nil {
		return fmt.Errorf("idempotency prune: %w", err)
	}
	j.Logger.Info("idempotency keys pruned", slog.Int64("removed", removed), slog.Duration("retention", j.Retention))
	return nil
}
