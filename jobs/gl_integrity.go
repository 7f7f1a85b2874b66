package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

// IntegritySource lists unbalanced entries per company.
type IntegritySource interface {
	Companies(ctx context.Context) ([]int64, error)
	UnbalancedEntries(ctx context.Context, f reports.Filter) ([]reports.UnbalancedEntry, error)
}

// GLIntegrityJob reports journal entries whose debits and credits disagree.
// It never repairs them; resynchronization stays an operator decision.
type GLIntegrityJob struct {
	Source  IntegritySource
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewGLIntegrityJob initialises the integrity scan handler.
func NewGLIntegrityJob(source IntegritySource, logger *slog.Logger, metrics *jobmetrics.Metrics) *GLIntegrityJob {
	return &GLIntegrityJob{Source: source, Logger: logger, Metrics: metrics}
}

// Handle executes the integrity scan.
func (j *GLIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Source == nil {
		return errors.New("gl integrity: handler not configured")
	}
	var payload GLIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("gl integrity: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	_, err := j.Scan(ctx, payload.CompanyID)
	return err
}

// Scan runs the check for one company, or all of them when companyID is zero,
// and returns the number of unbalanced entries found.
func (j *GLIntegrityJob) Scan(ctx context.Context, companyID int64) (found int, err error) {
	tracker := j.Metrics.Track(TaskGLIntegrity)
	defer func() {
		err = tracker.End(err)
	}()

	companies := []int64{companyID}
	if companyID == 0 {
		companies, err = j.Source.Companies(ctx)
		if err != nil {
			return 0, fmt.Errorf("gl integrity: list companies: %w", err)
		}
	}

	logger := j.logger()
	for _, id := range companies {
		entries, err := j.Source.UnbalancedEntries(ctx, reports.Filter{CompanyID: id})
		if err != nil {
			logger.Error("gl integrity scan failed", slog.Int64("company_id", id), slog.Any("error", err))
			return found, fmt.Errorf("gl integrity: company %d: %w", id, err)
		}
		for _, e := range entries {
			logger.Warn("unbalanced journal entry",
				slog.Int64("company_id", id),
				slog.Int64("entry_id", e.EntryID),
				slog.String("number", e.Number),
				slog.String("difference", e.Difference.StringFixed(2)),
				slog.Bool("resyncable", e.Resyncable),
			)
		}
		j.Metrics.AddFindings("unbalanced", id, len(entries))
		found += len(entries)
	}
	logger.Info("gl integrity scan completed", slog.Int("companies", len(companies)), slog.Int("findings", found))
	return found, nil
}

func (j *GLIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
