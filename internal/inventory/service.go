package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	platformShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, Ports) error) error
	ListMovements(ctx context.Context, companyID, productID int64, limit int) ([]Movement, error)
	LowStockProducts(ctx context.Context, companyID int64) ([]Product, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log platformShared.AuditLog) error
}

// IdempotencyPort guards against replayed movement requests.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, companyID int64, key, module string) error
	Delete(ctx context.Context, companyID int64, key string) error
}

// MetricsPort receives posting and low-stock observations.
type MetricsPort interface {
	ObservePosting(module string, err error, elapsed time.Duration)
	IncLowStock(companyID int64, count int)
}

// CacheBumper invalidates cached reports of a company.
type CacheBumper interface {
	Bump(ctx context.Context, companyID int64) error
}

// Service coordinates standalone inventory movements.
type Service struct {
	repo        RepositoryPort
	engine      *Engine
	audit       AuditPort
	idempotency IdempotencyPort
	metrics     MetricsPort
	cache       CacheBumper
	logger      *slog.Logger
	timeout     time.Duration
	now         func() time.Time
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Timeout     time.Duration
	Idempotency IdempotencyPort
	Metrics     MetricsPort
	Cache       CacheBumper
	Logger      *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, cfg ServiceConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		engine:      NewEngine(),
		audit:       audit,
		idempotency: cfg.Idempotency,
		metrics:     cfg.Metrics,
		cache:       cfg.Cache,
		logger:      logger,
		timeout:     timeout,
		now:         time.Now,
	}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ProcessMovement applies one movement in its own transaction. A non-empty
// idempotency key makes replays fail instead of moving stock twice.
func (s *Service) ProcessMovement(ctx context.Context, input MovementInput, idempotencyKey string) (Result, error) {
	if input.Date.IsZero() {
		y, m, d := s.now().Date()
		input.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, input.CompanyID, idempotencyKey, "inventory"); err != nil {
			if errors.Is(err, platformShared.ErrIdempotencyConflict) {
				return Result{}, shared.Invalid("idempotency_key", "request already processed")
			}
			return Result{}, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.now()
	var result Result
	err := s.repo.WithTx(ctx, func(ctx context.Context, ports Ports) error {
		var err error
		result, err = s.engine.Process(ctx, ports, input)
		return err
	})
	if s.metrics != nil {
		s.metrics.ObservePosting("I", err, s.now().Sub(start))
	}
	if err != nil {
		if idempotencyKey != "" && s.idempotency != nil {
			_ = s.idempotency.Delete(context.WithoutCancel(ctx), input.CompanyID, idempotencyKey)
		}
		s.logger.Warn("inventory movement rejected",
			slog.Int64("company_id", input.CompanyID),
			slog.Int64("product_id", input.ProductID),
			slog.String("type", string(input.Type)),
			slog.Any("error", err))
		return Result{}, err
	}
	if result.NoOp {
		return result, nil
	}

	s.afterCommit(ctx, input, result)
	return result, nil
}

func (s *Service) afterCommit(ctx context.Context, input MovementInput, result Result) {
	ctx = context.WithoutCancel(ctx)
	if len(result.AlertsTriggered) > 0 {
		for _, alert := range result.AlertsTriggered {
			s.logger.Warn("low stock",
				slog.Int64("company_id", input.CompanyID),
				slog.String("sku", alert.SKU),
				slog.String("quantity", alert.Quantity.String()),
				slog.String("minimum_stock", alert.MinimumStock.String()))
		}
		if s.metrics != nil {
			s.metrics.IncLowStock(input.CompanyID, len(result.AlertsTriggered))
		}
	}
	if result.JournalEntry != nil && s.cache != nil {
		if err := s.cache.Bump(ctx, input.CompanyID); err != nil {
			s.logger.Warn("report cache bump failed", slog.Any("error", err))
		}
	}
	if s.audit != nil {
		meta := map[string]any{
			"product_id":      input.ProductID,
			"type":            string(input.Type),
			"quantity":        result.Movement.Quantity.String(),
			"unit_cost":       result.Movement.UnitCost.String(),
			"avg_cost_before": result.Movement.AvgCostBefore.String(),
			"avg_cost_after":  result.Movement.AvgCostAfter.String(),
		}
		if result.JournalEntry != nil {
			meta["journal_number"] = result.JournalEntry.Number
		}
		_ = s.audit.Record(ctx, platformShared.AuditLog{
			CompanyID: input.CompanyID,
			Action:    fmt.Sprintf("inventory:%s", input.Type),
			Entity:    "inventory_movement",
			EntityID:  fmt.Sprintf("%d", result.Movement.ID),
			Meta:      meta,
			At:        s.now(),
		})
	}
}

// StockCard lists movements of a product.
func (s *Service) StockCard(ctx context.Context, companyID, productID int64, limit int) ([]Movement, error) {
	if productID == 0 {
		return nil, shared.Invalid("product_id", "required")
	}
	return s.repo.ListMovements(ctx, companyID, productID, limit)
}

// LowStock lists products currently under their minimum stock.
func (s *Service) LowStock(ctx context.Context, companyID int64) ([]Product, error) {
	return s.repo.LowStockProducts(ctx, companyID)
}
