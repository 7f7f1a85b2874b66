package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/cache"
)

// Filter scopes a report to a company and a date range. A zero From means
// since the first entry; a zero To means no upper bound.
type Filter struct {
	CompanyID int64
	AccountID int64
	From      time.Time
	To        time.Time
}

func (f Filter) token() string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format(time.DateOnly)
	}
	return fmt.Sprintf("%d:%s:%s", f.AccountID, format(f.From), format(f.To))
}

// CacheMetrics observes cache hits and misses.
type CacheMetrics interface {
	ObserveReportCache(report string, hit bool)
}

// FinancialStatements pairs the income statement with the balance sheet at its end date.
type FinancialStatements struct {
	IncomeStatement IncomeStatement `json:"income_statement"`
	BalanceSheet    BalanceSheet    `json:"balance_sheet"`
}

// Service builds reports through the versioned cache.
type Service struct {
	repo    Repository
	cache   *cache.Cache
	metrics CacheMetrics
	logger  *slog.Logger
	builds  singleflight.Group
}

// NewService wires a Repository with the cache. cache and metrics may be nil.
func NewService(repo Repository, c *cache.Cache, metrics CacheMetrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: c, metrics: metrics, logger: logger}
}

// AnalyticalLedger returns one account's lines with opening and running balance.
func (s *Service) AnalyticalLedger(ctx context.Context, f Filter) (Ledger, error) {
	if f.AccountID == 0 {
		return Ledger{}, shared.Invalid("account_id", "required")
	}
	if err := checkRange(f); err != nil {
		return Ledger{}, err
	}
	return load(ctx, s, "ledger", f, func(ctx context.Context) (Ledger, error) {
		account, err := s.repo.Account(ctx, f.CompanyID, f.AccountID)
		if err != nil {
			return Ledger{}, err
		}
		debit, credit, err := s.repo.Opening(ctx, f.CompanyID, f.AccountID, f.From)
		if err != nil {
			return Ledger{}, err
		}
		lines, err := s.repo.LedgerLines(ctx, f.CompanyID, f.AccountID, f.From, f.To)
		if err != nil {
			return Ledger{}, err
		}
		return BuildLedger(account, debit, credit, lines), nil
	})
}

// TrialBalance groups opening, period movement and closing per account.
func (s *Service) TrialBalance(ctx context.Context, f Filter) (TrialBalance, error) {
	if err := checkRange(f); err != nil {
		return TrialBalance{}, err
	}
	f.AccountID = 0
	return load(ctx, s, "trial_balance", f, func(ctx context.Context) (TrialBalance, error) {
		balances, err := s.repo.Balances(ctx, f.CompanyID, f.From, f.To)
		if err != nil {
			return TrialBalance{}, err
		}
		return BuildTrialBalance(balances), nil
	})
}

// IncomeStatement reports income, cost and expense movements of the period.
func (s *Service) IncomeStatement(ctx context.Context, f Filter) (IncomeStatement, error) {
	if err := checkRange(f); err != nil {
		return IncomeStatement{}, err
	}
	f.AccountID = 0
	return load(ctx, s, "income_statement", f, func(ctx context.Context) (IncomeStatement, error) {
		balances, err := s.repo.Balances(ctx, f.CompanyID, f.From, f.To)
		if err != nil {
			return IncomeStatement{}, err
		}
		return BuildIncomeStatement(balances), nil
	})
}

// BalanceSheet reports cumulative positions at f.To; f.From is ignored.
func (s *Service) BalanceSheet(ctx context.Context, f Filter) (BalanceSheet, error) {
	if f.CompanyID == 0 {
		return BalanceSheet{}, shared.Invalid("company_id", "required")
	}
	f.AccountID, f.From = 0, time.Time{}
	return load(ctx, s, "balance_sheet", f, func(ctx context.Context) (BalanceSheet, error) {
		balances, err := s.repo.Balances(ctx, f.CompanyID, time.Time{}, f.To)
		if err != nil {
			return BalanceSheet{}, err
		}
		return BuildBalanceSheet(balances), nil
	})
}

// FinancialStatements loads both statements concurrently.
func (s *Service) FinancialStatements(ctx context.Context, f Filter) (FinancialStatements, error) {
	var out FinancialStatements
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.IncomeStatement, err = s.IncomeStatement(ctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		out.BalanceSheet, err = s.BalanceSheet(ctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return FinancialStatements{}, err
	}
	return out, nil
}

// UnbalancedEntries lists posted entries that fail the balance check. It is
// never cached: it is the signal that drives resynchronization.
func (s *Service) UnbalancedEntries(ctx context.Context, f Filter) ([]UnbalancedEntry, error) {
	if err := checkRange(f); err != nil {
		return nil, err
	}
	entries, err := s.repo.UnbalancedEntries(ctx, f.CompanyID, f.From, f.To)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []UnbalancedEntry{}
	}
	return entries, nil
}

// Companies lists every company, for scans across the whole ledger.
func (s *Service) Companies(ctx context.Context) ([]int64, error) {
	return s.repo.Companies(ctx)
}

func checkRange(f Filter) error {
	if f.CompanyID == 0 {
		return shared.Invalid("company_id", "required")
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return shared.Invalid("to", "must not be before from")
	}
	return nil
}

// load reads through the cache, collapsing identical concurrent builds.
func load[T any](ctx context.Context, s *Service, report string, f Filter, build func(context.Context) (T, error)) (T, error) {
	var zero T
	key, err := s.cache.BuildKey(ctx, f.CompanyID, "reports", report, f.token())
	if err != nil {
		s.logger.Warn("report cache unavailable", slog.String("report", report), slog.Any("error", err))
		return build(ctx)
	}
	result := s.builds.DoChan(key, func() (any, error) {
		// Shared by every waiter, so it must outlive the caller that started it.
		ctx := context.WithoutCancel(ctx)
		var out T
		hit, err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			return build(ctx)
		})
		if err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.ObserveReportCache(report, hit)
		}
		return out, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
