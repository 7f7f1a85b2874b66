package correlative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Store is the transaction-bound counter table plus the legacy number sources
// used to seed a counter the first time a scope is seen.
type Store interface {
	CounterExists(ctx context.Context, companyID int64, scope string) (bool, error)
	// EnsureCounter creates the counter at seed; an existing row is left untouched.
	EnsureCounter(ctx context.Context, companyID int64, scope string, seed int64) error
	// Increment bumps the counter and returns the new value, locking the row.
	Increment(ctx context.Context, companyID int64, scope string) (int64, error)
	LatestNumberWithPrefix(ctx context.Context, companyID int64, prefix string) (string, error)
	CertificateNumbers(ctx context.Context, companyID int64, t CertificateType) ([]string, error)
}

// Generator hands out correlative numbers.
type Generator struct{}

// NewGenerator constructs a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// NextJournalNumber reserves the next "{M}{ddmmyy}-{seq}" number for the company.
func (g *Generator) NextJournalNumber(ctx context.Context, store Store, companyID int64, date time.Time, module accounting.Module) (string, error) {
	if !module.Valid() {
		return "", shared.Invalid("module", fmt.Sprintf("unknown module %q", module))
	}
	if date.IsZero() {
		return "", shared.Invalid("date", "required")
	}
	prefix := JournalPrefix(module, date)
	scope := "JE:" + strings.TrimSuffix(prefix, "-")
	seq, err := g.next(ctx, store, companyID, scope, func(ctx context.Context) (int64, error) {
		latest, err := store.LatestNumberWithPrefix(ctx, companyID, prefix)
		if err != nil {
			return 0, err
		}
		return NextFromLatest(latest, prefix) - 1, nil
	})
	if err != nil {
		return "", err
	}
	return JournalNumber(module, date, seq), nil
}

// NextCertificateNumber reserves the next retention certificate number of type t.
func (g *Generator) NextCertificateNumber(ctx context.Context, store Store, companyID int64, t CertificateType, style CertificateStyle) (string, error) {
	if t != CertificateIVA && t != CertificateISLR {
		return "", shared.Invalid("type", fmt.Sprintf("unknown withholding type %q", t))
	}
	seq, err := g.next(ctx, store, companyID, "RET:"+string(t), func(ctx context.Context) (int64, error) {
		numbers, err := store.CertificateNumbers(ctx, companyID, t)
		if err != nil {
			return 0, err
		}
		return MaxSequence(t, numbers), nil
	})
	if err != nil {
		return "", err
	}
	return CertificateNumber(t, seq, style), nil
}

func (g *Generator) next(ctx context.Context, store Store, companyID int64, scope string, seed func(context.Context) (int64, error)) (int64, error) {
	if companyID == 0 {
		return 0, shared.Invalid("company_id", "required")
	}
	exists, err := store.CounterExists(ctx, companyID, scope)
	if err != nil {
		return 0, err
	}
	if !exists {
		start, err := seed(ctx)
		if err != nil {
			return 0, fmt.Errorf("correlative: seed %s: %w", scope, err)
		}
		if err := store.EnsureCounter(ctx, companyID, scope, start); err != nil {
			return 0, err
		}
	}
	return store.Increment(ctx, companyID, scope)
}
