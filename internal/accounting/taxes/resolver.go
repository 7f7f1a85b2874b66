package taxes

import (
	"context"
	"errors"
	"fmt"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/correlative"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Resolver maps taxes and withholdings to ledger accounts.
type Resolver struct {
	repo     Repository
	counters correlative.Store
	numbers  *correlative.Generator
}

// NewResolver builds a resolver over repo. counters may be nil when no
// certificate numbers are reserved.
func NewResolver(repo Repository, counters correlative.Store) *Resolver {
	return &Resolver{repo: repo, counters: counters, numbers: correlative.NewGenerator()}
}

// TaxAccount returns the fiscal debit (sales) or fiscal credit (purchases)
// account of a VAT tax, falling back to its generic GL account.
func (r *Resolver) TaxAccount(ctx context.Context, companyID, taxID int64, direction Direction) (int64, error) {
	tax, err := r.repo.Get(ctx, companyID, taxID)
	if err != nil {
		return 0, err
	}
	return AccountFor(tax, direction)
}

// AccountFor applies the VAT account rule to a loaded tax.
func AccountFor(tax Tax, direction Direction) (int64, error) {
	var preferred *int64
	field := "gl_account_id"
	switch direction {
	case DirectionSale:
		preferred = tax.DebitoFiscalAccountID
		field = "debito_fiscal_account_id or gl_account_id"
	case DirectionPurchase:
		preferred = tax.CreditoFiscalAccountID
		field = "credito_fiscal_account_id or gl_account_id"
	default:
		return 0, shared.Invalid("direction", fmt.Sprintf("unknown direction %q", direction))
	}
	if preferred != nil && *preferred != 0 {
		return *preferred, nil
	}
	if tax.GLAccountID != nil && *tax.GLAccountID != 0 {
		return *tax.GLAccountID, nil
	}
	return 0, shared.Missing("tax "+tax.Name, tax.ID, field)
}

// WithholdingAccount resolves the account of a withholding type through the
// company's tax definition of the same type.
func (r *Resolver) WithholdingAccount(ctx context.Context, companyID int64, t Type) (int64, error) {
	if !t.Withholding() {
		return 0, shared.Invalid("type", fmt.Sprintf("%q is not a withholding type", t))
	}
	tax, err := r.repo.FirstOfType(ctx, companyID, t)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, shared.Missing("company tax definitions", companyID, string(t)+" tax")
		}
		return 0, err
	}
	if tax.GLAccountID == nil || *tax.GLAccountID == 0 {
		return 0, shared.Missing("tax "+tax.Name, tax.ID, "gl_account_id")
	}
	return *tax.GLAccountID, nil
}

// DefaultTax returns the company's default IVA tax, used by the legacy import path.
func (r *Resolver) DefaultTax(ctx context.Context, companyID int64) (Tax, error) {
	tax, err := r.repo.FirstOfType(ctx, companyID, TypeIVA)
	if errors.Is(err, shared.ErrNotFound) {
		return Tax{}, shared.Missing("company tax definitions", companyID, "default IVA tax")
	}
	return tax, err
}

// NextCertificateNumber reserves the next retention certificate number.
func (r *Resolver) NextCertificateNumber(ctx context.Context, companyID int64, t Type, style correlative.CertificateStyle) (string, error) {
	if r.counters == nil {
		return "", errors.New("taxes: resolver has no counter store")
	}
	if !t.Withholding() {
		return "", shared.Invalid("type", fmt.Sprintf("%q is not a withholding type", t))
	}
	return r.numbers.NextCertificateNumber(ctx, r.counters, companyID, correlative.CertificateType(t), style)
}
