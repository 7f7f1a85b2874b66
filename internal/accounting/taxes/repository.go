package taxes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Repository loads tax definitions.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (Tax, error)
	// FirstOfType returns the default tax of type t, else the lowest id.
	FirstOfType(ctx context.Context, companyID int64, t Type) (Tax, error)
}

type repository struct {
	db db.Querier
}

// NewRepository binds the repository to a pool or a transaction.
func NewRepository(q db.Querier) Repository {
	return &repository{db: q}
}

const taxColumns = `id, company_id, name, type, rate, is_default, gl_account_id, debito_fiscal_account_id, credito_fiscal_account_id, created_at, updated_at`

func scanTax(row pgx.Row) (Tax, error) {
	var t Tax
	var typ string
	err := row.Scan(&t.ID, &t.CompanyID, &t.Name, &typ, &t.Rate, &t.IsDefault, &t.GLAccountID,
		&t.DebitoFiscalAccountID, &t.CreditoFiscalAccountID, &t.CreatedAt, &t.UpdatedAt)
	t.Type = Type(typ)
	return t, err
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Tax, error) {
	t, err := scanTax(r.db.QueryRow(ctx, `SELECT `+taxColumns+` FROM taxes WHERE company_id=$1 AND id=$2`, companyID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Tax{}, shared.NotFound("tax", id)
	}
	return t, err
}

func (r *repository) FirstOfType(ctx context.Context, companyID int64, t Type) (Tax, error) {
	tax, err := scanTax(r.db.QueryRow(ctx, `SELECT `+taxColumns+` FROM taxes WHERE company_id=$1 AND type=$2
ORDER BY is_default DESC, id ASC LIMIT 1`, companyID, string(t)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Tax{}, &shared.NotFoundError{Entity: "tax of type " + string(t)}
	}
	return tax, err
}
