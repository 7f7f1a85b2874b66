package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Repository persists chart of accounts nodes.
type Repository interface {
	List(ctx context.Context, companyID int64) ([]Account, error)
	Get(ctx context.Context, companyID, id int64) (Account, error)
	GetByCode(ctx context.Context, companyID int64, code string) (Account, error)
	Insert(ctx context.Context, account Account) (Account, error)
	Update(ctx context.Context, account Account) (Account, error)
}

type repository struct {
	db db.Querier
}

// NewRepository binds the repository to a pool or a transaction.
func NewRepository(q db.Querier) Repository {
	return &repository{db: q}
}

const accountColumns = `id, company_id, code, name, type, parent_id, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	var typ string
	err := row.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &typ, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	a.Type = AccountType(typ)
	return a, err
}

func (r *repository) List(ctx context.Context, companyID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 ORDER BY code`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 AND id=$2`, companyID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.NotFound("account", id)
	}
	return a, err
}

func (r *repository) GetByCode(ctx context.Context, companyID int64, code string) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 AND code=$2`, companyID, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, &shared.NotFoundError{Entity: "account " + code}
	}
	return a, err
}

func (r *repository) Insert(ctx context.Context, a Account) (Account, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO accounts (company_id, code, name, type, parent_id, is_active)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at, updated_at`,
		a.CompanyID, a.Code, a.Name, string(a.Type), a.ParentID, a.IsActive).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if db.IsUniqueViolation(err, "uq_accounts_code") {
		return Account{}, shared.Invalid("code", fmt.Sprintf("%s already exists", a.Code))
	}
	return a, err
}

func (r *repository) Update(ctx context.Context, a Account) (Account, error) {
	err := r.db.QueryRow(ctx, `UPDATE accounts SET name=$3, is_active=$4, updated_at=NOW()
WHERE company_id=$1 AND id=$2 RETURNING updated_at`, a.CompanyID, a.ID, a.Name, a.IsActive).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.NotFound("account", a.ID)
	}
	return a, err
}
