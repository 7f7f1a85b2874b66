package mappings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Repository resolves integration keys to accounts.
type Repository interface {
	Get(ctx context.Context, companyID int64, module, key string) (AccountMapping, error)
	Upsert(ctx context.Context, mapping AccountMapping) (AccountMapping, error)
	List(ctx context.Context, companyID int64) ([]AccountMapping, error)
}

type repository struct {
	db db.Querier
}

// NewRepository binds the repository to a pool or a transaction.
func NewRepository(q db.Querier) Repository {
	return &repository{db: q}
}

// Get resolves an account mapping for the specified key.
// A missing row is a configuration problem, not a missing resource.
func (r *repository) Get(ctx context.Context, companyID int64, module, key string) (AccountMapping, error) {
	if module == "" || key == "" {
		return AccountMapping{}, shared.Invalid("mapping", "module and key required")
	}
	module, key = Normalize(module, key)
	var mapping AccountMapping
	err := r.db.QueryRow(ctx, `SELECT company_id, module, key, account_id, created_at, updated_at FROM account_mappings
WHERE company_id=$1 AND module=$2 AND key=$3`, companyID, module, key).
		Scan(&mapping.CompanyID, &mapping.Module, &mapping.Key, &mapping.AccountID, &mapping.CreatedAt, &mapping.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, shared.Missing("account mapping "+module, 0, key)
		}
		return AccountMapping{}, err
	}
	return mapping, nil
}

func (r *repository) Upsert(ctx context.Context, mapping AccountMapping) (AccountMapping, error) {
	mapping.Module, mapping.Key = Normalize(mapping.Module, mapping.Key)
	err := r.db.QueryRow(ctx, `INSERT INTO account_mappings (company_id, module, key, account_id)
VALUES ($1,$2,$3,$4)
ON CONFLICT (company_id, module, key) DO UPDATE SET account_id=EXCLUDED.account_id, updated_at=NOW()
RETURNING created_at, updated_at`, mapping.CompanyID, mapping.Module, mapping.Key, mapping.AccountID).
		Scan(&mapping.CreatedAt, &mapping.UpdatedAt)
	return mapping, err
}

func (r *repository) List(ctx context.Context, companyID int64) ([]AccountMapping, error) {
	rows, err := r.db.Query(ctx, `SELECT company_id, module, key, account_id, created_at, updated_at FROM account_mappings
WHERE company_id=$1 ORDER BY module, key`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountMapping
	for rows.Next() {
		var m AccountMapping
		if err := rows.Scan(&m.CompanyID, &m.Module, &m.Key, &m.AccountID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
