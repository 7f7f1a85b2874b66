package shared

import (
	"context"
	"errors"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// ErrIdempotencyConflict reports a key that was already claimed.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore claims request keys per company so a replayed request
// cannot apply twice.
type IdempotencyStore struct {
	db db.Querier
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(q db.Querier) *IdempotencyStore {
	return &IdempotencyStore{db: q}
}

// CheckAndInsert claims key for companyID, or returns ErrIdempotencyConflict.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, companyID int64, key, module string) error {
	if key == "" || module == "" {
		return errors.New("idempotency: key and module required")
	}
	_, err := s.db.Exec(ctx, `INSERT INTO idempotency_keys (company_id, key, module) VALUES ($1, $2, $3)`, companyID, key, module)
	if db.IsUniqueViolation(err, "") {
		return ErrIdempotencyConflict
	}
	return err
}

// Delete releases a claim after the guarded work failed.
func (s *IdempotencyStore) Delete(ctx context.Context, companyID int64, key string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE company_id=$1 AND key=$2`, companyID, key)
	return err
}

// Cleanup drops claims older than retention and returns how many were removed.
func (s *IdempotencyStore) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
