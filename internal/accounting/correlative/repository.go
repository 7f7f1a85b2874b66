package correlative

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// TxStore implements Store on top of a pgx transaction.
type TxStore struct {
	tx pgx.Tx
}

// NewTxStore binds the counter table to tx.
func NewTxStore(tx pgx.Tx) *TxStore {
	return &TxStore{tx: tx}
}

func (s *TxStore) CounterExists(ctx context.Context, companyID int64, scope string) (bool, error) {
	var exists bool
	err := s.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM correlative_counters WHERE company_id=$1 AND scope=$2)`, companyID, scope).Scan(&exists)
	return exists, err
}

func (s *TxStore) EnsureCounter(ctx context.Context, companyID int64, scope string, seed int64) error {
	_, err := s.tx.Exec(ctx, `INSERT INTO correlative_counters (company_id, scope, last_value)
VALUES ($1,$2,$3) ON CONFLICT (company_id, scope) DO NOTHING`, companyID, scope, seed)
	return err
}

func (s *TxStore) Increment(ctx context.Context, companyID int64, scope string) (int64, error) {
	var value int64
	err := s.tx.QueryRow(ctx, `UPDATE correlative_counters SET last_value = last_value + 1, updated_at = NOW()
WHERE company_id=$1 AND scope=$2 RETURNING last_value`, companyID, scope).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, errors.New("correlative: counter row missing for " + scope)
	}
	return value, err
}

func (s *TxStore) LatestNumberWithPrefix(ctx context.Context, companyID int64, prefix string) (string, error) {
	var number string
	err := s.tx.QueryRow(ctx, `SELECT number FROM journal_entries WHERE company_id=$1 AND starts_with(number, $2)
ORDER BY number DESC LIMIT 1`, companyID, prefix).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return number, err
}

func (s *TxStore) CertificateNumbers(ctx context.Context, companyID int64, t CertificateType) ([]string, error) {
	rows, err := s.tx.Query(ctx, `SELECT certificate_number FROM withholdings
WHERE company_id=$1 AND type=$2 AND certificate_number IS NOT NULL`, companyID, string(t))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}
