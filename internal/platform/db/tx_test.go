package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeBeginner struct {
	txs []*fakeTx
}

func (b *fakeBeginner) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	if opts.IsoLevel != pgx.RepeatableRead {
		return nil, errors.New("unexpected isolation level")
	}
	tx := &fakeTx{}
	b.txs = append(b.txs, tx)
	return tx, nil
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	pool := &fakeBeginner{}
	err := WithTx(context.Background(), pool, func(pgx.Tx) error { return nil })
	require.NoError(t, err)
	require.Len(t, pool.txs, 1)
	require.True(t, pool.txs[0].committed)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	pool := &fakeBeginner{}
	boom := errors.New("boom")
	err := WithTx(context.Background(), pool, func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Len(t, pool.txs, 1)
	require.True(t, pool.txs[0].rolledBack)
}

func TestWithTxRetriesSerializationFailure(t *testing.T) {
	pool := &fakeBeginner{}
	calls := 0
	err := WithTx(context.Background(), pool, func(pgx.Tx) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40001"})
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.True(t, pool.txs[2].committed)
}

func TestWithTxGivesUpAfterMaxAttempts(t *testing.T) {
	pool := &fakeBeginner{}
	calls := 0
	err := WithTx(context.Background(), pool, func(pgx.Tx) error {
		calls++
		return &pgconn.PgError{Code: "40P01"}
	})
	require.Error(t, err)
	require.Equal(t, MaxAttempts, calls)
}

func TestRetryable(t *testing.T) {
	require.True(t, Retryable(&pgconn.PgError{Code: "23505", ConstraintName: "uq_journal_entries_number"}))
	require.False(t, Retryable(&pgconn.PgError{Code: "23505", ConstraintName: "uq_accounts_code"}))
	require.False(t, Retryable(errors.New("plain")))
	require.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "uq_accounts_code"}, "uq_accounts_code"))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
}
