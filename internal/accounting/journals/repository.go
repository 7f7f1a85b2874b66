package journals

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Filter narrows journal listings.
type Filter struct {
	CompanyID int64
	From      time.Time
	To        time.Time
	Module    accounting.Module
	Limit     int
}

// Repository reads posted journals.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]accounting.JournalEntry, error)
	Get(ctx context.Context, companyID, id int64) (accounting.JournalEntry, error)
}

type repository struct {
	db db.Querier
}

// NewRepository constructs the read repository.
func NewRepository(q db.Querier) Repository {
	return &repository{db: q}
}

func (r *repository) List(ctx context.Context, filter Filter) ([]accounting.JournalEntry, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `SELECT id, company_id, number, date, description, status, source_module, created_at, updated_at
FROM journal_entries
WHERE company_id=$1
  AND ($2::date IS NULL OR date >= $2)
  AND ($3::date IS NULL OR date <= $3)
  AND ($4 = '' OR source_module = $4)
ORDER BY date DESC, number DESC
LIMIT $5`, filter.CompanyID, nullableDate(filter.From), nullableDate(filter.To), string(filter.Module), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []accounting.JournalEntry
	for rows.Next() {
		var e accounting.JournalEntry
		var module string
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.Number, &e.Date, &e.Description, &e.Status, &module, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.SourceModule = accounting.Module(module)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (accounting.JournalEntry, error) {
	var e accounting.JournalEntry
	var module string
	err := r.db.QueryRow(ctx, `SELECT id, company_id, number, date, description, status, source_module, created_at, updated_at
FROM journal_entries WHERE company_id=$1 AND id=$2`, companyID, id).
		Scan(&e.ID, &e.CompanyID, &e.Number, &e.Date, &e.Description, &e.Status, &module, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounting.JournalEntry{}, shared.NotFound("journal entry", id)
		}
		return accounting.JournalEntry{}, err
	}
	e.SourceModule = accounting.Module(module)
	rows, err := r.db.Query(ctx, `SELECT id, entry_id, account_id, debit, credit, description
FROM journal_lines WHERE entry_id=$1 ORDER BY id`, id)
	if err != nil {
		return accounting.JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line accounting.JournalLine
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit, &line.Description); err != nil {
			return accounting.JournalEntry{}, err
		}
		e.Lines = append(e.Lines, line)
	}
	return e, rows.Err()
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
