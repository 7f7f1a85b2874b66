package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Repository reads posted journal data.
type Repository interface {
	// Balances returns every account of the company with the sum of lines
	// before from as opening and the sums within [from, to]. A zero from
	// folds everything up to to into the period columns.
	Balances(ctx context.Context, companyID int64, from, to time.Time) ([]AccountBalance, error)
	Account(ctx context.Context, companyID, accountID int64) (accounts.Account, error)
	Opening(ctx context.Context, companyID, accountID int64, before time.Time) (debit, credit decimal.Decimal, err error)
	LedgerLines(ctx context.Context, companyID, accountID int64, from, to time.Time) ([]LedgerLine, error)
	UnbalancedEntries(ctx context.Context, companyID int64, from, to time.Time) ([]UnbalancedEntry, error)
	Companies(ctx context.Context) ([]int64, error)
}

type repository struct {
	db db.Querier
}

// NewRepository binds report queries to a pool.
func NewRepository(q db.Querier) Repository {
	return &repository{db: q}
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *repository) Balances(ctx context.Context, companyID int64, from, to time.Time) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, a.code, a.name, a.type,
	COALESCE(m.opening, 0), COALESCE(m.debit, 0), COALESCE(m.credit, 0)
FROM accounts a
LEFT JOIN (
	SELECT l.account_id,
		SUM(CASE WHEN $2::date IS NOT NULL AND e.date < $2 THEN l.debit - l.credit ELSE 0 END) AS opening,
		SUM(CASE WHEN $2::date IS NULL OR e.date >= $2 THEN l.debit ELSE 0 END) AS debit,
		SUM(CASE WHEN $2::date IS NULL OR e.date >= $2 THEN l.credit ELSE 0 END) AS credit
	FROM journal_lines l JOIN journal_entries e ON e.id = l.entry_id
	WHERE e.company_id = $1 AND e.status = 'POSTED' AND ($3::date IS NULL OR e.date <= $3)
	GROUP BY l.account_id
) m ON m.account_id = a.id
WHERE a.company_id = $1
ORDER BY a.code`, companyID, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.Opening, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) Account(ctx context.Context, companyID, accountID int64) (accounts.Account, error) {
	return accounts.NewRepository(r.db).Get(ctx, companyID, accountID)
}

func (r *repository) Opening(ctx context.Context, companyID, accountID int64, before time.Time) (decimal.Decimal, decimal.Decimal, error) {
	if before.IsZero() {
		return decimal.Zero, decimal.Zero, nil
	}
	var debit, credit decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
FROM journal_lines l JOIN journal_entries e ON e.id = l.entry_id
WHERE e.company_id = $1 AND l.account_id = $2 AND e.status = 'POSTED' AND e.date < $3`, companyID, accountID, before).
		Scan(&debit, &credit)
	return debit, credit, err
}

func (r *repository) LedgerLines(ctx context.Context, companyID, accountID int64, from, to time.Time) ([]LedgerLine, error) {
	rows, err := r.db.Query(ctx, `SELECT e.id, e.number, e.date, COALESCE(NULLIF(l.description, ''), e.description), l.debit, l.credit
FROM journal_lines l JOIN journal_entries e ON e.id = l.entry_id
WHERE e.company_id = $1 AND l.account_id = $2 AND e.status = 'POSTED'
	AND ($3::date IS NULL OR e.date >= $3) AND ($4::date IS NULL OR e.date <= $4)
ORDER BY e.date, e.number, l.id`, companyID, accountID, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LedgerLine
	for rows.Next() {
		var line LedgerLine
		if err := rows.Scan(&line.EntryID, &line.Number, &line.Date, &line.Description, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

func (r *repository) UnbalancedEntries(ctx context.Context, companyID int64, from, to time.Time) ([]UnbalancedEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT e.id, e.number, e.date, COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0),
	(SELECT MIN(d.id) FROM documents d WHERE d.journal_entry_id = e.id
		AND (d.type = 'BILL' OR (d.type = 'CREDIT_NOTE' AND d.bill_type = 'PURCHASE'))),
	(SELECT COUNT(*) FROM documents d WHERE d.journal_entry_id = e.id)
FROM journal_entries e LEFT JOIN journal_lines l ON l.entry_id = e.id
WHERE e.company_id = $1 AND e.status = 'POSTED'
	AND ($2::date IS NULL OR e.date >= $2) AND ($3::date IS NULL OR e.date <= $3)
GROUP BY e.id, e.number, e.date
HAVING ABS(COALESCE(SUM(l.debit), 0) - COALESCE(SUM(l.credit), 0)) >= $4
ORDER BY e.date, e.number`, companyID, nullableDate(from), nullableDate(to), accounting.Tolerance)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UnbalancedEntry
	for rows.Next() {
		var u UnbalancedEntry
		var linked int64
		if err := rows.Scan(&u.EntryID, &u.Number, &u.Date, &u.Debit, &u.Credit, &u.DocumentID, &linked); err != nil {
			return nil, err
		}
		u.Difference = u.Debit.Sub(u.Credit)
		u.Resyncable = u.DocumentID != nil && linked == 1
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repository) Companies(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM companies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
