package accounting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// JournalWriter persists journal entries with their lines.
type JournalWriter interface {
	InsertJournalEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
}

// TxJournals persists journal entries inside a caller-owned transaction.
type TxJournals struct {
	tx pgx.Tx
}

// NewTxJournals binds journal persistence to tx.
func NewTxJournals(tx pgx.Tx) *TxJournals {
	return &TxJournals{tx: tx}
}

// InsertJournalEntry inserts the header and every line, returning ids and timestamps.
func (r *TxJournals) InsertJournalEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	if entry.Status == "" {
		entry.Status = JournalStatusPosted
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (company_id, number, date, description, status, source_module)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at, updated_at`,
		entry.CompanyID, entry.Number, entry.Date, entry.Description, entry.Status, string(entry.SourceModule))
	if err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return JournalEntry{}, fmt.Errorf("accounting: insert journal entry: %w", err)
	}
	lines, err := r.insertLines(ctx, entry.ID, entry.Lines)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *TxJournals) insertLines(ctx context.Context, entryID int64, lines []JournalLine) ([]JournalLine, error) {
	out := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		line.EntryID = entryID
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_lines (entry_id, account_id, debit, credit, description)
VALUES ($1,$2,$3,$4,$5) RETURNING id`, entryID, line.AccountID, line.Debit, line.Credit, line.Description).Scan(&line.ID)
		if err != nil {
			return nil, fmt.Errorf("accounting: insert journal line: %w", err)
		}
		out = append(out, line)
	}
	return out, nil
}

// GetJournalEntry loads an entry and its lines ordered by id, locking the header row.
func (r *TxJournals) GetJournalEntry(ctx context.Context, entryID int64) (JournalEntry, error) {
	var entry JournalEntry
	var module string
	err := r.tx.QueryRow(ctx, `SELECT id, company_id, number, date, description, status, source_module, created_at, updated_at
FROM journal_entries WHERE id=$1 FOR UPDATE`, entryID).
		Scan(&entry.ID, &entry.CompanyID, &entry.Number, &entry.Date, &entry.Description, &entry.Status, &module, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.NotFound("journal entry", entryID)
		}
		return JournalEntry{}, err
	}
	entry.SourceModule = Module(module)
	rows, err := r.tx.Query(ctx, `SELECT id, entry_id, account_id, debit, credit, description
FROM journal_lines WHERE entry_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit, &line.Description); err != nil {
			return JournalEntry{}, err
		}
		entry.Lines = append(entry.Lines, line)
	}
	return entry, rows.Err()
}

// ReplaceJournalLines deletes every line of the entry, inserts lines and updates date and description.
func (r *TxJournals) ReplaceJournalLines(ctx context.Context, entryID int64, date time.Time, description string, lines []JournalLine) ([]JournalLine, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET date=$2, description=$3, updated_at=NOW() WHERE id=$1`, entryID, date, description)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, shared.NotFound("journal entry", entryID)
	}
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id=$1`, entryID); err != nil {
		return nil, err
	}
	return r.insertLines(ctx, entryID, lines)
}
