package journals

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/correlative"
)

// AccountLookup loads accounts inside the posting transaction.
type AccountLookup interface {
	Get(ctx context.Context, companyID, id int64) (accounts.Account, error)
}

// Ports are the transaction-bound stores a posting writes through.
type Ports struct {
	Counters correlative.Store
	Journals accounting.JournalWriter
	Accounts AccountLookup
}

// Poster numbers and persists drafts as POSTED entries.
type Poster struct {
	numbers *correlative.Generator
}

// NewPoster constructs a Poster.
func NewPoster() *Poster {
	return &Poster{numbers: correlative.NewGenerator()}
}

// Post validates the draft, reserves its correlative number and inserts it.
func (p *Poster) Post(ctx context.Context, ports Ports, companyID int64, draft accounting.Draft) (accounting.JournalEntry, error) {
	if err := draft.Validate(); err != nil {
		return accounting.JournalEntry{}, err
	}
	if err := CheckAccounts(ctx, ports.Accounts, companyID, draft.Lines); err != nil {
		return accounting.JournalEntry{}, err
	}
	number, err := p.numbers.NextJournalNumber(ctx, ports.Counters, companyID, draft.Date, draft.Module)
	if err != nil {
		return accounting.JournalEntry{}, err
	}
	entry, err := ports.Journals.InsertJournalEntry(ctx, accounting.JournalEntry{
		CompanyID:    companyID,
		Number:       number,
		Date:         draft.Date,
		Description:  draft.Description,
		Status:       accounting.JournalStatusPosted,
		SourceModule: draft.Module,
		Lines:        draft.Lines,
	})
	if err != nil {
		return accounting.JournalEntry{}, fmt.Errorf("journals: post %s: %w", number, err)
	}
	return entry, nil
}

// CheckAccounts rejects lines that reference missing, inactive or non-leaf accounts.
func CheckAccounts(ctx context.Context, lookup AccountLookup, companyID int64, lines []accounting.JournalLine) error {
	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		account, err := lookup.Get(ctx, companyID, line.AccountID)
		if err != nil {
			return err
		}
		if err := accounts.EnsurePostable(account); err != nil {
			return err
		}
	}
	return nil
}

// TxPorts binds every posting store to tx.
func TxPorts(tx pgx.Tx) Ports {
	return Ports{
		Counters: correlative.NewTxStore(tx),
		Journals: accounting.NewTxJournals(tx),
		Accounts: accounts.NewRepository(tx),
	}
}
