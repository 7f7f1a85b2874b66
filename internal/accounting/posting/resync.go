package posting

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Resync rebuilds the lines of an entry from its purchase document, keeping
// the entry id, number and stock movements. A zero companyID skips the
// company check, for operator tooling.
func (e *Engine) Resync(ctx context.Context, companyID, entryID int64) (*accounting.JournalEntry, error) {
	if entryID == 0 {
		return nil, shared.Invalid("journal_entry_id", "required")
	}
	entry, err := e.execute(ctx, "resync", "", companyID, entryID, func(ctx context.Context, uow UnitOfWork) (*accounting.JournalEntry, error) {
		entry, err := uow.Repo.GetJournalEntryForUpdate(ctx, entryID)
		if err != nil {
			return nil, err
		}
		if companyID != 0 && entry.CompanyID != companyID {
			return nil, shared.NotFound("journal entry", entryID)
		}
		ids, err := uow.Repo.DocumentsByJournalEntry(ctx, entryID)
		if err != nil {
			return nil, err
		}
		switch len(ids) {
		case 0:
			return nil, shared.Invalid("journal_entry_id", fmt.Sprintf("entry %s has no source document", entry.Number))
		case 1:
		default:
			return nil, shared.Invalid("journal_entry_id", fmt.Sprintf("entry %s is linked to %d documents", entry.Number, len(ids)))
		}
		doc, err := uow.Repo.GetDocumentForUpdate(ctx, entry.CompanyID, ids[0])
		if err != nil {
			return nil, err
		}
		if !doc.Resyncable() {
			return nil, shared.Invalid("journal_entry_id", fmt.Sprintf("only purchase bills and purchase credit notes can be resynchronized; %s %s belongs to the %s cycle", doc.Type, doc.Number, doc.Cycle()))
		}
		draft, err := NewBuilder(uow.Resolver, e.legacyDefaultTax).BuildDocument(ctx, doc)
		if err != nil {
			return nil, err
		}
		if err := draft.Validate(); err != nil {
			return nil, err
		}
		if err := journals.CheckAccounts(ctx, uow.Journal.Accounts, entry.CompanyID, draft.Lines); err != nil {
			return nil, err
		}
		lines, err := uow.Repo.ReplaceJournalLines(ctx, entry.ID, draft.Date, draft.Description, draft.Lines)
		if err != nil {
			return nil, err
		}
		entry.Date = draft.Date
		entry.Description = draft.Description
		entry.Lines = lines
		return &entry, nil
	})
	if err != nil {
		return nil, err
	}
	e.afterCommit(ctx, actionResync, "resync", entryID, *entry)
	return entry, nil
}
