package posting

import (
	"context"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/taxes"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
	platformShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// TxRepository loads and links source documents inside the posting transaction.
// The ForUpdate loaders lock the header row.
type TxRepository interface {
	GetDocumentForUpdate(ctx context.Context, companyID, documentID int64) (Document, error)
	SetDocumentJournalEntry(ctx context.Context, documentID, entryID int64) error
	GetReceiptForUpdate(ctx context.Context, companyID, receiptID int64) (Receipt, error)
	SetReceiptJournalEntry(ctx context.Context, receiptID, entryID int64) error
	GetThirdParty(ctx context.Context, companyID, id int64) (ThirdParty, error)
	GetWithholdingForUpdate(ctx context.Context, companyID, id int64) (Withholding, error)
	SetWithholdingJournalEntry(ctx context.Context, id, entryID int64) error
	GetBankAccount(ctx context.Context, companyID, id int64) (BankAccount, error)
	GetBankTransactionForUpdate(ctx context.Context, companyID, id int64) (BankTransaction, error)
	SetBankTransactionJournalEntry(ctx context.Context, id, entryID int64) error
	// DocumentsByJournalEntry lists ids of documents pointing at the entry.
	DocumentsByJournalEntry(ctx context.Context, entryID int64) ([]int64, error)
	GetJournalEntryForUpdate(ctx context.Context, entryID int64) (accounting.JournalEntry, error)
	ReplaceJournalLines(ctx context.Context, entryID int64, date time.Time, description string, lines []accounting.JournalLine) ([]accounting.JournalLine, error)
}

// UnitOfWork is everything a posting touches, bound to one transaction.
type UnitOfWork struct {
	Repo      TxRepository
	Resolver  AccountResolver
	Journal   journals.Ports
	Inventory inventory.Ports
}

// RepositoryPort opens units of work.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, UnitOfWork) error) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log platformShared.AuditLog) error
}

// MetricsPort receives posting observations.
type MetricsPort interface {
	ObservePosting(module string, err error, elapsed time.Duration)
}

// CacheBumper invalidates cached reports of a company.
type CacheBumper interface {
	Bump(ctx context.Context, companyID int64) error
}

// MappingLookup resolves configured integration accounts.
type MappingLookup interface {
	Get(ctx context.Context, companyID int64, module, key string) (mappings.AccountMapping, error)
}

// TaxResolver combines tax account rules with integration mappings.
type TaxResolver struct {
	*taxes.Resolver
	mappings MappingLookup
}

// NewAccountResolver builds the resolver used by the builder.
func NewAccountResolver(taxResolver *taxes.Resolver, lookup MappingLookup) *TaxResolver {
	return &TaxResolver{Resolver: taxResolver, mappings: lookup}
}

// MappedAccount returns the account configured for module and key.
func (r *TaxResolver) MappedAccount(ctx context.Context, companyID int64, module, key string) (int64, error) {
	mapping, err := r.mappings.Get(ctx, companyID, module, key)
	if err != nil {
		return 0, err
	}
	return mapping.AccountID, nil
}
