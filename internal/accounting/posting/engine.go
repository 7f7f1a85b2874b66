package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
	platformShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// Config groups optional engine settings.
type Config struct {
	Timeout          time.Duration
	LegacyDefaultTax bool
	Metrics          MetricsPort
	Cache            CacheBumper
	Logger           *slog.Logger
}

// Engine posts business documents. Every operation runs in one transaction:
// either the entry, its lines, the document link and any stock movements are
// all committed, or nothing is.
type Engine struct {
	repo             RepositoryPort
	audit            AuditPort
	metrics          MetricsPort
	cache            CacheBumper
	logger           *slog.Logger
	timeout          time.Duration
	legacyDefaultTax bool
	poster           *journals.Poster
	stock            *inventory.Engine
	now              func() time.Time
}

// NewEngine builds Engine.
func NewEngine(repo RepositoryPort, audit AuditPort, cfg Config) *Engine {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repo:             repo,
		audit:            audit,
		metrics:          cfg.Metrics,
		cache:            cfg.Cache,
		logger:           logger,
		timeout:          timeout,
		legacyDefaultTax: cfg.LegacyDefaultTax,
		poster:           journals.NewPoster(),
		stock:            inventory.NewEngine(),
		now:              time.Now,
	}
}

// WithNow overrides the clock.
func (e *Engine) WithNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// CreateBillJournalEntry posts a purchase-cycle document and moves stock for
// its tracked items.
func (e *Engine) CreateBillJournalEntry(ctx context.Context, companyID, documentID int64) (*accounting.JournalEntry, error) {
	return e.run(ctx, actionPost, "bill", accounting.ModulePurchases, companyID, documentID, func(ctx context.Context, uow UnitOfWork) (*accounting.JournalEntry, error) {
		doc, err := uow.Repo.GetDocumentForUpdate(ctx, companyID, documentID)
		if err != nil {
			return nil, err
		}
		if doc.Cycle() != CyclePurchase {
			return nil, shared.Invalid("document_id", fmt.Sprintf("%s %s is not a purchase document", doc.Type, doc.Number))
		}
		return e.postDocument(ctx, uow, doc)
	})
}

// CreateDocumentJournalEntry posts any invoice, bill or note. Receipts,
// payments and voided documents produce no entry and return nil.
func (e *Engine) CreateDocumentJournalEntry(ctx context.Context, companyID, documentID int64) (*accounting.JournalEntry, error) {
	return e.run(ctx, actionPost, "document", "", companyID, documentID, func(ctx context.Context, uow UnitOfWork) (*accounting.JournalEntry, error) {
		doc, err := uow.Repo.GetDocumentForUpdate(ctx, companyID, documentID)
		if err != nil {
			return nil, err
		}
		switch {
		case doc.Type == DocumentReceipt, doc.Type == DocumentPayment, doc.Status == StatusVoid:
			return nil, nil
		}
		return e.postDocument(ctx, uow, doc)
	})
}

func (e *Engine) postDocument(ctx context.Context, uow UnitOfWork, doc Document) (*accounting.JournalEntry, error) {
	if doc.JournalEntryID != nil {
		return nil, shared.Invalid("document_id", fmt.Sprintf("%s %s is already posted", doc.Type, doc.Number))
	}
	var staged []inventory.Staged
	if doc.Cycle() == CyclePurchase {
		var err error
		if staged, err = e.stageStock(ctx, uow, doc); err != nil {
			return nil, err
		}
	}
	draft, err := NewBuilder(uow.Resolver, e.legacyDefaultTax).BuildDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	entry, err := e.poster.Post(ctx, uow.Journal, doc.CompanyID, draft)
	if err != nil {
		return nil, err
	}
	if err := uow.Repo.SetDocumentJournalEntry(ctx, doc.ID, entry.ID); err != nil {
		return nil, err
	}
	for _, s := range staged {
		if _, err := e.stock.Record(ctx, uow.Inventory, s, &entry.ID); err != nil {
			return nil, err
		}
	}
	return &entry, nil
}

// stageStock applies one movement per tracked item at the item's unit price.
// The purchase entry already carries the inventory debit, so the movements
// post no entry of their own; their rows are written once that entry exists.
func (e *Engine) stageStock(ctx context.Context, uow UnitOfWork, doc Document) ([]inventory.Staged, error) {
	var movementType inventory.MovementType
	switch doc.Type {
	case DocumentBill, DocumentDebitNote:
		movementType = inventory.MovementPurchase
	case DocumentCreditNote:
		movementType = inventory.MovementPurchaseReturn
	default:
		return nil, nil
	}
	var staged []inventory.Staged
	for _, item := range doc.Items {
		if !item.Tracked() {
			continue
		}
		docID := doc.ID
		s, err := e.stock.Stage(ctx, uow.Inventory, inventory.MovementInput{
			CompanyID:   doc.CompanyID,
			ProductID:   *item.ProductID,
			Date:        doc.PostingDate(),
			Type:        movementType,
			Quantity:    item.Quantity,
			UnitCost:    item.UnitPrice,
			DocumentID:  &docID,
			Description: fmt.Sprintf("%s %s", doc.Type, doc.Number),
		})
		if err != nil {
			return nil, fmt.Errorf("posting: stock for %q: %w", item.Description, err)
		}
		if !s.NoOp {
			staged = append(staged, s)
		}
	}
	return staged, nil
}

// CreatePaymentJournalEntry posts a customer collection deposited into
// exactly one of a bank account or a cash account.
func (e *Engine) CreatePaymentJournalEntry(ctx context.Context, companyID, receiptID int64, target PaymentTarget) (*accounting.JournalEntry, error) {
	if (target.BankAccountID == nil) == (target.CashAccountID == nil) {
		return nil, shared.Invalid("target", "exactly one of bank_account_id or cash_account_id required")
	}
	return e.run(ctx, actionPost, "payment", accounting.ModuleSales, companyID, receiptID, func(ctx context.Context, uow UnitOfWork) (*accounting.JournalEntry, error) {
		receipt, err := uow.Repo.GetReceiptForUpdate(ctx, companyID, receiptID)
		if err != nil {
			return nil, err
		}
		if receipt.JournalEntryID != nil {
			return nil, shared.Invalid("receipt_id", fmt.Sprintf("receipt %s is already posted", receipt.Number))
		}
		tp, err := uow.Repo.GetThirdParty(ctx, companyID, receipt.ThirdPartyID)
		if err != nil {
			return nil, err
		}
		deposit, err := depositAccount(ctx, uow, companyID, target)
		if err != nil {
			return nil, err
		}
		draft, err := NewBuilder(uow.Resolver, e.legacyDefaultTax).BuildPayment(ctx, receipt, tp, deposit)
		if err != nil {
			return nil, err
		}
		entry, err := e.poster.Post(ctx, uow.Journal, companyID, draft)
		if err != nil {
			return nil, err
		}
		if err := uow.Repo.SetReceiptJournalEntry(ctx, receipt.ID, entry.ID); err != nil {
			return nil, err
		}
		return &entry, nil
	})
}

func depositAccount(ctx context.Context, uow UnitOfWork, companyID int64, target PaymentTarget) (int64, error) {
	if target.CashAccountID != nil {
		return *target.CashAccountID, nil
	}
	bank, err := uow.Repo.GetBankAccount(ctx, companyID, *target.BankAccountID)
	if err != nil {
		return 0, err
	}
	if bank.GLAccountID == nil {
		return 0, shared.Missing("bank account "+bank.Name, bank.ID, "gl_account_id")
	}
	return *bank.GLAccountID, nil
}

// CreateWithholdingJournalEntry posts a retention certificate received from a customer.
func (e *Engine) CreateWithholdingJournalEntry(ctx context.Context, companyID, withholdingID int64) (*accounting.JournalEntry, error) {
	return e.run(ctx, actionPost, "withholding", accounting.ModuleFiscal, companyID, withholdingID, func(ctx context.Context, uow UnitOfWork) (*accounting.JournalEntry, error) {
		wh, err := uow.Repo.GetWithholdingForUpdate(ctx, companyID, withholdingID)
		if err != nil {
			return nil, err
		}
		if wh.JournalEntryID != nil {
			return nil, shared.Invalid("withholding_id", fmt.Sprintf("certificate %s is already posted", wh.CertificateNumber))
		}
		tp, err := uow.Repo.GetThirdParty(ctx, companyID, wh.ThirdPartyID)
		if err != nil {
			return nil, err
		}
		draft, err := NewBuilder(uow.Resolver, e.legacyDefaultTax).BuildWithholding(ctx, wh, tp)
		if err != nil {
			return nil, err
		}
		entry, err := e.poster.Post(ctx, uow.Journal, companyID, draft)
		if err != nil {
			return nil, err
		}
		if err := uow.Repo.SetWithholdingJournalEntry(ctx, wh.ID, entry.ID); err != nil {
			return nil, err
		}
		return &entry, nil
	})
}

// CreateBankTransactionJournalEntry posts a bank statement movement.
func (e *Engine) CreateBankTransactionJournalEntry(ctx context.Context, companyID, transactionID int64) (*accounting.JournalEntry, error) {
	return e.run(ctx, actionPost, "bank_transaction", accounting.ModuleBank, companyID, transactionID, func(ctx context.Context, uow UnitOfWork) (*accounting.JournalEntry, error) {
		txn, err := uow.Repo.GetBankTransactionForUpdate(ctx, companyID, transactionID)
		if err != nil {
			return nil, err
		}
		if txn.JournalEntryID != nil {
			return nil, shared.Invalid("transaction_id", fmt.Sprintf("bank transaction %d is already posted", txn.ID))
		}
		bank, err := uow.Repo.GetBankAccount(ctx, companyID, txn.BankAccountID)
		if err != nil {
			return nil, err
		}
		draft, err := NewBuilder(uow.Resolver, e.legacyDefaultTax).BuildBankTransaction(ctx, txn, bank)
		if err != nil {
			return nil, err
		}
		entry, err := e.poster.Post(ctx, uow.Journal, companyID, draft)
		if err != nil {
			return nil, err
		}
		if err := uow.Repo.SetBankTransactionJournalEntry(ctx, txn.ID, entry.ID); err != nil {
			return nil, err
		}
		return &entry, nil
	})
}

// Audit actions.
const (
	actionPost   = "journal.post"
	actionResync = "journal.resync"
)

type postFunc func(ctx context.Context, uow UnitOfWork) (*accounting.JournalEntry, error)

// run executes fn in a transaction with the posting timeout, then records
// metrics, the audit trail and the report cache bump.
func (e *Engine) run(ctx context.Context, action, op string, module accounting.Module, companyID, sourceID int64, fn postFunc) (*accounting.JournalEntry, error) {
	if companyID == 0 {
		return nil, shared.Invalid("company_id", "required")
	}
	entry, err := e.execute(ctx, op, module, companyID, sourceID, fn)
	if err != nil || entry == nil {
		return nil, err
	}
	e.afterCommit(ctx, action, op, sourceID, *entry)
	return entry, nil
}

func (e *Engine) execute(ctx context.Context, op string, module accounting.Module, companyID, sourceID int64, fn postFunc) (*accounting.JournalEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := e.now()
	var entry *accounting.JournalEntry
	err := e.repo.WithTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		entry, err = fn(ctx, uow)
		return err
	})
	if entry != nil {
		module = entry.SourceModule
	}
	if e.metrics != nil {
		label := string(module)
		if label == "" {
			label = "-"
		}
		e.metrics.ObservePosting(label, err, e.now().Sub(start))
	}
	if err != nil {
		e.logFailure(op, companyID, sourceID, err)
		return nil, err
	}
	return entry, nil
}

func (e *Engine) logFailure(op string, companyID, sourceID int64, err error) {
	attrs := []any{
		slog.String("operation", op),
		slog.Int64("company_id", companyID),
		slog.Int64("source_id", sourceID),
		slog.Any("error", err),
	}
	if errors.Is(err, shared.ErrUnbalanced) {
		e.logger.Error("posting produced an unbalanced entry", attrs...)
		return
	}
	e.logger.Warn("posting rejected", attrs...)
}

func (e *Engine) afterCommit(ctx context.Context, action, op string, sourceID int64, entry accounting.JournalEntry) {
	ctx = context.WithoutCancel(ctx)
	companyID := entry.CompanyID
	e.logger.Info("journal entry committed",
		slog.String("operation", op),
		slog.Int64("company_id", companyID),
		slog.String("number", entry.Number),
		slog.Int("lines", len(entry.Lines)))
	if e.cache != nil {
		if err := e.cache.Bump(ctx, companyID); err != nil {
			e.logger.Warn("report cache bump failed", slog.Any("error", err))
		}
	}
	if e.audit == nil {
		return
	}
	debit, credit := accounting.Totals(entry.Lines)
	err := e.audit.Record(ctx, platformShared.AuditLog{
		CompanyID: companyID,
		ActorID:   platformShared.ActorFromContext(ctx),
		Action:    action,
		Entity:    "journal_entry",
		EntityID:  fmt.Sprintf("%d", entry.ID),
		Meta: map[string]any{
			"number":    entry.Number,
			"operation": op,
			"source_id": sourceID,
			"debit":     debit.StringFixed(2),
			"credit":    credit.StringFixed(2),
		},
		At: e.now(),
	})
	if err != nil {
		e.logger.Warn("audit record failed", slog.Any("error", err))
	}
}
