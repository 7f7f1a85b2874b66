package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/correlative"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/taxes"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Repository opens posting units of work on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, UnitOfWork) error) error {
	if r == nil {
		return errors.New("posting repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewUnitOfWork(tx))
	})
}

// NewUnitOfWork binds every posting store to tx.
func NewUnitOfWork(tx pgx.Tx) UnitOfWork {
	mappingRepo := mappings.NewRepository(tx)
	return UnitOfWork{
		Repo:      &txRepository{tx: tx, journals: accounting.NewTxJournals(tx)},
		Resolver:  NewAccountResolver(taxes.NewResolver(taxes.NewRepository(tx), correlative.NewTxStore(tx)), mappingRepo),
		Journal:   journals.TxPorts(tx),
		Inventory: inventory.TxPorts(tx),
	}
}

type txRepository struct {
	tx       pgx.Tx
	journals *accounting.TxJournals
}

const documentColumns = `id, company_id, third_party_id, type, COALESCE(bill_type, ''), date, accounting_date, due_date,
number, subtotal, tax_amount, total, balance, status, journal_entry_id`

func (r *txRepository) GetDocumentForUpdate(ctx context.Context, companyID, documentID int64) (Document, error) {
	var doc Document
	err := r.tx.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE company_id=$1 AND id=$2 FOR UPDATE`, companyID, documentID).
		Scan(&doc.ID, &doc.CompanyID, &doc.ThirdPartyID, &doc.Type, &doc.BillType, &doc.Date, &doc.AccountingDate, &doc.DueDate,
			&doc.Number, &doc.Subtotal, &doc.TaxAmount, &doc.Total, &doc.Balance, &doc.Status, &doc.JournalEntryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, shared.NotFound("document", documentID)
	}
	if err != nil {
		return Document{}, fmt.Errorf("posting: load document: %w", err)
	}
	if doc.ThirdParty, err = r.GetThirdParty(ctx, companyID, doc.ThirdPartyID); err != nil {
		return Document{}, err
	}
	if doc.Items, err = r.documentItems(ctx, doc.ID); err != nil {
		return Document{}, err
	}
	if doc.Withholdings, err = r.documentWithholdings(ctx, companyID, doc.ID); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (r *txRepository) documentItems(ctx context.Context, documentID int64) ([]DocumentItem, error) {
	rows, err := r.tx.Query(ctx, `SELECT i.id, i.document_id, i.product_id, i.description, i.quantity, i.unit_price,
i.tax_id, i.tax_rate, i.tax_amount, i.vat_retention_rate, i.vat_retention_amount, i.islr_rate, i.islr_amount,
i.total, i.gl_account_id, COALESCE(p.type, ''), COALESCE(p.track_inventory, false), p.income_account_id
FROM document_items i LEFT JOIN products p ON p.id = i.product_id
WHERE i.document_id=$1 ORDER BY i.id ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DocumentItem
	for rows.Next() {
		var it DocumentItem
		if err := rows.Scan(&it.ID, &it.DocumentID, &it.ProductID, &it.Description, &it.Quantity, &it.UnitPrice,
			&it.TaxID, &it.TaxRate, &it.TaxAmount, &it.VATRetentionRate, &it.VATRetentionAmount, &it.ISLRRate, &it.ISLRAmount,
			&it.Total, &it.GLAccountID, &it.ProductType, &it.TrackInventory, &it.IncomeAccountID); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const withholdingColumns = `id, company_id, document_id, third_party_id, type, date, COALESCE(certificate_number, ''),
base_amount, rate, amount, direction, journal_entry_id`

func scanWithholding(row pgx.Row) (Withholding, error) {
	var wh Withholding
	err := row.Scan(&wh.ID, &wh.CompanyID, &wh.DocumentID, &wh.ThirdPartyID, &wh.Type, &wh.Date, &wh.CertificateNumber,
		&wh.BaseAmount, &wh.Rate, &wh.Amount, &wh.Direction, &wh.JournalEntryID)
	return wh, err
}

func (r *txRepository) documentWithholdings(ctx context.Context, companyID, documentID int64) ([]Withholding, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+withholdingColumns+` FROM withholdings
WHERE company_id=$1 AND document_id=$2 ORDER BY id ASC`, companyID, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Withholding
	for rows.Next() {
		wh, err := scanWithholding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wh)
	}
	return out, rows.Err()
}

func (r *txRepository) SetDocumentJournalEntry(ctx context.Context, documentID, entryID int64) error {
	return r.link(ctx, "documents", documentID, entryID)
}

func (r *txRepository) GetReceiptForUpdate(ctx context.Context, companyID, receiptID int64) (Receipt, error) {
	var rc Receipt
	err := r.tx.QueryRow(ctx, `SELECT id, company_id, third_party_id, number, date, amount, journal_entry_id
FROM receipts WHERE company_id=$1 AND id=$2 FOR UPDATE`, companyID, receiptID).
		Scan(&rc.ID, &rc.CompanyID, &rc.ThirdPartyID, &rc.Number, &rc.Date, &rc.Amount, &rc.JournalEntryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Receipt{}, shared.NotFound("receipt", receiptID)
	}
	return rc, err
}

func (r *txRepository) SetReceiptJournalEntry(ctx context.Context, receiptID, entryID int64) error {
	return r.link(ctx, "receipts", receiptID, entryID)
}

func (r *txRepository) GetThirdParty(ctx context.Context, companyID, id int64) (ThirdParty, error) {
	var tp ThirdParty
	err := r.tx.QueryRow(ctx, `SELECT id, company_id, name, rif, receivable_account_id, payable_account_id
FROM third_parties WHERE company_id=$1 AND id=$2`, companyID, id).
		Scan(&tp.ID, &tp.CompanyID, &tp.Name, &tp.RIF, &tp.ReceivableAccountID, &tp.PayableAccountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ThirdParty{}, shared.NotFound("third party", id)
	}
	return tp, err
}

func (r *txRepository) GetWithholdingForUpdate(ctx context.Context, companyID, id int64) (Withholding, error) {
	wh, err := scanWithholding(r.tx.QueryRow(ctx, `SELECT `+withholdingColumns+` FROM withholdings
WHERE company_id=$1 AND id=$2 FOR UPDATE`, companyID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Withholding{}, shared.NotFound("withholding", id)
	}
	return wh, err
}

func (r *txRepository) SetWithholdingJournalEntry(ctx context.Context, id, entryID int64) error {
	return r.link(ctx, "withholdings", id, entryID)
}

func (r *txRepository) GetBankAccount(ctx context.Context, companyID, id int64) (BankAccount, error) {
	var b BankAccount
	err := r.tx.QueryRow(ctx, `SELECT id, company_id, name, gl_account_id FROM bank_accounts WHERE company_id=$1 AND id=$2`, companyID, id).
		Scan(&b.ID, &b.CompanyID, &b.Name, &b.GLAccountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return BankAccount{}, shared.NotFound("bank account", id)
	}
	return b, err
}

func (r *txRepository) GetBankTransactionForUpdate(ctx context.Context, companyID, id int64) (BankTransaction, error) {
	var t BankTransaction
	err := r.tx.QueryRow(ctx, `SELECT id, company_id, bank_account_id, type, date, amount, COALESCE(description, ''),
COALESCE(reference, ''), contra_account_id, apply_igtf, journal_entry_id
FROM bank_transactions WHERE company_id=$1 AND id=$2 FOR UPDATE`, companyID, id).
		Scan(&t.ID, &t.CompanyID, &t.BankAccountID, &t.Type, &t.Date, &t.Amount, &t.Description,
			&t.Reference, &t.ContraAccountID, &t.ApplyIGTF, &t.JournalEntryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return BankTransaction{}, shared.NotFound("bank transaction", id)
	}
	return t, err
}

func (r *txRepository) SetBankTransactionJournalEntry(ctx context.Context, id, entryID int64) error {
	return r.link(ctx, "bank_transactions", id, entryID)
}

func (r *txRepository) DocumentsByJournalEntry(ctx context.Context, entryID int64) ([]int64, error) {
	rows, err := r.tx.Query(ctx, `SELECT id FROM documents WHERE journal_entry_id=$1 ORDER BY id`, entryID)
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

func (r *txRepository) GetJournalEntryForUpdate(ctx context.Context, entryID int64) (accounting.JournalEntry, error) {
	return r.journals.GetJournalEntry(ctx, entryID)
}

func (r *txRepository) ReplaceJournalLines(ctx context.Context, entryID int64, date time.Time, description string, lines []accounting.JournalLine) ([]accounting.JournalLine, error) {
	return r.journals.ReplaceJournalLines(ctx, entryID, date, description, lines)
}

// link sets journal_entry_id on a source row. table is always a constant.
func (r *txRepository) link(ctx context.Context, table string, id, entryID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE `+table+` SET journal_entry_id=$2, updated_at=NOW() WHERE id=$1`, id, entryID)
	if err != nil {
		return fmt.Errorf("posting: link %s: %w", table, err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound(table, id)
	}
	return nil
}
