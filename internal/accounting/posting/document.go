// Package posting turns business documents into balanced, numbered journal entries.
package posting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/taxes"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
)

// DocumentType enumerates commercial documents.
type DocumentType string

const (
	DocumentInvoice    DocumentType = "INVOICE"
	DocumentBill       DocumentType = "BILL"
	DocumentCreditNote DocumentType = "CREDIT_NOTE"
	DocumentDebitNote  DocumentType = "DEBIT_NOTE"
	DocumentReceipt    DocumentType = "RECEIPT"
	DocumentPayment    DocumentType = "PAYMENT"
)

// Cycle says whether a document belongs to purchases or sales.
type Cycle string

const (
	CyclePurchase Cycle = "PURCHASE"
	CycleSale     Cycle = "SALE"
)

// DocumentStatus enumerates collection states.
type DocumentStatus string

const (
	StatusPending DocumentStatus = "PENDING"
	StatusPartial DocumentStatus = "PARTIAL"
	StatusPaid    DocumentStatus = "PAID"
	StatusVoid    DocumentStatus = "VOID"
)

// Direction of a withholding certificate.
type Direction string

const (
	// DirectionIssued certificates are issued by the company to suppliers.
	DirectionIssued Direction = "ISSUED"
	// DirectionReceived certificates are received from customers.
	DirectionReceived Direction = "RECEIVED"
)

// ThirdParty is a customer, supplier or both.
type ThirdParty struct {
	ID                  int64
	CompanyID           int64
	Name                string
	RIF                 string
	ReceivableAccountID *int64
	PayableAccountID    *int64
}

// DocumentItem is one priced line of a document.
type DocumentItem struct {
	ID                 int64
	DocumentID         int64
	ProductID          *int64
	Description        string
	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal
	TaxID              *int64
	TaxRate            decimal.Decimal
	TaxAmount          decimal.Decimal
	VATRetentionRate   decimal.Decimal
	VATRetentionAmount decimal.Decimal
	ISLRRate           decimal.Decimal
	ISLRAmount         decimal.Decimal
	Total              decimal.Decimal
	GLAccountID        *int64

	// Joined from the product, when there is one.
	ProductType     inventory.ProductType
	TrackInventory  bool
	IncomeAccountID *int64
}

// Net is the item total before tax.
func (i DocumentItem) Net() decimal.Decimal {
	return i.Total.Sub(i.TaxAmount)
}

// Tracked reports whether the item moves stock.
func (i DocumentItem) Tracked() bool {
	return i.ProductID != nil && i.ProductType == inventory.ProductTypeGoods && i.TrackInventory
}

// Withholding is a VAT or income tax retention certificate.
type Withholding struct {
	ID                int64
	CompanyID         int64
	DocumentID        *int64
	ThirdPartyID      int64
	Type              taxes.Type
	Date              time.Time
	CertificateNumber string
	BaseAmount        decimal.Decimal
	Rate              decimal.Decimal
	Amount            decimal.Decimal
	Direction         Direction
	JournalEntryID    *int64
}

// Document generalizes invoices, bills and notes.
type Document struct {
	ID             int64
	CompanyID      int64
	ThirdPartyID   int64
	Type           DocumentType
	BillType       Cycle
	Date           time.Time
	AccountingDate *time.Time
	DueDate        *time.Time
	Number         string
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	Balance        decimal.Decimal
	Status         DocumentStatus
	JournalEntryID *int64

	ThirdParty   ThirdParty
	Items        []DocumentItem
	Withholdings []Withholding
}

// Cycle returns the explicit bill type, defaulting from the document type.
func (d Document) Cycle() Cycle {
	if d.BillType != "" {
		return d.BillType
	}
	switch d.Type {
	case DocumentBill:
		return CyclePurchase
	case DocumentInvoice:
		return CycleSale
	}
	return ""
}

// PostingDate is the accounting date when set, else the document date.
func (d Document) PostingDate() time.Time {
	if d.AccountingDate != nil && !d.AccountingDate.IsZero() {
		return *d.AccountingDate
	}
	return d.Date
}

// Resyncable reports whether the document's entry may be rebuilt from it.
func (d Document) Resyncable() bool {
	return d.Type == DocumentBill || (d.Type == DocumentCreditNote && d.Cycle() == CyclePurchase)
}

// Receipt is a customer collection.
type Receipt struct {
	ID             int64
	CompanyID      int64
	ThirdPartyID   int64
	Number         string
	Date           time.Time
	Amount         decimal.Decimal
	JournalEntryID *int64
}

// BankAccount links a bank account to its ledger account.
type BankAccount struct {
	ID          int64
	CompanyID   int64
	Name        string
	GLAccountID *int64
}

// BankTransactionType enumerates bank statement movements.
type BankTransactionType string

const (
	BankDebit      BankTransactionType = "DEBIT"
	BankCredit     BankTransactionType = "CREDIT"
	BankDebitNote  BankTransactionType = "DEBIT_NOTE"
	BankCreditNote BankTransactionType = "CREDIT_NOTE"
)

// Direction maps notes onto the movement they post as. A bank debit note
// increases the balance like DEBIT, a credit note decreases it like CREDIT.
// TODO: confirm the note directions with the product owner; historical
// entries were posted this way, so any change needs a data migration.
func (t BankTransactionType) Direction() BankTransactionType {
	switch t {
	case BankDebitNote:
		return BankDebit
	case BankCreditNote:
		return BankCredit
	}
	return t
}

// BankTransaction is a bank statement movement.
type BankTransaction struct {
	ID              int64
	CompanyID       int64
	BankAccountID   int64
	Type            BankTransactionType
	Date            time.Time
	Amount          decimal.Decimal
	Description     string
	Reference       string
	ContraAccountID *int64
	ApplyIGTF       bool
	JournalEntryID  *int64
}

// PaymentTarget is where a collection is deposited: a bank account or a cash GL account.
type PaymentTarget struct {
	BankAccountID *int64 `json:"bank_account_id,omitempty"`
	CashAccountID *int64 `json:"cash_account_id,omitempty"`
}
