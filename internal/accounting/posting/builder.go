package posting

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/taxes"
)

// IGTFRate is the tax on foreign currency bank movements.
var IGTFRate = decimal.New(3, -2)

// Line descriptions shown on the ledger.
const (
	descPurchase     = "Compra: "
	descSale         = "Venta: "
	descFiscalCredit = "IVA Crédito Fiscal"
	descFiscalDebit  = "IVA Débito Fiscal"
	descPayable      = "Cuentas por Pagar"
	descReceivable   = "Cuentas por Cobrar"
	descWithholding  = "Retención "
	descCreditNote   = "(NC) "
	descIGTF         = "IGTF 3%"
)

// AccountResolver is the read-only lookup surface the builder needs.
type AccountResolver interface {
	TaxAccount(ctx context.Context, companyID, taxID int64, direction taxes.Direction) (int64, error)
	WithholdingAccount(ctx context.Context, companyID int64, t taxes.Type) (int64, error)
	DefaultTax(ctx context.Context, companyID int64) (taxes.Tax, error)
	MappedAccount(ctx context.Context, companyID int64, module, key string) (int64, error)
}

// Builder computes journal lines from loaded documents. It performs no writes.
type Builder struct {
	resolver         AccountResolver
	legacyDefaultTax bool
}

// NewBuilder constructs a Builder. legacyDefaultTax enables attributing
// unassigned document tax to the company's default IVA tax.
func NewBuilder(resolver AccountResolver, legacyDefaultTax bool) *Builder {
	return &Builder{resolver: resolver, legacyDefaultTax: legacyDefaultTax}
}

// BuildDocument dispatches on document type and cycle.
func (b *Builder) BuildDocument(ctx context.Context, doc Document) (accounting.Draft, error) {
	switch doc.Type {
	case DocumentReceipt, DocumentPayment:
		return accounting.Draft{}, shared.Invalid("type", fmt.Sprintf("%s documents are posted through receipts", doc.Type))
	}
	switch doc.Cycle() {
	case CyclePurchase:
		return b.BuildPurchase(ctx, doc)
	case CycleSale:
		return b.BuildSale(ctx, doc)
	}
	return accounting.Draft{}, shared.Invalid("bill_type", fmt.Sprintf("%s %s has no purchase or sale cycle", doc.Type, doc.Number))
}

// BuildPurchase builds a bill, purchase debit note or purchase credit note.
// Lines: item nets, tax groups, net payable, then one line per withholding.
// A credit note is the same line set with sides swapped.
func (b *Builder) BuildPurchase(ctx context.Context, doc Document) (accounting.Draft, error) {
	if err := checkDocument(doc); err != nil {
		return accounting.Draft{}, err
	}
	tp := doc.ThirdParty
	if tp.PayableAccountID == nil {
		return accounting.Draft{}, shared.Missing("third party "+tp.Name, tp.ID, "payable_account_id")
	}
	withheld := decimal.Zero
	for _, wh := range doc.Withholdings {
		withheld = withheld.Add(wh.Amount)
	}
	payable := doc.Total.Sub(withheld)
	if payable.IsNegative() {
		return accounting.Draft{}, shared.Invalid("withholdings", fmt.Sprintf("withholdings %s exceed document total %s", withheld.StringFixed(2), doc.Total.StringFixed(2)))
	}

	var lines []accounting.JournalLine
	for _, item := range doc.Items {
		if item.GLAccountID == nil {
			return accounting.Draft{}, shared.Missing("document item "+item.Description, item.ID, "gl_account_id")
		}
		lines = appendNonZero(lines, accounting.Debit(*item.GLAccountID, item.Net(), descPurchase+item.Description))
	}
	taxLines, err := b.taxLines(ctx, doc, taxes.DirectionPurchase, descFiscalCredit)
	if err != nil {
		return accounting.Draft{}, err
	}
	lines = append(lines, taxLines...)
	lines = appendNonZero(lines, accounting.Credit(*tp.PayableAccountID, payable, descPayable))
	for _, wh := range doc.Withholdings {
		account, err := b.resolver.WithholdingAccount(ctx, doc.CompanyID, wh.Type)
		if err != nil {
			return accounting.Draft{}, err
		}
		lines = appendNonZero(lines, accounting.Credit(account, wh.Amount, descWithholding+wh.CertificateNumber))
	}

	description := fmt.Sprintf("Factura de compra %s - %s", doc.Number, tp.Name)
	switch doc.Type {
	case DocumentDebitNote:
		description = fmt.Sprintf("Nota de débito %s - %s", doc.Number, tp.Name)
	case DocumentCreditNote:
		lines = invert(lines)
		description = fmt.Sprintf("%sNota de crédito %s - %s", descCreditNote, doc.Number, tp.Name)
	}
	return finish(accounting.Draft{Module: accounting.ModulePurchases, Date: doc.PostingDate(), Description: description, Lines: lines})
}

// BuildSale builds an invoice or a sales note: receivable against income and
// fiscal debit. Customer retentions post separately through their certificate.
func (b *Builder) BuildSale(ctx context.Context, doc Document) (accounting.Draft, error) {
	if err := checkDocument(doc); err != nil {
		return accounting.Draft{}, err
	}
	tp := doc.ThirdParty
	if tp.ReceivableAccountID == nil {
		return accounting.Draft{}, shared.Missing("third party "+tp.Name, tp.ID, "receivable_account_id")
	}
	lines := appendNonZero(nil, accounting.Debit(*tp.ReceivableAccountID, doc.Total, descReceivable))
	for _, item := range doc.Items {
		income := item.GLAccountID
		if income == nil {
			income = item.IncomeAccountID
		}
		if income == nil {
			return accounting.Draft{}, shared.Missing("document item "+item.Description, item.ID, "gl_account_id")
		}
		lines = appendNonZero(lines, accounting.Credit(*income, item.Net(), descSale+item.Description))
	}
	taxLines, err := b.taxLines(ctx, doc, taxes.DirectionSale, descFiscalDebit)
	if err != nil {
		return accounting.Draft{}, err
	}
	lines = append(lines, taxLines...)

	description := fmt.Sprintf("Factura de venta %s - %s", doc.Number, tp.Name)
	switch doc.Type {
	case DocumentDebitNote:
		description = fmt.Sprintf("Nota de débito %s - %s", doc.Number, tp.Name)
	case DocumentCreditNote:
		lines = invert(lines)
		description = fmt.Sprintf("%sNota de crédito %s - %s", descCreditNote, doc.Number, tp.Name)
	}
	return finish(accounting.Draft{Module: accounting.ModuleSales, Date: doc.PostingDate(), Description: description, Lines: lines})
}

// taxLines emits one line per tax_id in order of first appearance, debit for
// purchases and credit for sales.
func (b *Builder) taxLines(ctx context.Context, doc Document, direction taxes.Direction, description string) ([]accounting.JournalLine, error) {
	var order []int64
	sums := map[int64]decimal.Decimal{}
	for _, item := range doc.Items {
		if item.TaxID == nil {
			continue
		}
		if _, ok := sums[*item.TaxID]; !ok {
			order = append(order, *item.TaxID)
			sums[*item.TaxID] = decimal.Zero
		}
		sums[*item.TaxID] = sums[*item.TaxID].Add(item.TaxAmount)
	}
	line := func(account int64, amount decimal.Decimal) accounting.JournalLine {
		if direction == taxes.DirectionPurchase {
			return accounting.Debit(account, amount, description)
		}
		return accounting.Credit(account, amount, description)
	}

	if len(order) == 0 {
		if !doc.TaxAmount.IsPositive() {
			return nil, nil
		}
		if !b.legacyDefaultTax {
			return nil, shared.Invalid("items", fmt.Sprintf("tax amount %s of %s is not attributed to any tax; set tax_id on the items", doc.TaxAmount.StringFixed(2), doc.Number))
		}
		tax, err := b.resolver.DefaultTax(ctx, doc.CompanyID)
		if err != nil {
			return nil, err
		}
		account, err := taxes.AccountFor(tax, direction)
		if err != nil {
			return nil, err
		}
		return []accounting.JournalLine{line(account, doc.TaxAmount)}, nil
	}

	var lines []accounting.JournalLine
	for _, taxID := range order {
		if sums[taxID].IsZero() {
			continue
		}
		account, err := b.resolver.TaxAccount(ctx, doc.CompanyID, taxID, direction)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line(account, sums[taxID]))
	}
	return lines, nil
}

func checkDocument(doc Document) error {
	if doc.Total.IsZero() {
		return shared.Invalid("total", fmt.Sprintf("%s %s has a zero total", doc.Type, doc.Number))
	}
	if doc.Total.IsNegative() {
		return shared.Invalid("total", fmt.Sprintf("%s %s has a negative total %s; credit notes carry positive amounts", doc.Type, doc.Number, doc.Total.StringFixed(2)))
	}
	if len(doc.Items) == 0 {
		return shared.Invalid("items", fmt.Sprintf("%s %s has no items", doc.Type, doc.Number))
	}
	return nil
}

func appendNonZero(lines []accounting.JournalLine, line accounting.JournalLine) []accounting.JournalLine {
	if line.Debit.IsZero() && line.Credit.IsZero() {
		return lines
	}
	return append(lines, line)
}

func invert(lines []accounting.JournalLine) []accounting.JournalLine {
	out := make([]accounting.JournalLine, len(lines))
	for i, line := range lines {
		line = line.Swap()
		line.Description = descCreditNote + line.Description
		out[i] = line
	}
	return out
}

func finish(draft accounting.Draft) (accounting.Draft, error) {
	if err := accounting.CheckBalance(draft.Lines); err != nil {
		return accounting.Draft{}, err
	}
	return draft, nil
}
