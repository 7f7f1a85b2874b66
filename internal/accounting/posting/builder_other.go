package posting

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// BuildPayment debits the deposit account and credits the customer receivable.
func (b *Builder) BuildPayment(ctx context.Context, receipt Receipt, tp ThirdParty, depositAccountID int64) (accounting.Draft, error) {
	if !receipt.Amount.IsPositive() {
		return accounting.Draft{}, shared.Invalid("amount", fmt.Sprintf("receipt %s amount must be positive", receipt.Number))
	}
	if tp.ReceivableAccountID == nil {
		return accounting.Draft{}, shared.Missing("third party "+tp.Name, tp.ID, "receivable_account_id")
	}
	return finish(accounting.Draft{
		Module:      accounting.ModuleSales,
		Date:        receipt.Date,
		Description: fmt.Sprintf("Cobranza %s - %s", receipt.Number, tp.Name),
		Lines: []accounting.JournalLine{
			accounting.Debit(depositAccountID, receipt.Amount, "Cobro "+receipt.Number),
			accounting.Credit(*tp.ReceivableAccountID, receipt.Amount, descReceivable),
		},
	})
}

// BuildWithholding posts a received retention certificate against the
// customer receivable.
func (b *Builder) BuildWithholding(ctx context.Context, wh Withholding, tp ThirdParty) (accounting.Draft, error) {
	if !wh.Amount.IsPositive() {
		return accounting.Draft{}, shared.Invalid("amount", fmt.Sprintf("withholding %s amount must be positive", wh.CertificateNumber))
	}
	if wh.Direction == DirectionIssued && wh.DocumentID != nil {
		return accounting.Draft{}, shared.Invalid("withholding", fmt.Sprintf("issued certificate %s posts with its bill", wh.CertificateNumber))
	}
	account, err := b.resolver.WithholdingAccount(ctx, wh.CompanyID, wh.Type)
	if err != nil {
		return accounting.Draft{}, err
	}
	if tp.ReceivableAccountID == nil {
		return accounting.Draft{}, shared.Missing("third party "+tp.Name, tp.ID, "receivable_account_id")
	}
	return finish(accounting.Draft{
		Module:      accounting.ModuleFiscal,
		Date:        wh.Date,
		Description: fmt.Sprintf("Comprobante de retención %s - %s", wh.CertificateNumber, tp.Name),
		Lines: []accounting.JournalLine{
			accounting.Debit(account, wh.Amount, descWithholding+wh.CertificateNumber),
			accounting.Credit(*tp.ReceivableAccountID, wh.Amount, descReceivable),
		},
	})
}

// BuildBankTransaction posts a statement movement against its contra account,
// plus the IGTF charge when flagged.
func (b *Builder) BuildBankTransaction(ctx context.Context, txn BankTransaction, bank BankAccount) (accounting.Draft, error) {
	if !txn.Amount.IsPositive() {
		return accounting.Draft{}, shared.Invalid("amount", "bank transaction amount must be positive")
	}
	if bank.GLAccountID == nil {
		return accounting.Draft{}, shared.Missing("bank account "+bank.Name, bank.ID, "gl_account_id")
	}
	if txn.ContraAccountID == nil {
		return accounting.Draft{}, shared.Invalid("contra_account_id", "required")
	}
	bankAccount, contra := *bank.GLAccountID, *txn.ContraAccountID
	description := txn.Description
	if description == "" {
		description = fmt.Sprintf("Movimiento bancario %s", txn.Reference)
	}

	var lines []accounting.JournalLine
	switch txn.Type.Direction() {
	case BankDebit:
		lines = []accounting.JournalLine{
			accounting.Debit(bankAccount, txn.Amount, description),
			accounting.Credit(contra, txn.Amount, description),
		}
	case BankCredit:
		lines = []accounting.JournalLine{
			accounting.Debit(contra, txn.Amount, description),
			accounting.Credit(bankAccount, txn.Amount, description),
		}
	default:
		return accounting.Draft{}, shared.Invalid("type", fmt.Sprintf("unknown bank transaction type %q", txn.Type))
	}

	if txn.ApplyIGTF {
		igtf := accounting.Round2(txn.Amount.Mul(IGTFRate))
		expense, err := b.resolver.MappedAccount(ctx, txn.CompanyID, mappings.ModuleBank, mappings.KeyIGTFExpense)
		if err != nil {
			return accounting.Draft{}, err
		}
		lines = appendNonZero(lines, accounting.Debit(expense, igtf, descIGTF))
		lines = appendNonZero(lines, accounting.Credit(bankAccount, igtf, descIGTF))
	}
	return finish(accounting.Draft{Module: accounting.ModuleBank, Date: txn.Date, Description: description, Lines: lines})
}
