package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
)

// LedgerLine is one posted line of an account, in entry date order.
type LedgerLine struct {
	EntryID     int64           `json:"entry_id"`
	Number      string          `json:"number"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// LedgerRow is a ledger line with the running balance after it.
type LedgerRow struct {
	LedgerLine
	Balance decimal.Decimal `json:"balance"`
}

// Ledger is the analytical ledger of one account over a period.
type Ledger struct {
	AccountID   int64                `json:"account_id"`
	Code        string               `json:"code"`
	Name        string               `json:"name"`
	Type        accounts.AccountType `json:"type"`
	Opening     decimal.Decimal      `json:"opening"`
	Rows        []LedgerRow          `json:"rows"`
	TotalDebit  decimal.Decimal      `json:"total_debit"`
	TotalCredit decimal.Decimal      `json:"total_credit"`
	Closing     decimal.Decimal      `json:"closing"`
}

// BuildLedger folds lines into running balances on the account's normal side.
// openingDebit and openingCredit are the sums of lines before the period.
func BuildLedger(account accounts.Account, openingDebit, openingCredit decimal.Decimal, lines []LedgerLine) Ledger {
	sign := func(debit, credit decimal.Decimal) decimal.Decimal {
		if account.Type.DebitNormal() {
			return debit.Sub(credit)
		}
		return credit.Sub(debit)
	}
	out := Ledger{
		AccountID: account.ID,
		Code:      account.Code,
		Name:      account.Name,
		Type:      account.Type,
		Opening:   sign(openingDebit, openingCredit),
		Rows:      make([]LedgerRow, 0, len(lines)),
	}
	balance := out.Opening
	for _, line := range lines {
		balance = balance.Add(sign(line.Debit, line.Credit))
		out.TotalDebit = out.TotalDebit.Add(line.Debit)
		out.TotalCredit = out.TotalCredit.Add(line.Credit)
		out.Rows = append(out.Rows, LedgerRow{LedgerLine: line, Balance: balance})
	}
	out.Closing = balance
	return out
}
