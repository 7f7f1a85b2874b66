package reports

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
)

// BalanceSheet is the statement of financial position at a date.
type BalanceSheet struct {
	Assets                    StatementSection `json:"assets"`
	Liabilities               StatementSection `json:"liabilities"`
	Equity                    StatementSection `json:"equity"`
	CurrentEarnings           decimal.Decimal  `json:"current_earnings"`
	TotalLiabilitiesAndEquity decimal.Decimal  `json:"total_liabilities_and_equity"`
	Balanced                  bool             `json:"balanced"`
}

// BuildBalanceSheet aggregates cumulative balances. Result accounts are not
// closed into equity, so their net is shown as current-period earnings.
func BuildBalanceSheet(balances []AccountBalance) BalanceSheet {
	out := BalanceSheet{
		Assets:      StatementSection{Label: "Activo", Accounts: []StatementAccount{}},
		Liabilities: StatementSection{Label: "Pasivo", Accounts: []StatementAccount{}},
		Equity:      StatementSection{Label: "Patrimonio", Accounts: []StatementAccount{}},
	}
	earnings := decimal.Zero
	for _, acc := range balances {
		row := StatementAccount{Code: acc.Code, Name: acc.Name, Amount: acc.Natural()}
		switch acc.Type {
		case accounts.AccountTypeAsset:
			if !row.Amount.IsZero() {
				out.Assets.add(row)
			}
		case accounts.AccountTypeLiability:
			if !row.Amount.IsZero() {
				out.Liabilities.add(row)
			}
		case accounts.AccountTypeEquity:
			if !row.Amount.IsZero() {
				out.Equity.add(row)
			}
		default:
			earnings = earnings.Sub(acc.Closing())
		}
	}
	out.Assets.sort()
	out.Liabilities.sort()
	out.Equity.sort()
	out.CurrentEarnings = earnings
	out.TotalLiabilitiesAndEquity = out.Liabilities.Total.Add(out.Equity.Total).Add(earnings)
	out.Balanced = accounting.Balanced(out.Assets.Total, out.TotalLiabilitiesAndEquity)
	return out
}
