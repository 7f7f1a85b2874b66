package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
)

// StatementAccount is one account line of a statement section.
type StatementAccount struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// StatementSection groups accounts by nature.
type StatementSection struct {
	Label    string             `json:"label"`
	Accounts []StatementAccount `json:"accounts"`
	Total    decimal.Decimal    `json:"total"`
}

func (s *StatementSection) add(row StatementAccount) {
	s.Accounts = append(s.Accounts, row)
	s.Total = s.Total.Add(row.Amount)
}

func (s *StatementSection) sort() {
	sort.Slice(s.Accounts, func(i, j int) bool { return s.Accounts[i].Code < s.Accounts[j].Code })
}

// IncomeStatement is the profit and loss report for a period.
type IncomeStatement struct {
	Income      StatementSection `json:"income"`
	Cost        StatementSection `json:"cost"`
	Expense     StatementSection `json:"expense"`
	GrossProfit decimal.Decimal  `json:"gross_profit"`
	NetIncome   decimal.Decimal  `json:"net_income"`
}

// BuildIncomeStatement aggregates period movements of result accounts.
// OTHER accounts are not part of the statement.
func BuildIncomeStatement(balances []AccountBalance) IncomeStatement {
	out := IncomeStatement{
		Income:  StatementSection{Label: "Ingresos", Accounts: []StatementAccount{}},
		Cost:    StatementSection{Label: "Costos", Accounts: []StatementAccount{}},
		Expense: StatementSection{Label: "Gastos", Accounts: []StatementAccount{}},
	}
	for _, acc := range balances {
		row := StatementAccount{Code: acc.Code, Name: acc.Name, Amount: acc.Natural()}
		if row.Amount.IsZero() {
			continue
		}
		switch acc.Type {
		case accounts.AccountTypeIncome:
			out.Income.add(row)
		case accounts.AccountTypeCost:
			out.Cost.add(row)
		case accounts.AccountTypeExpense:
			out.Expense.add(row)
		}
	}
	out.Income.sort()
	out.Cost.sort()
	out.Expense.sort()
	out.GrossProfit = out.Income.Total.Sub(out.Cost.Total)
	out.NetIncome = out.GrossProfit.Sub(out.Expense.Total)
	return out
}
