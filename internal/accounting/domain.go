package accounting

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Module is the single-letter prefix of a journal entry number.
type Module string

const (
	ModulePurchases Module = "P"
	ModuleSales     Module = "C"
	ModuleFiscal    Module = "F"
	ModuleBank      Module = "B"
	ModuleInventory Module = "I"
)

// Valid reports whether m is one of the known module letters.
func (m Module) Valid() bool {
	switch m {
	case ModulePurchases, ModuleSales, ModuleFiscal, ModuleBank, ModuleInventory:
		return true
	}
	return false
}

// JournalStatus enumerates journal lifecycle values.
type JournalStatus string

const (
	JournalStatusDraft  JournalStatus = "DRAFT"
	JournalStatusPosted JournalStatus = "POSTED"
)

// Tolerance is the largest debit/credit difference still considered balanced.
var Tolerance = decimal.New(1, -2)

// JournalEntry captures posting metadata.
type JournalEntry struct {
	ID           int64
	CompanyID    int64
	Number       string
	Date         time.Time
	Description  string
	Status       JournalStatus
	SourceModule Module
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lines        []JournalLine
}

// JournalLine stores a debit or credit amount for an account.
type JournalLine struct {
	ID          int64
	EntryID     int64
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Totals sums debit and credit over lines.
func Totals(lines []JournalLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// Balanced reports whether debit and credit differ by less than Tolerance.
func Balanced(debit, credit decimal.Decimal) bool {
	return debit.Sub(credit).Abs().LessThan(Tolerance)
}

// CheckBalance returns an UnbalancedEntryError when lines do not balance.
func CheckBalance(lines []JournalLine) error {
	debit, credit := Totals(lines)
	if !Balanced(debit, credit) {
		return &shared.UnbalancedEntryError{Debit: debit, Credit: credit}
	}
	return nil
}

// Round2 rounds a monetary amount to cents.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// Draft is a computed, not yet numbered, journal entry.
type Draft struct {
	Module      Module
	Date        time.Time
	Description string
	Lines       []JournalLine
}

// Validate checks line shape and the balance invariant.
func (d Draft) Validate() error {
	if len(d.Lines) < 2 {
		return shared.Invalid("lines", "at least two lines required")
	}
	for idx, line := range d.Lines {
		if line.AccountID == 0 {
			return shared.Invalid("lines", fmt.Sprintf("line %d missing account", idx))
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return shared.Invalid("lines", fmt.Sprintf("line %d negative amount", idx))
		}
	}
	return CheckBalance(d.Lines)
}

// Debit builds a debit line rounded to cents.
func Debit(accountID int64, amount decimal.Decimal, description string) JournalLine {
	return JournalLine{AccountID: accountID, Debit: Round2(amount), Credit: decimal.Zero, Description: description}
}

// Credit builds a credit line rounded to cents.
func Credit(accountID int64, amount decimal.Decimal, description string) JournalLine {
	return JournalLine{AccountID: accountID, Debit: decimal.Zero, Credit: Round2(amount), Description: description}
}

// Swap exchanges debit and credit.
func (l JournalLine) Swap() JournalLine {
	l.Debit, l.Credit = l.Credit, l.Debit
	return l
}
