package accounts

import "time"

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
	AccountTypeCost      AccountType = "COST"
	AccountTypeOther     AccountType = "OTHER"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome,
		AccountTypeExpense, AccountTypeCost, AccountTypeOther:
		return true
	}
	return false
}

// DebitNormal reports whether balances of t grow with debits.
func (t AccountType) DebitNormal() bool {
	switch t {
	case AccountTypeLiability, AccountTypeEquity, AccountTypeIncome:
		return false
	}
	return true
}

// Account models a chart of accounts node.
type Account struct {
	ID        int64
	CompanyID int64
	Code      string
	Name      string
	Type      AccountType
	ParentID  *int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Level derives the hierarchy level from the code; zero when the code is malformed.
func (a Account) Level() int {
	code, err := ParseCode(a.Code)
	if err != nil {
		return 0
	}
	return code.Level()
}

// CreateInput carries the fields needed to add an account.
type CreateInput struct {
	CompanyID int64       `json:"-"`
	Code      string      `json:"code" validate:"required,max=32"`
	Name      string      `json:"name" validate:"required,max=160"`
	Type      AccountType `json:"type" validate:"required"`
}
