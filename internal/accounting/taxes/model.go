// Package taxes resolves VAT and withholding taxes to ledger accounts.
package taxes

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/correlative"
)

// Type enumerates tax definitions.
type Type string

const (
	TypeIVA           Type = "IVA"
	TypeRetentionIVA  Type = Type(correlative.CertificateIVA)
	TypeRetentionISLR Type = Type(correlative.CertificateISLR)
)

// Withholding reports whether t is a retention type.
func (t Type) Withholding() bool {
	return t == TypeRetentionIVA || t == TypeRetentionISLR
}

// Direction selects the VAT account side.
type Direction string

const (
	DirectionSale     Direction = "SALE"
	DirectionPurchase Direction = "PURCHASE"
)

// Tax is the static tax configuration of a company.
type Tax struct {
	ID                     int64
	CompanyID              int64
	Name                   string
	Type                   Type
	Rate                   decimal.Decimal
	IsDefault              bool
	GLAccountID            *int64
	DebitoFiscalAccountID  *int64
	CreditoFiscalAccountID *int64
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
