package mappings

import (
	"strings"
	"time"
)

// Well-known integration keys.
const (
	ModuleBank      = "BANK"
	ModuleInventory = "INVENTORY"

	KeyIGTFExpense      = "igtf_expense"
	KeyPurchaseClearing = "purchase_clearing"
	KeyDefaultCOGS      = "default_cogs"
)

// AccountMapping links integration keys to ledger accounts.
type AccountMapping struct {
	CompanyID int64
	Module    string
	Key       string
	AccountID int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Normalize upper-cases the module and lower-cases the key.
func Normalize(module, key string) (string, string) {
	return strings.ToUpper(strings.TrimSpace(module)), strings.ToLower(strings.TrimSpace(key))
}
