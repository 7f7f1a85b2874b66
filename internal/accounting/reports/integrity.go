package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnbalancedEntry is a posted entry whose lines no longer balance.
type UnbalancedEntry struct {
	EntryID    int64           `json:"entry_id"`
	Number     string          `json:"number"`
	Date       time.Time       `json:"date"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Difference decimal.Decimal `json:"difference"`
	// DocumentID is the single purchase document the entry can be rebuilt from.
	DocumentID *int64 `json:"document_id,omitempty"`
	Resyncable bool   `json:"resyncable"`
}
