// Package inventory keeps weighted-average cost and stock on hand per product.
package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// ProductType distinguishes stocked goods from services.
type ProductType string

const (
	ProductTypeGoods   ProductType = "GOODS"
	ProductTypeService ProductType = "SERVICE"
)

// MovementType enumerates supported inventory movements.
type MovementType string

const (
	MovementPurchase       MovementType = "PURCHASE"
	MovementSale           MovementType = "SALE"
	MovementPurchaseReturn MovementType = "PURCHASE_RETURN"
	MovementAdjustmentIn   MovementType = "ADJUSTMENT_IN"
	MovementAdjustmentOut  MovementType = "ADJUSTMENT_OUT"
	MovementTransferIn     MovementType = "TRANSFER_IN"
	MovementTransferOut    MovementType = "TRANSFER_OUT"
)

// Inbound reports whether the movement adds stock at its own cost.
func (t MovementType) Inbound() bool {
	return t == MovementPurchase || t == MovementAdjustmentIn
}

// Outbound reports whether the movement removes stock at average cost.
func (t MovementType) Outbound() bool {
	return t == MovementSale || t == MovementAdjustmentOut || t == MovementPurchaseReturn
}

// Cost precision of the stored average, matching numeric(18,6).
const costPlaces = 6

// Product carries the costing state of an item.
type Product struct {
	ID              int64
	CompanyID       int64
	SKU             string
	Name            string
	Type            ProductType
	TrackInventory  bool
	QuantityOnHand  decimal.Decimal
	AvgCost         decimal.Decimal
	MinimumStock    decimal.Decimal
	IncomeAccountID *int64
	COGSAccountID   *int64
	AssetAccountID  *int64
	UpdatedAt       time.Time
}

// Tracked reports whether movements should be recorded for the product.
func (p Product) Tracked() bool {
	return p.Type == ProductTypeGoods && p.TrackInventory
}

// Movement is an immutable stock ledger row.
type Movement struct {
	ID             int64
	CompanyID      int64
	ProductID      int64
	Date           time.Time
	Type           MovementType
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	TotalValue     decimal.Decimal
	AvgCostBefore  decimal.Decimal
	AvgCostAfter   decimal.Decimal
	DocumentID     *int64
	JournalEntryID *int64
	CreatedAt      time.Time
}

// Alert is a low-stock condition raised by a movement.
type Alert struct {
	ProductID    int64           `json:"product_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
}

// MovementInput describes a requested stock change.
type MovementInput struct {
	CompanyID   int64
	ProductID   int64
	Date        time.Time
	Type        MovementType
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	DocumentID  *int64
	Description string
}

// Result is the outcome of processing one movement.
type Result struct {
	Movement        Movement
	Product         Product
	JournalEntry    *accounting.JournalEntry
	AlertsTriggered []Alert
	NoOp            bool
}

// State is the costing state a movement is applied to.
type State struct {
	ProductID int64
	Quantity  decimal.Decimal
	AvgCost   decimal.Decimal
}

// Outcome is the costing state after a movement.
type Outcome struct {
	Quantity   decimal.Decimal
	AvgCost    decimal.Decimal
	UnitCost   decimal.Decimal
	TotalValue decimal.Decimal
	NoOp       bool
}

// Apply runs the weighted-average state machine for one movement.
func Apply(state State, t MovementType, qty, unitCost decimal.Decimal) (Outcome, error) {
	switch t {
	case MovementTransferIn, MovementTransferOut:
		return Outcome{}, shared.Invalid("type", fmt.Sprintf("%s movements are not supported", t))
	}
	if !t.Inbound() && !t.Outbound() {
		return Outcome{}, shared.Invalid("type", fmt.Sprintf("unknown movement type %q", t))
	}
	if qty.IsNegative() {
		return Outcome{}, shared.Invalid("quantity", "must not be negative")
	}
	if qty.IsZero() {
		return Outcome{Quantity: state.Quantity, AvgCost: state.AvgCost, UnitCost: decimal.Zero, TotalValue: decimal.Zero, NoOp: true}, nil
	}
	if t.Inbound() {
		if !unitCost.IsPositive() {
			return Outcome{}, shared.Invalid("unit_cost", "must be greater than zero")
		}
		newQty := state.Quantity.Add(qty)
		newAvg := decimal.Zero
		if !newQty.IsZero() {
			newAvg = state.Quantity.Mul(state.AvgCost).Add(qty.Mul(unitCost)).DivRound(newQty, costPlaces)
		}
		return Outcome{
			Quantity:   newQty,
			AvgCost:    newAvg,
			UnitCost:   unitCost,
			TotalValue: accounting.Round2(qty.Mul(unitCost)),
		}, nil
	}
	if state.Quantity.LessThan(qty) {
		return Outcome{}, &shared.InsufficientStockError{ProductID: state.ProductID, Requested: qty, Available: state.Quantity}
	}
	return Outcome{
		Quantity:   state.Quantity.Sub(qty),
		AvgCost:    state.AvgCost,
		UnitCost:   state.AvgCost,
		TotalValue: accounting.Round2(qty.Mul(state.AvgCost)),
	}, nil
}

// LowStock reports whether qty is under a positive minimum.
func LowStock(p Product, qty decimal.Decimal) bool {
	return p.MinimumStock.IsPositive() && qty.LessThan(p.MinimumStock)
}
