package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// TxRepository exposes transactional stock operations.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, companyID, productID int64) (Product, error)
	UpdateProductStock(ctx context.Context, productID int64, qty, avgCost decimal.Decimal) error
	InsertMovement(ctx context.Context, movement Movement) (Movement, error)
}

// MappingLookup resolves configured integration accounts.
type MappingLookup interface {
	Get(ctx context.Context, companyID int64, module, key string) (mappings.AccountMapping, error)
}

// Ports are the transaction-bound stores the engine writes through.
type Ports struct {
	Stock    TxRepository
	Mappings MappingLookup
	Journal  journals.Ports
}

// Engine applies movements inside a caller-owned transaction.
type Engine struct {
	poster *journals.Poster
}

// NewEngine constructs an Engine.
func NewEngine() *Engine {
	return &Engine{poster: journals.NewPoster()}
}

// Staged is a movement applied to its product whose ledger row is not yet
// written. Movement rows are append-only, so the row waits for its entry.
type Staged struct {
	Movement Movement
	Product  Product
	Outcome  Outcome
	NoOp     bool
}

// Process locks the product, applies the movement, persists the product and
// the movement row and, for purchases and sales, posts an I entry.
func (e *Engine) Process(ctx context.Context, ports Ports, in MovementInput) (Result, error) {
	staged, err := e.Stage(ctx, ports, in)
	if err != nil {
		return Result{}, err
	}
	if staged.NoOp {
		return Result{Product: staged.Product, NoOp: true}, nil
	}

	var entry *accounting.JournalEntry
	if (in.Type == MovementPurchase || in.Type == MovementSale) && staged.Outcome.TotalValue.IsPositive() {
		draft, err := e.draft(ctx, ports, staged.Product, in, staged.Outcome)
		if err != nil {
			return Result{}, err
		}
		posted, err := e.poster.Post(ctx, ports.Journal, in.CompanyID, draft)
		if err != nil {
			return Result{}, err
		}
		entry = &posted
	}

	var entryID *int64
	if entry != nil {
		entryID = &entry.ID
	}
	movement, err := e.Record(ctx, ports, staged, entryID)
	if err != nil {
		return Result{}, err
	}

	product := staged.Product
	result := Result{Movement: movement, Product: product, JournalEntry: entry}
	if LowStock(product, product.QuantityOnHand) {
		result.AlertsTriggered = append(result.AlertsTriggered, Alert{
			ProductID:    product.ID,
			SKU:          product.SKU,
			Name:         product.Name,
			Quantity:     product.QuantityOnHand,
			MinimumStock: product.MinimumStock,
		})
	}
	return result, nil
}

// Stage locks the product, applies the movement and persists the new stock
// level. Insufficient stock fails here, before any entry is built.
func (e *Engine) Stage(ctx context.Context, ports Ports, in MovementInput) (Staged, error) {
	if in.CompanyID == 0 || in.ProductID == 0 {
		return Staged{}, shared.Invalid("product_id", "company and product required")
	}
	if in.Date.IsZero() {
		return Staged{}, shared.Invalid("date", "required")
	}
	product, err := ports.Stock.GetProductForUpdate(ctx, in.CompanyID, in.ProductID)
	if err != nil {
		return Staged{}, err
	}
	if !product.Tracked() {
		return Staged{}, shared.Invalid("product_id", fmt.Sprintf("product %s does not track inventory", product.SKU))
	}
	outcome, err := Apply(State{ProductID: product.ID, Quantity: product.QuantityOnHand, AvgCost: product.AvgCost}, in.Type, in.Quantity, in.UnitCost)
	if err != nil {
		return Staged{}, err
	}
	if outcome.NoOp {
		return Staged{Product: product, NoOp: true}, nil
	}

	movement := Movement{
		CompanyID:     in.CompanyID,
		ProductID:     product.ID,
		Date:          in.Date,
		Type:          in.Type,
		Quantity:      in.Quantity,
		UnitCost:      outcome.UnitCost,
		TotalValue:    outcome.TotalValue,
		AvgCostBefore: product.AvgCost,
		AvgCostAfter:  outcome.AvgCost,
		DocumentID:    in.DocumentID,
	}
	if err := ports.Stock.UpdateProductStock(ctx, product.ID, outcome.Quantity, outcome.AvgCost); err != nil {
		return Staged{}, err
	}
	product.QuantityOnHand = outcome.Quantity
	product.AvgCost = outcome.AvgCost
	return Staged{Movement: movement, Product: product, Outcome: outcome}, nil
}

// Record writes the staged movement row, linked to entryID when there is one.
func (e *Engine) Record(ctx context.Context, ports Ports, staged Staged, entryID *int64) (Movement, error) {
	if staged.NoOp {
		return Movement{}, nil
	}
	movement := staged.Movement
	movement.JournalEntryID = entryID
	return ports.Stock.InsertMovement(ctx, movement)
}

func (e *Engine) draft(ctx context.Context, ports Ports, product Product, in MovementInput, outcome Outcome) (accounting.Draft, error) {
	if product.AssetAccountID == nil {
		return accounting.Draft{}, shared.Missing("product "+product.SKU, product.ID, "asset_account_id")
	}
	asset := *product.AssetAccountID
	value := outcome.TotalValue
	draft := accounting.Draft{Module: accounting.ModuleInventory, Date: in.Date, Description: in.Description}

	switch in.Type {
	case MovementPurchase:
		clearing, err := ports.Mappings.Get(ctx, in.CompanyID, mappings.ModuleInventory, mappings.KeyPurchaseClearing)
		if err != nil {
			return accounting.Draft{}, err
		}
		if draft.Description == "" {
			draft.Description = fmt.Sprintf("Entrada de inventario %s", product.SKU)
		}
		draft.Lines = []accounting.JournalLine{
			accounting.Debit(asset, value, "Inventario: "+product.Name),
			accounting.Credit(clearing.AccountID, value, "Compras por facturar: "+product.Name),
		}
	case MovementSale:
		cogs, err := e.cogsAccount(ctx, ports, product, in.CompanyID)
		if err != nil {
			return accounting.Draft{}, err
		}
		if draft.Description == "" {
			draft.Description = fmt.Sprintf("Salida de inventario %s", product.SKU)
		}
		draft.Lines = []accounting.JournalLine{
			accounting.Debit(cogs, value, "Costo de venta: "+product.Name),
			accounting.Credit(asset, value, "Inventario: "+product.Name),
		}
	}
	return draft, nil
}

func (e *Engine) cogsAccount(ctx context.Context, ports Ports, product Product, companyID int64) (int64, error) {
	if product.COGSAccountID != nil {
		return *product.COGSAccountID, nil
	}
	mapping, err := ports.Mappings.Get(ctx, companyID, mappings.ModuleInventory, mappings.KeyDefaultCOGS)
	if errors.Is(err, shared.ErrConfiguration) {
		return 0, shared.Missing("product "+product.SKU, product.ID, "cogs_account_id")
	}
	if err != nil {
		return 0, err
	}
	return mapping.AccountID, nil
}
