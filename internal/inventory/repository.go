package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, Ports) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, TxPorts(tx))
	})
}

// TxPorts binds the engine stores to tx.
func TxPorts(tx pgx.Tx) Ports {
	return Ports{
		Stock:    NewTxRepository(tx),
		Mappings: mappings.NewRepository(tx),
		Journal:  journals.TxPorts(tx),
	}
}

// ListMovements returns the stock card of a product, newest first.
func (r *Repository) ListMovements(ctx context.Context, companyID, productID int64, limit int) ([]Movement, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT `+movementColumns+` FROM inventory_movements
WHERE company_id=$1 AND product_id=$2 ORDER BY date DESC, id DESC LIMIT $3`, companyID, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LowStockProducts lists tracked products under their minimum stock.
func (r *Repository) LowStockProducts(ctx context.Context, companyID int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products
WHERE company_id=$1 AND track_inventory AND type='GOODS' AND minimum_stock > 0 AND quantity_on_hand < minimum_stock
ORDER BY sku`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type txRepository struct {
	db db.Querier
}

// NewTxRepository binds stock operations to a transaction.
func NewTxRepository(q db.Querier) TxRepository {
	return &txRepository{db: q}
}

const productColumns = `id, company_id, sku, name, type, track_inventory, quantity_on_hand, avg_cost, minimum_stock,
income_account_id, cogs_account_id, asset_account_id, updated_at`

const movementColumns = `id, company_id, product_id, date, type, quantity, unit_cost, total_value,
avg_cost_before, avg_cost_after, document_id, journal_entry_id, created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var typ string
	err := row.Scan(&p.ID, &p.CompanyID, &p.SKU, &p.Name, &typ, &p.TrackInventory, &p.QuantityOnHand, &p.AvgCost,
		&p.MinimumStock, &p.IncomeAccountID, &p.COGSAccountID, &p.AssetAccountID, &p.UpdatedAt)
	p.Type = ProductType(typ)
	return p, err
}

func scanMovement(row pgx.Row) (Movement, error) {
	var m Movement
	var typ string
	err := row.Scan(&m.ID, &m.CompanyID, &m.ProductID, &m.Date, &typ, &m.Quantity, &m.UnitCost, &m.TotalValue,
		&m.AvgCostBefore, &m.AvgCostAfter, &m.DocumentID, &m.JournalEntryID, &m.CreatedAt)
	m.Type = MovementType(typ)
	return m, err
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, companyID, productID int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE company_id=$1 AND id=$2 FOR UPDATE`, companyID, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.NotFound("product", productID)
	}
	return p, err
}

func (r *txRepository) UpdateProductStock(ctx context.Context, productID int64, qty, avgCost decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `UPDATE products SET quantity_on_hand=$2, avg_cost=$3, updated_at=NOW() WHERE id=$1`, productID, qty, avgCost)
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO inventory_movements (company_id, product_id, date, type, quantity, unit_cost, total_value,
avg_cost_before, avg_cost_after, document_id, journal_entry_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id, created_at`,
		m.CompanyID, m.ProductID, m.Date, string(m.Type), m.Quantity, m.UnitCost, m.TotalValue,
		m.AvgCostBefore, m.AvgCostAfter, m.DocumentID, m.JournalEntryID).Scan(&m.ID, &m.CreatedAt)
	return m, err
}
