package inventory

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/movements", h.handleMovement)
	r.Get("/products/{id}/stock-card", h.handleStockCard)
	r.Get("/low-stock", h.handleLowStock)
}

type movementRequest struct {
	ProductID   int64           `json:"product_id" validate:"required,gt=0"`
	Type        MovementType    `json:"type" validate:"required,oneof=PURCHASE SALE PURCHASE_RETURN ADJUSTMENT_IN ADJUSTMENT_OUT TRANSFER_IN TRANSFER_OUT"`
	Date        string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Description string          `json:"description" validate:"max=255"`
}

type movementResponse struct {
	Movement        *movementView       `json:"movement,omitempty"`
	ProductID       int64               `json:"product_id"`
	QuantityOnHand  decimal.Decimal     `json:"quantity_on_hand"`
	AvgCost         decimal.Decimal     `json:"avg_cost"`
	JournalEntry    *journals.EntryView `json:"journal_entry,omitempty"`
	AlertsTriggered []Alert             `json:"alerts_triggered"`
}

type movementView struct {
	ID            int64           `json:"id"`
	Date          string          `json:"date"`
	Type          MovementType    `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalValue    decimal.Decimal `json:"total_value"`
	AvgCostBefore decimal.Decimal `json:"avg_cost_before"`
	AvgCostAfter  decimal.Decimal `json:"avg_cost_after"`
}

func toMovementView(m Movement) *movementView {
	return &movementView{
		ID:            m.ID,
		Date:          m.Date.Format(time.DateOnly),
		Type:          m.Type,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		TotalValue:    m.TotalValue,
		AvgCostBefore: m.AvgCostBefore,
		AvgCostAfter:  m.AvgCostAfter,
	}
}

func (h *Handler) handleMovement(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.CompanyID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := MovementInput{
		CompanyID:   companyID,
		ProductID:   req.ProductID,
		Type:        req.Type,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		Description: req.Description,
	}
	if req.Date != "" {
		input.Date, err = time.Parse(time.DateOnly, req.Date)
		if err != nil {
			httpx.RespondError(w, shared.Invalid("date", "expected YYYY-MM-DD"))
			return
		}
	}
	key, err := idempotencyKey(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.ProcessMovement(r.Context(), input, key)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp := movementResponse{
		ProductID:       result.Product.ID,
		QuantityOnHand:  result.Product.QuantityOnHand,
		AvgCost:         result.Product.AvgCost,
		AlertsTriggered: result.AlertsTriggered,
	}
	if resp.AlertsTriggered == nil {
		resp.AlertsTriggered = []Alert{}
	}
	if !result.NoOp {
		resp.Movement = toMovementView(result.Movement)
	}
	if result.JournalEntry != nil {
		view := journals.ToView(*result.JournalEntry)
		resp.JournalEntry = &view
	}
	status := http.StatusCreated
	if result.NoOp {
		status = http.StatusOK
	}
	httpx.JSON(w, status, resp)
}

func (h *Handler) handleStockCard(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.CompanyID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	productID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			httpx.RespondError(w, shared.Invalid("limit", "must be an integer"))
			return
		}
	}
	movements, err := h.service.StockCard(r.Context(), companyID, productID, limit)
	if err != nil {
		h.logger.Error("stock card", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]*movementView, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementView(m))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.CompanyID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	products, err := h.service.LowStock(r.Context(), companyID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]Alert, 0, len(products))
	for _, p := range products {
		out = append(out, Alert{ProductID: p.ID, SKU: p.SKU, Name: p.Name, Quantity: p.QuantityOnHand, MinimumStock: p.MinimumStock})
	}
	httpx.JSON(w, http.StatusOK, out)
}

// idempotencyKey returns the canonical form of the optional Idempotency-Key header.
func idempotencyKey(r *http.Request) (string, error) {
	raw := r.Header.Get("Idempotency-Key")
	if raw == "" {
		return "", nil
	}
	key, err := uuid.Parse(raw)
	if err != nil {
		return "", shared.Invalid("Idempotency-Key", "must be a UUID")
	}
	return key.String(), nil
}
