package posting

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

// Handler exposes posting operations over JSON.
type Handler struct {
	logger *slog.Logger
	engine *Engine
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, engine *Engine) *Handler {
	return &Handler{logger: logger, engine: engine}
}

// MountRoutes registers posting endpoints under /accounting/postings.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/bills/{id}", h.byID(h.engine.CreateBillJournalEntry))
	r.Post("/documents/{id}", h.byID(h.engine.CreateDocumentJournalEntry))
	r.Post("/receipts/{id}", h.receipt)
	r.Post("/withholdings/{id}", h.byID(h.engine.CreateWithholdingJournalEntry))
	r.Post("/bank-transactions/{id}", h.byID(h.engine.CreateBankTransactionJournalEntry))
}

type postFn func(ctx context.Context, companyID, id int64) (*accounting.JournalEntry, error)

func (h *Handler) byID(fn postFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := httpx.CompanyID(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		entry, err := fn(r.Context(), companyID, id)
		h.respond(w, entry, err)
	}
}

type receiptRequest struct {
	BankAccountID *int64 `json:"bank_account_id" validate:"omitempty,gt=0"`
	CashAccountID *int64 `json:"cash_account_id" validate:"omitempty,gt=0"`
}

func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.CompanyID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req receiptRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	target := PaymentTarget{BankAccountID: req.BankAccountID, CashAccountID: req.CashAccountID}
	entry, err := h.engine.CreatePaymentJournalEntry(r.Context(), companyID, id, target)
	h.respond(w, entry, err)
}

// Resync handles POST /accounting/journals/{id}/resync.
func (h *Handler) Resync(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.CompanyID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.engine.Resync(r.Context(), companyID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, journals.ToView(*entry))
}

func (h *Handler) respond(w http.ResponseWriter, entry *accounting.JournalEntry, err error) {
	if err != nil {
		if httpx.Status(err) >= http.StatusInternalServerError {
			h.logger.Error("posting failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	if entry == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.JSON(w, http.StatusCreated, journals.ToView(*entry))
}
