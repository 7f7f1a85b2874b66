package mappings

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

// AccountChecker rejects accounts that cannot receive journal lines.
type AccountChecker interface {
	Postable(ctx context.Context, companyID, id int64) (accounts.Account, error)
}

// Handler exposes integration account mappings.
type Handler struct {
	repo     Repository
	accounts AccountChecker
	logger   *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository, accounts AccountChecker) *Handler {
	return &Handler{repo: repo, accounts: accounts, logger: logger}
}

// MountRoutes registers mapping endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Put("/", h.upsert)
}

type mappingRequest struct {
	Module    string `json:"module" validate:"required"`
	Key       string `json:"key" validate:"required"`
	AccountID int64  `json:"account_id" validate:"required,gt=0"`
}

type mappingResponse struct {
	Module    string    `json:"module"`
	Key       string    `json:"key"`
	AccountID int64     `json:"account_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toResponse(m AccountMapping) mappingResponse {
	return mappingResponse{Module: m.Module, Key: m.Key, AccountID: m.AccountID, UpdatedAt: m.UpdatedAt}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.CompanyID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.repo.List(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list mappings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]mappingResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toResponse(m))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.CompanyID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req mappingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.accounts.Postable(r.Context(), companyID, req.AccountID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	saved, err := h.repo.Upsert(r.Context(), AccountMapping{
		CompanyID: companyID,
		Module:    req.Module,
		Key:       req.Key,
		AccountID: req.AccountID,
	})
	if err != nil {
		h.logger.Error("upsert mapping", slog.String("module", req.Module), slog.String("key", req.Key), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("mapping updated", slog.Int64("company_id", companyID), slog.String("module", saved.Module), slog.String("key", saved.Key))
	httpx.JSON(w, http.StatusOK, toResponse(saved))
}
