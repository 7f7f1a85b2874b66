package taxes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

// Handler exposes certificate number reservation.
type Handler struct {
	certificates *CertificateService
}

// NewHandler constructs a Handler.
func NewHandler(certificates *CertificateService) *Handler {
	return &Handler{certificates: certificates}
}

// MountRoutes registers certificate endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.reserve)
}

type reserveRequest struct {
	Type Type `json:"type" validate:"required,oneof=RETENCION_IVA RETENCION_ISLR"`
}

type reserveResponse struct {
	Type   Type   `json:"type"`
	Number string `json:"number"`
}

func (h *Handler) reserve(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.CompanyID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req reserveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	number, err := h.certificates.Reserve(r.Context(), companyID, req.Type)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reserveResponse{Type: req.Type, Number: number})
}
