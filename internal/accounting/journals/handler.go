package journals

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

// Handler exposes journal listings over JSON.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// LineView is the JSON shape of a journal line.
type LineView struct {
	AccountID   int64           `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// EntryView is the JSON shape of a journal entry.
type EntryView struct {
	ID          int64                    `json:"id"`
	Number      string                   `json:"number"`
	Date        string                   `json:"date"`
	Description string                   `json:"description"`
	Status      accounting.JournalStatus `json:"status"`
	Module      accounting.Module        `json:"module"`
	Lines       []LineView               `json:"lines,omitempty"`
}

// ToView converts an entry for JSON responses.
func ToView(e accounting.JournalEntry) EntryView {
	view := EntryView{
		ID:          e.ID,
		Number:      e.Number,
		Date:        e.Date.Format(time.DateOnly),
		Description: e.Description,
		Status:      e.Status,
		Module:      e.SourceModule,
	}
	for _, l := range e.Lines {
		view.Lines = append(view.Lines, LineView{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Description: l.Description})
	}
	return view
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, err := httpx.CompanyID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter := Filter{CompanyID: companyID, Module: accounting.Module(r.URL.Query().Get("module"))}
	if filter.From, err = httpx.DateQuery(r, "from"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if filter.To, err = httpx.DateQuery(r, "to"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list journals", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToView(e))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
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
	entry, err := h.service.Get(r.Context(), companyID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToView(entry))
}

func invalidModule(m accounting.Module) error {
	return shared.Invalid("module", fmt.Sprintf("unknown module %q", m))
}
