package reports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

// Handler exposes report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes under /accounting/reports.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ledger", h.ledger)
	r.Get("/trial-balance", h.trialBalance)
	r.Get("/income-statement", h.incomeStatement)
	r.Get("/balance-sheet", h.balanceSheet)
	r.Get("/financial-statements", h.financialStatements)
	r.Get("/unbalanced", h.unbalanced)
}

func (h *Handler) filter(r *http.Request) (Filter, error) {
	var f Filter
	var err error
	if f.CompanyID, err = httpx.CompanyID(r); err != nil {
		return Filter{}, err
	}
	if f.From, err = httpx.DateQuery(r, "from"); err != nil {
		return Filter{}, err
	}
	if f.To, err = httpx.DateQuery(r, "to"); err != nil {
		return Filter{}, err
	}
	if raw := r.URL.Query().Get("account_id"); raw != "" {
		if f.AccountID, err = strconv.ParseInt(raw, 10, 64); err != nil || f.AccountID <= 0 {
			return Filter{}, shared.Invalid("account_id", "must be a positive integer")
		}
	}
	return f, nil
}

func serve[T any](h *Handler, name string, fn func(*http.Request, Filter) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := h.filter(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		out, err := fn(r, f)
		if err != nil {
			if httpx.Status(err) >= http.StatusInternalServerError {
				h.logger.Error("report failed", slog.String("report", name), slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, out)
	}
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	serve(h, "ledger", func(r *http.Request, f Filter) (Ledger, error) {
		return h.service.AnalyticalLedger(r.Context(), f)
	})(w, r)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	serve(h, "trial_balance", func(r *http.Request, f Filter) (TrialBalance, error) {
		return h.service.TrialBalance(r.Context(), f)
	})(w, r)
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	serve(h, "income_statement", func(r *http.Request, f Filter) (IncomeStatement, error) {
		return h.service.IncomeStatement(r.Context(), f)
	})(w, r)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	serve(h, "balance_sheet", func(r *http.Request, f Filter) (BalanceSheet, error) {
		return h.service.BalanceSheet(r.Context(), f)
	})(w, r)
}

func (h *Handler) financialStatements(w http.ResponseWriter, r *http.Request) {
	serve(h, "financial_statements", func(r *http.Request, f Filter) (FinancialStatements, error) {
		return h.service.FinancialStatements(r.Context(), f)
	})(w, r)
}

func (h *Handler) unbalanced(w http.ResponseWriter, r *http.Request) {
	serve(h, "unbalanced", func(r *http.Request, f Filter) ([]UnbalancedEntry, error) {
		return h.service.UnbalancedEntries(r.Context(), f)
	})(w, r)
}
