package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestHandlerExposesPostings(t *testing.T) {
	m := NewMetrics()
	m.ObservePosting("P", nil, 15*time.Millisecond)

	body := scrape(t, m)
	require.Contains(t, body, `ledger_postings_total{module="P",outcome="ok"} 1`)
	require.Contains(t, body, "go_goroutines")
}

func TestPostingOutcomes(t *testing.T) {
	m := NewMetrics()
	m.ObservePosting("C", shared.Invalid("amount", "must be positive"), time.Millisecond)
	m.ObservePosting("C", shared.Missing("account mapping", 1, "iva"), time.Millisecond)
	m.ObservePosting("C", &shared.UnbalancedEntryError{}, time.Millisecond)
	m.ObservePosting("C", fmt.Errorf("insert: %w", errors.New("conn reset")), time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.postings.WithLabelValues("C", "rejected")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.postings.WithLabelValues("C", "unbalanced")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.postings.WithLabelValues("C", "error")))
}

func TestStockAndCacheCounters(t *testing.T) {
	m := NewMetrics()
	m.IncLowStock(3, 2)
	m.IncLowStock(3, 0)
	m.ObserveReportCache("trial_balance", true)
	m.ObserveReportCache("trial_balance", false)
	m.ObserveReportCache("trial_balance", false)

	require.Equal(t, 2.0, testutil.ToFloat64(m.lowStock.WithLabelValues("3")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.reportCache.WithLabelValues("trial_balance", "miss")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObservePosting("P", nil, time.Second)
	m.IncLowStock(1, 1)
	m.ObserveReportCache("ledger", true)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := NewMetrics()
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rctx := chi.NewRouteContext()
	rctx.RoutePatterns = append(rctx.RoutePatterns, "/accounting/journals/{id}")
	req := httptest.NewRequest(http.MethodGet, "/accounting/journals/7", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTeapot, rec.Code)

	body := scrape(t, m)
	require.Contains(t, body, `ledger_http_requests_total{code="418",route="/accounting/journals/{id}"} 1`)
	require.Contains(t, body, `ledger_http_request_duration_seconds_bucket{route="/accounting/journals/{id}"`)
}
