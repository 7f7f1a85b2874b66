// Package observability owns the HTTP server's Prometheus registry.
package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Metrics records request, posting, stock and report cache activity.
// A nil *Metrics ignores every observation.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	postings        *prometheus.CounterVec
	postingDuration *prometheus.HistogramVec
	lowStock        *prometheus.CounterVec
	reportCache     *prometheus.CounterVec
}

// NewMetrics builds a private registry with Go runtime collectors attached.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		postings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_postings_total",
			Help: "Journal postings by module letter and outcome.",
		}, []string{"module", "outcome"}),
		postingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_posting_duration_seconds",
			Help:    "Posting transaction time by module letter.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"module"}),
		lowStock: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_low_stock_alerts_total",
			Help: "Products crossing below their minimum stock, by company.",
		}, []string{"company"}),
		reportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_report_cache_requests_total",
			Help: "Report cache lookups by report and result.",
		}, []string{"report", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration, m.postings, m.postingDuration, m.lowStock, m.reportCache,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests by chi route pattern so path ids do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := routePattern(r)
		m.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObservePosting records one posting attempt for module.
func (m *Metrics) ObservePosting(module string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.postings.WithLabelValues(module, outcome(err)).Inc()
	m.postingDuration.WithLabelValues(module).Observe(elapsed.Seconds())
}

// outcome separates caller mistakes from ledger faults.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrUnbalanced):
		return "unbalanced"
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrNotFound),
		errors.Is(err, shared.ErrConfiguration), errors.Is(err, shared.ErrInsufficientStock):
		return "rejected"
	default:
		return "error"
	}
}

// IncLowStock counts new low stock alerts.
func (m *Metrics) IncLowStock(companyID int64, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.lowStock.WithLabelValues(strconv.FormatInt(companyID, 10)).Add(float64(count))
}

// ObserveReportCache counts a report cache hit or miss.
func (m *Metrics) ObserveReportCache(report string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.reportCache.WithLabelValues(report, result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
