package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	ctxshared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func TestCompanyScopeStoresHeaders(t *testing.T) {
	var company, actor int64
	var ok bool
	h := CompanyScope(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		company, ok = ctxshared.CompanyFromContext(r.Context())
		actor = ctxshared.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCompany, "7")
	req.Header.Set(HeaderActor, "42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ok)
	require.Equal(t, int64(7), company)
	require.Equal(t, int64(42), actor)
}

func TestCompanyScopeRejectsMalformedHeader(t *testing.T) {
	called := false
	h := CompanyScope(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	for _, raw := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderCompany, raw)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, raw)
	}
	require.False(t, called)
}

func TestRouterServesHealthWithoutModules(t *testing.T) {
	router := NewRouter(RouterParams{Logger: slog.Default(), Config: &Config{RateLimitPerMinute: 10}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounting/journals/1/resync", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel(&Config{LogLevel: "DEBUG"}))
	require.Equal(t, slog.LevelWarn, parseLevel(&Config{LogLevel: "warning"}))
	require.Equal(t, slog.LevelInfo, parseLevel(&Config{LogLevel: "bogus"}))
	require.Equal(t, slog.LevelInfo, parseLevel(nil))
}

func TestRateLimitIsPerCompany(t *testing.T) {
	router := NewRouter(RouterParams{Logger: slog.Default(), Config: &Config{RateLimitPerMinute: 2}})

	hit := func(company string) int {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(HeaderCompany, company)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusOK, hit("1"))
	require.Equal(t, http.StatusOK, hit("1"))
	require.Equal(t, http.StatusTooManyRequests, hit("1"))
	require.Equal(t, http.StatusOK, hit("2"))
}
