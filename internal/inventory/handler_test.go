package inventory

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	ctxshared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

func newTestRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).MountRoutes(r)
	return r
}

func postMovement(t *testing.T, h http.Handler, body, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/movements", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	req = req.WithContext(ctxshared.ContextWithCompany(req.Context(), 1))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleMovementPostsPurchase(t *testing.T) {
	h := newTestRouter(newService(newMemoryRepo(), ServiceConfig{}))

	rec := postMovement(t, h, `{"product_id":1,"type":"PURCHASE","date":"2024-03-05","quantity":"10","unit_cost":"100"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		QuantityOnHand string `json:"quantity_on_hand"`
		JournalEntry   struct {
			Number string `json:"number"`
		} `json:"journal_entry"`
		AlertsTriggered []Alert `json:"alerts_triggered"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "10", resp.QuantityOnHand)
	require.Equal(t, "I050324-001", resp.JournalEntry.Number)
	require.NotNil(t, resp.AlertsTriggered)
}

func TestHandleMovementRejectsReplayedKey(t *testing.T) {
	idem := &fakeIdempotency{keys: map[string]bool{}}
	h := newTestRouter(newService(newMemoryRepo(), ServiceConfig{Idempotency: idem}))
	body := `{"product_id":1,"type":"PURCHASE","date":"2024-03-05","quantity":"1","unit_cost":"10"}`
	key := "6F9619FF-8B86-D011-B42D-00C04FC964FF"

	require.Equal(t, http.StatusCreated, postMovement(t, h, body, key).Code)
	require.True(t, idem.keys[strings.ToLower(key)])
	require.Equal(t, http.StatusBadRequest, postMovement(t, h, body, key).Code)
}

func TestHandleMovementRejectsBadInput(t *testing.T) {
	h := newTestRouter(newService(newMemoryRepo(), ServiceConfig{}))

	cases := map[string]struct {
		body string
		key  string
	}{
		"bad key":      {body: `{"product_id":1,"type":"PURCHASE","quantity":"1","unit_cost":"10"}`, key: "not-a-uuid"},
		"bad date":     {body: `{"product_id":1,"type":"PURCHASE","date":"05/03/2024","quantity":"1","unit_cost":"10"}`},
		"unknown type": {body: `{"product_id":1,"type":"GIFT","quantity":"1"}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := postMovement(t, h, tc.body, tc.key)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestHandleMovementRequiresCompany(t *testing.T) {
	h := newTestRouter(newService(newMemoryRepo(), ServiceConfig{}))
	req := httptest.NewRequest(http.MethodPost, "/movements", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
