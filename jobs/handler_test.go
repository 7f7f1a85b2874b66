package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	ctxshared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

type stubEnqueuer struct {
	companies []int64
	err       error
}

func (s *stubEnqueuer) EnqueueGLIntegrity(ctx context.Context, companyID int64) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.companies = append(s.companies, companyID)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueLedger}, nil
}

func serveJobs(h *Handler, method, path string, companyID int64) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.MountRoutes(r)
	req := httptest.NewRequest(method, path, nil)
	if companyID > 0 {
		req = req.WithContext(ctxshared.ContextWithCompany(req.Context(), companyID))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestHealthReportsQueueDepth(t *testing.T) {
	h := NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueLedger, Pending: 3, Retry: 1}}, nil, quietLogger())
	rec := serveJobs(h, http.MethodGet, "/health", 0)
	require.Equal(t, http.StatusOK, rec.Code)

	var out queueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, queueHealth{Queue: QueueLedger, Pending: 3, Retry: 1}, out)
}

func TestHealthTreatsMissingQueueAsEmpty(t *testing.T) {
	h := NewHandler(stubInspector{err: asynq.ErrQueueNotFound}, nil, quietLogger())
	require.Equal(t, http.StatusOK, serveJobs(h, http.MethodGet, "/health", 0).Code)

	h = NewHandler(stubInspector{err: errors.New("redis down")}, nil, quietLogger())
	require.Equal(t, http.StatusServiceUnavailable, serveJobs(h, http.MethodGet, "/health", 0).Code)
}

func TestQueueIntegrityScopesToCompany(t *testing.T) {
	enq := &stubEnqueuer{}
	h := NewHandler(nil, enq, quietLogger())

	rec := serveJobs(h, http.MethodPost, "/gl-integrity", 7)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []int64{7}, enq.companies)

	require.Equal(t, http.StatusBadRequest, serveJobs(h, http.MethodPost, "/gl-integrity", 0).Code)
}

func TestQueueIntegrityDuplicateIsNotAnError(t *testing.T) {
	h := NewHandler(nil, &stubEnqueuer{err: asynq.ErrDuplicateTask}, quietLogger())
	rec := serveJobs(h, http.MethodPost, "/gl-integrity", 7)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "already_queued")

	require.Equal(t, http.StatusServiceUnavailable, serveJobs(NewHandler(nil, nil, quietLogger()), http.MethodPost, "/gl-integrity", 7).Code)
}
