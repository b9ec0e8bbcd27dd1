package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditedRouter(s *Store, cfg *Config, status int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Middleware(s, cfg, nil))
	h := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(status) }
	r.Post("/api/v1/recommendations/{id}:suppress", h)
	r.Get("/api/v1/recommendations/{id}", h)
	r.Post("/api/v1/scores/site", h)
	return r
}

func listAll(t *testing.T, s *Store) []Event {
	t.Helper()
	events, _, _, err := s.List(context.Background(), ListFilter{}, 100, "")
	require.NoError(t, err)
	return events
}

func TestMiddlewareRecordsMutation(t *testing.T) {
	s := setupTestStore(t)
	h := auditedRouter(s, DefaultConfig(), http.StatusOK)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/rec-1:suppress", nil)
	req.Header.Set(ActorHeader, "surveyor@example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	events := listAll(t, s)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "surveyor@example.com", ev.Actor)
	assert.Equal(t, "rec-1", ev.ResourceID)
	assert.Equal(t, "suppress", ev.Action)
	assert.Equal(t, OutcomeSuccess, ev.Outcome)
	assert.NotEmpty(t, ev.RequestID)
	assert.Equal(t, ev.RequestID, ev.CorrelationID)
}

func TestMiddlewareSkipsReadsAndComputations(t *testing.T) {
	s := setupTestStore(t)
	h := auditedRouter(s, DefaultConfig(), http.StatusOK)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/rec-1", nil),
		httptest.NewRequest(http.MethodPost, "/api/v1/scores/site", nil),
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Empty(t, listAll(t, s))
}

func TestMiddlewareDeniedRespectsConfig(t *testing.T) {
	s := setupTestStore(t)
	cfg := &Config{Enabled: true, LogDenied: false}
	h := auditedRouter(s, cfg, http.StatusForbidden)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/rec-1:suppress", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, listAll(t, s))
}

func TestMiddlewareDisabledOrNilStore(t *testing.T) {
	for name, h := range map[string]http.Handler{
		"disabled":  auditedRouter(setupTestStore(t), &Config{Enabled: false}, http.StatusOK),
		"nil store": auditedRouter(nil, DefaultConfig(), http.StatusOK),
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/rec-1:suppress", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestEventHandlers(t *testing.T) {
	s := setupTestStore(t)
	h := auditedRouter(s, DefaultConfig(), http.StatusOK)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/rec-1:suppress", nil))

	api := Router(s)
	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events?resourceId=rec-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Events    []eventResponse `json:"events"`
		TotalSize int             `json:"totalSize"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.TotalSize)

	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/"+body.Events[0].ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events?pageToken=bad", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
