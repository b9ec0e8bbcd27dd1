package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// ListEventsHandler handles GET /audit/events
// Query params: documentId, resourceId, actor, action, pageSize, pageToken
func ListEventsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := ListFilter{
			DocumentID: q.Get("documentId"),
			ResourceID: q.Get("resourceId"),
			Actor:      q.Get("actor"),
			Action:     q.Get("action"),
		}
		pageSize := defaultPageSize
		if ps := q.Get("pageSize"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 {
				pageSize = v
			}
		}

		events, next, total, err := store.List(r.Context(), filter, pageSize, q.Get("pageToken"))
		if err != nil {
			if errors.Is(err, ErrInvalidPageToken) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list audit events: %v", err))
			return
		}

		items := make([]eventResponse, len(events))
		for i := range events {
			items[i] = toResponse(events[i])
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"events":        items,
			"nextPageToken": next,
			"totalSize":     total,
		})
	}
}

// GetEventHandler handles GET /audit/events/{eventId}
func GetEventHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "eventId")
		ev, err := store.Get(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get audit event: %v", err))
			return
		}
		if ev == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("audit event %q not found", id))
			return
		}
		writeJSON(w, http.StatusOK, toResponse(*ev))
	}
}

type eventResponse struct {
	ID            string         `json:"id"`
	CorrelationID string         `json:"correlationId,omitempty"`
	Actor         string         `json:"actor"`
	RequestID     string         `json:"requestId,omitempty"`
	DocumentID    string         `json:"documentId,omitempty"`
	ResourceType  string         `json:"resourceType,omitempty"`
	ResourceID    string         `json:"resourceId,omitempty"`
	Action        string         `json:"action"`
	Outcome       string         `json:"outcome"`
	StatusCode    int            `json:"statusCode"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     string         `json:"createdAt"`
}

func toResponse(ev Event) eventResponse {
	return eventResponse{
		ID:            ev.ID,
		CorrelationID: ev.CorrelationID,
		Actor:         ev.Actor,
		RequestID:     ev.RequestID,
		DocumentID:    ev.DocumentID,
		ResourceType:  ev.ResourceType,
		ResourceID:    ev.ResourceID,
		Action:        ev.Action,
		Outcome:       ev.Outcome,
		StatusCode:    ev.StatusCode,
		Metadata:      ev.Metadata,
		CreatedAt:     ev.CreatedAt.Format(time.RFC3339Nano),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
