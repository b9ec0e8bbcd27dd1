package recommendations

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/firesurvey/risk-engine/pkg/scoring"
)

// ListHandler handles GET /documents/{documentId}/recommendations
// Query params: status, source, includeSuppressed
func ListHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := chi.URLParam(r, "documentId")
		q := r.URL.Query()
		filter := ListFilter{
			Status: Status(q.Get("status")),
			Source: Source(q.Get("source")),
		}
		if v := q.Get("includeSuppressed"); v != "" {
			filter.IncludeSuppressed, _ = strconv.ParseBool(v)
		}

		records, err := store.ListByDocument(r.Context(), docID, filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list recommendations: %v", err))
			return
		}

		items := make([]recommendationResponse, len(records))
		for i := range records {
			items[i] = toResponse(&records[i])
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"recommendations": items,
			"totalSize":       len(items),
		})
	}
}

// createRequest is the body of a manual recommendation.
type createRequest struct {
	Title          string     `json:"title"`
	Observation    string     `json:"observation"`
	ActionRequired string     `json:"actionRequired"`
	Hazard         string     `json:"hazard"`
	Priority       Priority   `json:"priority"`
	Category       string     `json:"category"`
	Owner          string     `json:"owner"`
	TargetDate     *time.Time `json:"targetDate"`
}

// CreateHandler handles POST /documents/{documentId}/recommendations
func CreateHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		rec, err := store.CreateManual(r.Context(), &Recommendation{
			DocumentID:     chi.URLParam(r, "documentId"),
			Title:          req.Title,
			Observation:    req.Observation,
			ActionRequired: req.ActionRequired,
			Hazard:         req.Hazard,
			Priority:       req.Priority,
			Category:       req.Category,
			Owner:          req.Owner,
			TargetDate:     req.TargetDate,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toResponse(rec))
	}
}

// ratingRequest reports a factor rating change.
type ratingRequest struct {
	ModuleKey string         `json:"moduleKey"`
	FactorKey string         `json:"factorKey"`
	Rating    scoring.Rating `json:"rating"`
	Industry  string         `json:"industry"`
}

// RatingHandler handles POST /documents/{documentId}/ratings. It responds
// with the ensured recommendation id, or a null id when none applies.
func RatingHandler(pipeline *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ratingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if req.ModuleKey == "" || req.FactorKey == "" {
			writeError(w, http.StatusBadRequest, "moduleKey and factorKey are required")
			return
		}

		id := pipeline.EnsureRecommendationFromRating(r.Context(),
			chi.URLParam(r, "documentId"), req.ModuleKey, req.FactorKey, req.Rating, req.Industry)
		var out *string
		if id != "" {
			out = &id
		}
		writeJSON(w, http.StatusOK, map[string]any{"recommendationId": out})
	}
}

// GetHandler handles GET /recommendations/{id}
func GetHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(rec))
	}
}

// StatusHandler handles PATCH /recommendations/{id}/status
func StatusHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status Status `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		rec, err := store.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(rec))
	}
}

// SuppressHandler handles POST /recommendations/{id}:suppress
func SuppressHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := store.Suppress(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(rec))
	}
}

// recommendationResponse is the API response for a recommendation.
type recommendationResponse struct {
	ID              string `json:"id"`
	DocumentID      string `json:"documentId"`
	Source          string `json:"source"`
	SourceModuleKey string `json:"sourceModuleKey,omitempty"`
	SourceFactorKey string `json:"sourceFactorKey,omitempty"`
	Variant         string `json:"variant,omitempty"`
	TemplateID      string `json:"templateId,omitempty"`
	Category        string `json:"category,omitempty"`
	Priority        string `json:"priority"`
	PriorityBand    string `json:"priorityBand"`
	Status          string `json:"status"`
	Title           string `json:"title"`
	Observation     string `json:"observation,omitempty"`
	ActionRequired  string `json:"actionRequired,omitempty"`
	Hazard          string `json:"hazard,omitempty"`
	Owner           string `json:"owner,omitempty"`
	TargetDate      string `json:"targetDate,omitempty"`
	Suppressed      bool   `json:"suppressed"`
	SuppressedAt    string `json:"suppressedAt,omitempty"`
	CreatedAt       string `json:"createdAt"`
}

func toResponse(rec *Recommendation) recommendationResponse {
	resp := recommendationResponse{
		ID:              rec.ID,
		DocumentID:      rec.DocumentID,
		Source:          string(rec.Source),
		SourceModuleKey: rec.SourceModuleKey,
		SourceFactorKey: rec.SourceFactorKey,
		Variant:         rec.Variant,
		Category:        rec.Category,
		Priority:        string(rec.Priority),
		PriorityBand:    string(rec.Priority.Band()),
		Status:          string(rec.Status),
		Title:           rec.Title,
		Observation:     rec.Observation,
		ActionRequired:  rec.ActionRequired,
		Hazard:          rec.Hazard,
		Owner:           rec.Owner,
		Suppressed:      rec.Suppressed(),
		CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.TemplateID != nil {
		resp.TemplateID = *rec.TemplateID
	}
	if rec.TargetDate != nil {
		resp.TargetDate = rec.TargetDate.Format(time.RFC3339)
	}
	if rec.SuppressedAt != nil {
		resp.SuppressedAt = rec.SuppressedAt.Format(time.RFC3339)
	}
	return resp
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidRecommendation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSuppressed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
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
