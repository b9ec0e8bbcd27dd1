package audit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// ActorHeader carries the caller's identity. Requests without it are
// recorded as anonymous.
const ActorHeader = "X-Actor"

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rc *responseCapture) WriteHeader(code int) {
	if !rc.written {
		rc.statusCode = code
		rc.written = true
	}
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.written {
		rc.statusCode = http.StatusOK
		rc.written = true
	}
	return rc.ResponseWriter.Write(b)
}

// Middleware records an Event for every state-changing request once the
// handler has completed. Write failures are logged and never fail the
// request.
func Middleware(store *Store, cfg *Config, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg == nil || !cfg.Enabled || store == nil || !isAudited(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(capture, r)

			outcome := outcomeFromStatus(capture.statusCode)
			if outcome == OutcomeDenied && !cfg.LogDenied {
				return
			}

			ctx := r.Context()
			actor := r.Header.Get(ActorHeader)
			if actor == "" {
				actor = "anonymous"
			}
			requestID := middleware.GetReqID(ctx)
			correlationID := r.Header.Get("X-Correlation-ID")
			if correlationID == "" {
				correlationID = requestID
			}

			info := parsePath(r.Method, r.URL.Path)
			event := &Event{
				ID:            uuid.New().String(),
				CorrelationID: correlationID,
				Actor:         actor,
				RequestID:     requestID,
				DocumentID:    info.documentID,
				ResourceType:  info.resourceType,
				ResourceID:    info.resourceID,
				Action:        info.action,
				Outcome:       outcome,
				StatusCode:    capture.statusCode,
				CreatedAt:     start.UTC(),
				Metadata: map[string]any{
					"method":   r.Method,
					"path":     r.URL.Path,
					"duration": time.Since(start).String(),
				},
			}

			if err := store.Append(ctx, event); err != nil {
				logger.Error("failed to write audit event", "error", err, "requestID", requestID)
			}
		})
	}
}
