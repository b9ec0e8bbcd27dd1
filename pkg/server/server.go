// Package server exposes the risk engine over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"

	"github.com/firesurvey/risk-engine/pkg/audit"
	"github.com/firesurvey/risk-engine/pkg/engine"
	"github.com/firesurvey/risk-engine/pkg/metrics"
	"github.com/firesurvey/risk-engine/pkg/recommendations"
)

// APIPrefix is the base path of every versioned endpoint.
const APIPrefix = "/api/v1"

// Server wires the engine and its optional stores to HTTP routes.
type Server struct {
	engine      *engine.Service
	recStore    *recommendations.Store
	pipeline    *recommendations.Pipeline
	auditStore  *audit.Store
	auditConfig *audit.Config
	db          *gorm.DB
	metrics     *metrics.Metrics
	corsOrigins []string
	logger      *slog.Logger
	startedAt   time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithRecommendations mounts the recommendation and document summary
// endpoints.
func WithRecommendations(store *recommendations.Store, pipeline *recommendations.Pipeline) Option {
	return func(s *Server) {
		s.recStore = store
		s.pipeline = pipeline
	}
}

// WithAudit records state-changing requests and mounts the audit API.
func WithAudit(store *audit.Store, cfg *audit.Config) Option {
	return func(s *Server) {
		s.auditStore = store
		s.auditConfig = cfg
	}
}

// WithDB makes /readyz ping the database.
func WithDB(db *gorm.DB) Option {
	return func(s *Server) { s.db = db }
}

// WithMetrics instruments every request and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server around svc.
func New(svc *engine.Service, opts ...Option) *Server {
	s := &Server{
		engine:      svc,
		corsOrigins: []string{"*"},
		logger:      slog.Default(),
		startedAt:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the HTTP handler.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", audit.ActorHeader, "X-Correlation-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if s.auditStore != nil && s.auditConfig != nil && s.auditConfig.Enabled {
		r.Use(audit.Middleware(s.auditStore, s.auditConfig, s.logger))
		s.logger.Info("audit middleware enabled",
			"logDenied", s.auditConfig.LogDenied,
			"retentionDays", s.auditConfig.RetentionDays)
	}

	r.Get("/healthz", s.healthHandler)
	r.Get("/livez", s.healthHandler)
	r.Get("/readyz", s.readyHandler)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route(APIPrefix, func(r chi.Router) {
		r.Get("/catalog", s.catalogHandler)
		r.Get("/catalog/doc-types/{docType}/modules", s.docTypeModulesHandler)
		r.Get("/catalog/resolve/{key}", s.resolveKeyHandler)
		r.Get("/factors", s.factorsHandler)

		r.Post("/scores/building", s.buildingScoreHandler)
		r.Post("/scores/site", s.siteScoreHandler)
		r.Post("/triggers", s.triggersHandler)
		r.Post("/evaluations", s.evaluationHandler)

		if s.recStore != nil {
			r.Get("/documents/{documentId}/summary", s.summaryHandler)
			recommendations.RegisterRoutes(r, s.recStore, s.pipeline)
			s.logger.Info("mounted recommendation routes", "ratings", s.pipeline != nil)
		}
		if s.auditStore != nil {
			r.Mount("/audit", audit.Router(s.auditStore))
			s.logger.Info("mounted audit routes")
		}
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": "database unreachable: " + err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ready",
		"catalogVersion": s.engine.Catalog().Version(),
		"tablesVersion":  s.engine.Tables().Version(),
	})
}
