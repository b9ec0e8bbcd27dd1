package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/firesurvey/risk-engine/pkg/audit"
	"github.com/firesurvey/risk-engine/pkg/engine"
	"github.com/firesurvey/risk-engine/pkg/metrics"
	"github.com/firesurvey/risk-engine/pkg/recommendations"
	"github.com/firesurvey/risk-engine/pkg/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
	cmd.Flags().String("addr", "", "Address to listen on (default :8080)")
	cmd.Flags().Bool("watch-templates", false, "Reseed templates when the templates file changes")
	return cmd
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	rt, err := loadRuntime(cmd, opts)
	if err != nil {
		return err
	}
	logger := rt.logger

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := rt.openDB(ctx)
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}
	recStore, pipeline, err := rt.persistence(ctx, gdb)
	if err != nil {
		glog.Fatalf("Failed to set up recommendations: %v", err)
	}

	var m *metrics.Metrics
	if rt.cfg.Server.Metrics {
		m = metrics.New()
	}

	svc := engine.NewService(rt.catalog, rt.tables,
		engine.WithPersistence(pipeline, recStore),
		engine.WithMetrics(m),
		engine.WithLogger(logger))

	if path := rt.cfg.Recommendations.TemplatesFile; path != "" && rt.cfg.Recommendations.WatchTemplates {
		w := recommendations.NewTemplateWatcher(pipeline.Library(), path, 0, logger)
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("template watcher stopped", "error", err)
			}
		}()
	}

	auditCfg := rt.cfg.AuditConfig()
	auditStore := audit.NewStore(gdb)
	go audit.NewRetentionWorker(auditStore, auditCfg.RetentionDays, logger).Run(ctx)

	router := server.New(svc,
		server.WithLogger(logger),
		server.WithDB(gdb),
		server.WithCORSOrigins(rt.cfg.Server.CORSOrigins),
		server.WithRecommendations(recStore, pipeline),
		server.WithAudit(auditStore, auditCfg),
		server.WithMetrics(m),
	).Routes()

	httpServer := &http.Server{
		Addr:         rt.cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  rt.cfg.Server.ReadTimeout,
		WriteTimeout: rt.cfg.Server.WriteTimeout,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	logger.Info("risk engine ready",
		"listen", rt.cfg.Server.Addr,
		"database", gdb.Dialector.Name(),
		"catalogVersion", rt.catalog.Version(),
		"tablesVersion", rt.tables.Version())

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("risk engine stopped")
	return nil
}
