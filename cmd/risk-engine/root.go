package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/firesurvey/risk-engine/pkg/audit"
	"github.com/firesurvey/risk-engine/pkg/config"
	"github.com/firesurvey/risk-engine/pkg/db"
	"github.com/firesurvey/risk-engine/pkg/recommendations"
	"github.com/firesurvey/risk-engine/pkg/taxonomy"
	"github.com/firesurvey/risk-engine/pkg/weighting"
)

// schemaModels are the tables owned by the risk engine.
var schemaModels = []any{
	&recommendations.Recommendation{},
	&recommendations.Template{},
	&audit.Event{},
}

type rootOptions struct {
	configPath string
	output     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "risk-engine",
		Short: "Fire risk survey scoring engine",
		Long: `risk-engine scores fire risk survey documents: it reconciles survey modules
against the module catalog, computes building, site and weighted overall
scores, evaluates deficiency triggers, keeps remediation recommendations and
aggregates the executive summary.

Configuration is read from an optional file (--config), RISK_ENGINE_*
environment variables and flags, in increasing order of precedence.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a YAML configuration file")
	pf.StringVarP(&opts.output, "output", "o", "table", "Output format: table, json, yaml")
	pf.String("db-type", "", "Database type (sqlite, postgres or mysql)")
	pf.String("db-dsn", "", "Database connection string")
	pf.String("catalog", "", "Module catalog file replacing the built-in catalog")
	pf.String("tables", "", "Weighting tables file replacing the built-in tables")
	pf.String("templates", "", "Recommendation templates file seeded on start")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text or json")
	pf.AddGoFlagSet(flag.CommandLine)

	cmd.AddCommand(
		newServeCmd(opts),
		newScoreCmd(opts),
		newCatalogCmd(opts),
		newFactorsCmd(opts),
		newTemplatesCmd(opts),
		newMigrateCmd(opts),
		newHealthCmd(opts),
	)
	return cmd
}

// runtime holds what every subcommand needs.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *taxonomy.Catalog
	tables  *weighting.Tables
	output  string
}

func loadRuntime(cmd *cobra.Command, opts *rootOptions) (*runtime, error) {
	cfg, err := config.Load(opts.configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	catalog, err := loadCatalog(cfg.Taxonomy.CatalogFile)
	if err != nil {
		return nil, err
	}
	tables, err := loadTables(cfg.Taxonomy.TablesFile)
	if err != nil {
		return nil, err
	}
	return &runtime{
		cfg:     cfg,
		logger:  logger,
		catalog: catalog,
		tables:  tables,
		output:  opts.output,
	}, nil
}

func loadCatalog(path string) (*taxonomy.Catalog, error) {
	if path == "" {
		return taxonomy.DefaultCatalog()
	}
	return taxonomy.LoadCatalogFile(path)
}

func loadTables(path string) (*weighting.Tables, error) {
	if path == "" {
		return weighting.DefaultTables()
	}
	return weighting.LoadTablesFile(path)
}

// openDB connects to the configured database and, when auto_migrate is on,
// migrates the schema under the migration lock.
func (rt *runtime) openDB(ctx context.Context) (*gorm.DB, error) {
	gdb, err := db.Open(rt.cfg.DBConfig())
	if err != nil {
		return nil, err
	}
	if rt.cfg.Database.AutoMigrate {
		if err := rt.migrate(ctx, gdb); err != nil {
			return nil, err
		}
	}
	return gdb, nil
}

func (rt *runtime) migrate(ctx context.Context, gdb *gorm.DB) error {
	locker, err := db.NewLocker(gdb, rt.cfg.Database.MigrationLock)
	if err != nil {
		return err
	}
	return db.Migrate(ctx, gdb, locker, schemaModels...)
}

// persistence builds the recommendation store and pipeline and seeds the
// default templates plus the configured templates file.
func (rt *runtime) persistence(ctx context.Context, gdb *gorm.DB) (*recommendations.Store, *recommendations.Pipeline, error) {
	pcfg := rt.cfg.PipelineConfig()
	lib := recommendations.NewLibrary(gdb, rt.catalog, pcfg.TemplateCache)
	if err := rt.seedTemplates(ctx, lib, rt.cfg.Recommendations.TemplatesFile); err != nil {
		return nil, nil, err
	}
	store := recommendations.NewStore(gdb)
	return store, recommendations.NewPipeline(store, lib, rt.catalog, pcfg, rt.logger), nil
}

func (rt *runtime) seedTemplates(ctx context.Context, lib *recommendations.Library, path string) error {
	defaults, err := recommendations.DefaultTemplates()
	if err != nil {
		return err
	}
	n, err := lib.Seed(ctx, defaults)
	if err != nil {
		return fmt.Errorf("seed default templates: %w", err)
	}
	rt.logger.Debug("seeded default templates", "count", n)
	if path == "" {
		return nil
	}
	n, err = lib.SeedFile(ctx, path)
	if err != nil {
		return err
	}
	rt.logger.Info("seeded templates", "path", path, "count", n)
	return nil
}
