// Package config assembles the process configuration from defaults, an
// optional YAML file, RISK_ENGINE_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/firesurvey/risk-engine/pkg/audit"
	"github.com/firesurvey/risk-engine/pkg/cache"
	"github.com/firesurvey/risk-engine/pkg/db"
	"github.com/firesurvey/risk-engine/pkg/recommendations"
)

// EnvPrefix prefixes every environment override, e.g. RISK_ENGINE_SERVER_ADDR.
const EnvPrefix = "RISK_ENGINE"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full process configuration.
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Recommendations RecommendationsConfig `mapstructure:"recommendations"`
	Taxonomy        TaxonomyConfig        `mapstructure:"taxonomy"`
	Audit           AuditConfig           `mapstructure:"audit"`
	Log             LogConfig             `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	Metrics         bool          `mapstructure:"metrics"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Type          string        `mapstructure:"type"`
	DSN           string        `mapstructure:"dsn"`
	MaxOpenConns  int           `mapstructure:"max_open_conns"`
	ConnLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel      string        `mapstructure:"log_level"`
	MigrationLock bool          `mapstructure:"migration_lock"`
	AutoMigrate   bool          `mapstructure:"auto_migrate"`
}

type RecommendationsConfig struct {
	AutoGenerate     bool          `mapstructure:"auto_generate"`
	StoreTimeout     time.Duration `mapstructure:"store_timeout"`
	TemplatesFile    string        `mapstructure:"templates_file"`
	TemplateCache    bool          `mapstructure:"template_cache"`
	TemplateCacheTTL time.Duration `mapstructure:"template_cache_ttl"`
	WatchTemplates   bool          `mapstructure:"watch_templates"`
}

// TaxonomyConfig points at replacement catalog and weighting files. Empty
// paths select the built-in tables.
type TaxonomyConfig struct {
	CatalogFile string `mapstructure:"catalog_file"`
	TablesFile  string `mapstructure:"tables_file"`
}

type AuditConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	LogDenied     bool `mapstructure:"log_denied"`
	RetentionDays int  `mapstructure:"retention_days"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"addr":            "server.addr",
	"db-type":         "database.type",
	"db-dsn":          "database.dsn",
	"catalog":         "taxonomy.catalog_file",
	"tables":          "taxonomy.tables_file",
	"templates":       "recommendations.templates_file",
	"watch-templates": "recommendations.watch_templates",
	"log-level":       "log.level",
	"log-format":      "log.format",
}

func setDefaults(v *viper.Viper) {
	// The package-level environment variables form the lowest override
	// layer; RISK_ENGINE_<SECTION>_<KEY> still wins over them.
	dbDefaults := db.ConfigFromEnv()
	pipeline := recommendations.PipelineConfigFromEnv()
	cacheDefaults := pipeline.TemplateCache
	auditDefaults := audit.ConfigFromEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.metrics", true)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.type", dbDefaults.Type)
	v.SetDefault("database.dsn", dbDefaults.DSN)
	v.SetDefault("database.max_open_conns", dbDefaults.MaxOpenConns)
	v.SetDefault("database.conn_max_lifetime", dbDefaults.ConnMaxLifetime)
	v.SetDefault("database.log_level", dbDefaults.LogLevel)
	v.SetDefault("database.migration_lock", dbDefaults.MigrationLockEnabled)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("recommendations.auto_generate", pipeline.Enabled)
	v.SetDefault("recommendations.store_timeout", pipeline.StoreTimeout)
	v.SetDefault("recommendations.templates_file", "")
	v.SetDefault("recommendations.template_cache", cacheDefaults.Enabled)
	v.SetDefault("recommendations.template_cache_ttl", cacheDefaults.TTL)
	v.SetDefault("recommendations.watch_templates", false)

	v.SetDefault("taxonomy.catalog_file", "")
	v.SetDefault("taxonomy.tables_file", "")

	v.SetDefault("audit.enabled", auditDefaults.Enabled)
	v.SetDefault("audit.log_denied", auditDefaults.LogDenied)
	v.SetDefault("audit.retention_days", auditDefaults.RetentionDays)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. path may be empty; flags may be nil. Only flags
// the user actually set override lower layers.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	if _, err := db.Dialector(c.DBConfig()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Recommendations.StoreTimeout <= 0 {
		return fmt.Errorf("%w: recommendations.store_timeout must be positive", ErrInvalidConfig)
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// DBConfig converts the database section for pkg/db.
func (c *Config) DBConfig() *db.Config {
	return &db.Config{
		Type:                 c.Database.Type,
		DSN:                  c.Database.DSN,
		MaxOpenConns:         c.Database.MaxOpenConns,
		ConnMaxLifetime:      c.Database.ConnLifetime,
		LogLevel:             c.Database.LogLevel,
		MigrationLockEnabled: c.Database.MigrationLock,
	}
}

// PipelineConfig converts the recommendations section for the pipeline.
func (c *Config) PipelineConfig() *recommendations.PipelineConfig {
	cacheCfg := cache.CacheConfigFromEnv()
	cacheCfg.Enabled = c.Recommendations.TemplateCache
	if c.Recommendations.TemplateCacheTTL > 0 {
		cacheCfg.TTL = c.Recommendations.TemplateCacheTTL
	}
	return &recommendations.PipelineConfig{
		StoreTimeout:  c.Recommendations.StoreTimeout,
		Enabled:       c.Recommendations.AutoGenerate,
		TemplateCache: cacheCfg,
	}
}

// AuditConfig converts the audit section for pkg/audit.
func (c *Config) AuditConfig() *audit.Config {
	return &audit.Config{
		Enabled:       c.Audit.Enabled,
		LogDenied:     c.Audit.LogDenied,
		RetentionDays: c.Audit.RetentionDays,
	}
}
