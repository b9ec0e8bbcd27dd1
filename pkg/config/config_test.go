package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Server.Metrics)
	assert.False(t, cfg.Recommendations.WatchTemplates)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "risk-engine.db", cfg.Database.DSN)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.True(t, cfg.Recommendations.AutoGenerate)
	assert.Equal(t, 5*time.Second, cfg.Recommendations.StoreTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, "risk-engine.yaml", `
server:
  addr: ":9000"
database:
  type: postgres
  dsn: host=file
recommendations:
  store_timeout: 2s
log:
  level: debug
`)
	t.Setenv("RISK_ENGINE_DATABASE_DSN", "host=env")
	t.Setenv("RISK_ENGINE_RECOMMENDATIONS_AUTO_GENERATE", "false")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", ":8080", "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--addr", ":7000"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr, "flag beats file")
	assert.Equal(t, "postgres", cfg.Database.Type, "file beats default")
	assert.Equal(t, "host=env", cfg.Database.DSN, "env beats file")
	assert.False(t, cfg.Recommendations.AutoGenerate)
	assert.Equal(t, 2*time.Second, cfg.Recommendations.StoreTimeout)
	assert.Equal(t, "debug", cfg.Log.Level, "unset flag does not override file")
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"database type", "database:\n  type: oracle\n"},
		{"store timeout", "recommendations:\n  store_timeout: 0s\n"},
		{"log level", "log:\n  level: loud\n"},
		{"log format", "log:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.yaml", tt.yaml), nil)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestConversions(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	cfg.Recommendations.TemplateCacheTTL = 3 * time.Second

	dbCfg := cfg.DBConfig()
	assert.Equal(t, "sqlite", dbCfg.Type)
	assert.True(t, dbCfg.MigrationLockEnabled)

	p := cfg.PipelineConfig()
	assert.Equal(t, 5*time.Second, p.StoreTimeout)
	assert.Equal(t, 3*time.Second, p.TemplateCache.TTL)

	a := cfg.AuditConfig()
	assert.True(t, a.Enabled)
	assert.Equal(t, 90, a.RetentionDays)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	log.Info("hidden")
	log.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
}

func TestLoadPackageEnvironmentFallback(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("DATABASE_DSN", "host=legacy")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "7")
	t.Setenv("RISK_ENGINE_STORE_TIMEOUT_MS", "1500")
	t.Setenv("RISK_ENGINE_AUTO_RECOMMENDATIONS", "false")
	t.Setenv("RISK_ENGINE_TEMPLATE_CACHE_TTL", "30")
	t.Setenv("RISK_ENGINE_TEMPLATE_CACHE_MAX_SIZE", "8")
	t.Setenv("RISK_ENGINE_AUDIT_RETENTION_DAYS", "14")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "host=legacy", cfg.Database.DSN)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, 1500*time.Millisecond, cfg.Recommendations.StoreTimeout)
	assert.False(t, cfg.Recommendations.AutoGenerate)
	assert.Equal(t, 30*time.Second, cfg.Recommendations.TemplateCacheTTL)
	assert.Equal(t, 14, cfg.Audit.RetentionDays)
	assert.Equal(t, 8, cfg.PipelineConfig().TemplateCache.MaxSize)

	// The sectioned variables still take precedence.
	t.Setenv("RISK_ENGINE_DATABASE_DSN", "host=sectioned")
	cfg, err = Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "host=sectioned", cfg.Database.DSN)
}
