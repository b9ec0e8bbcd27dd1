package db

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds database connection settings.
type Config struct {
	// Type is one of sqlite, postgres or mysql.
	Type string

	// DSN is the driver-specific connection string. For sqlite it is a file
	// path or ":memory:".
	DSN string

	// MaxOpenConns bounds the connection pool. Zero leaves the driver default.
	MaxOpenConns int

	// ConnMaxLifetime recycles pooled connections. Zero disables recycling.
	ConnMaxLifetime time.Duration

	// LogLevel is the gorm log level: silent, error, warn or info.
	LogLevel string

	// MigrationLockEnabled serializes schema migration across replicas.
	MigrationLockEnabled bool
}

// DefaultConfig returns a Config for a local sqlite file.
func DefaultConfig() *Config {
	return &Config{
		Type:                 TypeSQLite,
		DSN:                  "risk-engine.db",
		ConnMaxLifetime:      30 * time.Minute,
		LogLevel:             "warn",
		MigrationLockEnabled: true,
	}
}

// ConfigFromEnv reads database configuration from environment variables,
// falling back to defaults for any unset variable.
//
// Environment variables:
//   - DATABASE_TYPE: sqlite, postgres or mysql (default: "sqlite")
//   - DATABASE_DSN: connection string (default: "risk-engine.db")
//   - DATABASE_MAX_OPEN_CONNS: pool size (default: driver default)
//   - DATABASE_LOG_LEVEL: silent, error, warn or info (default: "warn")
//   - RISK_ENGINE_MIGRATION_LOCK_ENABLED: "true" or "false" (default: "true")
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		cfg.Type = strings.ToLower(v)
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("DATABASE_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxOpenConns = n
		}
	}
	if v := os.Getenv("DATABASE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("RISK_ENGINE_MIGRATION_LOCK_ENABLED"); v != "" {
		cfg.MigrationLockEnabled = strings.EqualFold(v, "true") || v == "1"
	}

	return cfg
}
