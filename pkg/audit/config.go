package audit

import (
	"os"
	"strconv"
)

// Config controls audit behavior.
type Config struct {
	RetentionDays int  // Default 90
	LogDenied     bool // Whether to record 403 responses
	Enabled       bool // Whether the middleware records anything
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 90,
		LogDenied:     true,
		Enabled:       true,
	}
}

// ConfigFromEnv loads config from environment variables.
// RISK_ENGINE_AUDIT_RETENTION_DAYS, RISK_ENGINE_AUDIT_LOG_DENIED, RISK_ENGINE_AUDIT_ENABLED
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("RISK_ENGINE_AUDIT_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.RetentionDays = days
		}
	}
	if v := os.Getenv("RISK_ENGINE_AUDIT_LOG_DENIED"); v != "" {
		cfg.LogDenied, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("RISK_ENGINE_AUDIT_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}
	return cfg
}
