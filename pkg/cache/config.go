package cache

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// CacheConfig holds configuration for the template library cache.
type CacheConfig struct {
	// Enabled controls whether caching is active. When false every lookup
	// reads the store.
	Enabled bool

	// TTL bounds how long a template edit can take to become visible.
	TTL time.Duration

	// MaxSize is the maximum number of cached entries.
	MaxSize int
}

// DefaultCacheConfig returns a CacheConfig with sensible defaults.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Enabled: true,
		TTL:     60 * time.Second,
		MaxSize: 64,
	}
}

// CacheConfigFromEnv reads cache configuration from environment variables,
// falling back to defaults for any unset variable.
//
// Environment variables:
//   - RISK_ENGINE_TEMPLATE_CACHE_ENABLED: "true" or "false" (default: "true")
//   - RISK_ENGINE_TEMPLATE_CACHE_TTL: duration in seconds (default: 60)
//   - RISK_ENGINE_TEMPLATE_CACHE_MAX_SIZE: max entries (default: 64)
func CacheConfigFromEnv() *CacheConfig {
	cfg := DefaultCacheConfig()

	if v := os.Getenv("RISK_ENGINE_TEMPLATE_CACHE_ENABLED"); v != "" {
		cfg.Enabled = strings.EqualFold(v, "true") || v == "1"
	}

	if v := os.Getenv("RISK_ENGINE_TEMPLATE_CACHE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.TTL = time.Duration(secs) * time.Second
		}
	}

	if v := os.Getenv("RISK_ENGINE_TEMPLATE_CACHE_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSize = n
		}
	}

	return cfg
}
