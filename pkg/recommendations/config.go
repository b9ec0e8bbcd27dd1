package recommendations

import (
	"os"
	"strconv"
	"time"

	"github.com/firesurvey/risk-engine/pkg/cache"
)

// PipelineConfig controls the recommendation persistence pipeline.
type PipelineConfig struct {
	StoreTimeout  time.Duration      // Upper bound on one ensure call's store work. Default 5s.
	Enabled       bool               // Whether auto-generation runs at all. Default true.
	TemplateCache *cache.CacheConfig // Template library cache.
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		StoreTimeout:  5 * time.Second,
		Enabled:       true,
		TemplateCache: cache.DefaultCacheConfig(),
	}
}

// PipelineConfigFromEnv loads config from environment variables.
// RISK_ENGINE_STORE_TIMEOUT_MS, RISK_ENGINE_AUTO_RECOMMENDATIONS plus the
// template cache variables read by cache.CacheConfigFromEnv.
func PipelineConfigFromEnv() *PipelineConfig {
	cfg := DefaultPipelineConfig()

	if v := os.Getenv("RISK_ENGINE_STORE_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StoreTimeout = time.Duration(n) * time.Millisecond
		}
	}

	if v := os.Getenv("RISK_ENGINE_AUTO_RECOMMENDATIONS"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}

	cfg.TemplateCache = cache.CacheConfigFromEnv()
	return cfg
}
