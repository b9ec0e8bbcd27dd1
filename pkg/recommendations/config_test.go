package recommendations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPipelineConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.True(t, cfg.Enabled)
	assert.NotNil(t, cfg.TemplateCache)
}

func TestPipelineConfigFromEnv(t *testing.T) {
	t.Setenv("RISK_ENGINE_STORE_TIMEOUT_MS", "250")
	t.Setenv("RISK_ENGINE_AUTO_RECOMMENDATIONS", "false")
	t.Setenv("RISK_ENGINE_TEMPLATE_CACHE_TTL", "5")

	cfg := PipelineConfigFromEnv()
	assert.Equal(t, 250*time.Millisecond, cfg.StoreTimeout)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 5*time.Second, cfg.TemplateCache.TTL)
}

func TestPipelineConfigFromEnvIgnoresInvalid(t *testing.T) {
	t.Setenv("RISK_ENGINE_STORE_TIMEOUT_MS", "-3")

	cfg := PipelineConfigFromEnv()
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
}
