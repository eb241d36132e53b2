package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Mock")
	t.Setenv("ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, cfg.LLMProvider)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 3, cfg.LLMMaxRetries)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.SessionSweepInterval)
	assert.Equal(t, 30, cfg.ThrottleLimit)
	assert.Equal(t, 24*time.Hour, cfg.ReportCacheTTL)
	assert.Equal(t, "http://localhost:4200", cfg.CORSOrigin)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openrouter")
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("SESSION_TTL", "10m")
	t.Setenv("THROTTLE_LIMIT", "5")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.ThrottleLimit)
	assert.True(t, cfg.AuthEnabled())
}

func TestLoad_RejectsBadDuration(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("LLM_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		LLMProvider:   ProviderOpenRouter,
		LLMTimeout:    time.Minute,
		SessionTTL:    time.Minute,
		ThrottleLimit: 1,
		ThrottleTTL:   time.Minute,
	}

	err := base.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENROUTER_API_KEY")

	vertex := base
	vertex.LLMProvider = ProviderVertex
	assert.ErrorContains(t, vertex.Validate(), "VERTEX_PROJECT_ID")

	mockProd := base
	mockProd.LLMProvider = ProviderMock
	mockProd.Env = "production"
	assert.ErrorContains(t, mockProd.Validate(), "not allowed in production")

	unknown := base
	unknown.LLMProvider = "gpt"
	unknown.LLMMaxRetries = -1
	err = unknown.Validate()
	assert.ErrorContains(t, err, "LLM_PROVIDER must be one of")
	assert.ErrorContains(t, err, "LLM_MAX_RETRIES")

	ok := base
	ok.OpenRouterAPIKey = "sk"
	assert.NoError(t, ok.Validate())
}
