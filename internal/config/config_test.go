package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/vitalcoach-backend/internal/revision"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ENV", "PORT", "THREAD_WINDOW", "LLM_API_KEY", "OPENROUTER_API_KEY", "ALLOWED_ORIGINS", "FRONTEND_URL", "STORE_BACKEND", "LLM_TEMPERATURE", "LLM_TIMEOUT_SECONDS", "TRUST_PROXY"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, 20, cfg.ThreadWindow)
	assert.Equal(t, 4, cfg.PlanDurationWeeks)
	assert.Equal(t, 120*time.Second, cfg.LLMTimeout)
	assert.InDelta(t, 0.7, cfg.LLMTemperature, 0.0001)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.AllowedHost)
	assert.False(t, cfg.TrustProxy)
}

func TestLoadProductionHostAndOrigins(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("HOST", "https://api.vitalcoach.app:443/v1")
	t.Setenv("ALLOWED_ORIGINS", "https://vitalcoach.app, https://www.vitalcoach.app ,")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("LLM_API_KEY", "")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "api.vitalcoach.app", cfg.AllowedHost)
	assert.Equal(t, []string{"https://vitalcoach.app", "https://www.vitalcoach.app"}, cfg.AllowedOrigins)
	assert.Equal(t, "or-key", cfg.LLMAPIKey)
	assert.True(t, cfg.TrustProxy)
}

func TestRevisionPolicyOverrides(t *testing.T) {
	t.Setenv("REVISION_MIN_LENGTH", "900")
	t.Setenv("REVISION_INTENT_WORDS", "cambiar, modificar")
	t.Setenv("REVISION_PLAN_PHRASES", "")

	p := Load().RevisionPolicy()

	require.Equal(t, 900, p.MinLength)
	assert.Equal(t, []string{"cambiar", "modificar"}, p.IntentWords)
	assert.Equal(t, revision.DefaultPolicy().PlanPhrases, p.PlanPhrases)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("THREAD_WINDOW", "abc")
	t.Setenv("REVISION_MIN_LENGTH", "-5")

	cfg := Load()

	assert.Equal(t, 20, cfg.ThreadWindow)
	assert.Equal(t, revision.DefaultMinLength, cfg.RevisionMinLength)
}
