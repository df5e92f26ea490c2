package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:14000", cfg.BaseURL)
	assert.Equal(t, "admin@nocobase.com", cfg.Account)
	assert.Equal(t, "admin123", cfg.Password)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("NB_URL", "http://nocobase.internal:8000")
	t.Setenv("NB_USER", "ops@example.com")
	t.Setenv("NB_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://nocobase.internal:8000", cfg.BaseURL)
	assert.Equal(t, "ops@example.com", cfg.Account)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	// Untouched vars keep their defaults.
	assert.Equal(t, "admin123", cfg.Password)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("NB_TIMEOUT", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	require.NoError(t, cfg.validate())

	cfg.BaseURL = ""
	assert.Error(t, cfg.validate())

	cfg = defaults()
	cfg.Timeout = 0
	assert.Error(t, cfg.validate())

	cfg = defaults()
	cfg.Account = ""
	assert.Error(t, cfg.validate())
}
