package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("DB_DSN", "")
	t.Setenv("WS_ORIGIN", "")
	t.Setenv("RISK_TIMEZONE", "")
	t.Setenv("SEED_DEMO", "")
	t.Setenv("QUOTE_INTERVAL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "*", cfg.WebSocketOrigin)
	assert.Equal(t, "UTC", cfg.RiskTimezone)
	// No database configured: the in-memory store gets seeded.
	assert.True(t, cfg.SeedDemo)
	assert.Equal(t, 2*time.Second, cfg.QuoteInterval)
}

func TestLoadMissingAddr(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_ADDR")
}

func TestLoadRejectsInvalidTimezone(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("RISK_TIMEZONE", "Not/AZone")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RISK_TIMEZONE")
}

func TestLoadSeedDisabledWithDatabase(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("DB_DSN", "postgres://localhost/riskdash")
	t.Setenv("SEED_DEMO", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.SeedDemo)

	t.Setenv("SEED_DEMO", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.SeedDemo)
}

func TestLoadQuoteInterval(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("QUOTE_INTERVAL", "500ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.QuoteInterval)
}
