package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PGSQL_URL", "")
	t.Setenv("ACCRUAL_PERIOD", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.TxMaxAttempts)
	assert.Equal(t, time.Second, cfg.TxBaseDelay)
	assert.Equal(t, 30*24*time.Hour, cfg.AccrualPeriod)
	assert.Equal(t, 100, cfg.AccrualBatchSize)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins, "empty variables keep the default")
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("TX_MAX_ATTEMPTS", "5")
	t.Setenv("TX_BASE_DELAY", "250ms")
	t.Setenv("ACCRUAL_PERIOD", "24h")
	t.Setenv("ACCRUAL_BATCH_SIZE", "0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TxMaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.TxBaseDelay)
	assert.Equal(t, 24*time.Hour, cfg.AccrualPeriod)
	assert.Equal(t, 100, cfg.AccrualBatchSize, "non-positive batch size falls back")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_BadDurationFallsBack(t *testing.T) {
	t.Setenv("TX_BASE_DELAY", "soon")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.TxBaseDelay)
}
