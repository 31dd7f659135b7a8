package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 50, cfg.Orchestrator.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Orchestrator.BatchDelay)
	assert.Equal(t, 30, cfg.Orchestrator.MaxConsecutiveFailures)
	assert.Equal(t, 7, cfg.Orchestrator.RefreshWindowDays)
	assert.InDelta(t, 0.80, cfg.Orchestrator.DefaultGasPrice, 1e-9)
	assert.Equal(t, 6, cfg.RetentionYears)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/prices")
	t.Setenv("BATCH_SIZE", "5")
	t.Setenv("MAX_CONSECUTIVE_FAILURES", "10")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/prices", cfg.DatabaseURL)
	assert.Equal(t, 5, cfg.Orchestrator.BatchSize)
	assert.Equal(t, 10, cfg.Orchestrator.MaxConsecutiveFailures)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}
