package config

import (
	"testing"
	"time"

	"gopower/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "POWER_Z_ALPHA", "POWER_CONFIDENCE_LEVEL", "POWER_DEFAULT_LEVEL", "SIM_TRIALS", "SIM_WORKERS", "METRICS_ENABLED", "SHUTDOWN_TIMEOUT", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, 1.96, cfg.Power.ZAlpha)
	assert.Equal(t, 0.8, cfg.Power.DefaultPower)
	assert.Equal(t, 2000, cfg.Simulation.Trials)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gopower")
	t.Setenv("POWER_Z_ALPHA", "2.5758")
	t.Setenv("SIM_WORKERS", "8")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, 2.5758, cfg.Power.ZAlpha)
	assert.Equal(t, 8, cfg.Simulation.Workers)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("POWER_DEFAULT_LEVEL", "1")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoad_UnparseableFallsBack(t *testing.T) {
	t.Setenv("SIM_TRIALS", "lots")
	t.Setenv("POWER_DEFAULT_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.Simulation.Trials)
}

func TestLoad_LogLevel(t *testing.T) {
	t.Setenv("POWER_DEFAULT_LEVEL", "")
	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)

	t.Setenv("LOG_LEVEL", "chatty")
	_, err = Load()
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
