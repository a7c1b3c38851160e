package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DEV_MODE", "LOG_LEVEL", "DATABASE_PATH", "HISTORY_DIR",
		"SIMULATION_PERIOD_DAYS", "INITIAL_CAPITAL", "TRANSACTION_COST",
		"RISK_FREE_RATE", "ASSUMED_MARKET_RETURN", "BENCHMARK_FETCH_DELAY_MS",
		"RETENTION_DAYS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 252, cfg.SimulationPeriodDays)
	assert.Equal(t, 100_000_000.0, cfg.InitialCapital)
	assert.Equal(t, 0.003, cfg.TransactionCost)
	assert.Equal(t, 0.03, cfg.RiskFreeRate)
	assert.Equal(t, 0.08, cfg.AssumedMarketReturn)
	assert.Equal(t, 100*time.Millisecond, cfg.BenchmarkFetchDelay)
	assert.Equal(t, 180, cfg.RetentionDays)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("TRANSACTION_COST", "0.001")
	t.Setenv("RETENTION_DAYS", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 0.001, cfg.TransactionCost)
	assert.Equal(t, 30, cfg.RetentionDays)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing database path", func(c *Config) { c.DatabasePath = "" }, "DATABASE_PATH"},
		{"non-positive capital", func(c *Config) { c.InitialCapital = 0 }, "INITIAL_CAPITAL"},
		{"negative cost", func(c *Config) { c.TransactionCost = -0.01 }, "TRANSACTION_COST"},
		{"cost at one", func(c *Config) { c.TransactionCost = 1.0 }, "TRANSACTION_COST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				DatabasePath:    "./test.db",
				InitialCapital:  1000,
				TransactionCost: 0.003,
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
