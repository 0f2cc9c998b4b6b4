package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/ats/internal/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	t.Setenv("ATS_TEST_DB_URL", "postgres://ats@localhost:5432/ats")
	path := writeConfig(t, `
gateway:
  timeout: 5s
  cash: 50000
runner:
  interval: 1h
  duration: "10 Y"
indicators:
  monthly_fast: 12
strategies:
  - symbol: S1
    name: Trend IUSQ
    instrument: IUSQ
    exchange: IBIS
    currency: EUR
    target_weight: 10
    min_weight: 8
    max_weight: 12
store:
  kind: postgres
  url: "${ATS_TEST_DB_URL}"
log:
  level: debug
  file: /tmp/ats.log
  sink:
    capacity: 50
server:
  port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 50000.0, cfg.Gateway.Cash)
	assert.Equal(t, "paper", cfg.Gateway.Broker, "default kept")
	assert.Equal(t, time.Hour, cfg.Runner.Interval)
	assert.Equal(t, "10 Y", cfg.Runner.Duration)
	assert.Equal(t, 12, cfg.Indicators.MonthlyFast)
	assert.Equal(t, 50, cfg.Indicators.MonthlySlow, "default kept")

	require.Len(t, cfg.Strategies, 1)
	assert.Equal(t, "IUSQ", cfg.Strategies[0].InstrumentSymbol)
	assert.Equal(t, 12.0, cfg.Strategies[0].MaxWeight)

	assert.Equal(t, "postgres://ats@localhost:5432/ats", cfg.Store.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/ats.log", cfg.Log.File)
	assert.Equal(t, 50, cfg.Log.Sink.Capacity)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "30 Y", cfg.Runner.Duration)
	assert.Equal(t, 10, cfg.Indicators.MonthlyFast)
	assert.Equal(t, "memory", cfg.Store.Kind)

	opts := cfg.RunnerOptions()
	assert.Equal(t, cfg.Indicators, opts.Windows)
	assert.Equal(t, time.Minute, opts.Interval)
}

func TestConfig_Validate(t *testing.T) {
	strategy := core.StrategyConfig{StrategySymbol: "S1", InstrumentSymbol: "IUSQ", TargetWeight: 10, MinWeight: 8, MaxWeight: 12}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"invalid port - zero", func(c *Config) { c.Server.Port = 0 }, core.ErrConfigInvalid},
		{"invalid port - too high", func(c *Config) { c.Server.Port = 70000 }, core.ErrConfigInvalid},
		{"port ignored when server disabled", func(c *Config) { c.Server.Port = 0; c.Server.Enabled = false }, nil},
		{"unknown broker", func(c *Config) { c.Gateway.Broker = "ib" }, core.ErrConfigInvalid},
		{"unknown history", func(c *Config) { c.Gateway.History = "csv" }, core.ErrConfigInvalid},
		{"zero interval", func(c *Config) { c.Runner.Interval = 0 }, core.ErrConfigInvalid},
		{"bad duration", func(c *Config) { c.Runner.Duration = "forever" }, core.ErrConfigInvalid},
		{"bad window", func(c *Config) { c.Indicators.MonthlySlow = 0 }, core.ErrConfigInvalid},
		{"bad band", func(c *Config) {
			s := strategy
			s.MinWeight = 11
			c.Strategies = []core.StrategyConfig{s}
		}, core.ErrConfigInvalid},
		{"duplicate strategy", func(c *Config) { c.Strategies = []core.StrategyConfig{strategy, strategy} }, core.ErrConfigInvalid},
		{"postgres without url", func(c *Config) { c.Store.Kind = "postgres" }, core.ErrConfigMissing},
		{"unknown store", func(c *Config) { c.Store.Kind = "redis" }, core.ErrConfigInvalid},
		{"s3 without bucket", func(c *Config) { c.Archive.Kind = "s3" }, core.ErrConfigMissing},
		{"valid strategies", func(c *Config) { c.Strategies = []core.StrategyConfig{strategy} }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
