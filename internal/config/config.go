package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newthinker/ats/internal/api"
	"github.com/newthinker/ats/internal/core"
	"github.com/newthinker/ats/internal/gateway"
	"github.com/newthinker/ats/internal/indicator"
	"github.com/newthinker/ats/internal/logger"
	"github.com/newthinker/ats/internal/logsink"
	"github.com/newthinker/ats/internal/runner"
	"github.com/newthinker/ats/internal/storage/archive"
)

type Config struct {
	Gateway    GatewayConfig         `mapstructure:"gateway"`
	Runner     RunnerConfig          `mapstructure:"runner"`
	Indicators indicator.Windows     `mapstructure:"indicators"`
	Strategies []core.StrategyConfig `mapstructure:"strategies"`
	Store      StoreConfig           `mapstructure:"store"`
	Log        LogConfig             `mapstructure:"log"`
	Archive    archive.Config        `mapstructure:"archive"`
	Server     ServerConfig          `mapstructure:"server"`
	Metrics    MetricsConfig         `mapstructure:"metrics"`
}

// GatewayConfig selects the broker and where it gets price history.
type GatewayConfig struct {
	Broker  string        `mapstructure:"broker"`  // "paper"
	History string        `mapstructure:"history"` // "yahoo" or "" for none
	Timeout time.Duration `mapstructure:"timeout"`
	Cash    float64       `mapstructure:"cash"` // paper starting balance
	Yahoo   YahooConfig   `mapstructure:"yahoo"`
}

type YahooConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Adjusted bool          `mapstructure:"adjusted"`
}

type RunnerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	Duration     string        `mapstructure:"duration"`
	BarSize      string        `mapstructure:"bar_size"`
	OrderTimeout time.Duration `mapstructure:"order_timeout"`
}

// StoreConfig selects the strategy configuration store.
type StoreConfig struct {
	Kind     string `mapstructure:"kind"` // "memory" or "postgres"
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type LogConfig struct {
	logger.Config `mapstructure:",squash"`
	Sink          logsink.Config `mapstructure:"sink"`
}

type ServerConfig struct {
	api.Config `mapstructure:",squash"`
	Enabled    bool `mapstructure:"enabled"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from file on top of Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix("ATS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	ro := runner.DefaultOptions()
	return &Config{
		Gateway: GatewayConfig{
			Broker:  "paper",
			History: "yahoo",
			Timeout: 30 * time.Second,
			Cash:    100000,
			Yahoo:   YahooConfig{Timeout: 10 * time.Second, Adjusted: true},
		},
		Runner: RunnerConfig{
			Interval:     ro.Interval,
			Duration:     ro.Duration,
			BarSize:      ro.BarSize,
			OrderTimeout: ro.OrderTimeout,
		},
		Indicators: indicator.DefaultWindows(),
		Store:      StoreConfig{Kind: "memory", MaxConns: 4},
		Log: LogConfig{
			Config: logger.Config{Level: "info"},
			Sink:   logsink.DefaultConfig(),
		},
		Archive: archive.Config{Kind: archive.KindLocalFS, Path: "reports"},
		Server: ServerConfig{
			Config:  api.Config{Host: "127.0.0.1", Port: 8080},
			Enabled: true,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// RunnerOptions combines the runner and indicator sections.
func (c *Config) RunnerOptions() runner.Options {
	return runner.Options{
		Interval:     c.Runner.Interval,
		Duration:     c.Runner.Duration,
		BarSize:      c.Runner.BarSize,
		OrderTimeout: c.Runner.OrderTimeout,
		Windows:      c.Indicators,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf(format, args...))
	}

	// Server validation
	if c.Server.Enabled && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return invalid("port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Gateway.Broker != "paper" {
		return invalid("unknown gateway broker %q", c.Gateway.Broker)
	}
	if c.Gateway.History != "" && c.Gateway.History != "yahoo" {
		return invalid("unknown gateway history source %q", c.Gateway.History)
	}
	if c.Gateway.Timeout < 0 {
		return invalid("gateway timeout cannot be negative, got %s", c.Gateway.Timeout)
	}

	if c.Runner.Interval <= 0 {
		return invalid("runner interval must be positive, got %s", c.Runner.Interval)
	}
	if _, err := gateway.ParseDuration(c.Runner.Duration, time.Now()); err != nil {
		return invalid("runner duration: %v", err)
	}

	if err := c.Indicators.Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	seen := make(map[string]bool, len(c.Strategies))
	for _, s := range c.Strategies {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.StrategySymbol] {
			return invalid("duplicate strategy %s", s.StrategySymbol)
		}
		seen[s.StrategySymbol] = true
	}

	switch c.Store.Kind {
	case "memory":
	case "postgres":
		if c.Store.URL == "" {
			return core.WrapError(core.ErrConfigMissing, errors.New("store url required when kind is postgres"))
		}
	default:
		return invalid("unknown store kind %q", c.Store.Kind)
	}

	switch c.Archive.Kind {
	case archive.KindLocalFS:
	case archive.KindS3:
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing, errors.New("archive s3 bucket required"))
		}
	default:
		return invalid("unknown archive kind %q", c.Archive.Kind)
	}

	return nil
}
