package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/ats/internal/config"
	"github.com/newthinker/ats/internal/core"
	"github.com/newthinker/ats/internal/gateway/paper"
	"github.com/newthinker/ats/internal/gateway/yahoo"
	"github.com/newthinker/ats/internal/logger"
	strategystore "github.com/newthinker/ats/internal/storage/strategy"
)

// loadConfig reads --config, or falls back to defaults, and validates.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	lc := cfg.Log.Config
	if debug {
		lc.Development = true
		lc.Level = "debug"
	}
	return logger.Build(lc)
}

// openStore returns the configured strategy store with the strategies from
// the config file added to it. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (strategystore.Store, func(), error) {
	if cfg.Store.Kind != "postgres" {
		s, err := strategystore.NewMemoryStore(cfg.Strategies...)
		return s, func() {}, err
	}

	pool, err := strategystore.Connect(ctx, cfg.Store.URL, cfg.Store.MaxConns)
	if err != nil {
		return nil, nil, err
	}
	s := strategystore.NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	for _, sc := range cfg.Strategies {
		if err := s.Put(ctx, sc); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return s, pool.Close, nil
}

func newYahoo(cfg *config.Config) *yahoo.Yahoo {
	return yahoo.New(yahoo.Config{
		BaseURL:  cfg.Gateway.Yahoo.BaseURL,
		Timeout:  cfg.Gateway.Yahoo.Timeout,
		Adjusted: cfg.Gateway.Yahoo.Adjusted,
	})
}

// newBroker builds the paper broker, pulling history from Yahoo when
// configured.
func newBroker(cfg *config.Config) *paper.Broker {
	var opts []paper.Option
	if cfg.Gateway.History == "yahoo" {
		opts = append(opts, paper.WithHistorySource(newYahoo(cfg)))
	}
	return paper.New(cfg.Gateway.Cash, opts...)
}

func lookupStrategy(ctx context.Context, store strategystore.Store, symbol string) (core.StrategyConfig, error) {
	sc, err := store.Get(ctx, symbol)
	if err != nil {
		return core.StrategyConfig{}, fmt.Errorf("strategy %s: %w", symbol, err)
	}
	return sc, nil
}
