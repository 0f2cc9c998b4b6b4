// internal/storage/strategy/interface.go
package strategy

import (
	"context"

	"github.com/newthinker/ats/internal/core"
)

// Store defines the interface for strategy configuration persistence.
type Store interface {
	// Get returns the configuration for a strategy symbol, or
	// core.ErrConfigNotFound.
	Get(ctx context.Context, strategySymbol string) (core.StrategyConfig, error)

	// List returns all configurations ordered by strategy symbol.
	List(ctx context.Context) ([]core.StrategyConfig, error)

	// Put validates and inserts or replaces a configuration.
	Put(ctx context.Context, cfg core.StrategyConfig) error

	// Delete removes a configuration, or returns core.ErrConfigNotFound.
	Delete(ctx context.Context, strategySymbol string) error
}
