// internal/storage/strategy/memory.go
package strategy

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/newthinker/ats/internal/core"
)

// MemoryStore is an in-memory strategy store.
type MemoryStore struct {
	mu      sync.RWMutex
	configs map[string]core.StrategyConfig
}

// NewMemoryStore creates a store seeded with configs. Invalid or duplicate
// entries are rejected.
func NewMemoryStore(configs ...core.StrategyConfig) (*MemoryStore, error) {
	m := &MemoryStore{configs: make(map[string]core.StrategyConfig, len(configs))}
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if _, dup := m.configs[cfg.StrategySymbol]; dup {
			return nil, core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("duplicate strategy %s", cfg.StrategySymbol))
		}
		m.configs[cfg.StrategySymbol] = cfg
	}
	return m, nil
}

// Get retrieves a configuration by strategy symbol.
func (m *MemoryStore) Get(ctx context.Context, strategySymbol string) (core.StrategyConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.configs[strategySymbol]
	if !ok {
		return core.StrategyConfig{}, core.WrapError(core.ErrConfigNotFound,
			fmt.Errorf("strategy %s", strategySymbol))
	}
	return cfg, nil
}

// List returns all configurations sorted by strategy symbol.
func (m *MemoryStore) List(ctx context.Context) ([]core.StrategyConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]core.StrategyConfig, 0, len(m.configs))
	for _, cfg := range m.configs {
		result = append(result, cfg)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StrategySymbol < result[j].StrategySymbol
	})
	return result, nil
}

// Put inserts or replaces a configuration.
func (m *MemoryStore) Put(ctx context.Context, cfg core.StrategyConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.StrategySymbol] = cfg
	return nil
}

// Delete removes a configuration.
func (m *MemoryStore) Delete(ctx context.Context, strategySymbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.configs[strategySymbol]; !ok {
		return core.WrapError(core.ErrConfigNotFound, fmt.Errorf("strategy %s", strategySymbol))
	}
	delete(m.configs, strategySymbol)
	return nil
}
