package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/ats/internal/core"
	"github.com/newthinker/ats/internal/gateway"
	strategystore "github.com/newthinker/ats/internal/storage/strategy"
)

// Supervisor resolves strategy configurations and runs one Task per
// strategy until its context ends.
type Supervisor struct {
	store   strategystore.Store
	gw      gateway.Gateway
	opts    Options
	options []Option
	logger  *zap.Logger

	mu    sync.RWMutex
	tasks []*Task
}

// NewSupervisor creates a supervisor. Every task shares gw.
func NewSupervisor(store strategystore.Store, gw gateway.Gateway, opts Options, options ...Option) *Supervisor {
	return &Supervisor{
		store:   store,
		gw:      gw,
		opts:    opts,
		options: options,
		logger:  buildDeps(options).logger,
	}
}

// Resolve looks up each symbol, or every stored strategy when symbols is
// empty. Symbols without a configuration are reported once and skipped.
func (s *Supervisor) Resolve(ctx context.Context, symbols []string) ([]core.StrategyConfig, error) {
	if len(symbols) == 0 {
		return s.store.List(ctx)
	}

	configs := make([]core.StrategyConfig, 0, len(symbols))
	for _, sym := range symbols {
		cfg, err := s.store.Get(ctx, sym)
		if errors.Is(err, core.ErrConfigNotFound) {
			s.logger.Error("strategy not scheduled", zap.String("strategy", sym), zap.Error(err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolving strategy %s: %w", sym, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Run starts a task per resolved strategy and blocks until ctx is done and
// every task has returned.
func (s *Supervisor) Run(ctx context.Context, symbols []string) error {
	configs, err := s.Resolve(ctx, symbols)
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		return core.WrapError(core.ErrConfigNotFound, fmt.Errorf("no strategies to run"))
	}

	tasks := make([]*Task, len(configs))
	for i, cfg := range configs {
		tasks[i] = NewTask(cfg, s.gw, s.opts, s.options...)
	}
	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()

	s.logger.Info("starting strategy tasks", zap.Int("count", len(tasks)))

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			err := t.Run(gctx)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// Tasks returns the tasks started by the last Run.
func (s *Supervisor) Tasks() []*Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}
