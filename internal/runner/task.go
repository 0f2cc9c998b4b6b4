// Package runner drives one long-lived evaluation loop per strategy: fetch,
// compute, signal, allocation check and an optional order, then wait.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/ats/internal/allocation"
	"github.com/newthinker/ats/internal/core"
	"github.com/newthinker/ats/internal/gateway"
	"github.com/newthinker/ats/internal/indicator"
	"github.com/newthinker/ats/internal/metrics"
	"github.com/newthinker/ats/internal/signal"
)

// Options control the cycle of every task.
type Options struct {
	Interval     time.Duration     `mapstructure:"interval"`
	Duration     string            `mapstructure:"duration"`
	BarSize      string            `mapstructure:"bar_size"`
	OrderTimeout time.Duration     `mapstructure:"order_timeout"`
	Windows      indicator.Windows `mapstructure:"-"`
}

// DefaultOptions evaluates once a minute over 30 years of daily bars.
func DefaultOptions() Options {
	return Options{
		Interval:     time.Minute,
		Duration:     "30 Y",
		BarSize:      "1 day",
		OrderTimeout: 30 * time.Second,
		Windows:      indicator.DefaultWindows(),
	}
}

// Option configures a Task or Supervisor.
type Option func(*deps)

type deps struct {
	logger  *zap.Logger
	metrics *metrics.Registry
}

// WithLogger sets the logger. Entries carry a "strategy" field.
func WithLogger(l *zap.Logger) Option {
	return func(d *deps) { d.logger = l }
}

// WithMetrics records cycle and order metrics to reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(d *deps) { d.metrics = reg }
}

func buildDeps(opts []Option) deps {
	d := deps{logger: zap.NewNop()}
	for _, o := range opts {
		o(&d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d
}

// CycleResult describes a completed cycle.
type CycleResult struct {
	Cycle   int64
	Next    signal.State
	Trigger signal.Rule
	Close   float64
	Status  allocation.Status
	Equity  float64
	Order   *gateway.OrderRequest
	OrderID string
}

// Task evaluates one strategy against a gateway it does not own.
type Task struct {
	cfg   core.StrategyConfig
	gw    gateway.Gateway
	opts  Options
	deps  deps
	log   *zap.Logger
	cycle atomic.Int64
}

// NewTask creates a task for cfg.
func NewTask(cfg core.StrategyConfig, gw gateway.Gateway, opts Options, options ...Option) *Task {
	d := buildDeps(options)
	defaults := DefaultOptions()
	if opts.Interval <= 0 {
		opts.Interval = defaults.Interval
	}
	if opts.OrderTimeout <= 0 {
		opts.OrderTimeout = defaults.OrderTimeout
	}
	return &Task{
		cfg:  cfg,
		gw:   gw,
		opts: opts,
		deps: d,
		log:  d.logger.With(zap.String("strategy", cfg.StrategySymbol)),
	}
}

// Symbol returns the strategy symbol.
func (t *Task) Symbol() string {
	return t.cfg.StrategySymbol
}

// Cycles returns how many cycles have started.
func (t *Task) Cycles() int64 {
	return t.cycle.Load()
}

// Run evaluates immediately and then every Interval until ctx is done. Cycle
// failures are logged and skipped; Run only returns ctx.Err().
func (t *Task) Run(ctx context.Context) error {
	t.log.Info("strategy task started",
		zap.String("instrument", t.cfg.InstrumentSymbol),
		zap.Duration("interval", t.opts.Interval),
	)
	if t.deps.metrics != nil {
		t.deps.metrics.TaskStarted()
		defer t.deps.metrics.TaskStopped()
	}

	ticker := time.NewTicker(t.opts.Interval)
	defer ticker.Stop()

	for {
		_, _ = t.RunCycle(ctx)

		select {
		case <-ctx.Done():
			t.log.Info("strategy task stopped", zap.Int64("cycles", t.Cycles()))
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle runs one cycle. A failure is logged exactly once, unless it was
// caused by ctx ending.
func (t *Task) RunCycle(ctx context.Context) (*CycleResult, error) {
	n := t.cycle.Add(1)
	start := time.Now()

	res, err := t.cycleOnce(ctx, n)
	elapsed := time.Since(start)

	outcome := metrics.OutcomeOK
	switch {
	case err != nil && ctx.Err() != nil:
		outcome = metrics.OutcomeSkipped
		t.log.Debug("cycle interrupted", zap.Int64("cycle", n), zap.Error(err))
	case err != nil:
		outcome = metrics.OutcomeFailed
		t.log.Warn("cycle failed",
			zap.Int64("cycle", n),
			zap.Bool("transient", core.IsTransient(err)),
			zap.Error(err),
		)
	default:
		t.log.Debug("cycle complete",
			zap.Int64("cycle", n),
			zap.Stringer("next", res.Next),
			zap.Stringer("trigger", res.Trigger),
			zap.Float64("weight", res.Status.Weight),
			zap.Stringer("band", res.Status.Band),
			zap.Duration("elapsed", elapsed),
		)
	}

	if m := t.deps.metrics; m != nil {
		m.RecordCycle(t.cfg.StrategySymbol, outcome, elapsed.Seconds())
		if err == nil {
			m.SetWeight(t.cfg.StrategySymbol, res.Status.Weight)
			m.SetExposure(t.cfg.StrategySymbol, res.Next.Exposure())
		}
	}
	return res, err
}

func (t *Task) cycleOnce(ctx context.Context, n int64) (*CycleResult, error) {
	series, err := t.gw.FetchHistory(ctx, t.cfg.InstrumentSymbol, t.opts.Duration, t.opts.BarSize)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	daily, monthEnd, err := indicator.Compute(series, t.opts.Windows)
	if err != nil {
		return nil, err
	}
	sig, err := signal.Generate(signal.Inputs{Daily: series, DailyMA: daily.SMA, MonthEnd: monthEnd})
	if err != nil {
		return nil, err
	}

	positions, err := t.gw.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	equity, err := t.gw.AccountEquity(ctx)
	if err != nil {
		return nil, fmt.Errorf("account equity: %w", err)
	}
	status, err := allocation.Check(t.cfg, positions, equity)
	if err != nil {
		return nil, err
	}

	res := &CycleResult{
		Cycle:   n,
		Next:    sig.Next,
		Trigger: sig.NextTrigger,
		Close:   sig.Last.Close,
		Status:  status,
		Equity:  equity,
	}

	req := t.orderFor(sig.Next, status, positions, equity, sig.Last.Close)
	if req == nil {
		return res, nil
	}
	// A stop requested before this point wins; after it the order completes.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Order = req
	id, err := t.submit(ctx, *req, n)
	if err != nil {
		return nil, err
	}
	res.OrderID = id
	return res, nil
}

// orderFor sizes the order, if any, that moves the position toward the
// signal within the allocation band.
func (t *Task) orderFor(next signal.State, st allocation.Status, positions []gateway.Position, equity, price float64) *gateway.OrderRequest {
	req := gateway.OrderRequest{
		Symbol:   t.cfg.InstrumentSymbol,
		Exchange: t.cfg.Exchange,
		Currency: t.cfg.Currency,
	}
	switch next {
	case signal.Invested:
		if !st.Permits(gateway.OrderSideBuy) {
			return nil
		}
		qty := allocation.BuyQuantity(st, equity, price)
		if qty <= 0 {
			return nil
		}
		req.Side, req.Quantity = gateway.OrderSideBuy, qty
	case signal.Flat:
		if !st.Permits(gateway.OrderSideSell) {
			return nil
		}
		held := heldQuantity(positions, t.cfg.InstrumentSymbol)
		if held <= 0 {
			return nil
		}
		req.Side, req.Quantity = gateway.OrderSideSell, held
	default:
		return nil
	}
	return &req
}

func (t *Task) submit(ctx context.Context, req gateway.OrderRequest, n int64) (string, error) {
	octx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.opts.OrderTimeout)
	defer cancel()

	id, err := t.gw.SubmitOrder(octx, req)
	status := "filled"
	if err != nil {
		status = "failed"
	}
	if m := t.deps.metrics; m != nil {
		m.RecordOrder(t.cfg.StrategySymbol, string(req.Side), status)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = core.WrapError(core.ErrGatewayTimeout, err)
		}
		return "", fmt.Errorf("submit %s %v %s: %w", req.Side, req.Quantity, req.Symbol, err)
	}

	t.log.Info("order submitted",
		zap.Int64("cycle", n),
		zap.String("order_id", id),
		zap.String("side", string(req.Side)),
		zap.Float64("quantity", req.Quantity),
		zap.String("instrument", req.Symbol),
	)
	return id, nil
}

func heldQuantity(positions []gateway.Position, symbol string) float64 {
	var q float64
	for _, p := range positions {
		if p.Symbol == symbol {
			q += p.Quantity
		}
	}
	return q
}
