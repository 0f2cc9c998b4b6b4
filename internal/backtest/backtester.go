package backtest

import (
	"context"
	"fmt"

	"github.com/newthinker/ats/internal/core"
	"github.com/newthinker/ats/internal/indicator"
	"github.com/newthinker/ats/internal/signal"
)

// HistoryProvider defines the interface for fetching historical daily bars
type HistoryProvider interface {
	FetchHistory(ctx context.Context, symbol, duration, barSize string) (core.PriceSeries, error)
}

// Options controls a backtest run.
type Options struct {
	Windows  indicator.Windows
	Duration string // e.g. "30 Y"
	BarSize  string // e.g. "1 day"
	// Symbol overrides the instrument symbol when the history source names it
	// differently.
	Symbol string
}

// DefaultOptions returns 30 years of daily bars with the default windows.
func DefaultOptions() Options {
	return Options{
		Windows:  indicator.DefaultWindows(),
		Duration: "30 Y",
		BarSize:  "1 day",
	}
}

// Backtester runs strategy backtests against historical data
type Backtester struct {
	provider HistoryProvider
}

// New creates a new Backtester with the given history provider
func New(provider HistoryProvider) *Backtester {
	return &Backtester{
		provider: provider,
	}
}

// Run fetches history for the strategy's instrument and runs the full
// indicator, signal and simulation chain over it.
func (b *Backtester) Run(ctx context.Context, cfg core.StrategyConfig, opts Options) (*Result, error) {
	symbol := cfg.InstrumentSymbol
	if opts.Symbol != "" {
		symbol = opts.Symbol
	}

	daily, err := b.provider.FetchHistory(ctx, symbol, opts.Duration, opts.BarSize)
	if err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", symbol, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := Evaluate(daily, opts.Windows)
	if err != nil {
		return nil, fmt.Errorf("backtest %s: %w", cfg.StrategySymbol, err)
	}
	result.Symbol = symbol
	result.Strategy = cfg.StrategySymbol
	return result, nil
}

// Evaluate runs indicators, signal generation and simulation over a series
// already in memory.
func Evaluate(daily core.PriceSeries, w indicator.Windows) (*Result, error) {
	d, m, err := indicator.Compute(daily, w)
	if err != nil {
		return nil, err
	}
	sig, err := signal.Generate(signal.Inputs{Daily: daily, DailyMA: d.SMA, MonthEnd: m})
	if err != nil {
		return nil, err
	}
	return Simulate(daily, sig)
}
