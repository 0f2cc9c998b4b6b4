package backtest

import (
	"time"

	"github.com/newthinker/ats/internal/signal"
)

// Result holds the complete backtest output. Rows start at StartDate; the
// Dropped bars before it had no defined signal and are not reported.
type Result struct {
	Symbol    string
	Strategy  string
	StartDate time.Time
	EndDate   time.Time
	Dropped   int
	Rows      []Row
	Trades    []Trade
	Stats     Stats
}

// Row is one simulated session. Returns are fractions; cumulative columns are
// running products of (1 + return) starting at 1.
type Row struct {
	Date                time.Time    `json:"date"`
	Close               float64      `json:"close"`
	Signal              signal.State `json:"signal"`
	Exposure            float64      `json:"exposure"`
	StrategyReturn      float64      `json:"strategy_return"`
	BenchmarkReturn     float64      `json:"benchmark_return"`
	StrategyCumulative  float64      `json:"strategy_cumulative"`
	BenchmarkCumulative float64      `json:"benchmark_cumulative"`
	// Compounded is false for rows whose prior signal was undefined. Their
	// returns are reported as zero and leave the cumulative columns unchanged.
	Compounded bool `json:"compounded"`
}

// Trade represents one holding period from entry to exit.
type Trade struct {
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"` // zero if the position is still open
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Return     float64   `json:"return"` // Fractional return
}

// Performance summarises one return stream. Values are percentages except
// Sharpe.
type Performance struct {
	TotalReturn float64 `json:"total_return"`
	CAGR        float64 `json:"cagr"`
	Volatility  float64 `json:"volatility"`   // Annualised standard deviation
	Sharpe      float64 `json:"sharpe"`       // Annualised, risk-free rate 0
	MaxDrawdown float64 `json:"max_drawdown"` // Largest peak-to-trough decline
}

// Stats holds performance statistics
type Stats struct {
	Strategy      Performance `json:"strategy"`
	Benchmark     Performance `json:"benchmark"`
	Exposure      float64     `json:"exposure"`       // Percentage of compounded sessions spent invested
	PositionFlips int         `json:"position_flips"` // Number of exposure changes
	TotalTrades   int         `json:"total_trades"`
	WinningTrades int         `json:"winning_trades"`
	LosingTrades  int         `json:"losing_trades"`
	WinRate       float64     `json:"win_rate"` // Percentage of profitable closed trades
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.Return > 0
}

// IsClosed returns true if the trade has an exit
func (t Trade) IsClosed() bool {
	return !t.ExitDate.IsZero()
}
