// Package report renders backtest results as a per-session CSV and a JSON
// summary and stores both in an archive.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/ats/internal/backtest"
	"github.com/newthinker/ats/internal/storage/archive"
)

const dateLayout = "2006-01-02"

// Summary is the JSON document written next to the CSV.
type Summary struct {
	Symbol      string           `json:"symbol"`
	Strategy    string           `json:"strategy"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
	Sessions    int              `json:"sessions"`
	Dropped     int              `json:"dropped"`
	Stats       backtest.Stats   `json:"stats"`
	Trades      []backtest.Trade `json:"trades"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Paths returns the archive paths for res:
// backtests/{symbol}_{strategy}_BT.csv and .json.
func Paths(res *backtest.Result) (csvPath, jsonPath string) {
	base := fmt.Sprintf("backtests/%s_%s_BT", safeName(res.Symbol), safeName(res.Strategy))
	return base + ".csv", base + ".json"
}

func safeName(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':':
			return '-'
		}
		return r
	}, s)
}

// CSV renders one line per retained session.
func CSV(res *backtest.Result) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{
		"date", "close", "signal", "exposure",
		"strategy_return", "benchmark_return",
		"strategy_cumulative", "benchmark_cumulative", "compounded",
	})
	for _, r := range res.Rows {
		_ = w.Write([]string{
			r.Date.Format(dateLayout),
			num(r.Close),
			r.Signal.String(),
			num(r.Exposure),
			num(r.StrategyReturn),
			num(r.BenchmarkReturn),
			num(r.StrategyCumulative),
			num(r.BenchmarkCumulative),
			strconv.FormatBool(r.Compounded),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// JSON renders the summary document.
func JSON(res *backtest.Result, generatedAt time.Time) ([]byte, error) {
	s := Summary{
		Symbol:      res.Symbol,
		Strategy:    res.Strategy,
		StartDate:   res.StartDate.Format(dateLayout),
		EndDate:     res.EndDate.Format(dateLayout),
		Sessions:    len(res.Rows),
		Dropped:     res.Dropped,
		Stats:       res.Stats,
		Trades:      res.Trades,
		GeneratedAt: generatedAt.UTC(),
	}
	if s.Trades == nil {
		s.Trades = []backtest.Trade{}
	}
	return json.MarshalIndent(s, "", "  ")
}

// Write stores both documents and returns their paths.
func Write(ctx context.Context, store archive.Storage, res *backtest.Result) ([]string, error) {
	csvPath, jsonPath := Paths(res)

	rows, err := CSV(res)
	if err != nil {
		return nil, fmt.Errorf("rendering csv: %w", err)
	}
	summary, err := JSON(res, time.Now())
	if err != nil {
		return nil, fmt.Errorf("rendering json: %w", err)
	}

	if err := store.Write(ctx, csvPath, rows); err != nil {
		return nil, fmt.Errorf("writing %s: %w", csvPath, err)
	}
	if err := store.Write(ctx, jsonPath, summary); err != nil {
		return nil, fmt.Errorf("writing %s: %w", jsonPath, err)
	}
	return []string{csvPath, jsonPath}, nil
}

// Print writes a human-readable summary.
func Print(w io.Writer, res *backtest.Result) {
	st := res.Stats
	fmt.Fprintf(w, "=== Backtest %s (%s) ===\n", res.Strategy, res.Symbol)
	fmt.Fprintf(w, "Period:   %s to %s (%d sessions, %d warm-up dropped)\n",
		res.StartDate.Format(dateLayout), res.EndDate.Format(dateLayout), len(res.Rows), res.Dropped)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-14s %12s %12s\n", "", "Strategy", "Benchmark")
	line := func(name string, a, b float64, unit string) {
		fmt.Fprintf(w, "%-14s %11.2f%s %11.2f%s\n", name, a, unit, b, unit)
	}
	line("Total return", st.Strategy.TotalReturn, st.Benchmark.TotalReturn, "%")
	line("CAGR", st.Strategy.CAGR, st.Benchmark.CAGR, "%")
	line("Volatility", st.Strategy.Volatility, st.Benchmark.Volatility, "%")
	line("Sharpe", st.Strategy.Sharpe, st.Benchmark.Sharpe, " ")
	line("Max drawdown", st.Strategy.MaxDrawdown, st.Benchmark.MaxDrawdown, "%")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Exposure: %.2f%%  Flips: %d  Trades: %d (win rate %.2f%%)\n",
		st.Exposure, st.PositionFlips, st.TotalTrades, st.WinRate)
}
