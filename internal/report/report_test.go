package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/ats/internal/backtest"
	"github.com/newthinker/ats/internal/core/coretest"
	"github.com/newthinker/ats/internal/signal"
	"github.com/newthinker/ats/internal/storage/archive"
)

func sampleResult() *backtest.Result {
	rows := []backtest.Row{
		{Date: coretest.Date(2024, 2, 1), Close: 100, Signal: signal.Flat, StrategyCumulative: 1, BenchmarkCumulative: 1},
		{Date: coretest.Date(2024, 2, 2), Close: 120, Signal: signal.Invested, BenchmarkReturn: 0.2,
			StrategyCumulative: 1, BenchmarkCumulative: 1.2, Compounded: true},
	}
	return &backtest.Result{
		Symbol:    "IUSQ",
		Strategy:  "S1",
		StartDate: rows[0].Date,
		EndDate:   rows[1].Date,
		Dropped:   21,
		Rows:      rows,
		Stats:     backtest.Stats{Benchmark: backtest.Performance{TotalReturn: 20}, PositionFlips: 1},
	}
}

func TestPaths(t *testing.T) {
	csvPath, jsonPath := Paths(sampleResult())
	assert.Equal(t, "backtests/IUSQ_S1_BT.csv", csvPath)
	assert.Equal(t, "backtests/IUSQ_S1_BT.json", jsonPath)

	csvPath, _ = Paths(&backtest.Result{Symbol: "600519.SH", Strategy: "a/b"})
	assert.Equal(t, "backtests/600519.SH_a-b_BT.csv", csvPath)
}

func TestCSV(t *testing.T) {
	data, err := CSV(sampleResult())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "date", records[0][0])
	assert.Equal(t, []string{"2024-02-02", "120", "INVESTED", "0", "0", "0.2", "1", "1.2", "true"}, records[2])
}

func TestJSON(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := JSON(sampleResult(), at)
	require.NoError(t, err)

	var s Summary
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, "IUSQ", s.Symbol)
	assert.Equal(t, "2024-02-01", s.StartDate)
	assert.Equal(t, 2, s.Sessions)
	assert.Equal(t, 21, s.Dropped)
	assert.Equal(t, 20.0, s.Stats.Benchmark.TotalReturn)
	assert.NotNil(t, s.Trades)
	assert.Equal(t, at, s.GeneratedAt)
	assert.Contains(t, string(data), `"position_flips": 1`)
}

func TestWrite(t *testing.T) {
	store, err := archive.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	paths, err := Write(ctx, store, sampleResult())
	require.NoError(t, err)
	assert.Equal(t, []string{"backtests/IUSQ_S1_BT.csv", "backtests/IUSQ_S1_BT.json"}, paths)

	listed, err := store.List(ctx, "backtests")
	require.NoError(t, err)
	assert.Equal(t, paths, listed)
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, sampleResult())

	out := buf.String()
	assert.Contains(t, out, "=== Backtest S1 (IUSQ) ===")
	assert.Contains(t, out, "2 sessions, 21 warm-up dropped")
	assert.Contains(t, out, "20.00%")
}
