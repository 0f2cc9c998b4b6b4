// Package backtest replays a daily signal against historical closes and
// compares it with buy-and-hold.
package backtest

import (
	"fmt"

	"github.com/newthinker/ats/internal/core"
	"github.com/newthinker/ats/internal/signal"
)

// Simulate applies sig to daily. Exposure for session t is 1 iff the signal of
// session t-1 is INVESTED; FLAT and UNDEFINED both mean no exposure.
//
// Bars before the first defined signal are dropped; Result.Dropped and
// Result.StartDate report the cut. The first retained row has no prior bar
// inside the result and carries a zero benchmark return.
func Simulate(daily core.PriceSeries, sig *signal.Series) (*Result, error) {
	if sig == nil || len(daily) != sig.Len() {
		return nil, core.WrapError(core.ErrInvalidSeries,
			fmt.Errorf("signal does not cover the %d daily bars", len(daily)))
	}
	for i := range daily {
		if core.CompareDate(daily[i].Date, sig.Dates[i]) != 0 {
			return nil, core.WrapError(core.ErrInvalidSeries,
				fmt.Errorf("signal date %s does not match bar %s",
					sig.Dates[i].Format("2006-01-02"), daily[i].Date.Format("2006-01-02")))
		}
	}

	first := sig.FirstDefined()
	if first < 0 {
		return nil, core.WrapError(core.ErrInsufficientHistory, fmt.Errorf("no defined signal"))
	}

	rows := make([]Row, 0, len(daily)-first)
	stratCum, benchCum := 1.0, 1.0
	for t := first; t < len(daily); t++ {
		row := Row{
			Date:   daily[t].Date,
			Close:  daily[t].Close,
			Signal: sig.States[t],
		}

		prior := signal.Undefined
		if t > first {
			prior = sig.States[t-1]
		}
		if prior != signal.Undefined {
			row.Compounded = true
			row.Exposure = prior.Exposure()
			row.BenchmarkReturn = daily[t].Close/daily[t-1].Close - 1
			row.StrategyReturn = row.Exposure * row.BenchmarkReturn
			stratCum *= 1 + row.StrategyReturn
			benchCum *= 1 + row.BenchmarkReturn
		}
		row.StrategyCumulative = stratCum
		row.BenchmarkCumulative = benchCum
		rows = append(rows, row)
	}

	trades := extractTrades(rows)

	return &Result{
		StartDate: rows[0].Date,
		EndDate:   rows[len(rows)-1].Date,
		Dropped:   first,
		Rows:      rows,
		Trades:    trades,
		Stats:     CalculateStats(rows, trades),
	}, nil
}

// extractTrades turns exposure changes into holding periods. A position
// entered for session t is bought at close(t-1) and sold at close(t-1) of the
// first session it is no longer held.
func extractTrades(rows []Row) []Trade {
	var trades []Trade
	var open *Trade

	for i, r := range rows {
		if i == 0 {
			continue
		}
		prevClose := rows[i-1].Close
		switch {
		case r.Exposure > 0 && open == nil:
			open = &Trade{EntryDate: rows[i-1].Date, EntryPrice: prevClose}
		case r.Exposure == 0 && open != nil:
			open.ExitDate = rows[i-1].Date
			open.ExitPrice = prevClose
			open.Return = (open.ExitPrice - open.EntryPrice) / open.EntryPrice
			trades = append(trades, *open)
			open = nil
		}
	}

	// Mark an open position to the last close.
	if open != nil {
		last := rows[len(rows)-1]
		open.ExitPrice = last.Close
		open.Return = (open.ExitPrice - open.EntryPrice) / open.EntryPrice
		trades = append(trades, *open)
	}

	return trades
}
