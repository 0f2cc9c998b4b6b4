// Package indicator computes rolling statistics over a daily price series and
// over its month-end resampling.
package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/newthinker/ats/internal/core"
)

// Windows holds the lookback periods used by Compute.
type Windows struct {
	DailySMA    int `mapstructure:"daily_sma"`
	MonthlyFast int `mapstructure:"monthly_fast"`
	MonthlySlow int `mapstructure:"monthly_slow"`
	ATR         int `mapstructure:"atr"`
	HighWindow  int `mapstructure:"high_window"`
}

// DefaultWindows returns the trend filter periods: 50-day SMA, 10- and
// 50-month SMAs, 14-day ATR and a 52-week (260 session) high.
func DefaultWindows() Windows {
	return Windows{
		DailySMA:    50,
		MonthlyFast: 10,
		MonthlySlow: 50,
		ATR:         14,
		HighWindow:  52 * 5,
	}
}

// Validate checks that every window is positive.
func (w Windows) Validate() error {
	checks := []struct {
		name string
		v    int
	}{
		{"daily_sma", w.DailySMA},
		{"monthly_fast", w.MonthlyFast},
		{"monthly_slow", w.MonthlySlow},
		{"atr", w.ATR},
		{"high_window", w.HighWindow},
	}
	for _, c := range checks {
		if c.v < 1 {
			return fmt.Errorf("window %s must be >= 1, got %d", c.name, c.v)
		}
	}
	return nil
}

// Daily holds indicators aligned with the daily series.
type Daily struct {
	Dates  []time.Time
	Closes []float64
	SMA    []float64
	ATR    []float64
	High   []float64
}

// MonthEnd holds the month-end resampling and its moving averages.
type MonthEnd struct {
	// Index maps each month-end entry back to its position in the daily series.
	Index  []int
	Dates  []time.Time
	Closes []float64
	Fast   []float64
	Slow   []float64
}

// Len returns the number of month-end bars.
func (m *MonthEnd) Len() int {
	return len(m.Dates)
}

// Compute derives the daily and month-end indicator sets. It is a pure
// function of its inputs.
func Compute(daily core.PriceSeries, w Windows) (*Daily, *MonthEnd, error) {
	if err := w.Validate(); err != nil {
		return nil, nil, core.WrapError(core.ErrInvalidSeries, err)
	}
	if err := ValidateSeries(daily); err != nil {
		return nil, nil, err
	}

	closes := daily.Closes()
	dates := daily.Dates()

	d := &Daily{
		Dates:  dates,
		Closes: closes,
		SMA:    SMA(closes, w.DailySMA),
		ATR:    ATR(daily.Highs(), daily.Lows(), closes, w.ATR),
		High:   RollingMax(closes, w.HighWindow),
	}

	idx := MonthEndIndex(dates)
	m := &MonthEnd{
		Index:  idx,
		Dates:  make([]time.Time, len(idx)),
		Closes: make([]float64, len(idx)),
	}
	for j, i := range idx {
		m.Dates[j] = dates[i]
		m.Closes[j] = closes[i]
	}
	m.Fast = SMA(m.Closes, w.MonthlyFast)
	m.Slow = SMA(m.Closes, w.MonthlySlow)

	if len(daily) < w.DailySMA {
		return nil, nil, core.WrapError(core.ErrInsufficientHistory,
			fmt.Errorf("%d daily bars, need %d", len(daily), w.DailySMA))
	}
	if need := max(w.MonthlyFast, w.MonthlySlow); m.Len() < need {
		return nil, nil, core.WrapError(core.ErrInsufficientHistory,
			fmt.Errorf("%d month-end bars, need %d", m.Len(), need))
	}

	return d, m, nil
}

// ValidateSeries checks ordering, uniqueness and value sanity of a series.
func ValidateSeries(s core.PriceSeries) error {
	if len(s) == 0 {
		return core.WrapError(core.ErrInvalidSeries, fmt.Errorf("empty series"))
	}
	for i, b := range s {
		if b.Date.IsZero() {
			return core.WrapError(core.ErrInvalidSeries, fmt.Errorf("bar %d has no date", i))
		}
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return core.WrapError(core.ErrInvalidSeries,
					fmt.Errorf("bar %s has invalid value %v", b.Date.Format("2006-01-02"), v))
			}
		}
		if i == 0 {
			continue
		}
		switch core.CompareDate(s[i-1].Date, b.Date) {
		case 0:
			return core.WrapError(core.ErrInvalidSeries,
				fmt.Errorf("duplicate date %s", b.Date.Format("2006-01-02")))
		case 1:
			return core.WrapError(core.ErrInvalidSeries,
				fmt.Errorf("date %s after %s is out of order",
					b.Date.Format("2006-01-02"), s[i-1].Date.Format("2006-01-02")))
		}
	}
	return nil
}
