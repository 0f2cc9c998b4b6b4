package core

import (
	"fmt"
	"time"
)

// PriceBar is one daily OHLCV bar. Only the calendar date of Date is meaningful.
type PriceBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries is an ascending, duplicate-free sequence of daily bars.
// Non-trading days are simply absent.
type PriceSeries []PriceBar

// Closes extracts the closing prices.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high prices.
func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low prices.
func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

// Dates extracts the bar dates.
func (s PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s))
	for i, b := range s {
		out[i] = b.Date
	}
	return out
}

// CompareDate orders two timestamps by calendar date only.
func CompareDate(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		return cmpInt(ay, by)
	case am != bm:
		return cmpInt(int(am), int(bm))
	default:
		return cmpInt(ad, bd)
	}
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// MonthStart returns midnight on the first day of t's month, in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// StrategyConfig is the per-strategy record owned by the configuration store.
// Weights are percentages of account equity.
type StrategyConfig struct {
	StrategySymbol   string  `json:"strategy_symbol" mapstructure:"symbol"`
	Name             string  `json:"name" mapstructure:"name"`
	Description      string  `json:"description,omitempty" mapstructure:"description"`
	InstrumentSymbol string  `json:"instrument_symbol" mapstructure:"instrument"`
	Exchange         string  `json:"exchange" mapstructure:"exchange"`
	Currency         string  `json:"currency" mapstructure:"currency"`
	TargetWeight     float64 `json:"target_weight" mapstructure:"target_weight"`
	MinWeight        float64 `json:"min_weight" mapstructure:"min_weight"`
	MaxWeight        float64 `json:"max_weight" mapstructure:"max_weight"`
}

// Validate checks identifiers and the 0 <= min <= target <= max <= 100 band.
func (c StrategyConfig) Validate() error {
	if c.StrategySymbol == "" {
		return WrapError(ErrConfigMissing, fmt.Errorf("strategy symbol is empty"))
	}
	if c.InstrumentSymbol == "" {
		return WrapError(ErrConfigMissing,
			fmt.Errorf("strategy %s: instrument symbol is empty", c.StrategySymbol))
	}
	if c.MinWeight < 0 || c.MaxWeight > 100 {
		return WrapError(ErrConfigInvalid,
			fmt.Errorf("strategy %s: weights must be within 0-100, got min %.2f max %.2f",
				c.StrategySymbol, c.MinWeight, c.MaxWeight))
	}
	if c.MinWeight > c.TargetWeight || c.TargetWeight > c.MaxWeight {
		return WrapError(ErrConfigInvalid,
			fmt.Errorf("strategy %s: need min <= target <= max, got %.2f/%.2f/%.2f",
				c.StrategySymbol, c.MinWeight, c.TargetWeight, c.MaxWeight))
	}
	return nil
}
