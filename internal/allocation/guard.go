// Package allocation checks a strategy's current portfolio weight against its
// configured band. It reports; callers decide and submit.
package allocation

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/newthinker/ats/internal/core"
	"github.com/newthinker/ats/internal/gateway"
)

// Band locates a weight relative to [min, max].
type Band int

const (
	Below Band = iota
	Within
	Above
)

func (b Band) String() string {
	switch b {
	case Below:
		return "below"
	case Within:
		return "within"
	case Above:
		return "above"
	default:
		return fmt.Sprintf("Band(%d)", int(b))
	}
}

// Status is the outcome of a check. Weight is a percentage of equity.
type Status struct {
	Symbol     string
	Weight     float64
	Target     float64
	Min        float64
	Max        float64
	WithinBand bool
	Band       Band
}

// Permits reports whether an order on side is allowed by the band: a BUY is
// refused at or above max, a SELL at or below min.
func (s Status) Permits(side gateway.OrderSide) bool {
	switch side {
	case gateway.OrderSideBuy:
		return s.Weight < s.Max
	case gateway.OrderSideSell:
		return s.Weight > s.Min
	default:
		return false
	}
}

// Check computes the weight of cfg's instrument in the account. Market values
// of every position whose symbol equals the instrument symbol are summed.
// Equity that is zero, negative or not a number fails closed with
// core.ErrNoEquityData.
func Check(cfg core.StrategyConfig, positions []gateway.Position, equity float64) (Status, error) {
	if equity <= 0 || math.IsNaN(equity) || math.IsInf(equity, 0) {
		return Status{}, core.WrapError(core.ErrNoEquityData,
			fmt.Errorf("strategy %s: equity %v", cfg.StrategySymbol, equity))
	}

	total := decimal.Zero
	for _, p := range positions {
		if p.Symbol != cfg.InstrumentSymbol {
			continue
		}
		total = total.Add(decimal.NewFromFloat(p.MarketValue))
	}

	weight := total.Div(decimal.NewFromFloat(equity)).Mul(decimal.NewFromInt(100))
	w := weight.InexactFloat64()

	st := Status{
		Symbol: cfg.InstrumentSymbol,
		Weight: w,
		Target: cfg.TargetWeight,
		Min:    cfg.MinWeight,
		Max:    cfg.MaxWeight,
	}
	minW := decimal.NewFromFloat(cfg.MinWeight)
	maxW := decimal.NewFromFloat(cfg.MaxWeight)
	switch {
	case weight.LessThan(minW):
		st.Band = Below
	case weight.GreaterThan(maxW):
		st.Band = Above
	default:
		st.Band = Within
		st.WithinBand = true
	}
	return st, nil
}

// BuyQuantity returns how many whole units bring the weight up to target at
// price, or 0 when already at or above it.
func BuyQuantity(st Status, equity, price float64) float64 {
	if price <= 0 || equity <= 0 || st.Weight >= st.Target {
		return 0
	}
	gap := decimal.NewFromFloat(st.Target - st.Weight).Div(decimal.NewFromInt(100))
	value := gap.Mul(decimal.NewFromFloat(equity))
	return value.Div(decimal.NewFromFloat(price)).Floor().InexactFloat64()
}
