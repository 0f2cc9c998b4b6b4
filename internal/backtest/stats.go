package backtest

import (
	"math"
	"time"
)

const tradingDaysPerYear = 252

// CalculateStats computes performance statistics from the simulated rows and
// the trades derived from them.
func CalculateStats(rows []Row, trades []Trade) Stats {
	var stats Stats
	if len(rows) == 0 {
		return stats
	}

	var strat, bench []float64
	var invested int
	for i, r := range rows {
		if i > 0 && r.Exposure != rows[i-1].Exposure {
			stats.PositionFlips++
		}
		if !r.Compounded {
			continue
		}
		strat = append(strat, r.StrategyReturn)
		bench = append(bench, r.BenchmarkReturn)
		if r.Exposure > 0 {
			invested++
		}
	}
	if len(strat) > 0 {
		stats.Exposure = float64(invested) / float64(len(strat)) * 100
	}

	start, end := rows[0].Date, rows[len(rows)-1].Date
	last := rows[len(rows)-1]
	stats.Strategy = performance(strat, last.StrategyCumulative, start, end)
	stats.Benchmark = performance(bench, last.BenchmarkCumulative, start, end)

	stats.TotalTrades = len(trades)
	for _, t := range trades {
		if !t.IsClosed() {
			continue
		}
		if t.IsWin() {
			stats.WinningTrades++
		} else {
			stats.LosingTrades++
		}
	}
	if closed := stats.WinningTrades + stats.LosingTrades; closed > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(closed) * 100
	}

	return stats
}

func performance(returns []float64, cumulative float64, start, end time.Time) Performance {
	return Performance{
		TotalReturn: (cumulative - 1) * 100,
		CAGR:        calculateCAGR(cumulative, start, end) * 100,
		Volatility:  calculateVolatility(returns) * 100,
		Sharpe:      calculateSharpeRatio(returns),
		MaxDrawdown: calculateMaxDrawdown(returns) * 100,
	}
}

// calculateCAGR annualises a growth factor over the calendar span.
func calculateCAGR(growth float64, start, end time.Time) float64 {
	years := end.Sub(start).Hours() / 24 / 365.25
	if years <= 0 || growth <= 0 {
		return 0
	}
	return math.Pow(growth, 1/years) - 1
}

// calculateMaxDrawdown finds the largest peak-to-trough decline
func calculateMaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var maxDD float64
	peak := 1.0
	cumulative := 1.0

	for _, r := range returns {
		cumulative *= (1 + r)
		if cumulative > peak {
			peak = cumulative
		}
		if dd := (peak - cumulative) / peak; dd > maxDD {
			maxDD = dd
		}
	}

	return maxDD
}

func meanStdDev(returns []float64) (mean, stdDev float64) {
	if len(returns) < 2 {
		return 0, 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean = sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	return mean, math.Sqrt(variance / float64(len(returns)-1))
}

func calculateVolatility(returns []float64) float64 {
	_, sd := meanStdDev(returns)
	return sd * math.Sqrt(tradingDaysPerYear)
}

// calculateSharpeRatio computes risk-adjusted return
// Assumes risk-free rate of 0 for simplicity
func calculateSharpeRatio(returns []float64) float64 {
	mean, sd := meanStdDev(returns)
	if sd == 0 {
		return 0
	}
	return (mean * tradingDaysPerYear) / (sd * math.Sqrt(tradingDaysPerYear))
}
