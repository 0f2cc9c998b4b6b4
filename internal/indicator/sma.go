package indicator

import "math"

// Defined reports whether an indicator slot carries a computed value.
// Warm-up slots hold NaN.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

// SMA calculates a trailing Simple Moving Average.
// The result is aligned with prices; the first period-1 slots are NaN.
func SMA(prices []float64, period int) []float64 {
	out := undefined(len(prices))
	if period <= 0 || len(prices) < period {
		return out
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	out[period-1] = sum / float64(period)

	// Rolling calculation
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		out[i] = sum / float64(period)
	}

	return out
}

// RollingMax returns the trailing maximum over period values, aligned with
// values and NaN for the first period-1 slots.
func RollingMax(values []float64, period int) []float64 {
	out := undefined(len(values))
	if period <= 0 {
		return out
	}

	// Monotonic deque of indices with decreasing values.
	deque := make([]int, 0, period)
	for i, v := range values {
		for len(deque) > 0 && values[deque[len(deque)-1]] <= v {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, i)
		if deque[0] <= i-period {
			deque = deque[1:]
		}
		if i >= period-1 {
			out[i] = values[deque[0]]
		}
	}
	return out
}

// TrueRange returns the per-bar true range. The first bar has no prior close,
// so its range is high-low.
func TrueRange(high, low, closes []float64) []float64 {
	n := min(len(high), len(low), len(closes))
	tr := make([]float64, n)
	if n == 0 {
		return tr
	}
	tr[0] = high[0] - low[0]
	for i := 1; i < n; i++ {
		tr[i] = math.Max(high[i]-low[i],
			math.Max(math.Abs(high[i]-closes[i-1]), math.Abs(low[i]-closes[i-1])))
	}
	return tr
}

// ATR calculates Average True Range with Wilder smoothing, seeded by the
// simple mean of the first period true ranges.
func ATR(high, low, closes []float64, period int) []float64 {
	tr := TrueRange(high, low, closes)
	out := undefined(len(tr))
	if period <= 0 || len(tr) < period {
		return out
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	atr := sum / float64(period)
	out[period-1] = atr

	for i := period; i < len(tr); i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out[i] = atr
	}
	return out
}

func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
