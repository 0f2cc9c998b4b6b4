package indicator

import (
	"math"
	"testing"
)

func TestSMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}

	sma := SMA(prices, 3)

	// SMA(3) for [10,11,12,13,14,15]:
	// [2] = (10+11+12)/3 = 11
	// [3] = (11+12+13)/3 = 12
	// [4] = (12+13+14)/3 = 13
	// [5] = (13+14+15)/3 = 14

	if len(sma) != len(prices) {
		t.Fatalf("expected %d values, got %d", len(prices), len(sma))
	}

	for i := 0; i < 2; i++ {
		if Defined(sma[i]) {
			t.Errorf("sma[%d] = %f, want undefined warm-up", i, sma[i])
		}
	}

	expected := []float64{11, 12, 13, 14}
	for i, v := range expected {
		if sma[i+2] != v {
			t.Errorf("sma[%d] = %f, want %f", i+2, sma[i+2], v)
		}
	}
}

func TestSMA_WarmUpIsAlwaysAbsent(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = float64(100 + i%7)
	}

	for _, w := range []int{1, 2, 5, 10, 40} {
		sma := SMA(prices, w)
		for i := range sma {
			if i < w-1 && Defined(sma[i]) {
				t.Errorf("window %d: sma[%d] defined during warm-up", w, i)
			}
			if i >= w-1 && !Defined(sma[i]) {
				t.Errorf("window %d: sma[%d] undefined after warm-up", w, i)
			}
		}
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	prices := []float64{10, 11}
	sma := SMA(prices, 5)

	if len(sma) != 2 {
		t.Fatalf("expected aligned slice of 2, got %d values", len(sma))
	}
	for i, v := range sma {
		if Defined(v) {
			t.Errorf("sma[%d] should be undefined", i)
		}
	}
}

func TestRollingMax(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	got := RollingMax(values, 3)

	want := []float64{math.NaN(), math.NaN(), 4, 4, 5, 9, 9, 9}
	for i := range want {
		if !Defined(want[i]) {
			if Defined(got[i]) {
				t.Errorf("max[%d] = %f, want undefined", i, got[i])
			}
			continue
		}
		if got[i] != want[i] {
			t.Errorf("max[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestTrueRange(t *testing.T) {
	high := []float64{11, 12, 10}
	low := []float64{9, 10, 8}
	closes := []float64{10, 11, 9}

	tr := TrueRange(high, low, closes)

	want := []float64{2, 2, 3} // bar 2: max(2, |10-11|, |8-11|) = 3
	for i := range want {
		if tr[i] != want[i] {
			t.Errorf("tr[%d] = %f, want %f", i, tr[i], want[i])
		}
	}
}

func TestATR_WilderSmoothing(t *testing.T) {
	high := []float64{11, 12, 10, 13}
	low := []float64{9, 10, 8, 10}
	closes := []float64{10, 11, 9, 12}
	// TR = [2, 2, 3, 4]

	atr := ATR(high, low, closes, 2)

	if Defined(atr[0]) {
		t.Error("atr[0] should be undefined")
	}
	if !almostEqual(atr[1], 2, 1e-12) {
		t.Errorf("atr[1] = %f, want 2", atr[1])
	}
	if !almostEqual(atr[2], 2.5, 1e-12) {
		t.Errorf("atr[2] = %f, want 2.5", atr[2])
	}
	if !almostEqual(atr[3], 3.25, 1e-12) {
		t.Errorf("atr[3] = %f, want 3.25", atr[3])
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}
