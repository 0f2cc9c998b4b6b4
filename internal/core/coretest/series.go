// Package coretest provides price series fixtures for tests.
package coretest

import (
	"time"

	"github.com/newthinker/ats/internal/core"
)

// Date is a shorthand for a UTC calendar date.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Weekdays builds a series with one bar per weekday starting at start (or the
// next weekday), using closes in order. Open/high/low bracket the close.
func Weekdays(start time.Time, closes ...float64) core.PriceSeries {
	s := make(core.PriceSeries, 0, len(closes))
	d := start
	for _, c := range closes {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		s = append(s, core.PriceBar{
			Date:   d,
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		})
		d = d.AddDate(0, 0, 1)
	}
	return s
}

// Constant returns n copies of v.
func Constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Ramp returns n values starting at from, stepping by step.
func Ramp(n int, from, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

// Concat joins value slices.
func Concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
