// Package signal turns aligned daily and month-end indicators into a daily
// INVESTED/FLAT decision.
package signal

import (
	"fmt"
	"math"
	"time"

	"github.com/newthinker/ats/internal/core"
	"github.com/newthinker/ats/internal/indicator"
)

// Inputs are the aligned series Generate works on.
type Inputs struct {
	Daily    core.PriceSeries
	DailyMA  []float64
	MonthEnd *indicator.MonthEnd
}

// Snapshot holds the values the decision for the next session was made from.
type Snapshot struct {
	Date    time.Time
	Close   float64
	DailyMA float64
	Fast    float64
	Slow    float64
}

// Series is the per-day decision. States[t] is the position held during
// session t and depends only on data through t-1.
type Series struct {
	Dates    []time.Time
	States   []State
	Triggers []Rule

	// Next is the state for the session after the last bar.
	Next        State
	NextTrigger Rule
	Last        Snapshot
}

// Len returns the number of daily entries.
func (s *Series) Len() int {
	return len(s.States)
}

// FirstDefined returns the index of the first non-Undefined state, or -1.
func (s *Series) FirstDefined() int {
	for i, st := range s.States {
		if st != Undefined {
			return i
		}
	}
	return -1
}

// MapMonthEnd returns, for every date, the index of the latest month-end bar
// dated strictly before the first day of that date's month, or -1 when none
// exists. A value mapped this way was fully known before the month began.
// Both inputs must be ascending.
func MapMonthEnd(dates, monthEnd []time.Time) []int {
	out := make([]int, len(dates))
	p := 0
	for i, d := range dates {
		start := core.MonthStart(d)
		for p < len(monthEnd) && core.CompareDate(monthEnd[p], start) < 0 {
			p++
		}
		out[i] = p - 1
	}
	return out
}

// Generate applies the trend filter rules day by day. For day t it looks only
// at close(t-1) and the month-end MAs mapped to t-1.
func Generate(in Inputs) (*Series, error) {
	n := len(in.Daily)
	if n == 0 {
		return nil, core.WrapError(core.ErrInvalidSeries, fmt.Errorf("empty daily series"))
	}
	if len(in.DailyMA) != n {
		return nil, core.WrapError(core.ErrInvalidSeries,
			fmt.Errorf("daily MA has %d values for %d bars", len(in.DailyMA), n))
	}
	m := in.MonthEnd
	if m == nil || len(m.Fast) != m.Len() || len(m.Slow) != m.Len() {
		return nil, core.WrapError(core.ErrInvalidSeries, fmt.Errorf("month-end indicators misaligned"))
	}

	dates := in.Daily.Dates()
	mapped := MapMonthEnd(dates, m.Dates)

	s := &Series{
		Dates:    dates,
		States:   make([]State, n),
		Triggers: make([]Rule, n),
	}

	// States[0] stays Undefined: there is no prior session to decide from.
	for t := 1; t < n; t++ {
		s.States[t], s.Triggers[t] = decide(s.States[t-1], in.Daily[t-1].Close, m, mapped[t-1])
	}

	last := n - 1
	s.Next, s.NextTrigger = decide(s.States[last], in.Daily[last].Close, m, mapped[last])
	s.Last = Snapshot{
		Date:    dates[last],
		Close:   in.Daily[last].Close,
		DailyMA: in.DailyMA[last],
		Fast:    valueAt(m.Fast, mapped[last]),
		Slow:    valueAt(m.Slow, mapped[last]),
	}

	return s, nil
}

// decide evaluates the rules for one session given the previous state and the
// previous close with its mapped month-end index j.
func decide(prev State, prevClose float64, m *indicator.MonthEnd, j int) (State, Rule) {
	fast := valueAt(m.Fast, j)
	if !indicator.Defined(fast) {
		return Undefined, Hold
	}
	if prev == Undefined {
		prev = Flat
	}
	slow := valueAt(m.Slow, j)

	switch {
	case prev == Invested && prevClose < fast:
		return Flat, ExitBelowFast
	case prev == Flat && prevClose > fast:
		return Invested, EnterAboveFast
	case prev == Flat && indicator.Defined(slow) && prevClose > slow && prevClose < fast:
		return Invested, ReenterAboveSlow
	}
	return prev, Hold
}

func valueAt(values []float64, j int) float64 {
	if j < 0 || j >= len(values) {
		return math.NaN()
	}
	return values[j]
}
