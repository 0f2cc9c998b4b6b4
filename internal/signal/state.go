package signal

import "fmt"

// State is the position a strategy wants to hold during a session.
type State int

const (
	// Undefined means indicators were still warming up.
	Undefined State = iota
	Flat
	Invested
)

func (s State) String() string {
	switch s {
	case Undefined:
		return "UNDEFINED"
	case Flat:
		return "FLAT"
	case Invested:
		return "INVESTED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Exposure is 1 for Invested and 0 otherwise.
func (s State) Exposure() float64 {
	if s == Invested {
		return 1
	}
	return 0
}

// MarshalText renders the state name, used by JSON reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Rule identifies which decision rule produced a state.
type Rule int

const (
	// Hold: no rule fired and the previous state persists.
	Hold Rule = iota
	// ExitBelowFast: invested and close fell below the fast month-end MA.
	ExitBelowFast
	// EnterAboveFast: flat and close rose above the fast month-end MA.
	EnterAboveFast
	// ReenterAboveSlow: flat, still under the fast MA but above the slow one.
	ReenterAboveSlow
)

func (r Rule) String() string {
	switch r {
	case Hold:
		return "hold"
	case ExitBelowFast:
		return "exit_below_fast"
	case EnterAboveFast:
		return "enter_above_fast"
	case ReenterAboveSlow:
		return "reenter_above_slow"
	default:
		return fmt.Sprintf("Rule(%d)", int(r))
	}
}

// Param is one tunable of the trend filter strategy.
type Param struct {
	Name        string
	Value       int
	Description string
}

// Params lists the month-end windows the strategy is built on.
var Params = []Param{
	{
		Name:        "Monthly Trendfilter",
		Value:       10,
		Description: "The 10M SMA trend filter is used as a sell signal if the price drops below it.",
	},
	{
		Name:  "Structural Trendfilter",
		Value: 50,
		Description: "Re-enters the market when price is below the monthly trend filter " +
			"but has reclaimed the structural trendline from below.",
	},
}
