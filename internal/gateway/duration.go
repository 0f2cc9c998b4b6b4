package gateway

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration reads a broker-style history span such as "30 Y", "6 M",
// "2 W" or "250 D" and returns the start date that span reaches back to from
// end. Day spans count calendar days.
func ParseDuration(s string, end time.Time) (time.Time, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q: want \"<n> <unit>\"", s)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q: count must be a positive integer", s)
	}

	switch strings.ToUpper(fields[1]) {
	case "Y":
		return end.AddDate(-n, 0, 0), nil
	case "M":
		return end.AddDate(0, -n, 0), nil
	case "W":
		return end.AddDate(0, 0, -7*n), nil
	case "D":
		return end.AddDate(0, 0, -n), nil
	default:
		return time.Time{}, fmt.Errorf("invalid duration %q: unknown unit %q", s, fields[1])
	}
}
