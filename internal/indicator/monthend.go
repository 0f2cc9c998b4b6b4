package indicator

import (
	"time"

	"github.com/newthinker/ats/internal/core"
)

// MonthEndIndex returns the positions of month-end bars: a bar is month-end
// iff no later bar shares its calendar month. The decision is made from the
// dates actually present, so holidays and missing sessions are respected and
// the final bar always qualifies.
func MonthEndIndex(dates []time.Time) []int {
	idx := make([]int, 0, len(dates)/20+1)
	for i := range dates {
		if i == len(dates)-1 || !core.SameMonth(dates[i], dates[i+1]) {
			idx = append(idx, i)
		}
	}
	return idx
}
