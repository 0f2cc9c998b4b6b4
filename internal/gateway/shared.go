package gateway

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/newthinker/ats/internal/core"
)

// Shared collapses concurrent identical FetchHistory calls into one upstream
// request. Strategy tasks trading the same instrument share the result; the
// series is read-only for all of them. Other calls pass through.
type Shared struct {
	Gateway
	sf singleflight.Group
}

// NewShared wraps g.
func NewShared(g Gateway) *Shared {
	return &Shared{Gateway: g}
}

func (s *Shared) FetchHistory(ctx context.Context, symbol, duration, barSize string) (core.PriceSeries, error) {
	key := strings.Join([]string{symbol, duration, barSize}, "|")
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.Gateway.FetchHistory(ctx, symbol, duration, barSize)
	})
	if err != nil {
		return nil, err
	}
	return v.(core.PriceSeries), nil
}
