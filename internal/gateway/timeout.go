package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/ats/internal/core"
)

type timeoutGateway struct {
	next    Gateway
	timeout time.Duration
}

// WithTimeout bounds every call on g by d. A call that outlives d returns
// core.ErrGatewayTimeout even if the underlying implementation ignores its
// context. A non-positive d returns g unchanged.
func WithTimeout(g Gateway, d time.Duration) Gateway {
	if d <= 0 {
		return g
	}
	return &timeoutGateway{next: g, timeout: d}
}

func (t *timeoutGateway) FetchHistory(ctx context.Context, symbol, duration, barSize string) (core.PriceSeries, error) {
	return bounded(ctx, t.timeout, "fetch history", func(ctx context.Context) (core.PriceSeries, error) {
		return t.next.FetchHistory(ctx, symbol, duration, barSize)
	})
}

func (t *timeoutGateway) Positions(ctx context.Context) ([]Position, error) {
	return bounded(ctx, t.timeout, "positions", t.next.Positions)
}

func (t *timeoutGateway) AccountEquity(ctx context.Context) (float64, error) {
	return bounded(ctx, t.timeout, "account equity", t.next.AccountEquity)
}

func (t *timeoutGateway) SubmitOrder(ctx context.Context, req OrderRequest) (string, error) {
	return bounded(ctx, t.timeout, "submit order", func(ctx context.Context) (string, error) {
		return t.next.SubmitOrder(ctx, req)
	})
}

type outcome[T any] struct {
	v   T
	err error
}

func bounded[T any](parent context.Context, d time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome[T]{v, err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && parent.Err() == nil {
			return zero, core.WrapError(core.ErrGatewayTimeout, fmt.Errorf("%s after %s: %w", op, d, r.err))
		}
		return r.v, r.err
	case <-ctx.Done():
		if err := parent.Err(); err != nil {
			return zero, err
		}
		return zero, core.WrapError(core.ErrGatewayTimeout, fmt.Errorf("%s after %s", op, d))
	}
}
