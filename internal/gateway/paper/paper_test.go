package paper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/ats/internal/core"
	"github.com/newthinker/ats/internal/core/coretest"
	"github.com/newthinker/ats/internal/gateway"
)

type stubSource struct {
	calls int
	bars  core.PriceSeries
	err   error
}

func (s *stubSource) FetchHistory(ctx context.Context, symbol, duration, barSize string) (core.PriceSeries, error) {
	s.calls++
	return s.bars, s.err
}

func connected(t *testing.T, b *Broker) *Broker {
	t.Helper()
	require.NoError(t, b.Connect(context.Background()))
	return b
}

func TestBroker_Connection(t *testing.T) {
	b := New(1000)
	ctx := context.Background()

	assert.False(t, b.IsConnected())
	_, err := b.Positions(ctx)
	assert.ErrorIs(t, err, core.ErrGatewayUnavailable)
	_, err = b.AccountEquity(ctx)
	assert.ErrorIs(t, err, core.ErrGatewayUnavailable)

	require.NoError(t, b.Connect(ctx))
	assert.True(t, b.IsConnected())

	require.NoError(t, b.Disconnect())
	assert.False(t, b.IsConnected())
}

func TestBroker_FetchHistoryTrimsToDuration(t *testing.T) {
	b := connected(t, New(1000))
	bars := coretest.Weekdays(coretest.Date(2023, 1, 2), coretest.Constant(300, 10)...)
	b.SetHistory("IUSQ", bars)

	got, err := b.FetchHistory(context.Background(), "IUSQ", "6 M", "1 day")
	require.NoError(t, err)

	start := bars[len(bars)-1].Date.AddDate(0, -6, 0)
	assert.True(t, got[0].Date.After(start))
	assert.Equal(t, bars[len(bars)-1], got[len(got)-1])
	assert.Less(t, len(got), len(bars))

	all, err := b.FetchHistory(context.Background(), "IUSQ", "30 Y", "1 day")
	require.NoError(t, err)
	assert.Len(t, all, len(bars))
}

func TestBroker_FetchHistoryErrors(t *testing.T) {
	b := connected(t, New(1000))
	b.SetHistory("IUSQ", coretest.Weekdays(coretest.Date(2024, 1, 1), 10))
	ctx := context.Background()

	_, err := b.FetchHistory(ctx, "IUSQ", "1 Y", "1 hour")
	assert.Error(t, err)

	_, err = b.FetchHistory(ctx, "UNKNOWN", "1 Y", "1 day")
	assert.Error(t, err)

	_, err = b.FetchHistory(ctx, "IUSQ", "forever", "1 day")
	assert.Error(t, err)
}

func TestBroker_FetchHistoryFromSource(t *testing.T) {
	src := &stubSource{bars: coretest.Weekdays(coretest.Date(2024, 1, 1), 10, 20)}
	b := connected(t, New(1000, WithHistorySource(src)))

	got, err := b.FetchHistory(context.Background(), "IUSQ", "1 Y", "1 day")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, src.calls)

	// The source close becomes the fill price.
	_, err = b.SubmitOrder(context.Background(), gateway.OrderRequest{Symbol: "IUSQ", Side: gateway.OrderSideBuy, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 900.0, b.Cash())

	src.err = errors.New("boom")
	_, err = b.FetchHistory(context.Background(), "IUSQ", "1 Y", "1 day")
	assert.EqualError(t, err, "boom")
}

func TestBroker_OrdersUpdatePositionsAndEquity(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := connected(t, New(10000, WithClock(func() time.Time { return fixed })))
	b.SetHistory("IUSQ", coretest.Weekdays(coretest.Date(2024, 1, 1), 90, 100))
	ctx := context.Background()

	id, err := b.SubmitOrder(ctx, gateway.OrderRequest{Symbol: "IUSQ", Side: gateway.OrderSideBuy, Quantity: 30})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	positions, err := b.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 30.0, positions[0].Quantity)
	assert.Equal(t, 3000.0, positions[0].MarketValue)
	assert.Equal(t, 100.0, positions[0].AverageCost)

	equity, err := b.AccountEquity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, equity)

	// Marking to a higher close moves equity, not cash.
	b.SetHistory("IUSQ", coretest.Weekdays(coretest.Date(2024, 1, 1), 90, 100, 110))
	equity, err = b.AccountEquity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10300.0, equity)
	assert.Equal(t, 7000.0, b.Cash())

	_, err = b.SubmitOrder(ctx, gateway.OrderRequest{Symbol: "IUSQ", Side: gateway.OrderSideSell, Quantity: 30})
	require.NoError(t, err)
	positions, err = b.Positions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
	assert.Equal(t, 10300.0, b.Cash())

	fills := b.Fills()
	require.Len(t, fills, 2)
	assert.Equal(t, fixed, fills[0].FilledAt)
	assert.Equal(t, 110.0, fills[1].Price)
}

func TestBroker_RejectsOrders(t *testing.T) {
	b := connected(t, New(100))
	b.SetHistory("IUSQ", coretest.Weekdays(coretest.Date(2024, 1, 1), 50))
	ctx := context.Background()

	tests := []struct {
		name string
		req  gateway.OrderRequest
	}{
		{"invalid quantity", gateway.OrderRequest{Symbol: "IUSQ", Side: gateway.OrderSideBuy}},
		{"unknown price", gateway.OrderRequest{Symbol: "SYB3", Side: gateway.OrderSideBuy, Quantity: 1}},
		{"insufficient cash", gateway.OrderRequest{Symbol: "IUSQ", Side: gateway.OrderSideBuy, Quantity: 3}},
		{"sell without position", gateway.OrderRequest{Symbol: "IUSQ", Side: gateway.OrderSideSell, Quantity: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.SubmitOrder(ctx, tt.req)
			assert.ErrorIs(t, err, core.ErrOrderFailed)
		})
	}
	assert.Empty(t, b.Fills())
}

func TestBroker_SetPosition(t *testing.T) {
	b := connected(t, New(0))
	b.SetPosition("IUSQ", 10, 50)

	positions, err := b.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 500.0, positions[0].MarketValue, "marked at cost without a price")

	b.SetPosition("IUSQ", 0, 0)
	positions, err = b.Positions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, positions)
}
