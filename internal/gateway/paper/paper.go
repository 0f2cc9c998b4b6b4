// Package paper implements an in-memory gateway that fills market orders at
// the last known close.
package paper

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/ats/internal/core"
	"github.com/newthinker/ats/internal/gateway"
)

// HistorySource supplies bars for symbols the broker has no local history for.
type HistorySource interface {
	FetchHistory(ctx context.Context, symbol, duration, barSize string) (core.PriceSeries, error)
}

// Fill records an executed paper order.
type Fill struct {
	OrderID  string
	Request  gateway.OrderRequest
	Price    float64
	FilledAt time.Time
}

// Broker implements gateway.Broker against an in-memory account.
type Broker struct {
	mu        sync.RWMutex
	connected bool
	source    HistorySource
	history   map[string]core.PriceSeries
	last      map[string]float64
	holdings  map[string]*gateway.Position
	cash      float64
	fills     []Fill
	now       func() time.Time
}

// Option configures a Broker.
type Option func(*Broker)

// WithHistorySource fetches bars from src for symbols without local history.
func WithHistorySource(src HistorySource) Option {
	return func(b *Broker) { b.source = src }
}

// WithClock replaces time.Now for fill timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Broker) { b.now = now }
}

// New creates a paper broker holding cash and no positions.
func New(cash float64, opts ...Option) *Broker {
	b := &Broker{
		history:  make(map[string]core.PriceSeries),
		last:     make(map[string]float64),
		holdings: make(map[string]*gateway.Position),
		cash:     cash,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ gateway.Broker = (*Broker)(nil)

// Connect establishes connection (no-op for paper).
func (b *Broker) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = true
	return nil
}

// Disconnect closes connection.
func (b *Broker) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	return nil
}

// IsConnected returns connection status.
func (b *Broker) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// SetHistory stores bars for symbol and marks it to the last close.
func (b *Broker) SetHistory(symbol string, bars core.PriceSeries) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history[symbol] = bars
	if len(bars) > 0 {
		b.last[symbol] = bars[len(bars)-1].Close
	}
}

// SetPosition replaces the holding for symbol at the given average cost.
func (b *Broker) SetPosition(symbol string, quantity, avgCost float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if quantity == 0 {
		delete(b.holdings, symbol)
		return
	}
	b.holdings[symbol] = &gateway.Position{Symbol: symbol, Quantity: quantity, AverageCost: avgCost}
}

// Fills returns executed orders, oldest first.
func (b *Broker) Fills() []Fill {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Fill, len(b.fills))
	copy(out, b.fills)
	return out
}

// Cash returns the uninvested balance.
func (b *Broker) Cash() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cash
}

func (b *Broker) FetchHistory(ctx context.Context, symbol, duration, barSize string) (core.PriceSeries, error) {
	if !b.IsConnected() {
		return nil, core.ErrGatewayUnavailable
	}
	if barSize != "" && barSize != "1 day" {
		return nil, fmt.Errorf("paper: unsupported bar size %q", barSize)
	}

	b.mu.RLock()
	bars, ok := b.history[symbol]
	src := b.source
	b.mu.RUnlock()

	if !ok {
		if src == nil {
			return nil, fmt.Errorf("paper: no history for %s", symbol)
		}
		fetched, err := src.FetchHistory(ctx, symbol, duration, barSize)
		if err != nil {
			return nil, err
		}
		if len(fetched) > 0 {
			b.mu.Lock()
			b.last[symbol] = fetched[len(fetched)-1].Close
			b.mu.Unlock()
		}
		return fetched, nil
	}

	if len(bars) == 0 || duration == "" {
		return bars, nil
	}
	start, err := gateway.ParseDuration(duration, bars[len(bars)-1].Date)
	if err != nil {
		return nil, err
	}
	i := sort.Search(len(bars), func(i int) bool { return bars[i].Date.After(start) })
	return bars[i:], nil
}

func (b *Broker) Positions(ctx context.Context) ([]gateway.Position, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.connected {
		return nil, core.ErrGatewayUnavailable
	}

	out := make([]gateway.Position, 0, len(b.holdings))
	for _, p := range b.holdings {
		pos := *p
		pos.MarketValue = pos.Quantity * b.markPrice(pos)
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (b *Broker) AccountEquity(ctx context.Context) (float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.connected {
		return 0, core.ErrGatewayUnavailable
	}

	equity := b.cash
	for _, p := range b.holdings {
		equity += p.Quantity * b.markPrice(*p)
	}
	return equity, nil
}

// SubmitOrder fills the order immediately at the symbol's last close.
func (b *Broker) SubmitOrder(ctx context.Context, req gateway.OrderRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", core.WrapError(core.ErrOrderFailed, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return "", core.ErrGatewayUnavailable
	}

	price, ok := b.last[req.Symbol]
	if !ok || price <= 0 {
		return "", core.WrapError(core.ErrOrderFailed, fmt.Errorf("no price for %s", req.Symbol))
	}

	pos := b.holdings[req.Symbol]
	cost := req.Quantity * price
	switch req.Side {
	case gateway.OrderSideBuy:
		if cost > b.cash {
			return "", core.WrapError(core.ErrOrderFailed,
				fmt.Errorf("insufficient cash: need %.2f, have %.2f", cost, b.cash))
		}
		if pos == nil {
			pos = &gateway.Position{Symbol: req.Symbol}
			b.holdings[req.Symbol] = pos
		}
		pos.AverageCost = (pos.AverageCost*pos.Quantity + cost) / (pos.Quantity + req.Quantity)
		pos.Quantity += req.Quantity
		b.cash -= cost
	case gateway.OrderSideSell:
		if pos == nil || pos.Quantity < req.Quantity {
			return "", core.WrapError(core.ErrOrderFailed,
				fmt.Errorf("cannot sell %.4f %s: position too small", req.Quantity, req.Symbol))
		}
		pos.Quantity -= req.Quantity
		b.cash += cost
		if pos.Quantity == 0 {
			delete(b.holdings, req.Symbol)
		}
	}

	id := uuid.New().String()
	b.fills = append(b.fills, Fill{OrderID: id, Request: req, Price: price, FilledAt: b.now()})
	return id, nil
}

// markPrice returns the last close, falling back to cost when none is known.
func (b *Broker) markPrice(p gateway.Position) float64 {
	if px, ok := b.last[p.Symbol]; ok {
		return px
	}
	return p.AverageCost
}
