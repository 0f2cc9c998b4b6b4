// Package gateway defines the market-data and order-execution capability the
// engine consumes, plus the session, timeout and de-duplication wrappers
// strategy tasks use around it.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/newthinker/ats/internal/core"
)

// Order validation errors.
var (
	// ErrInvalidSymbol indicates an invalid or empty symbol.
	ErrInvalidSymbol = errors.New("gateway: invalid symbol")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("gateway: invalid quantity")
	// ErrInvalidSide indicates a side other than BUY or SELL.
	ErrInvalidSide = errors.New("gateway: invalid order side")
)

// OrderSide represents the direction of an order.
type OrderSide string

const (
	// OrderSideBuy represents a buy order.
	OrderSideBuy OrderSide = "BUY"
	// OrderSideSell represents a sell order.
	OrderSideSell OrderSide = "SELL"
)

// Position represents a holding in a security.
type Position struct {
	Symbol      string  `json:"symbol"`
	Quantity    float64 `json:"quantity"`
	AverageCost float64 `json:"average_cost"`
	MarketValue float64 `json:"market_value"`
}

// OrderRequest represents a request to place a market order.
type OrderRequest struct {
	Symbol   string    `json:"symbol"`
	Exchange string    `json:"exchange,omitempty"`
	Currency string    `json:"currency,omitempty"`
	Side     OrderSide `json:"side"`
	Quantity float64   `json:"quantity"`
}

// Validate checks if the order request has valid required fields.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return ErrInvalidSymbol
	}
	if r.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if r.Side != OrderSideBuy && r.Side != OrderSideSell {
		return fmt.Errorf("%w: %q", ErrInvalidSide, r.Side)
	}
	return nil
}

// Gateway is the broker capability used by the engine.
type Gateway interface {
	// FetchHistory returns daily bars covering duration (e.g. "30 Y")
	// at the given bar size (e.g. "1 day").
	FetchHistory(ctx context.Context, symbol, duration, barSize string) (core.PriceSeries, error)
	Positions(ctx context.Context) ([]Position, error)
	AccountEquity(ctx context.Context) (float64, error)
	// SubmitOrder places a market order and returns the broker's order ID.
	SubmitOrder(ctx context.Context, req OrderRequest) (string, error)
}

// Broker is a Gateway whose connection can be opened and closed. Only the
// Session owning it calls Connect and Disconnect.
type Broker interface {
	Gateway
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool
}
