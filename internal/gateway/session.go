package gateway

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/newthinker/ats/internal/core"
)

// Session owns the process-wide broker connection. Strategy tasks receive it
// as a Gateway and never reconnect it; while it is down every call fails with
// core.ErrGatewayUnavailable.
type Session struct {
	broker Broker
	logger *zap.Logger

	mu        sync.RWMutex
	connected bool
}

// NewSession wraps b. The connection stays closed until Connect is called.
func NewSession(b Broker, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{broker: b, logger: logger}
}

// Connect opens the broker connection.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return nil
	}
	if err := s.broker.Connect(ctx); err != nil {
		return core.WrapError(core.ErrGatewayUnavailable, fmt.Errorf("connect: %w", err))
	}
	s.connected = true
	s.logger.Info("gateway connected")
	return nil
}

// Disconnect closes the broker connection. In-flight calls finish against the
// broker; new calls fail immediately.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	s.connected = false
	s.logger.Info("gateway disconnected")
	return s.broker.Disconnect()
}

// Connected reports whether calls will be forwarded to the broker.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected && s.broker.IsConnected()
}

func (s *Session) ensure() error {
	if !s.Connected() {
		return core.ErrGatewayUnavailable
	}
	return nil
}

func (s *Session) FetchHistory(ctx context.Context, symbol, duration, barSize string) (core.PriceSeries, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return s.broker.FetchHistory(ctx, symbol, duration, barSize)
}

func (s *Session) Positions(ctx context.Context) ([]Position, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return s.broker.Positions(ctx)
}

func (s *Session) AccountEquity(ctx context.Context) (float64, error) {
	if err := s.ensure(); err != nil {
		return 0, err
	}
	return s.broker.AccountEquity(ctx)
}

func (s *Session) SubmitOrder(ctx context.Context, req OrderRequest) (string, error) {
	if err := s.ensure(); err != nil {
		return "", err
	}
	return s.broker.SubmitOrder(ctx, req)
}
