// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Computation errors
	ErrInvalidSeries       = &Error{Code: "INVALID_SERIES", Message: "malformed or unsorted price series"}
	ErrInsufficientHistory = &Error{Code: "INSUFFICIENT_HISTORY", Message: "not enough bars for the configured windows"}

	// Allocation errors
	ErrNoEquityData = &Error{Code: "NO_EQUITY_DATA", Message: "account equity unavailable"}

	// Gateway errors
	ErrGatewayTimeout     = &Error{Code: "GATEWAY_TIMEOUT", Message: "gateway call timed out"}
	ErrGatewayUnavailable = &Error{Code: "GATEWAY_UNAVAILABLE", Message: "gateway not connected"}
	ErrOrderFailed        = &Error{Code: "ORDER_FAILED", Message: "order failed"}

	// Config errors
	ErrConfigNotFound = &Error{Code: "CONFIG_NOT_FOUND", Message: "strategy configuration not found"}
	ErrConfigInvalid  = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing  = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)

// IsTransient reports whether err is a gateway failure that should only skip
// the current cycle.
func IsTransient(err error) bool {
	return errors.Is(err, ErrGatewayTimeout) || errors.Is(err, ErrGatewayUnavailable)
}
