// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidOrder         = errors.New("invalid order")
	ErrUnsupportedOrderType = errors.New("order type not supported by account")
	ErrInsufficientShares   = errors.New("insufficient shares")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrNoOpenShares         = errors.New("no open shares held")
	ErrCashTickerMismatch   = errors.New("transaction type does not match cash ticker")
	ErrPositionNotFound     = errors.New("position not found")
	ErrPriceNotFound        = errors.New("price not found")
	ErrAccountClosed        = errors.New("trading account closed")
	ErrConfigInvalid        = errors.New("invalid configuration")
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// OrderError represents an error related to order operations.
type OrderError struct {
	OrderID string
	Ticker  string
	Action  string
	Reason  string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error [%s] %s %s: %s: %v", e.OrderID, e.Action, e.Ticker, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error [%s] %s %s: %s", e.OrderID, e.Action, e.Ticker, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(orderID, ticker, action, reason string, err error) *OrderError {
	return &OrderError{
		OrderID: orderID,
		Ticker:  ticker,
		Action:  action,
		Reason:  reason,
		Err:     err,
	}
}

// StateError represents a query or mutation performed against a basket,
// position or portfolio in a state where the result is undefined.
type StateError struct {
	Operation string
	Reason    string
	Err       error
}

func (e *StateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("state error [%s]: %s: %v", e.Operation, e.Reason, e.Err)
	}
	return fmt.Sprintf("state error [%s]: %s", e.Operation, e.Reason)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// NewStateError creates a new StateError.
func NewStateError(operation, reason string, err error) *StateError {
	return &StateError{
		Operation: operation,
		Reason:    reason,
		Err:       err,
	}
}

// FundsError represents a cash constraint violation.
type FundsError struct {
	Ticker    string
	Required  string
	Available string
}

func (e *FundsError) Error() string {
	return fmt.Sprintf("funds error [%s]: required %s, available %s", e.Ticker, e.Required, e.Available)
}

func (e *FundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// NewFundsError creates a new FundsError.
func NewFundsError(ticker, required, available string) *FundsError {
	return &FundsError{
		Ticker:    ticker,
		Required:  required,
		Available: available,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
