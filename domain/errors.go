package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInfeasible          = errors.New("allocation infeasible")
	ErrSolverTimeout       = errors.New("solver timed out")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrOrderNotFound       = errors.New("order not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrBundleTypeNotFound  = errors.New("bundle type not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTooManyAttempts     = errors.New("too many login attempts, try again later")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidWebhookToken = errors.New("invalid webhook callback token")
)

// InvalidInputError carries the offending field back to the caller.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func InvalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// ShortfallError reports a category that cannot be filled. Reason overrides the
// default "need N snacks, only M in stock" message when set.
type ShortfallError struct {
	Category Category
	Need     int
	Have     int
	Reason   string
}

func (e *ShortfallError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("need %d %s, only %d in stock", e.Need, e.Category.Plural(), e.Have)
}

func (e *ShortfallError) Unwrap() error { return ErrInfeasible }

// StockShortageError names the line that could not be reserved at commit time.
type StockShortageError struct {
	ItemID    uint64
	ItemName  string
	Requested int
	Available int
}

func (e *StockShortageError) Error() string {
	name := e.ItemName
	if name == "" {
		name = fmt.Sprintf("item %d", e.ItemID)
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", name, e.Requested, e.Available)
}

func (e *StockShortageError) Unwrap() error { return ErrInsufficientStock }

type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
