package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAlreadyPaid  = errors.New("order already paid")
	ErrOrderCancelled    = errors.New("order is cancelled")
	ErrInvalidPrice      = errors.New("price must not be negative")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidTransition = errors.New("invalid status transition")
)
