package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("product not found")
	ErrOutOfStock    = errors.New("product out of stock")
	ErrStockExceeded = errors.New("stock exceeded")
	ErrPersistence   = errors.New("cart persistence failed")
)

// ValidationError reports malformed or missing caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	ProductID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type OutOfStockError struct {
	ProductID int64
}

func (e *OutOfStockError) Error() string {
	return "this product is out of stock"
}

func (e *OutOfStockError) Is(target error) bool { return target == ErrOutOfStock }

// StockExceededError carries the quantity actually available.
type StockExceededError struct {
	ProductID int64
	Available int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("only %d available in stock", e.Available)
}

func (e *StockExceededError) Is(target error) bool { return target == ErrStockExceeded }

// PersistenceError wraps a failed cart read or write. Its message is safe
// to show to end users; the cause is kept for logs.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s cart, please try again", e.Op)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
