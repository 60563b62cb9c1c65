package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate resource")
	ErrInvalidInput = errors.New("invalid input data")
	ErrNotEnough    = errors.New("not enough quantity available")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidState = errors.New("invalid order state")
	ErrConflict     = errors.New("persistence conflict")
	ErrInUse        = errors.New("resource is still referenced")
	ErrUnauthorized = errors.New("unauthorized")
)

// StockError reports a stock check that failed for one product.
type StockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
	InCart      int
}

func (e *StockError) Error() string {
	if e.ProductName != "" {
		return fmt.Sprintf("%s for product %s: requested %d, available %d", ErrNotEnough, e.ProductName, e.Requested, e.Available)
	}
	return fmt.Sprintf("%s for product %d: requested %d, available %d", ErrNotEnough, e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrNotEnough
}
