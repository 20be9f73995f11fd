package domain

import (
	"fmt"

	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
)

var ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", apperr.ErrConflict)

type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q (id %d): requested %d, available %d",
		e.ProductName, e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

func (e *InsufficientStockError) ErrorCode() string { return "insufficient_stock" }

func (e *InsufficientStockError) ErrorDetails() map[string]any {
	return map[string]any{
		"product_id":   e.ProductID,
		"product_name": e.ProductName,
		"requested":    e.Requested,
		"available":    e.Available,
	}
}
