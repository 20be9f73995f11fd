package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
)

type OrderStatus string

const (
	StatusCreated   OrderStatus = "created"
	StatusConfirmed OrderStatus = "confirmed"
	StatusFulfilled OrderStatus = "fulfilled"
	StatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID         int64
	UserID     int64
	Items      []OrderItem
	TotalPrice decimal.Decimal
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProductSnapshot is the product as it reads now, next to the price the
// item was bought at.
type ProductSnapshot struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}

type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Product   ProductSnapshot
	Quantity  int
	// Price is the line price frozen at purchase: unit price times quantity.
	Price decimal.Decimal
}

type ItemRequest struct {
	ProductID int64
	Quantity  int
}

// StockedProduct is what the ledger needs to know about a product to sell it.
type StockedProduct struct {
	ProductSnapshot
	Stock int
}

func LinePrice(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// ValidateItems rejects empty orders and non-positive quantities before
// any stock is touched.
func ValidateItems(items []ItemRequest) error {
	var v apperr.ValidationError
	if len(items) == 0 {
		v.Add("items", "an order needs at least one item")
		return v.Err()
	}
	for i, it := range items {
		if it.ProductID <= 0 {
			v.Add(fmt.Sprintf("items[%d].product_id", i), "is required")
		}
		if it.Quantity <= 0 {
			v.Add(fmt.Sprintf("items[%d].quantity", i), "must be a positive integer")
		}
	}
	return v.Err()
}

// Total sums the frozen line prices.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Price)
	}
	return total
}
