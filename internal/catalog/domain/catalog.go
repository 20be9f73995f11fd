package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
)

type Category struct {
	ID          int64
	Name        string
	Description string
}

type Product struct {
	ID          int64
	CategoryID  int64
	Category    Category
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CategoryInput struct {
	Name        string
	Description string
}

func (in CategoryInput) Validate() error {
	var v apperr.ValidationError
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "is required")
	} else if len(in.Name) > 100 {
		v.Add("name", "must be at most 100 characters")
	}
	return v.Err()
}

// ProductInput is a full product definition as accepted on create and
// full update.
type ProductInput struct {
	CategoryID  int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

func (in ProductInput) Validate() error {
	var v apperr.ValidationError
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "is required")
	} else if len(in.Name) > 255 {
		v.Add("name", "must be at most 255 characters")
	}
	if in.CategoryID <= 0 {
		v.Add("category_id", "is required")
	}
	if in.Price.IsNegative() {
		v.Add("price", "must not be negative")
	}
	if in.Price.Exponent() < -2 && !in.Price.Equal(in.Price.Round(2)) {
		v.Add("price", "must have at most 2 decimal places")
	}
	if in.Stock < 0 {
		v.Add("stock", "must not be negative")
	}
	return v.Err()
}

// ProductPatch carries the fields of a partial update; nil means keep.
type ProductPatch struct {
	CategoryID  *int64
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
}

func (p ProductPatch) Apply(to Product) ProductInput {
	in := ProductInput{
		CategoryID:  to.CategoryID,
		Name:        to.Name,
		Description: to.Description,
		Price:       to.Price,
		Stock:       to.Stock,
	}
	if p.CategoryID != nil {
		in.CategoryID = *p.CategoryID
	}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Price != nil {
		in.Price = *p.Price
	}
	if p.Stock != nil {
		in.Stock = *p.Stock
	}
	return in
}
