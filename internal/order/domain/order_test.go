package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
)

func TestValidateItems(t *testing.T) {
	err := ValidateItems(nil)
	require.ErrorIs(t, err, apperr.ErrValidation)

	err = ValidateItems([]ItemRequest{{ProductID: 1, Quantity: 0}, {ProductID: 0, Quantity: 2}})
	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "items[0].quantity")
	assert.Contains(t, ve.Fields, "items[1].product_id")

	assert.NoError(t, ValidateItems([]ItemRequest{{ProductID: 1, Quantity: 3}}))
}

func TestLinePriceIsExact(t *testing.T) {
	unit := decimal.RequireFromString("0.10")
	assert.Equal(t, "0.30", LinePrice(unit, 3).StringFixed(2))
	assert.True(t, LinePrice(decimal.RequireFromString("800.00"), 2).Equal(decimal.NewFromInt(1600)))

	o := Order{Items: []OrderItem{
		{Price: LinePrice(decimal.RequireFromString("800.00"), 2)},
		{Price: LinePrice(decimal.RequireFromString("200.00"), 1)},
	}}
	assert.Equal(t, "1800.00", o.Total().StringFixed(2))
}

func TestInsufficientStockError(t *testing.T) {
	var err error = &InsufficientStockError{ProductID: 7, ProductName: "Smartphone", Requested: 3, Available: 1}

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), "Smartphone")

	details := err.(*InsufficientStockError).ErrorDetails()
	assert.Equal(t, 3, details["requested"])
	assert.Equal(t, 1, details["available"])
}
