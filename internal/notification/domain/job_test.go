package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/ecommerce-backend/pkg/outbox"
)

func TestCompose(t *testing.T) {
	msg := Compose(Confirmation{
		OrderID:   17,
		FirstName: "Ada",
		Email:     "ada@example.com",
		Lines: []Line{
			{ProductName: "Smartphone", Quantity: 2},
			{ProductName: "Headphones", Quantity: 1},
		},
	})

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Order Confirmation - Order #17", msg.Subject)
	assert.Equal(t, "Dear Ada,\n\nYour order has been placed successfully.\n\nOrder Details:\n"+
		"- Smartphone (Quantity: 2)\n- Headphones (Quantity: 1)\n\nThank you for shopping with us!", msg.Body)
}

func TestJobRoundTrip(t *testing.T) {
	j := NewOrderConfirmation(5)
	require.NotEmpty(t, j.ID)

	raw, err := j.Encode()
	require.NoError(t, err)
	got, err := DecodeJob(raw)
	require.NoError(t, err)
	assert.Equal(t, j, got)
}

func TestDecodeJobRejectsGarbage(t *testing.T) {
	for _, raw := range []string{`not json`, `{"id":"x","type":"order.confirmation"}`, `{"id":"x","type":"other","order_id":1}`} {
		_, err := DecodeJob([]byte(raw))
		assert.ErrorIs(t, err, outbox.ErrPermanent, raw)
	}
}
