package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmehra2102/ecommerce-backend/pkg/outbox"
)

const TypeOrderConfirmation = "order.confirmation"

// Job is the envelope carried on the notification topic.
type Job struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	OrderID int64  `json:"order_id"`
	Attempt int    `json:"attempt"`
}

func NewOrderConfirmation(orderID int64) Job {
	return Job{ID: uuid.NewString(), Type: TypeOrderConfirmation, OrderID: orderID}
}

func (j Job) Encode() ([]byte, error) { return json.Marshal(j) }

// DecodeJob rejects payloads no retry could make sense of.
func DecodeJob(raw []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(raw, &j); err != nil {
		return Job{}, fmt.Errorf("%w: decode job: %v", outbox.ErrPermanent, err)
	}
	if j.ID == "" || j.OrderID <= 0 {
		return Job{}, fmt.Errorf("%w: job missing id or order_id", outbox.ErrPermanent)
	}
	if j.Type != TypeOrderConfirmation {
		return Job{}, fmt.Errorf("%w: unknown job type %q", outbox.ErrPermanent, j.Type)
	}
	return j, nil
}

type Line struct {
	ProductName string
	Quantity    int
}

// Confirmation is everything needed to tell a customer about an order.
type Confirmation struct {
	OrderID   int64
	FirstName string
	Email     string
	Lines     []Line
}

type Message struct {
	To      string
	Subject string
	Body    string
}

func Compose(c Confirmation) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\nYour order has been placed successfully.\n\nOrder Details:\n", c.FirstName)
	for _, l := range c.Lines {
		fmt.Fprintf(&b, "- %s (Quantity: %d)\n", l.ProductName, l.Quantity)
	}
	b.WriteString("\nThank you for shopping with us!")
	return Message{
		To:      c.Email,
		Subject: fmt.Sprintf("Order Confirmation - Order #%d", c.OrderID),
		Body:    b.String(),
	}
}
