package application

import (
	"context"

	"github.com/dmehra2102/ecommerce-backend/internal/notification/domain"
)

type OrderReader interface {
	// Confirmation returns an error wrapping outbox.ErrPermanent when the
	// order or its owner's address no longer exists.
	Confirmation(ctx context.Context, orderID int64) (domain.Confirmation, error)
}

type Sender interface {
	Send(ctx context.Context, msg domain.Message) error
}

type Dedup interface {
	Key(scope, id string) string
	Seen(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
