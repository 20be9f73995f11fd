package kafka

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/dmehra2102/ecommerce-backend/internal/notification/domain"
	orderdomain "github.com/dmehra2102/ecommerce-backend/internal/order/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/outbox"
	"github.com/dmehra2102/ecommerce-backend/pkg/tracing"
)

type Parker interface {
	Park(ctx context.Context, e outbox.Event) (int64, error)
}

// Publisher queues an order confirmation job for every placed order. When
// the broker rejects the write the job is parked in the outbox for the
// relay to retry.
type Publisher struct {
	log      *slog.Logger
	dispatch *outbox.Dispatcher
	parker   Parker
}

func NewPublisher(log *slog.Logger, dispatch *outbox.Dispatcher, parker Parker) *Publisher {
	return &Publisher{log: log, dispatch: dispatch, parker: parker}
}

func (p *Publisher) OrderPlaced(ctx context.Context, e orderdomain.OrderPlaced) error {
	job := domain.NewOrderConfirmation(e.OrderID)
	payload, err := job.Encode()
	if err != nil {
		return err
	}
	event := outbox.Event{
		AggregateType: "order",
		AggregateID:   strconv.FormatInt(e.OrderID, 10),
		Type:          job.Type,
		Payload:       payload,
		Headers:       map[string]string{"job_id": job.ID},
		Traceparent:   tracing.Traceparent(ctx),
	}

	sendErr := p.dispatch.Dispatch(ctx, event)
	if sendErr == nil {
		return nil
	}
	id, parkErr := p.parker.Park(ctx, event)
	if parkErr != nil {
		return errors.Join(sendErr, parkErr)
	}
	p.log.Warn("notification job parked", "outbox_id", id, "order_id", e.OrderID, "job_id", job.ID, "err", sendErr)
	return nil
}
