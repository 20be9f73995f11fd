package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/ecommerce-backend/internal/notification/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/tracing"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Handler interface {
	Handle(ctx context.Context, job domain.Job) error
}

type Consumer struct {
	log     *slog.Logger
	reader  Reader
	handler Handler
	tracer  trace.Tracer
	backoff time.Duration
}

func NewConsumer(log *slog.Logger, reader Reader, handler Handler) *Consumer {
	return &Consumer{
		log:     log,
		reader:  reader,
		handler: handler,
		tracer:  otel.Tracer("notification-consumer"),
		backoff: time.Second,
	}
}

// Run consumes until ctx is cancelled. Offsets are committed only for
// settled jobs, so an interrupted job is seen again after a restart.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("consumer stopping")
				return nil
			}
			c.log.Error("fetch message failed", "err", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}

		if err := c.process(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				c.log.Info("consumer stopping mid-job", "offset", msg.Offset, "partition", msg.Partition)
				return nil
			}
			c.log.Error("job processing failed", "offset", msg.Offset, "err", err)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed", "offset", msg.Offset, "partition", msg.Partition, "err", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	ctx = tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	ctx, span := c.tracer.Start(ctx, "HandleNotification", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.destination", msg.Topic),
		attribute.Int("messaging.partition", msg.Partition),
		attribute.Int64("messaging.offset", msg.Offset),
	)

	job, err := domain.DecodeJob(msg.Value)
	if err != nil {
		c.log.Error("malformed job dropped", "offset", msg.Offset, "partition", msg.Partition, "err", err)
		return nil
	}
	span.SetAttributes(attribute.String("job.id", job.ID), attribute.Int64("order.id", job.OrderID))
	if err := c.handler.Handle(ctx, job); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
