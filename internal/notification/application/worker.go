package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra2102/ecommerce-backend/internal/notification/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/outbox"
)

const dedupScope = "notification"

type Worker struct {
	log         *slog.Logger
	orders      OrderReader
	sender      Sender
	dedup       Dedup
	maxAttempts int
	backoff     time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewWorker(log *slog.Logger, orders OrderReader, sender Sender, dedup Dedup, maxAttempts int, backoff time.Duration) *Worker {
	return &Worker{
		log:         log,
		orders:      orders,
		sender:      sender,
		dedup:       dedup,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		sleep:       sleepCtx,
	}
}

// Handle delivers one job. It returns nil once the job is settled, which
// includes permanent failures and exhausted retries; a non-nil error means
// the job was interrupted and must be redelivered.
func (w *Worker) Handle(ctx context.Context, job domain.Job) error {
	key := w.dedup.Key(dedupScope, job.ID)
	seen, err := w.dedup.Seen(ctx, key)
	if err != nil {
		w.log.Warn("dedup check failed, delivering anyway", "job_id", job.ID, "err", err)
	} else if seen {
		w.log.Info("duplicate job skipped", "job_id", job.ID, "order_id", job.OrderID)
		return nil
	}

	err = w.deliver(ctx, job)
	if err == nil {
		return nil
	}
	if rErr := w.dedup.Release(context.WithoutCancel(ctx), key); rErr != nil {
		w.log.Warn("dedup release failed", "job_id", job.ID, "err", rErr)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, outbox.ErrPermanent) {
		w.log.Warn("notification dropped", "job_id", job.ID, "order_id", job.OrderID, "err", err)
		return nil
	}
	w.log.Error("notification retries exhausted", "job_id", job.ID, "order_id", job.OrderID, "attempts", w.maxAttempts, "err", err)
	return nil
}

func (w *Worker) deliver(ctx context.Context, job domain.Job) error {
	delay := w.backoff
	err := fmt.Errorf("%w: attempt %d exceeds budget of %d", outbox.ErrPermanent, job.Attempt, w.maxAttempts)
	for attempt := max(job.Attempt, 1); attempt <= w.maxAttempts; attempt++ {
		if err = w.attempt(ctx, job); err == nil {
			w.log.Info("order confirmation sent", "job_id", job.ID, "order_id", job.OrderID, "attempt", attempt)
			return nil
		}
		if errors.Is(err, outbox.ErrPermanent) || attempt == w.maxAttempts {
			return err
		}
		w.log.Warn("notification attempt failed", "job_id", job.ID, "order_id", job.OrderID, "attempt", attempt, "retry_in", delay, "err", err)
		if sErr := w.sleep(ctx, delay); sErr != nil {
			return sErr
		}
		delay *= 2
	}
	return err
}

func (w *Worker) attempt(ctx context.Context, job domain.Job) error {
	c, err := w.orders.Confirmation(ctx, job.OrderID)
	if err != nil {
		return err
	}
	return w.sender.Send(ctx, domain.Compose(c))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
