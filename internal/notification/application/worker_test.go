package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/ecommerce-backend/internal/notification/application"
	"github.com/dmehra2102/ecommerce-backend/internal/notification/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/idempotency"
	"github.com/dmehra2102/ecommerce-backend/pkg/logging"
	"github.com/dmehra2102/ecommerce-backend/pkg/outbox"
)

type stubOrders struct {
	confirmations map[int64]domain.Confirmation
}

func (s *stubOrders) Confirmation(_ context.Context, id int64) (domain.Confirmation, error) {
	c, ok := s.confirmations[id]
	if !ok {
		return domain.Confirmation{}, fmt.Errorf("%w: order %d not found", outbox.ErrPermanent, id)
	}
	return c, nil
}

type stubSender struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []domain.Message
}

func (s *stubSender) Send(_ context.Context, m domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("smtp: 421 try again later")
	}
	s.sent = append(s.sent, m)
	return nil
}

func newWorker(t *testing.T, sender *stubSender) (*application.Worker, *idempotency.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	dedup := idempotency.NewStore(rdb, time.Hour)

	orders := &stubOrders{confirmations: map[int64]domain.Confirmation{
		1: {OrderID: 1, FirstName: "Ada", Email: "ada@example.com", Lines: []domain.Line{{ProductName: "Smartphone", Quantity: 2}}},
	}}
	w := application.NewWorker(logging.Discard(), orders, sender, dedup, 4, time.Millisecond)
	return w, dedup
}

func TestWorkerSendsConfirmation(t *testing.T) {
	sender := &stubSender{}
	w, _ := newWorker(t, sender)

	require.NoError(t, w.Handle(context.Background(), domain.NewOrderConfirmation(1)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ada@example.com", sender.sent[0].To)
	assert.Equal(t, "Order Confirmation - Order #1", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Body, "- Smartphone (Quantity: 2)")
}

func TestWorkerSkipsDuplicates(t *testing.T) {
	sender := &stubSender{}
	w, _ := newWorker(t, sender)
	job := domain.NewOrderConfirmation(1)

	require.NoError(t, w.Handle(context.Background(), job))
	require.NoError(t, w.Handle(context.Background(), job))
	assert.Len(t, sender.sent, 1)
}

func TestWorkerRetriesTransientFailures(t *testing.T) {
	sender := &stubSender{failures: 2}
	w, _ := newWorker(t, sender)

	require.NoError(t, w.Handle(context.Background(), domain.NewOrderConfirmation(1)))
	assert.Equal(t, 3, sender.calls)
	assert.Len(t, sender.sent, 1)
}

func TestWorkerGivesUpAfterMaxAttempts(t *testing.T) {
	sender := &stubSender{failures: 10}
	w, dedup := newWorker(t, sender)
	job := domain.NewOrderConfirmation(1)

	require.NoError(t, w.Handle(context.Background(), job))
	assert.Equal(t, 4, sender.calls)
	assert.Empty(t, sender.sent)

	seen, err := dedup.Seen(context.Background(), dedup.Key("notification", job.ID))
	require.NoError(t, err)
	assert.False(t, seen, "claim is released after a failed delivery")
}

func TestWorkerDoesNotRetryMissingOrder(t *testing.T) {
	sender := &stubSender{}
	w, _ := newWorker(t, sender)

	require.NoError(t, w.Handle(context.Background(), domain.NewOrderConfirmation(404)))
	assert.Zero(t, sender.calls)
}

func TestWorkerInterruptedJobIsRedelivered(t *testing.T) {
	sender := &stubSender{failures: 10}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	orders := &stubOrders{confirmations: map[int64]domain.Confirmation{1: {OrderID: 1, Email: "a@b.c"}}}
	w := application.NewWorker(logging.Discard(), orders, sender, idempotency.NewStore(rdb, time.Hour), 4, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := w.Handle(ctx, domain.NewOrderConfirmation(1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, sender.calls)
}
