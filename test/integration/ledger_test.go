//go:build integration

package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/dmehra2102/ecommerce-backend/internal/identity/domain"
	orderapp "github.com/dmehra2102/ecommerce-backend/internal/order/application"
	"github.com/dmehra2102/ecommerce-backend/internal/order/domain"
	orderpg "github.com/dmehra2102/ecommerce-backend/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
	"github.com/dmehra2102/ecommerce-backend/pkg/logging"
)

type nopNotifier struct {
	mu     sync.Mutex
	orders []int64
}

func (n *nopNotifier) OrderPlaced(_ context.Context, e domain.OrderPlaced) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, e.OrderID)
	return nil
}

func newOrders() (*orderapp.Service, *nopNotifier) {
	n := &nopNotifier{}
	return orderapp.NewService(logging.Discard(), orderpg.NewRepository(logging.Discard(), pool), n), n
}

func TestLedgerPlacesOrder(t *testing.T) {
	reset(t)
	user := seedUser(t, "testuser", "t@example.com", "Test")
	phone := seedProduct(t, "Electronics", "Smartphone", "800.00", 50)
	phones := seedProduct(t, "Electronics", "Headphones", "200.00", 100)
	svc, notifier := newOrders()

	o, err := svc.CreateOrder(context.Background(), identity.Principal{UserID: user}, []domain.ItemRequest{
		{ProductID: phone, Quantity: 2},
		{ProductID: phones, Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "1800.00", o.TotalPrice.StringFixed(2))
	assert.Equal(t, domain.StatusCreated, o.Status)
	assert.Equal(t, 48, stockOf(t, phone))
	assert.Equal(t, 99, stockOf(t, phones))
	assert.Equal(t, 1, count(t, "orders"))
	assert.Equal(t, 2, count(t, "order_items"))
	require.NoError(t, svc.Drain(context.Background()))
	assert.Equal(t, []int64{o.ID}, notifier.orders)

	got, err := svc.GetOrder(context.Background(), identity.Principal{UserID: user}, o.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalPrice.Equal(o.TotalPrice))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Smartphone", got.Items[0].Product.Name)
	assert.Equal(t, "1600.00", got.Items[0].Price.StringFixed(2))
}

func TestLedgerRollsBackOnShortfall(t *testing.T) {
	reset(t)
	user := seedUser(t, "testuser", "t@example.com", "Test")
	a := seedProduct(t, "Electronics", "Smartphone", "800.00", 50)
	b := seedProduct(t, "Electronics", "Headphones", "200.00", 1)
	svc, notifier := newOrders()

	_, err := svc.CreateOrder(context.Background(), identity.Principal{UserID: user}, []domain.ItemRequest{
		{ProductID: a, Quantity: 5},
		{ProductID: b, Quantity: 2},
	})
	var short *domain.InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, b, short.ProductID)
	assert.Equal(t, 1, short.Available)

	assert.Equal(t, 50, stockOf(t, a))
	assert.Equal(t, 1, stockOf(t, b))
	assert.Zero(t, count(t, "orders"))
	assert.Zero(t, count(t, "order_items"))
	assert.Empty(t, notifier.orders)
}

func TestLedgerConcurrentBuyersForLastUnit(t *testing.T) {
	reset(t)
	product := seedProduct(t, "Electronics", "Last one", "10.00", 1)
	const buyers = 10
	ids := make([]int64, buyers)
	for i := range ids {
		ids[i] = seedUser(t, "buyer"+string(rune('a'+i)), "b@example.com", "B")
	}
	svc, _ := newOrders()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		short     int
		other     []error
	)
	start := make(chan struct{})
	for _, uid := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.CreateOrder(context.Background(), identity.Principal{UserID: uid}, []domain.ItemRequest{{ProductID: product, Quantity: 1}})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			default:
				other = append(other, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, buyers-1, short)
	assert.Equal(t, 0, stockOf(t, product))
	assert.Equal(t, 1, count(t, "orders"))
}

func TestOrderReadsFilterByOwnerInQuery(t *testing.T) {
	reset(t)
	alice := seedUser(t, "alice", "a@example.com", "Alice")
	bob := seedUser(t, "bob", "b@example.com", "Bob")
	product := seedProduct(t, "Books", "Go", "30.00", 10)
	svc, _ := newOrders()
	ctx := context.Background()

	mine, err := svc.CreateOrder(ctx, identity.Principal{UserID: alice}, []domain.ItemRequest{{ProductID: product, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, identity.Principal{UserID: bob}, []domain.ItemRequest{{ProductID: product, Quantity: 1}})
	require.NoError(t, err)

	orders, total, err := svc.ListOrders(ctx, identity.Principal{UserID: alice}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, mine.ID, orders[0].ID)

	_, err = svc.GetOrder(ctx, identity.Principal{UserID: bob}, mine.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, total, err = svc.ListOrders(ctx, identity.Principal{UserID: 999, Staff: true}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestReferencedProductCannotBeDeleted(t *testing.T) {
	reset(t)
	user := seedUser(t, "alice", "a@example.com", "Alice")
	product := seedProduct(t, "Books", "Go", "30.00", 10)
	svc, _ := newOrders()
	_, err := svc.CreateOrder(context.Background(), identity.Principal{UserID: user}, []domain.ItemRequest{{ProductID: product, Quantity: 1}})
	require.NoError(t, err)

	_, err = pool.Exec(context.Background(), `DELETE FROM products WHERE id=$1`, product)
	assert.Error(t, err)
}
