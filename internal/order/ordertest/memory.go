// Package ordertest provides an in-memory order store with transactional
// rollback for service and handler tests.
package ordertest

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/ecommerce-backend/internal/order/application"
	"github.com/dmehra2102/ecommerce-backend/internal/order/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
)

type state struct {
	products map[int64]domain.StockedProduct
	orders   map[int64]domain.Order
	nextID   int64
}

func (s state) clone() state {
	out := state{products: maps.Clone(s.products), orders: make(map[int64]domain.Order, len(s.orders)), nextID: s.nextID}
	for id, o := range s.orders {
		o.Items = append([]domain.OrderItem(nil), o.Items...)
		out.orders[id] = o
	}
	return out
}

// Store serialises transactions and restores the pre-transaction state
// when one fails.
type Store struct {
	mu  sync.Mutex
	cur state
	now func() time.Time

	// FailAfterItems makes InsertItem fail once this many items have been
	// written in the current transaction. Zero disables it.
	FailAfterItems int
}

var ErrInjected = errors.New("injected failure")

func NewStore() *Store {
	return &Store{
		cur: state{products: map[int64]domain.StockedProduct{}, orders: map[int64]domain.Order{}},
		now: func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func (s *Store) AddProduct(id int64, name, price string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.products[id] = domain.StockedProduct{
		ProductSnapshot: domain.ProductSnapshot{ID: id, Name: name, Price: decimal.RequireFromString(price)},
		Stock:           stock,
	}
}

func (s *Store) Stock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.products[id].Stock
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cur.orders)
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.cur.orders {
		n += len(o.Items)
	}
	return n
}

// Committed reports whether the order is visible outside a transaction.
func (s *Store) Committed(id int64) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()
	_, ok := s.cur.orders[id]
	return ok
}

func (s *Store) InTx(ctx context.Context, fn func(context.Context, application.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.cur.clone()
	if err := fn(ctx, &tx{s: s}); err != nil {
		s.cur = snapshot
		return err
	}
	return nil
}

func (s *Store) List(_ context.Context, scope application.Scope, limit, offset int) ([]domain.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Order
	for _, o := range s.cur.orders {
		if scope.UserID == nil || *scope.UserID == o.UserID {
			out = append(out, s.withLiveProducts(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return out[offset:end], total, nil
}

func (s *Store) Get(_ context.Context, scope application.Scope, id int64) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.cur.orders[id]
	if !ok || (scope.UserID != nil && *scope.UserID != o.UserID) {
		return domain.Order{}, apperr.NotFound("order %d", id)
	}
	return s.withLiveProducts(o), nil
}

// SetPrice changes a product's current price without touching orders.
func (s *Store) SetPrice(id int64, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.cur.products[id]
	p.Price = decimal.RequireFromString(price)
	s.cur.products[id] = p
}

func (s *Store) withLiveProducts(o domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(o.Items))
	for i, it := range o.Items {
		it.Product = s.cur.products[it.ProductID].ProductSnapshot
		items[i] = it
	}
	o.Items = items
	return o
}

type tx struct {
	s     *Store
	items int
}

func (t *tx) LookupProduct(_ context.Context, id int64) (domain.StockedProduct, error) {
	p, ok := t.s.cur.products[id]
	if !ok {
		return domain.StockedProduct{}, apperr.NotFound("product %d", id)
	}
	return p, nil
}

func (t *tx) DecrementStock(_ context.Context, product domain.StockedProduct, quantity int) (int, error) {
	p := t.s.cur.products[product.ID]
	if p.Stock < quantity {
		return 0, &domain.InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Requested: quantity, Available: p.Stock}
	}
	p.Stock -= quantity
	t.s.cur.products[p.ID] = p
	return p.Stock, nil
}

func (t *tx) InsertOrder(_ context.Context, userID int64) (domain.Order, error) {
	t.s.cur.nextID++
	now := t.s.now()
	o := domain.Order{
		ID:         t.s.cur.nextID,
		UserID:     userID,
		TotalPrice: decimal.Zero,
		Status:     domain.StatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	t.s.cur.orders[o.ID] = o
	return o, nil
}

func (t *tx) InsertItem(_ context.Context, item *domain.OrderItem) error {
	if t.s.FailAfterItems > 0 && t.items >= t.s.FailAfterItems {
		return ErrInjected
	}
	t.items++
	t.s.cur.nextID++
	item.ID = t.s.cur.nextID
	o := t.s.cur.orders[item.OrderID]
	o.Items = append(o.Items, *item)
	t.s.cur.orders[o.ID] = o
	return nil
}

func (t *tx) SetTotal(_ context.Context, order *domain.Order, total decimal.Decimal) error {
	o := t.s.cur.orders[order.ID]
	o.TotalPrice = total
	t.s.cur.orders[o.ID] = o
	order.TotalPrice = total
	return nil
}

// Notifier records placed orders and can be made to fail.
type Notifier struct {
	mu    sync.Mutex
	store *Store
	Err   error

	Events []domain.OrderPlaced
	// VisibleAtEnqueue records, per event, whether the order was already
	// committed when the notifier ran.
	VisibleAtEnqueue []bool
}

func NewNotifier(store *Store) *Notifier { return &Notifier{store: store} }

func (n *Notifier) OrderPlaced(_ context.Context, e domain.OrderPlaced) error {
	visible := n.store != nil && n.store.Committed(e.OrderID)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, e)
	n.VisibleAtEnqueue = append(n.VisibleAtEnqueue, visible)
	return n.Err
}

func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Events)
}
