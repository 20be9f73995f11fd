package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	identity "github.com/dmehra2102/ecommerce-backend/internal/identity/domain"
	"github.com/dmehra2102/ecommerce-backend/internal/order/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
)

const (
	notifyTimeout     = 5 * time.Second
	invalidateTimeout = 2 * time.Second
)

type Service struct {
	log      *slog.Logger
	store    Store
	notifier Notifier
	listings ListingInvalidator

	inflight sync.WaitGroup
}

func NewService(log *slog.Logger, store Store, notifier Notifier) *Service {
	return &Service{log: log, store: store, notifier: notifier}
}

// WithListings makes placed orders drop the cached product listings.
func (s *Service) WithListings(l ListingInvalidator) *Service {
	s.listings = l
	return s
}

// CreateOrder places an order for the principal in one transaction: every
// item is priced and its stock decremented, or nothing is. It returns as
// soon as the transaction commits; the confirmation job is queued in the
// background afterwards.
func (s *Service) CreateOrder(ctx context.Context, p identity.Principal, items []domain.ItemRequest) (domain.Order, error) {
	if p.UserID == 0 {
		return domain.Order{}, apperr.ErrUnauthorized
	}
	if err := domain.ValidateItems(items); err != nil {
		return domain.Order{}, err
	}

	var order domain.Order
	err := s.store.InTx(ctx, func(ctx context.Context, tx LedgerTx) error {
		o, err := tx.InsertOrder(ctx, p.UserID)
		if err != nil {
			return err
		}

		for _, req := range items {
			product, err := tx.LookupProduct(ctx, req.ProductID)
			if err != nil {
				return err
			}
			if product.Stock < req.Quantity {
				return &domain.InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   req.Quantity,
					Available:   product.Stock,
				}
			}

			item := domain.OrderItem{
				OrderID:   o.ID,
				ProductID: product.ID,
				Product:   product.ProductSnapshot,
				Quantity:  req.Quantity,
				Price:     domain.LinePrice(product.Price, req.Quantity),
			}
			if err := tx.InsertItem(ctx, &item); err != nil {
				return err
			}
			remaining, err := tx.DecrementStock(ctx, product, req.Quantity)
			if err != nil {
				return err
			}
			s.log.Debug("stock decremented", "product_id", product.ID, "quantity", req.Quantity, "remaining", remaining)
			o.Items = append(o.Items, item)
		}

		if err := tx.SetTotal(ctx, &o, o.Total()); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.log.Info("order placed", "order_id", order.ID, "user_id", order.UserID, "items", len(order.Items), "total", order.TotalPrice.StringFixed(2))
	s.afterCommit(ctx, order)
	return order, nil
}

// afterCommit runs the post-commit side effects off the request path.
// Failures are logged and never reach the caller.
func (s *Service) afterCommit(ctx context.Context, o domain.Order) {
	ctx = context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.invalidateListings(ctx)
		s.notify(ctx, o)
	}()
}

func (s *Service) invalidateListings(ctx context.Context) {
	if s.listings == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, invalidateTimeout)
	defer cancel()
	if err := s.listings.InvalidateListings(ctx); err != nil {
		s.log.Error("listing cache invalidation failed", "err", err)
	}
}

func (s *Service) notify(ctx context.Context, o domain.Order) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := s.notifier.OrderPlaced(ctx, o.Placed()); err != nil {
		s.log.Error("order confirmation enqueue failed", "order_id", o.ID, "err", err)
	}
}

// Drain waits for post-commit work still running, or until ctx is done.
// Call it after the HTTP server has stopped accepting orders.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) ListOrders(ctx context.Context, p identity.Principal, limit, offset int) ([]domain.Order, int, error) {
	return s.store.List(ctx, scopeFor(p), limit, offset)
}

// GetOrder reports orders outside the principal's scope as not found.
func (s *Service) GetOrder(ctx context.Context, p identity.Principal, id int64) (domain.Order, error) {
	return s.store.Get(ctx, scopeFor(p), id)
}

func scopeFor(p identity.Principal) Scope {
	if p.Staff {
		return Scope{}
	}
	id := p.UserID
	return Scope{UserID: &id}
}
