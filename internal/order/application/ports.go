package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/ecommerce-backend/internal/order/domain"
)

// Scope restricts order reads. A nil UserID means every order.
type Scope struct {
	UserID *int64
}

type Store interface {
	// InTx runs fn in a single transaction, committed only when fn
	// returns nil.
	InTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
	List(ctx context.Context, scope Scope, limit, offset int) ([]domain.Order, int, error)
	Get(ctx context.Context, scope Scope, id int64) (domain.Order, error)
}

type LedgerTx interface {
	LookupProduct(ctx context.Context, id int64) (domain.StockedProduct, error)
	// DecrementStock subtracts quantity only while enough stock remains and
	// returns *domain.InsufficientStockError otherwise.
	DecrementStock(ctx context.Context, product domain.StockedProduct, quantity int) (remaining int, err error)
	InsertOrder(ctx context.Context, userID int64) (domain.Order, error)
	InsertItem(ctx context.Context, item *domain.OrderItem) error
	SetTotal(ctx context.Context, order *domain.Order, total decimal.Decimal) error
}

type Notifier interface {
	OrderPlaced(ctx context.Context, event domain.OrderPlaced) error
}

// ListingInvalidator drops cached product listings once stock has moved.
type ListingInvalidator interface {
	InvalidateListings(ctx context.Context) error
}
