package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/ecommerce-backend/internal/order/application"
	"github.com/dmehra2102/ecommerce-backend/internal/order/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
	"github.com/dmehra2102/ecommerce-backend/pkg/pgutil"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) InTx(ctx context.Context, fn func(context.Context, application.LedgerTx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, &ledgerTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type ledgerTx struct {
	tx pgx.Tx
}

func (l *ledgerTx) LookupProduct(ctx context.Context, id int64) (domain.StockedProduct, error) {
	var p domain.StockedProduct
	err := l.tx.QueryRow(ctx, `SELECT id, name, price, stock FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if pgutil.IsNoRows(err) {
		return domain.StockedProduct{}, apperr.NotFound("product %d", id)
	}
	return p, err
}

// DecrementStock is a relative update guarded by the remaining stock, so
// concurrent orders can never drive stock below zero. The guard row lock
// is held until the surrounding transaction ends.
func (l *ledgerTx) DecrementStock(ctx context.Context, product domain.StockedProduct, quantity int) (int, error) {
	var remaining int
	err := l.tx.QueryRow(ctx, `
		UPDATE products SET stock = stock - $1, updated_at = now()
		WHERE id = $2 AND stock >= $1
		RETURNING stock
	`, quantity, product.ID).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !pgutil.IsNoRows(err) && !pgutil.IsCheckViolation(err) {
		return 0, err
	}

	var available int
	if err := l.tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1`, product.ID).Scan(&available); err != nil {
		if pgutil.IsNoRows(err) {
			return 0, apperr.NotFound("product %d", product.ID)
		}
		return 0, err
	}
	return 0, &domain.InsufficientStockError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   quantity,
		Available:   available,
	}
}

func (l *ledgerTx) InsertOrder(ctx context.Context, userID int64) (domain.Order, error) {
	o := domain.Order{UserID: userID, TotalPrice: decimal.Zero, Status: domain.StatusCreated}
	err := l.tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, total_price, status) VALUES ($1, 0, $2)
		RETURNING id, created_at, updated_at
	`, userID, o.Status).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.CreatedAt, o.UpdatedAt = o.CreatedAt.UTC(), o.UpdatedAt.UTC()
	return o, nil
}

func (l *ledgerTx) InsertItem(ctx context.Context, item *domain.OrderItem) error {
	return l.tx.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1,$2,$3,$4)
		RETURNING id
	`, item.OrderID, item.ProductID, item.Quantity, item.Price).Scan(&item.ID)
}

func (l *ledgerTx) SetTotal(ctx context.Context, o *domain.Order, total decimal.Decimal) error {
	err := l.tx.QueryRow(ctx, `UPDATE orders SET total_price=$2, updated_at=now() WHERE id=$1 RETURNING updated_at`,
		o.ID, total).Scan(&o.UpdatedAt)
	if err != nil {
		return err
	}
	o.TotalPrice = total
	o.UpdatedAt = o.UpdatedAt.UTC()
	return nil
}

const orderColumns = `id, user_id, total_price, status, created_at, updated_at`

// Ownership is filtered in SQL: a NULL $1 means the caller may see every
// order.
func (r *Repository) List(ctx context.Context, scope application.Scope, limit, offset int) ([]domain.Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE ($1::bigint IS NULL OR user_id = $1)`, scope.UserID).
		Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE ($1::bigint IS NULL OR user_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, scope.UserID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *Repository) Get(ctx context.Context, scope application.Scope, id int64) (domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE id = $1 AND ($2::bigint IS NULL OR user_id = $2)`, id, scope.UserID)
	if err != nil {
		return domain.Order{}, err
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if pgutil.IsNoRows(err) {
		return domain.Order{}, apperr.NotFound("order %d", id)
	}
	if err != nil {
		return domain.Order{}, err
	}
	orders := []domain.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return domain.Order{}, err
	}
	return orders[0], nil
}

func scanOrder(row pgx.CollectableRow) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	o.CreatedAt, o.UpdatedAt = o.CreatedAt.UTC(), o.UpdatedAt.UTC()
	return o, err
}

func (r *Repository) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.pool.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price, p.name, p.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price, &it.Product.Name, &it.Product.Price); err != nil {
			return err
		}
		it.Product.ID = it.ProductID
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return rows.Err()
}
