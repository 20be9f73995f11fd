package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/ecommerce-backend/internal/notification/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/outbox"
	"github.com/dmehra2102/ecommerce-backend/pkg/pgutil"
)

type OrderReader struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewOrderReader(log *slog.Logger, pool *pgxpool.Pool) *OrderReader {
	return &OrderReader{log: log, pool: pool}
}

func (r *OrderReader) Confirmation(ctx context.Context, orderID int64) (domain.Confirmation, error) {
	c := domain.Confirmation{OrderID: orderID}
	err := r.pool.QueryRow(ctx, `
		SELECT u.first_name, u.email
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`, orderID).Scan(&c.FirstName, &c.Email)
	if pgutil.IsNoRows(err) {
		return domain.Confirmation{}, fmt.Errorf("%w: order %d no longer exists", outbox.ErrPermanent, orderID)
	}
	if err != nil {
		return domain.Confirmation{}, err
	}
	if strings.TrimSpace(c.Email) == "" {
		return domain.Confirmation{}, fmt.Errorf("%w: owner of order %d has no email address", outbox.ErrPermanent, orderID)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.name, oi.quantity
		FROM order_items oi JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return domain.Confirmation{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ProductName, &l.Quantity); err != nil {
			return domain.Confirmation{}, err
		}
		c.Lines = append(c.Lines, l)
	}
	return c, rows.Err()
}
