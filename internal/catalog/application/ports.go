package application

import (
	"context"
	"time"

	"github.com/dmehra2102/ecommerce-backend/internal/catalog/domain"
)

type CategoryRepository interface {
	Create(ctx context.Context, in domain.CategoryInput) (domain.Category, error)
	Get(ctx context.Context, id int64) (domain.Category, error)
	List(ctx context.Context, limit, offset int) ([]domain.Category, int, error)
	Update(ctx context.Context, id int64, in domain.CategoryInput) (domain.Category, error)
	Delete(ctx context.Context, id int64) error
}

type ProductRepository interface {
	Create(ctx context.Context, in domain.ProductInput) (domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	Update(ctx context.Context, id int64, in domain.ProductInput) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, q domain.ListQuery) (domain.ProductPage, error)
}

// ListingCache stores serialized listing snapshots under one key, one
// variant per distinct query. Invalidate drops every variant at once and
// bumps the key's version; Set is a no-op when the version read before
// the database query no longer matches, so a slow reader cannot put back
// a snapshot that predates an invalidation.
type ListingCache interface {
	Get(ctx context.Context, key, variant string) ([]byte, bool, error)
	Version(ctx context.Context, key string) (int64, error)
	Set(ctx context.Context, key, variant string, version int64, snapshot []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}
