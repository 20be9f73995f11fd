package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dmehra2102/ecommerce-backend/internal/catalog/domain"
)

type Service struct {
	log        *slog.Logger
	categories CategoryRepository
	products   ProductRepository
	cache      ListingCache
	listingTTL time.Duration
}

func NewService(log *slog.Logger, categories CategoryRepository, products ProductRepository, cache ListingCache, listingTTL time.Duration) *Service {
	return &Service{
		log:        log,
		categories: categories,
		products:   products,
		cache:      cache,
		listingTTL: listingTTL,
	}
}

func (s *Service) CreateCategory(ctx context.Context, in domain.CategoryInput) (domain.Category, error) {
	if err := in.Validate(); err != nil {
		return domain.Category{}, err
	}
	return s.categories.Create(ctx, in)
}

func (s *Service) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	return s.categories.Get(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context, limit, offset int) ([]domain.Category, int, error) {
	return s.categories.List(ctx, limit, offset)
}

// UpdateCategory invalidates the listing too: listed products embed
// their category.
func (s *Service) UpdateCategory(ctx context.Context, id int64, in domain.CategoryInput) (domain.Category, error) {
	if err := in.Validate(); err != nil {
		return domain.Category{}, err
	}
	c, err := s.categories.Update(ctx, id, in)
	if err != nil {
		return domain.Category{}, err
	}
	s.invalidateListing(ctx)
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateListing(ctx)
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	return s.products.Get(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	if err := in.Validate(); err != nil {
		return domain.Product{}, err
	}
	p, err := s.products.Create(ctx, in)
	if err != nil {
		return domain.Product{}, err
	}
	s.invalidateListing(ctx)
	s.log.Info("product created", "product_id", p.ID)
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, in domain.ProductInput) (domain.Product, error) {
	if err := in.Validate(); err != nil {
		return domain.Product{}, err
	}
	p, err := s.products.Update(ctx, id, in)
	if err != nil {
		return domain.Product{}, err
	}
	s.invalidateListing(ctx)
	return p, nil
}

func (s *Service) PatchProduct(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	current, err := s.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return s.UpdateProduct(ctx, id, patch.Apply(current))
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateListing(ctx)
	s.log.Info("product deleted", "product_id", id)
	return nil
}

// ListProducts serves the listing from cache when warm. Cache errors
// degrade to a database read.
func (s *Service) ListProducts(ctx context.Context, q domain.ListQuery) (domain.ProductPage, error) {
	variant := q.Variant()
	if page, ok := s.cachedListing(ctx, variant); ok {
		return page, nil
	}

	version, verr := s.cache.Version(ctx, domain.ListingKey)
	if verr != nil {
		s.log.Warn("listing cache version read failed", "err", verr)
	}

	page, err := s.products.List(ctx, q)
	if err != nil {
		return domain.ProductPage{}, err
	}
	if verr == nil {
		s.storeListing(ctx, variant, version, page)
	}
	return page, nil
}

func (s *Service) cachedListing(ctx context.Context, variant string) (domain.ProductPage, bool) {
	raw, ok, err := s.cache.Get(ctx, domain.ListingKey, variant)
	if err != nil {
		s.log.Warn("listing cache read failed", "err", err)
		return domain.ProductPage{}, false
	}
	if !ok {
		return domain.ProductPage{}, false
	}
	var page domain.ProductPage
	if err := json.Unmarshal(raw, &page); err != nil {
		s.log.Warn("listing cache entry unreadable", "err", err)
		return domain.ProductPage{}, false
	}
	return page, true
}

func (s *Service) storeListing(ctx context.Context, variant string, version int64, page domain.ProductPage) {
	raw, err := json.Marshal(page)
	if err != nil {
		s.log.Warn("listing snapshot encode failed", "err", err)
		return
	}
	if err := s.cache.Set(ctx, domain.ListingKey, variant, version, raw, s.listingTTL); err != nil {
		s.log.Warn("listing cache write failed", "err", err)
	}
}

// InvalidateListings drops every cached listing variant. Stock changes made
// outside the catalog, such as placed orders, go through here.
func (s *Service) InvalidateListings(ctx context.Context) error {
	return s.cache.Invalidate(ctx, domain.ListingKey)
}

func (s *Service) invalidateListing(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, domain.ListingKey); err != nil {
		s.log.Error("listing cache invalidation failed", "key", domain.ListingKey, "err", err)
	}
}
