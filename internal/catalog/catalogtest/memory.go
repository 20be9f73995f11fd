// Package catalogtest provides in-memory catalog repositories and cache
// for tests of packages that sit on top of the catalog.
package catalogtest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmehra2102/ecommerce-backend/internal/catalog/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
)

type Store struct {
	mu         sync.Mutex
	nextCat    int64
	nextProd   int64
	categories map[int64]domain.Category
	products   map[int64]domain.Product
	clock      time.Time
	// Referenced marks products that order items point at.
	Referenced map[int64]bool
	ListCalls  int
}

func NewStore() *Store {
	return &Store{
		categories: map[int64]domain.Category{},
		products:   map[int64]domain.Product{},
		clock:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Referenced: map[int64]bool{},
	}
}

func (s *Store) Categories() *Categories { return &Categories{s} }
func (s *Store) Products() *Products     { return &Products{s} }

func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type Categories struct{ s *Store }

func (c *Categories) Create(_ context.Context, in domain.CategoryInput) (domain.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, existing := range c.s.categories {
		if existing.Name == in.Name {
			return domain.Category{}, apperr.Conflict("category %q already exists", in.Name)
		}
	}
	c.s.nextCat++
	cat := domain.Category{ID: c.s.nextCat, Name: in.Name, Description: in.Description}
	c.s.categories[cat.ID] = cat
	return cat, nil
}

func (c *Categories) Get(_ context.Context, id int64) (domain.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cat, ok := c.s.categories[id]
	if !ok {
		return domain.Category{}, apperr.NotFound("category %d", id)
	}
	return cat, nil
}

func (c *Categories) List(_ context.Context, limit, offset int) ([]domain.Category, int, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := make([]domain.Category, 0, len(c.s.categories))
	for _, cat := range c.s.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return window(out, limit, offset), len(out), nil
}

func (c *Categories) Update(_ context.Context, id int64, in domain.CategoryInput) (domain.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.categories[id]; !ok {
		return domain.Category{}, apperr.NotFound("category %d", id)
	}
	cat := domain.Category{ID: id, Name: in.Name, Description: in.Description}
	c.s.categories[id] = cat
	return cat, nil
}

func (c *Categories) Delete(_ context.Context, id int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.categories[id]; !ok {
		return apperr.NotFound("category %d", id)
	}
	for _, p := range c.s.products {
		if p.CategoryID == id {
			return apperr.Conflict("category %d still has products", id)
		}
	}
	delete(c.s.categories, id)
	return nil
}

type Products struct{ s *Store }

func (p *Products) Create(_ context.Context, in domain.ProductInput) (domain.Product, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	cat, ok := p.s.categories[in.CategoryID]
	if !ok {
		return domain.Product{}, apperr.Invalid("category_id", "category does not exist")
	}
	p.s.nextProd++
	now := p.s.tick()
	prod := domain.Product{
		ID:          p.s.nextProd,
		CategoryID:  cat.ID,
		Category:    cat,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.s.products[prod.ID] = prod
	return prod, nil
}

func (p *Products) Get(_ context.Context, id int64) (domain.Product, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return p.s.product(id)
}

func (s *Store) product(id int64) (domain.Product, error) {
	prod, ok := s.products[id]
	if !ok {
		return domain.Product{}, apperr.NotFound("product %d", id)
	}
	prod.Category = s.categories[prod.CategoryID]
	return prod, nil
}

func (p *Products) Update(_ context.Context, id int64, in domain.ProductInput) (domain.Product, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	prod, ok := p.s.products[id]
	if !ok {
		return domain.Product{}, apperr.NotFound("product %d", id)
	}
	if _, ok := p.s.categories[in.CategoryID]; !ok {
		return domain.Product{}, apperr.Invalid("category_id", "category does not exist")
	}
	prod.CategoryID = in.CategoryID
	prod.Name = in.Name
	prod.Description = in.Description
	prod.Price = in.Price
	prod.Stock = in.Stock
	prod.UpdatedAt = p.s.tick()
	p.s.products[id] = prod
	return p.s.product(id)
}

func (p *Products) Delete(_ context.Context, id int64) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if _, ok := p.s.products[id]; !ok {
		return apperr.NotFound("product %d", id)
	}
	if p.s.Referenced[id] {
		return apperr.Conflict("product %d is referenced by existing orders", id)
	}
	delete(p.s.products, id)
	return nil
}

func (p *Products) List(_ context.Context, q domain.ListQuery) (domain.ProductPage, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	p.s.ListCalls++

	var matched []domain.Product
	for id := range p.s.products {
		prod, _ := p.s.product(id)
		if q.CategoryID != nil && prod.CategoryID != *q.CategoryID {
			continue
		}
		if q.Price != nil && !prod.Price.Equal(*q.Price) {
			continue
		}
		if q.MinPrice != nil && prod.Price.LessThan(*q.MinPrice) {
			continue
		}
		if q.MaxPrice != nil && prod.Price.GreaterThan(*q.MaxPrice) {
			continue
		}
		if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" &&
			!strings.Contains(strings.ToLower(prod.Name), s) &&
			!strings.Contains(strings.ToLower(prod.Description), s) {
			continue
		}
		matched = append(matched, prod)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch q.Ordering {
		case domain.OrderPriceAsc:
			return a.Price.LessThan(b.Price) || (a.Price.Equal(b.Price) && a.ID < b.ID)
		case domain.OrderPriceDesc:
			return a.Price.GreaterThan(b.Price) || (a.Price.Equal(b.Price) && a.ID > b.ID)
		case domain.OrderCreatedDesc:
			return a.CreatedAt.After(b.CreatedAt) || (a.CreatedAt.Equal(b.CreatedAt) && a.ID > b.ID)
		default:
			return a.CreatedAt.Before(b.CreatedAt) || (a.CreatedAt.Equal(b.CreatedAt) && a.ID < b.ID)
		}
	})
	results := window(matched, q.PageSize, q.Offset())
	if results == nil {
		results = []domain.Product{}
	}
	return domain.ProductPage{Count: len(matched), Results: results}, nil
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

var ErrCacheDown = errors.New("cache unavailable")

// Cache mimics the Redis listing cache, including the version guard.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]map[string][]byte
	versions map[string]int64
	Down     bool
	Hits     int
}

func NewCache() *Cache {
	return &Cache{entries: map[string]map[string][]byte{}, versions: map[string]int64{}}
}

func (c *Cache) Get(_ context.Context, key, variant string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return nil, false, ErrCacheDown
	}
	raw, ok := c.entries[key][variant]
	if ok {
		c.Hits++
	}
	return raw, ok, nil
}

func (c *Cache) Version(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return 0, ErrCacheDown
	}
	return c.versions[key], nil
}

func (c *Cache) Set(_ context.Context, key, variant string, version int64, snapshot []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return ErrCacheDown
	}
	if c.versions[key] != version {
		return nil
	}
	if c.entries[key] == nil {
		c.entries[key] = map[string][]byte{}
	}
	c.entries[key][variant] = snapshot
	return nil
}

func (c *Cache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return ErrCacheDown
	}
	c.versions[key]++
	delete(c.entries, key)
	return nil
}

func (c *Cache) Len(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries[key])
}
