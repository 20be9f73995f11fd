package domain

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
)

// ListingKey is the single well-known cache key for the product listing.
const ListingKey = "product_list"

type Ordering string

const (
	OrderCreatedAsc  Ordering = "created_at"
	OrderCreatedDesc Ordering = "-created_at"
	OrderPriceAsc    Ordering = "price"
	OrderPriceDesc   Ordering = "-price"
)

func ParseOrdering(s string) (Ordering, error) {
	switch o := Ordering(strings.TrimSpace(s)); o {
	case "":
		return OrderCreatedAsc, nil
	case OrderCreatedAsc, OrderCreatedDesc, OrderPriceAsc, OrderPriceDesc:
		return o, nil
	default:
		return "", apperr.Invalid("ordering", "must be one of created_at, -created_at, price, -price")
	}
}

type ListQuery struct {
	CategoryID *int64
	Price      *decimal.Decimal
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Search     string
	Ordering   Ordering
	Page       int
	PageSize   int
}

func (q ListQuery) Offset() int { return (q.Page - 1) * q.PageSize }

// Variant is a canonical encoding of the query, used to keep one cached
// snapshot per distinct listing request under ListingKey.
func (q ListQuery) Variant() string {
	v := url.Values{}
	if q.CategoryID != nil {
		v.Set("category", strconv.FormatInt(*q.CategoryID, 10))
	}
	if q.Price != nil {
		v.Set("price", q.Price.String())
	}
	if q.MinPrice != nil {
		v.Set("min_price", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("max_price", q.MaxPrice.String())
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", strings.ToLower(s))
	}
	v.Set("ordering", string(q.Ordering))
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("page_size", strconv.Itoa(q.PageSize))
	return v.Encode()
}

type ProductPage struct {
	Count   int       `json:"count"`
	Results []Product `json:"results"`
}
