package httpx

import (
	"net/http"
	"strconv"

	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

type PageResponse[T any] struct {
	Count    int `json:"count"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Results  []T `json:"results"`
}

func NewPageResponse[T any](p Page, count int, results []T) PageResponse[T] {
	if results == nil {
		results = []T{}
	}
	return PageResponse[T]{Count: count, Page: p.Number, PageSize: p.Size, Results: results}
}

// ParsePage reads ?page=&page_size=, 1-based.
func ParsePage(r *http.Request) (Page, error) {
	p := Page{Number: 1, Size: DefaultPageSize}
	q := r.URL.Query()
	var v apperr.ValidationError
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			v.Add("page", "must be a positive integer")
		}
		p.Number = n
	}
	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxPageSize {
			v.Add("page_size", "must be between 1 and 100")
		}
		p.Size = n
	}
	return p, v.Err()
}
