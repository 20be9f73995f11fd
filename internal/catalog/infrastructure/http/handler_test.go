package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/ecommerce-backend/internal/catalog/application"
	"github.com/dmehra2102/ecommerce-backend/internal/catalog/catalogtest"
	identitydomain "github.com/dmehra2102/ecommerce-backend/internal/identity/domain"
	identityhttp "github.com/dmehra2102/ecommerce-backend/internal/identity/infrastructure/http"
	"github.com/dmehra2102/ecommerce-backend/pkg/logging"
)

type fixture struct {
	h     http.Handler
	store *catalogtest.Store
	cache *catalogtest.Cache
}

func newFixture() fixture {
	store := catalogtest.NewStore()
	cache := catalogtest.NewCache()
	svc := application.NewService(logging.Discard(), store.Categories(), store.Products(), cache, time.Minute)
	return fixture{h: NewHandler(logging.Discard(), svc).Routes(), store: store, cache: cache}
}

func (f fixture) do(t *testing.T, method, path string, authed bool, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if authed {
		req = req.WithContext(identityhttp.WithPrincipal(req.Context(), identitydomain.Principal{UserID: 1, Username: "testuser"}))
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func (f fixture) seedCategory(t *testing.T) int64 {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/categories", true, map[string]string{"name": "Books"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c categoryResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	return c.ID
}

func TestCreateProduct(t *testing.T) {
	f := newFixture()
	catID := f.seedCategory(t)

	body := map[string]any{
		"name":        "Django for Beginners",
		"description": "A comprehensive guide to Django.",
		"price":       "30.00",
		"stock":       100,
		"category_id": catID,
	}
	rec := f.do(t, http.MethodPost, "/products", true, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var p productResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Django for Beginners", p.Name)
	assert.Equal(t, "30.00", p.Price)
	assert.Equal(t, "Books", p.Category.Name)
}

func TestWritesRequireAuthReadsDoNot(t *testing.T) {
	f := newFixture()
	catID := f.seedCategory(t)

	rec := f.do(t, http.MethodPost, "/products", false, map[string]any{"name": "x", "price": "1", "stock": 1, "category_id": catID})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/products", false, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/categories", false, nil).Code)
}

func TestProductValidationAndLookup(t *testing.T) {
	f := newFixture()
	catID := f.seedCategory(t)

	rec := f.do(t, http.MethodPost, "/products", true, map[string]any{"name": "x", "category_id": catID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "price")

	rec = f.do(t, http.MethodPost, "/products", true, map[string]any{"name": "x", "price": "-1", "stock": 1, "category_id": catID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/products/77", false, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/products/abc", false, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/products?ordering=name", false, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/products?min_price=cheap", false, nil).Code)
}

func TestListingNeverStaleAfterWrite(t *testing.T) {
	f := newFixture()
	catID := f.seedCategory(t)
	create := func(name string) int64 {
		rec := f.do(t, http.MethodPost, "/products", true, map[string]any{"name": name, "price": "10.50", "stock": 5, "category_id": catID})
		require.Equal(t, http.StatusCreated, rec.Code)
		var p productResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		return p.ID
	}
	count := func() int {
		rec := f.do(t, http.MethodGet, "/products", false, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var page struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		return page.Count
	}

	first := create("One")
	assert.Equal(t, 1, count())
	assert.Equal(t, 1, count())
	assert.Equal(t, 1, f.cache.Hits)

	create("Two")
	assert.Equal(t, 2, count())

	rec := f.do(t, http.MethodPatch, "/products/"+itoa(first), true, map[string]any{"stock": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, f.do(t, http.MethodGet, "/products?ordering=created_at", false, nil).Body.String(), `"stock":0`)

	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/products/"+itoa(first), true, nil).Code)
	assert.Equal(t, 1, count())
}

func TestRepeatedListingIsIdenticalOnHitAndMiss(t *testing.T) {
	f := newFixture()
	catID := f.seedCategory(t)
	for _, name := range []string{"Alpha", "Beta"} {
		rec := f.do(t, http.MethodPost, "/products", true, map[string]any{"name": name, "price": "800", "stock": 2, "category_id": catID})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	miss := f.do(t, http.MethodGet, "/products?ordering=-price&page_size=10", false, nil).Body.String()
	hit := f.do(t, http.MethodGet, "/products?ordering=-price&page_size=10", false, nil).Body.String()
	require.Equal(t, 1, f.cache.Hits)
	assert.Equal(t, miss, hit)
	assert.Contains(t, hit, `"price":"800.00"`)
}

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture()
	catID := f.seedCategory(t)

	rec := f.do(t, http.MethodPost, "/categories", true, map[string]string{"name": "Books"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPut, "/categories/"+itoa(catID), true, map[string]string{"name": "Novels", "description": "Fiction"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Novels")

	rec = f.do(t, http.MethodPost, "/products", true, map[string]any{"name": "x", "price": "1", "stock": 1, "category_id": catID})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodDelete, "/categories/"+itoa(catID), true, nil).Code)
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
