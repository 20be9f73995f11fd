package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/ecommerce-backend/internal/catalog/application"
	"github.com/dmehra2102/ecommerce-backend/internal/catalog/domain"
	identityhttp "github.com/dmehra2102/ecommerce-backend/internal/identity/infrastructure/http"
	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
	"github.com/dmehra2102/ecommerce-backend/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("catalog-http"),
	}
}

type categoryReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type categoryResp struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type productReq struct {
	CategoryID  *int64           `json:"category_id"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
}

type productResp struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       string       `json:"price"`
	Stock       int          `json:"stock"`
	Category    categoryResp `json:"category"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func toCategoryResp(c domain.Category) categoryResp {
	return categoryResp{ID: c.ID, Name: c.Name, Description: c.Description}
}

func toProductResp(p domain.Product) productResp {
	return productResp{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		Category:    toCategoryResp(p.Category),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// full converts a create/replace body; every field but description is
// required.
func (r productReq) full() (domain.ProductInput, error) {
	var v apperr.ValidationError
	if r.CategoryID == nil {
		v.Add("category_id", "is required")
	}
	if r.Name == nil {
		v.Add("name", "is required")
	}
	if r.Price == nil {
		v.Add("price", "is required")
	}
	if r.Stock == nil {
		v.Add("stock", "is required")
	}
	if err := v.Err(); err != nil {
		return domain.ProductInput{}, err
	}
	in := domain.ProductInput{CategoryID: *r.CategoryID, Name: *r.Name, Price: *r.Price, Stock: *r.Stock}
	if r.Description != nil {
		in.Description = *r.Description
	}
	return in, nil
}

func (r productReq) patch() domain.ProductPatch {
	return domain.ProductPatch{
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
	}
}

// Routes expects the identity Authenticate middleware upstream. Reads are
// public, writes need a principal.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(identityhttp.RequireAuthForWrites(h.log))

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Get("/{id}", h.getCategory)
		r.Put("/{id}", h.updateCategory)
		r.Patch("/{id}", h.updateCategory)
		r.Delete("/{id}", h.deleteCategory)
	})
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.replaceProduct)
		r.Patch("/{id}", h.patchProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	return r
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	page, err := httpx.ParsePage(r)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	cats, total, err := h.service.ListCategories(r.Context(), page.Size, page.Offset())
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	out := make([]categoryResp, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResp(c))
	}
	httpx.JSON(w, http.StatusOK, httpx.NewPageResponse(page, total, out))
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	c, err := h.service.CreateCategory(r.Context(), domain.CategoryInput(req))
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toCategoryResp(c))
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	c, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCategoryResp(c))
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	var req categoryReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	c, err := h.service.UpdateCategory(r.Context(), id, domain.CategoryInput(req))
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCategoryResp(c))
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListProducts")
	defer span.End()

	q, err := parseListQuery(r)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	page, err := h.service.ListProducts(ctx, q)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	out := make([]productResp, 0, len(page.Results))
	for _, p := range page.Results {
		out = append(out, toProductResp(p))
	}
	httpx.JSON(w, http.StatusOK, httpx.NewPageResponse(httpx.Page{Number: q.Page, Size: q.PageSize}, page.Count, out))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	in, err := req.full()
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toProductResp(p))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProductResp(p))
}

func (h *Handler) replaceProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	var req productReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	in, err := req.full()
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), id, in)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProductResp(p))
}

func (h *Handler) patchProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	var req productReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	p, err := h.service.PatchProduct(r.Context(), id, req.patch())
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProductResp(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseListQuery(r *http.Request) (domain.ListQuery, error) {
	page, err := httpx.ParsePage(r)
	if err != nil {
		return domain.ListQuery{}, err
	}
	values := r.URL.Query()
	q := domain.ListQuery{
		Search:   values.Get("search"),
		Page:     page.Number,
		PageSize: page.Size,
	}
	var v apperr.ValidationError
	if raw := values.Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			v.Add("category", "must be an integer id")
		}
		q.CategoryID = &id
	}
	q.Price = decimalParam(values.Get("price"), "price", &v)
	q.MinPrice = decimalParam(values.Get("min_price"), "min_price", &v)
	q.MaxPrice = decimalParam(values.Get("max_price"), "max_price", &v)

	ordering, err := domain.ParseOrdering(values.Get("ordering"))
	if err != nil {
		return domain.ListQuery{}, err
	}
	q.Ordering = ordering
	return q, v.Err()
}

func decimalParam(raw, field string, v *apperr.ValidationError) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		v.Add(field, "must be a decimal number")
		return nil
	}
	return &d
}
