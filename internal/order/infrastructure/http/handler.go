package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	identity "github.com/dmehra2102/ecommerce-backend/internal/identity/domain"
	identityhttp "github.com/dmehra2102/ecommerce-backend/internal/identity/infrastructure/http"
	"github.com/dmehra2102/ecommerce-backend/internal/order/application"
	"github.com/dmehra2102/ecommerce-backend/internal/order/domain"
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
		tracer:  otel.Tracer("order-http"),
	}
}

type itemReq struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type createOrderReq struct {
	Items []itemReq `json:"items"`
}

type productResp struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type itemResp struct {
	ID       int64       `json:"id"`
	Product  productResp `json:"product"`
	Quantity int         `json:"quantity"`
	Price    string      `json:"price"`
}

type orderResp struct {
	ID         int64      `json:"id"`
	User       int64      `json:"user"`
	Items      []itemResp `json:"items"`
	TotalPrice string     `json:"total_price"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func toOrderResp(o domain.Order) orderResp {
	items := make([]itemResp, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, itemResp{
			ID: it.ID,
			Product: productResp{
				ID:    it.Product.ID,
				Name:  it.Product.Name,
				Price: it.Product.Price.StringFixed(2),
			},
			Quantity: it.Quantity,
			Price:    it.Price.StringFixed(2),
		})
	}
	return orderResp{
		ID:         o.ID,
		User:       o.UserID,
		Items:      items,
		TotalPrice: o.TotalPrice.StringFixed(2),
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

// Routes expects the identity Authenticate middleware upstream.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(identityhttp.RequireAuth(h.log))
	r.Post("/orders", h.createOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	return r
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	p := principal(r)
	var req createOrderReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	items := make([]domain.ItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := h.service.CreateOrder(ctx, p, items)
	if err != nil {
		span.RecordError(err)
		httpx.Error(w, r, h.log, err)
		return
	}
	span.SetAttributes(attribute.Int64("order.id", o.ID), attribute.Int("order.items", len(o.Items)))
	httpx.JSON(w, http.StatusCreated, toOrderResp(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	page, err := httpx.ParsePage(r)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	orders, count, err := h.service.ListOrders(ctx, principal(r), page.Size, page.Offset())
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResp(o))
	}
	httpx.JSON(w, http.StatusOK, httpx.NewPageResponse(page, count, out))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	o, err := h.service.GetOrder(ctx, principal(r), id)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResp(o))
}

// principal is only called behind RequireAuth.
func principal(r *http.Request) identity.Principal {
	p, _ := identityhttp.PrincipalFrom(r.Context())
	return p
}
