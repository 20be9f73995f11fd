// Package api assembles the HTTP surface of the shop.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	catalogapp "github.com/dmehra2102/ecommerce-backend/internal/catalog/application"
	cataloghttp "github.com/dmehra2102/ecommerce-backend/internal/catalog/infrastructure/http"
	identityapp "github.com/dmehra2102/ecommerce-backend/internal/identity/application"
	identityhttp "github.com/dmehra2102/ecommerce-backend/internal/identity/infrastructure/http"
	orderapp "github.com/dmehra2102/ecommerce-backend/internal/order/application"
	orderhttp "github.com/dmehra2102/ecommerce-backend/internal/order/infrastructure/http"
	"github.com/dmehra2102/ecommerce-backend/pkg/httpx"
)

type Deps struct {
	Identity *identityapp.Service
	Catalog  *catalogapp.Service
	Orders   *orderapp.Service
	// Limiter is optional.
	Limiter *httpx.RateLimiter
	// Ping reports whether the database is reachable.
	Ping func(ctx context.Context) error
}

func NewRouter(log *slog.Logger, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpx.RequestLogger(log))
	r.Use(middleware.Recoverer)
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware)
	}

	r.Get("/healthz", health(log, d.Ping))

	api := chi.NewRouter()
	api.Use(identityhttp.Authenticate(log, d.Identity))
	mountAt(api, identityhttp.NewHandler(log, d.Identity).Routes(), "/users", "/token")
	mountAt(api, cataloghttp.NewHandler(log, d.Catalog).Routes(), "/categories", "/products")
	mountAt(api, orderhttp.NewHandler(log, d.Orders).Routes(), "/orders")
	r.Mount("/api/v1", api)
	return r
}

// mountAt hands every path under prefixes to h without stripping them, so
// each context's router keeps declaring its own full paths.
func mountAt(r chi.Router, h http.Handler, prefixes ...string) {
	for _, p := range prefixes {
		r.Handle(p, h)
		r.Handle(p+"/*", h)
	}
}

func health(log *slog.Logger, ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				log.Error("health check failed", "err", err)
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
