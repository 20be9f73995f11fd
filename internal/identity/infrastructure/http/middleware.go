package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmehra2102/ecommerce-backend/internal/identity/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
	"github.com/dmehra2102/ecommerce-backend/pkg/httpx"
)

type principalKey struct{}

type Authenticator interface {
	Authenticate(token string) (domain.Principal, error)
}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// Authenticate attaches the bearer token's principal to the request.
// Requests without an Authorization header pass through anonymously; a
// malformed or invalid token is rejected outright.
func Authenticate(log *slog.Logger, authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				httpx.Error(w, r, log, apperr.ErrUnauthorized)
				return
			}
			p, err := authn.Authenticate(token)
			if err != nil {
				httpx.Error(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func RequireAuth(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFrom(r.Context()); !ok {
				httpx.Error(w, r, log, apperr.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthForWrites lets anonymous callers read and demands a
// principal for every other method.
func RequireAuthForWrites(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := RequireAuth(log)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				guarded.ServeHTTP(w, r)
			}
		})
	}
}

func RequireStaff(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			switch {
			case !ok:
				httpx.Error(w, r, log, apperr.ErrUnauthorized)
			case !p.Staff:
				httpx.Error(w, r, log, apperr.ErrForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
