package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmehra2102/ecommerce-backend/internal/identity/application"
	"github.com/dmehra2102/ecommerce-backend/internal/identity/domain"
	"github.com/dmehra2102/ecommerce-backend/internal/identity/infrastructure/token"
	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
	"github.com/dmehra2102/ecommerce-backend/pkg/logging"
)

type stubUsers struct {
	users []domain.User
}

func (s *stubUsers) Create(_ context.Context, u *domain.User) error {
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return apperr.Conflict("username %q is already taken", u.Username)
		}
	}
	u.ID = int64(len(s.users) + 1)
	s.users = append(s.users, *u)
	return nil
}

func (s *stubUsers) ByUsername(_ context.Context, username string) (domain.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, apperr.NotFound("user %q", username)
}

func (s *stubUsers) ByID(_ context.Context, id int64) (domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, apperr.NotFound("user %d", id)
}

func (s *stubUsers) List(context.Context, int, int) ([]domain.User, int, error) {
	return s.users, len(s.users), nil
}

func newRouter() http.Handler {
	log := logging.Discard()
	tokens := token.NewManager("test-secret-0123456789", time.Minute, time.Hour)
	svc := application.NewService(log, &stubUsers{}, tokens).WithBcryptCost(bcrypt.MinCost)

	r := chi.NewRouter()
	r.Use(Authenticate(log, svc))
	r.Mount("/", NewHandler(log, svc).Routes())
	return r
}

func do(t *testing.T, h http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegistrationAndTokenFlow(t *testing.T) {
	h := newRouter()

	rec := do(t, h, http.MethodPost, "/users", "", map[string]string{
		"username":   "newuser",
		"password":   "newpass123",
		"password2":  "newpass123",
		"email":      "newuser@example.com",
		"first_name": "New",
		"last_name":  "User",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	rec = do(t, h, http.MethodPost, "/token", "", map[string]string{"username": "newuser", "password": "newpass123"})
	require.Equal(t, http.StatusOK, rec.Code)
	var pair application.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))

	rec = do(t, h, http.MethodGet, "/users/me", pair.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"newuser"`)

	rec = do(t, h, http.MethodGet, "/users", pair.Access, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, "/token/refresh", "", map[string]string{"refresh": pair.Refresh})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthFailures(t *testing.T) {
	h := newRouter()

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/users/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/users/me", "garbage", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		do(t, h, http.MethodPost, "/token", "", map[string]string{"username": "x", "password": "y"}).Code)

	rec := do(t, h, http.MethodPost, "/users", "", map[string]string{"username": "u", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireAuthForWrites(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireAuthForWrites(logging.Discard())(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	h.ServeHTTP(rec, req.WithContext(WithPrincipal(req.Context(), domain.Principal{UserID: 1})))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireStaff(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireStaff(logging.Discard())(ok)

	cases := []struct {
		name      string
		principal *domain.Principal
		want      int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"customer", &domain.Principal{UserID: 1}, http.StatusForbidden},
		{"staff", &domain.Principal{UserID: 2, Staff: true}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), *tc.principal))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
