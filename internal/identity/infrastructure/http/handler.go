package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmehra2102/ecommerce-backend/internal/identity/application"
	"github.com/dmehra2102/ecommerce-backend/internal/identity/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
	"github.com/dmehra2102/ecommerce-backend/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

type registerReq struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type tokenReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshReq struct {
	Refresh string `json:"refresh"`
}

type userResp struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Staff     bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResp(u domain.User) userResp {
	return userResp{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Staff:     u.Staff,
		CreatedAt: u.CreatedAt,
	}
}

// Routes expects the Authenticate middleware to run upstream.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/token", h.issueToken)
	r.Post("/token/refresh", h.refreshToken)
	r.Post("/users", h.register)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.log))
		r.With(RequireStaff(h.log)).Get("/users", h.listUsers)
		r.Get("/users/me", h.me)
	})
	return r
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	u, err := h.service.Register(r.Context(), domain.Registration(req))
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toUserResp(u))
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.Error(w, r, h.log, apperr.Invalid("username", "username and password are required"))
		return
	}
	pair, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pair)
}

func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	if req.Refresh == "" {
		httpx.Error(w, r, h.log, apperr.Invalid("refresh", "is required"))
		return
	}
	pair, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pair)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	u, err := h.service.Me(r.Context(), p)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResp(u))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	page, err := httpx.ParsePage(r)
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	users, total, err := h.service.List(r.Context(), p, page.Size, page.Offset())
	if err != nil {
		httpx.Error(w, r, h.log, err)
		return
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	httpx.JSON(w, http.StatusOK, httpx.NewPageResponse(page, total, out))
}
