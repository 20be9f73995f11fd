package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmehra2102/ecommerce-backend/internal/identity/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
)

var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)

type TokenPair struct {
	Access          string    `json:"access"`
	Refresh         string    `json:"refresh,omitempty"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

type Service struct {
	log        *slog.Logger
	repo       UserRepository
	tokens     TokenManager
	bcryptCost int
}

func NewService(log *slog.Logger, repo UserRepository, tokens TokenManager) *Service {
	return &Service{log: log, repo: repo, tokens: tokens, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost lowers hashing cost for tests and tooling.
func (s *Service) WithBcryptCost(cost int) *Service {
	s.bcryptCost = cost
	return s
}

func (s *Service) Register(ctx context.Context, r domain.Registration) (domain.User, error) {
	return s.create(ctx, r, false)
}

// CreateStaff registers a user holding the elevated role. Only reachable
// from the admin CLI.
func (s *Service) CreateStaff(ctx context.Context, r domain.Registration) (domain.User, error) {
	return s.create(ctx, r, true)
}

func (s *Service) create(ctx context.Context, r domain.Registration, staff bool) (domain.User, error) {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	if err := r.Validate(); err != nil {
		return domain.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.bcryptCost)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		Username:     r.Username,
		Email:        r.Email,
		FirstName:    strings.TrimSpace(r.FirstName),
		LastName:     strings.TrimSpace(r.LastName),
		PasswordHash: string(hash),
		Staff:        staff,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		return domain.User{}, err
	}
	s.log.Info("user registered", "user_id", u.ID, "username", u.Username, "staff", staff)
	return u, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, error) {
	u, err := s.repo.ByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	p := u.Principal()
	access, exp, err := s.tokens.Issue(p, AccessToken)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := s.tokens.Issue(p, RefreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh, AccessExpiresAt: exp}, nil
}

// Refresh trades a refresh token for a new access token. The user is
// reloaded so a revoked staff flag takes effect on the next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	p, err := s.tokens.Parse(refreshToken, RefreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	u, err := s.repo.ByID(ctx, p.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, err
	}
	access, exp, err := s.tokens.Issue(u.Principal(), AccessToken)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, AccessExpiresAt: exp}, nil
}

func (s *Service) Authenticate(token string) (domain.Principal, error) {
	return s.tokens.Parse(token, AccessToken)
}

func (s *Service) Me(ctx context.Context, p domain.Principal) (domain.User, error) {
	return s.repo.ByID(ctx, p.UserID)
}

func (s *Service) List(ctx context.Context, p domain.Principal, limit, offset int) ([]domain.User, int, error) {
	if !p.Staff {
		return nil, 0, apperr.ErrForbidden
	}
	return s.repo.List(ctx, limit, offset)
}
