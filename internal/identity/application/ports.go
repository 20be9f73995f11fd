package application

import (
	"context"
	"time"

	"github.com/dmehra2102/ecommerce-backend/internal/identity/domain"
)

type UserRepository interface {
	// Create fills in ID and timestamps. A taken username is a conflict.
	Create(ctx context.Context, u *domain.User) error
	ByUsername(ctx context.Context, username string) (domain.User, error)
	ByID(ctx context.Context, id int64) (domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, int, error)
}

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

type TokenManager interface {
	Issue(p domain.Principal, kind TokenKind) (token string, expiresAt time.Time, err error)
	Parse(token string, kind TokenKind) (domain.Principal, error)
}
