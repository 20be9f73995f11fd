package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmehra2102/ecommerce-backend/internal/identity/application"
	"github.com/dmehra2102/ecommerce-backend/internal/identity/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
)

const issuer = "ecommerce-backend"

var ErrInvalidToken = fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)

type Claims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Staff     bool   `json:"staff"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Manager signs HS256 tokens.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *Manager) Issue(p domain.Principal, kind application.TokenKind) (string, time.Time, error) {
	ttl := m.accessTTL
	if kind == application.RefreshToken {
		ttl = m.refreshTTL
	}
	now := m.now()
	exp := now.Add(ttl)
	claims := Claims{
		UserID:    p.UserID,
		Username:  p.Username,
		Staff:     p.Staff,
		TokenType: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   fmt.Sprint(p.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *Manager) Parse(tokenString string, kind application.TokenKind) (domain.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, fmt.Errorf("%w: token expired", apperr.ErrUnauthorized)
		}
		return domain.Principal{}, ErrInvalidToken
	}
	if claims.TokenType != string(kind) || claims.UserID <= 0 {
		return domain.Principal{}, ErrInvalidToken
	}
	return domain.Principal{UserID: claims.UserID, Username: claims.Username, Staff: claims.Staff}, nil
}
