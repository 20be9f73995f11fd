package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
)

const MinPasswordLength = 8

type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Staff        bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the verified identity attached to a request.
type Principal struct {
	UserID   int64
	Username string
	Staff    bool
}

type Registration struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Password2 string
}

func (r Registration) Validate() error {
	var v apperr.ValidationError
	if strings.TrimSpace(r.Username) == "" {
		v.Add("username", "is required")
	} else if len(r.Username) > 150 || strings.ContainsAny(r.Username, " \t\n") {
		v.Add("username", "must be at most 150 characters without whitespace")
	}
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			v.Add("email", "is not a valid address")
		}
	}
	if len(r.Password) < MinPasswordLength {
		v.Add("password", "must be at least 8 characters")
	}
	if r.Password2 != "" && r.Password2 != r.Password {
		v.Add("password2", "passwords do not match")
	}
	return v.Err()
}

func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Username: u.Username, Staff: u.Staff}
}
