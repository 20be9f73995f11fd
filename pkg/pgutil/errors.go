// Package pgutil translates pgx errors into application error kinds.
package pgutil

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

func IsNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

func IsUniqueViolation(err error) bool { return hasCode(err, uniqueViolation) }

func IsForeignKeyViolation(err error) bool { return hasCode(err, foreignKeyViolation) }

func IsCheckViolation(err error) bool { return hasCode(err, checkViolation) }

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
