package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/ecommerce-backend/internal/identity/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
	"github.com/dmehra2102/ecommerce-backend/pkg/pgutil"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, is_staff, created_at, updated_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Create(ctx context.Context, u *domain.User) error {
	err := r.pool.QueryRow(ctx, `INSERT INTO users (username, email, first_name, last_name, password_hash, is_staff)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at`,
		u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Staff,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if pgutil.IsUniqueViolation(err) {
		return apperr.Conflict("username %q is already taken", u.Username)
	}
	return err
}

func (r *Repository) ByUsername(ctx context.Context, username string) (domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username))
	if pgutil.IsNoRows(err) {
		return domain.User{}, apperr.NotFound("user %q", username)
	}
	return u, err
}

func (r *Repository) ByID(ctx context.Context, id int64) (domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if pgutil.IsNoRows(err) {
		return domain.User{}, apperr.NotFound("user %d", id)
	}
	return u, err
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Staff, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
