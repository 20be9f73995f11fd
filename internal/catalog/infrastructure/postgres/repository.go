package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/ecommerce-backend/internal/catalog/domain"
	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
	"github.com/dmehra2102/ecommerce-backend/pkg/pgutil"
)

type CategoryRepository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewCategoryRepository(log *slog.Logger, pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{log: log, pool: pool}
}

func (r *CategoryRepository) Create(ctx context.Context, in domain.CategoryInput) (domain.Category, error) {
	c := domain.Category{Name: strings.TrimSpace(in.Name), Description: in.Description}
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (name, description) VALUES ($1,$2) RETURNING id`,
		c.Name, c.Description).Scan(&c.ID)
	if pgutil.IsUniqueViolation(err) {
		return domain.Category{}, apperr.Conflict("category %q already exists", c.Name)
	}
	return c, err
}

func (r *CategoryRepository) Get(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, description FROM categories WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Description)
	if pgutil.IsNoRows(err) {
		return domain.Category{}, apperr.NotFound("category %d", id)
	}
	return c, err
}

func (r *CategoryRepository) List(ctx context.Context, limit, offset int) ([]domain.Category, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM categories`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM categories ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *CategoryRepository) Update(ctx context.Context, id int64, in domain.CategoryInput) (domain.Category, error) {
	c := domain.Category{ID: id, Name: strings.TrimSpace(in.Name), Description: in.Description}
	ct, err := r.pool.Exec(ctx, `UPDATE categories SET name=$2, description=$3 WHERE id=$1`, id, c.Name, c.Description)
	if pgutil.IsUniqueViolation(err) {
		return domain.Category{}, apperr.Conflict("category %q already exists", c.Name)
	}
	if err != nil {
		return domain.Category{}, err
	}
	if ct.RowsAffected() == 0 {
		return domain.Category{}, apperr.NotFound("category %d", id)
	}
	return c, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if pgutil.IsForeignKeyViolation(err) {
		return apperr.Conflict("category %d still has products", id)
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("category %d", id)
	}
	return nil
}

type ProductRepository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewProductRepository(log *slog.Logger, pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{log: log, pool: pool}
}

const productSelect = `SELECT p.id, p.category_id, c.name, c.description, p.name, p.description, p.price, p.stock, p.created_at, p.updated_at
	FROM products p JOIN categories c ON c.id = p.category_id`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Category.Name, &p.Category.Description,
		&p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	p.Category.ID = p.CategoryID
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, err
}

func (r *ProductRepository) Create(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO products (category_id, name, description, price, stock)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		in.CategoryID, strings.TrimSpace(in.Name), in.Description, in.Price, in.Stock).Scan(&id)
	if pgutil.IsForeignKeyViolation(err) {
		return domain.Product{}, apperr.Invalid("category_id", fmt.Sprintf("category %d does not exist", in.CategoryID))
	}
	if err != nil {
		return domain.Product{}, err
	}
	return r.Get(ctx, id)
}

func (r *ProductRepository) Get(ctx context.Context, id int64) (domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, productSelect+` WHERE p.id=$1`, id))
	if pgutil.IsNoRows(err) {
		return domain.Product{}, apperr.NotFound("product %d", id)
	}
	return p, err
}

func (r *ProductRepository) Update(ctx context.Context, id int64, in domain.ProductInput) (domain.Product, error) {
	ct, err := r.pool.Exec(ctx, `UPDATE products
		SET category_id=$2, name=$3, description=$4, price=$5, stock=$6, updated_at=now()
		WHERE id=$1`,
		id, in.CategoryID, strings.TrimSpace(in.Name), in.Description, in.Price, in.Stock)
	if pgutil.IsForeignKeyViolation(err) {
		return domain.Product{}, apperr.Invalid("category_id", fmt.Sprintf("category %d does not exist", in.CategoryID))
	}
	if err != nil {
		return domain.Product{}, err
	}
	if ct.RowsAffected() == 0 {
		return domain.Product{}, apperr.NotFound("product %d", id)
	}
	return r.Get(ctx, id)
}

// Delete refuses products referenced by order items; their frozen line
// prices stay meaningful only while the product row exists.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if pgutil.IsForeignKeyViolation(err) {
		return apperr.Conflict("product %d is referenced by existing orders", id)
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("product %d", id)
	}
	return nil
}

func (r *ProductRepository) List(ctx context.Context, q domain.ListQuery) (domain.ProductPage, error) {
	where, args := listFilter(q)

	var page domain.ProductPage
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products p`+where, args...).Scan(&page.Count); err != nil {
		return domain.ProductPage{}, err
	}

	args = append(args, q.PageSize, q.Offset())
	sql := fmt.Sprintf(`%s%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		productSelect, where, orderClause(q.Ordering), len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return domain.ProductPage{}, err
	}
	defer rows.Close()

	page.Results = []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return domain.ProductPage{}, err
		}
		page.Results = append(page.Results, p)
	}
	return page, rows.Err()
}

func listFilter(q domain.ListQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if q.CategoryID != nil {
		add("p.category_id = $%d", *q.CategoryID)
	}
	if q.Price != nil {
		add("p.price = $%d", *q.Price)
	}
	if q.MinPrice != nil {
		add("p.price >= $%d", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		add("p.price <= $%d", *q.MaxPrice)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		add("(p.name ILIKE $%[1]d OR p.description ILIKE $%[1]d)", "%"+escapeLike(s)+"%")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(o domain.Ordering) string {
	switch o {
	case domain.OrderCreatedDesc:
		return "p.created_at DESC, p.id DESC"
	case domain.OrderPriceAsc:
		return "p.price ASC, p.id ASC"
	case domain.OrderPriceDesc:
		return "p.price DESC, p.id DESC"
	default:
		return "p.created_at ASC, p.id ASC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
