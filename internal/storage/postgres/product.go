package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
	"github.com/xenking/tiendita-pos/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

const productColumns = `id, user_id, code, name, category, price, stock, created_at`

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns the catalog, newest first.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}
	return products, nil
}

// GetByID returns a single product or product.ErrNotFound.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	return collectProduct(row, id)
}

func (r *ProductRepository) Create(ctx context.Context, p product.Product) (*product.Product, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO products (user_id, code, name, category, price, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		userID, p.Code, p.Name, string(p.Category), p.Price, p.Stock,
	)
	created, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Wrapf(product.ErrInvalid, "code %q already exists", p.Code)
		}
		return nil, errors.Wrap(err, "insert product")
	}
	return &created, nil
}

// Update applies the non-nil patch fields in one statement.
func (r *ProductRepository) Update(ctx context.Context, id int64, patch product.Patch) (*product.Product, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	var category *string
	if patch.Category != nil {
		c := string(*patch.Category)
		category = &c
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE products SET
			code = COALESCE($3, code),
			name = COALESCE($4, name),
			category = COALESCE($5, category),
			price = COALESCE($6, price),
			stock = COALESCE($7, stock)
		WHERE id = $1 AND user_id = $2
		RETURNING `+productColumns,
		id, userID, patch.Code, patch.Name, category, patch.Price, patch.Stock,
	)
	updated, err := collectProduct(row, id)
	if err != nil && isUniqueViolation(err) {
		return nil, errors.Wrapf(product.ErrInvalid, "code %q already exists", *patch.Code)
	}
	return updated, err
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errors.Wrapf(err, "delete product %d", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// DecrementStock subtracts amount from the product stock. The table rejects
// a negative result.
func (r *ProductRepository) DecrementStock(ctx context.Context, id int64, amount int) (*product.Product, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	return decrementStock(ctx, r.pool, userID, id, amount)
}

func decrementStock(ctx context.Context, q dbtx, userID string, id int64, amount int) (*product.Product, error) {
	row := q.QueryRow(ctx,
		`UPDATE products SET stock = stock - $3
		WHERE id = $1 AND user_id = $2
		RETURNING `+productColumns,
		id, userID, amount,
	)
	return collectProduct(row, id)
}

func collectProduct(row pgx.Row, id int64) (*product.Product, error) {
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "product %d", id)
	}
	return &p, nil
}

func scanProduct(row pgx.Row) (product.Product, error) {
	var (
		p        product.Product
		category string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Code, &p.Name, &category, &p.Price, &p.Stock, &p.CreatedAt); err != nil {
		return product.Product{}, err
	}
	p.Category = product.Category(category)
	return p, nil
}
