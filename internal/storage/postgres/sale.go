package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
	"github.com/xenking/tiendita-pos/internal/domain/sale"
)

var _ sale.Repository = (*SaleRepository)(nil)

// SaleRepository implements sale.Repository backed by PostgreSQL.
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// Create inserts the sale header and items and decrements the stock of
// every sold product in a single transaction.
func (r *SaleRepository) Create(ctx context.Context, s *sale.Sale) error {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO sales (id, user_id, subtotal, discount_percent, total, payment_method, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.ID, userID, s.Subtotal, s.DiscountPercent, s.Total, string(s.PaymentMethod), s.CreatedAt,
		); err != nil {
			return errors.Wrapf(err, "insert sale %s", s.ID)
		}

		batch := &pgx.Batch{}
		for i, it := range s.Items {
			batch.Queue(
				`INSERT INTO sale_items (sale_id, position, product_id, product_name, unit_price, quantity, subtotal)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				s.ID, i, it.ProductID, it.ProductName, it.UnitPrice, it.Quantity, it.Subtotal,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "insert sale items")
		}

		for _, it := range s.Items {
			if _, err := decrementStock(ctx, tx, userID, it.ProductID, it.Quantity); err != nil {
				return errors.Wrapf(err, "decrement stock of product %d", it.ProductID)
			}
		}
		return nil
	})
}

// List returns the sales created inside rng with their items, newest first.
func (r *SaleRepository) List(ctx context.Context, rng sale.DateRange) ([]sale.Sale, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, subtotal, discount_percent, total, payment_method, created_at
		FROM sales
		WHERE user_id = $1
			AND ($2::timestamptz IS NULL OR created_at >= $2)
			AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at DESC`,
		userID, nullTime(rng.From), nullTime(rng.To),
	)
	if err != nil {
		return nil, errors.Wrap(err, "query sales")
	}
	sales, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (sale.Sale, error) {
		var (
			s      sale.Sale
			method string
		)
		err := row.Scan(&s.ID, &s.UserID, &s.Subtotal, &s.DiscountPercent, &s.Total, &method, &s.CreatedAt)
		s.PaymentMethod = sale.PaymentMethod(method)
		return s, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan sales")
	}
	if len(sales) == 0 {
		return sales, nil
	}

	ids := make([]string, len(sales))
	index := make(map[string]int, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		index[s.ID] = i
	}

	rows, err = r.pool.Query(ctx,
		`SELECT sale_id, product_id, product_name, unit_price, quantity, subtotal
		FROM sale_items
		WHERE sale_id = ANY($1::uuid[])
		ORDER BY sale_id, position`,
		ids,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query sale items")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			saleID    string
			productID *int64
			it        sale.Item
		)
		if err := rows.Scan(&saleID, &productID, &it.ProductName, &it.UnitPrice, &it.Quantity, &it.Subtotal); err != nil {
			return nil, errors.Wrap(err, "scan sale item")
		}
		if productID != nil {
			it.ProductID = *productID
		}
		i := index[saleID]
		sales[i].Items = append(sales[i].Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate sale items")
	}
	return sales, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
