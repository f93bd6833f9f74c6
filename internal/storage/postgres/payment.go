package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
	"github.com/xenking/tiendita-pos/internal/domain/payment"
	"github.com/xenking/tiendita-pos/internal/domain/sale"
)

var _ payment.Repository = (*PaymentLinkRepository)(nil)

// PaymentLinkRepository implements payment.Repository backed by PostgreSQL.
type PaymentLinkRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentLinkRepository returns a PaymentLinkRepository that uses the
// given pool.
func NewPaymentLinkRepository(pool *pgxpool.Pool) *PaymentLinkRepository {
	return &PaymentLinkRepository{pool: pool}
}

func (r *PaymentLinkRepository) List(ctx context.Context) ([]payment.Link, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT provider, link, active FROM payment_links WHERE user_id = $1 ORDER BY provider`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query payment links")
	}
	links, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (payment.Link, error) {
		var (
			l        payment.Link
			provider string
		)
		err := row.Scan(&provider, &l.URL, &l.Active)
		l.Provider = sale.PaymentMethod(provider)
		return l, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan payment links")
	}
	return links, nil
}

// Upsert stores l, replacing the existing row for the same provider.
func (r *PaymentLinkRepository) Upsert(ctx context.Context, l payment.Link) error {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx,
		`INSERT INTO payment_links (user_id, provider, link, active, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, provider)
		DO UPDATE SET link = EXCLUDED.link, active = EXCLUDED.active, updated_at = now()`,
		userID, string(l.Provider), l.URL, l.Active,
	); err != nil {
		return errors.Wrapf(err, "upsert payment link %s", l.Provider)
	}
	return nil
}
