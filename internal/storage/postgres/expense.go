package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
	"github.com/xenking/tiendita-pos/internal/domain/expense"
	"github.com/xenking/tiendita-pos/internal/domain/sale"
)

var _ expense.Repository = (*ExpenseRepository)(nil)

const expenseColumns = `id, user_id, concept, category, amount, date, notes, created_at`

// ExpenseRepository implements expense.Repository backed by PostgreSQL.
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository returns an ExpenseRepository that uses the given pool.
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

func (r *ExpenseRepository) Create(ctx context.Context, e expense.Expense) (*expense.Expense, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO expenses (user_id, concept, category, amount, date, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+expenseColumns,
		userID, e.Concept, e.Category, e.Amount, e.Date, e.Notes,
	)
	created, err := scanExpense(row)
	if err != nil {
		return nil, errors.Wrap(err, "insert expense")
	}
	return &created, nil
}

// List returns expenses dated inside rng, newest first. Only the calendar
// day of the range bounds is compared.
func (r *ExpenseRepository) List(ctx context.Context, rng sale.DateRange) ([]expense.Expense, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+expenseColumns+`
		FROM expenses
		WHERE user_id = $1
			AND ($2::date IS NULL OR date >= $2)
			AND ($3::date IS NULL OR date <= $3)
		ORDER BY date DESC, id DESC`,
		userID, nullTime(rng.From), nullTime(rng.To),
	)
	if err != nil {
		return nil, errors.Wrap(err, "query expenses")
	}
	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (expense.Expense, error) {
		return scanExpense(row)
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan expenses")
	}
	return expenses, nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errors.Wrapf(err, "delete expense %d", id)
	}
	if tag.RowsAffected() == 0 {
		return expense.ErrNotFound
	}
	return nil
}

func scanExpense(row pgx.Row) (expense.Expense, error) {
	var e expense.Expense
	err := row.Scan(&e.ID, &e.UserID, &e.Concept, &e.Category, &e.Amount, &e.Date, &e.Notes, &e.CreatedAt)
	return e, err
}
