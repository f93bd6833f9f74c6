// Package expense records business expenses used as reporting input.
package expense

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/tiendita-pos/internal/domain/sale"
)

var (
	ErrNotFound = errors.New("expense not found")
	ErrInvalid  = errors.New("invalid expense")
)

// Expense is money spent by the business on a given day.
type Expense struct {
	ID        int64
	UserID    string
	Concept   string
	Category  string
	Amount    decimal.Decimal
	Date      time.Time
	Notes     string
	CreatedAt time.Time
}

// Validate checks required fields.
func (e Expense) Validate() error {
	switch {
	case strings.TrimSpace(e.Concept) == "":
		return errors.Wrap(ErrInvalid, "concept required")
	case strings.TrimSpace(e.Category) == "":
		return errors.Wrap(ErrInvalid, "category required")
	case e.Amount.IsNegative():
		return errors.Wrap(ErrInvalid, "amount must not be negative")
	case e.Date.IsZero():
		return errors.Wrap(ErrInvalid, "date required")
	}
	return nil
}

// Repository persists expenses for the user in the context.
type Repository interface {
	Create(ctx context.Context, e Expense) (*Expense, error)
	// List returns expenses dated inside r, newest first.
	List(ctx context.Context, r sale.DateRange) ([]Expense, error)
	Delete(ctx context.Context, id int64) error
}

// Summary totals expenses over the usual dashboard windows.
type Summary struct {
	Today decimal.Decimal
	Week  decimal.Decimal
	Month decimal.Decimal
}

// Summarize totals expenses dated today, within the last 7 days and within
// the last 30 days, counting whole days relative to now.
func Summarize(expenses []Expense, now time.Time) Summary {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	weekStart := today.AddDate(0, 0, -7)
	monthStart := today.AddDate(0, 0, -30)

	s := Summary{Today: decimal.Zero, Week: decimal.Zero, Month: decimal.Zero}
	for _, e := range expenses {
		if e.Date.After(now) {
			continue
		}
		if !e.Date.Before(today) {
			s.Today = s.Today.Add(e.Amount)
		}
		if !e.Date.Before(weekStart) {
			s.Week = s.Week.Add(e.Amount)
		}
		if !e.Date.Before(monthStart) {
			s.Month = s.Month.Add(e.Amount)
		}
	}
	return s
}
