// Package sale defines completed sale transactions and their storage contract.
package sale

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidRange is returned for a date range whose end precedes its start.
var ErrInvalidRange = errors.New("date range end before start")

// PaymentMethod is how the customer paid.
type PaymentMethod string

const (
	MethodCash        PaymentMethod = "efectivo"
	MethodStripe      PaymentMethod = "stripe"
	MethodPayPal      PaymentMethod = "paypal"
	MethodMercadoPago PaymentMethod = "mercadopago"
	MethodCustom      PaymentMethod = "custom"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodStripe, MethodPayPal, MethodMercadoPago, MethodCustom:
		return true
	default:
		return false
	}
}

// IsCash reports whether m is paid in cash at the register.
func (m PaymentMethod) IsCash() bool {
	return m == MethodCash
}

// Sale is a persisted checkout. It is immutable once created.
type Sale struct {
	ID              string
	UserID          string
	Subtotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	Total           decimal.Decimal
	PaymentMethod   PaymentMethod
	Items           []Item
	CreatedAt       time.Time
}

// Item is one sold line of a sale.
type Item struct {
	ProductID   int64
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
}

// DateRange bounds a listing. A zero From or To leaves that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// DayRange returns the range covering whole days from start through end,
// inclusive of the last day.
func DayRange(start, end time.Time) (DateRange, error) {
	r := DateRange{}
	if !start.IsZero() {
		y, m, d := start.Date()
		r.From = time.Date(y, m, d, 0, 0, 0, 0, start.Location())
	}
	if !end.IsZero() {
		y, m, d := end.Date()
		r.To = time.Date(y, m, d, 23, 59, 59, 999999999, end.Location())
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return DateRange{}, ErrInvalidRange
	}
	return r, nil
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// Repository persists sales for the user in the context.
type Repository interface {
	// Create stores the sale with its items and decrements the stock of every
	// sold product as one unit of work.
	Create(ctx context.Context, s *Sale) error
	// List returns sales created inside r, newest first.
	List(ctx context.Context, r DateRange) ([]Sale, error)
}
