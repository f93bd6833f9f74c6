package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrOutOfStock is returned when adding a product whose stock is zero.
	ErrOutOfStock = errors.New("product out of stock")
	// ErrInsufficientStock is returned when a line cannot grow because every
	// available unit is already in the cart.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidDiscount is returned for a discount outside [0, 100] or with
	// more than two decimal places.
	ErrInvalidDiscount = errors.New("discount must be between 0 and 100 with at most two decimals")
	// ErrLineNotFound is returned when changing the quantity of a product
	// that is not in the cart.
	ErrLineNotFound = errors.New("product not in cart")
)

// StockError describes a rejected stock check. It unwraps to ErrOutOfStock
// or ErrInsufficientStock.
type StockError struct {
	ProductID int64
	Available int
	Requested int
	err       error
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s for product %d: requested %d, available %d",
		e.err, e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return e.err
}
