package checkout

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInsufficientPayment  = errors.New("insufficient payment")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrCheckoutInProgress   = errors.New("checkout already in progress")
	// ErrPersistence wraps storage failures while committing a sale. The
	// cart is left intact so the sale can be retried.
	ErrPersistence = errors.New("persist sale")
)

// PaymentError reports cash below the sale total. It unwraps to
// ErrInsufficientPayment.
type PaymentError struct {
	Total    decimal.Decimal
	Received decimal.Decimal
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: received %s, total %s",
		ErrInsufficientPayment, e.Received.StringFixed(2), e.Total.StringFixed(2))
}

func (e *PaymentError) Unwrap() error {
	return ErrInsufficientPayment
}

type persistenceError struct {
	cause error
}

func (e *persistenceError) Error() string {
	return ErrPersistence.Error() + ": " + e.cause.Error()
}

func (e *persistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *persistenceError) Unwrap() error {
	return e.cause
}
