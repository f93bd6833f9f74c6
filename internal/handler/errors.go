package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
	"github.com/xenking/tiendita-pos/internal/domain/cart"
	"github.com/xenking/tiendita-pos/internal/domain/checkout"
	"github.com/xenking/tiendita-pos/internal/domain/expense"
	"github.com/xenking/tiendita-pos/internal/domain/payment"
	"github.com/xenking/tiendita-pos/internal/domain/product"
	"github.com/xenking/tiendita-pos/internal/domain/sale"
	"github.com/xenking/tiendita-pos/pkg/httpmiddleware"
)

// requestError is a body or query that could not be decoded.
type requestError struct {
	err error
}

func (e *requestError) Error() string {
	return "bad request: " + e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

type errorMapping struct {
	target error
	status int
	code   string
	// message replaces err.Error() in the body of a 5xx response.
	message string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{target: cart.ErrOutOfStock, status: http.StatusConflict, code: "out_of_stock"},
	{target: cart.ErrInsufficientStock, status: http.StatusConflict, code: "insufficient_stock"},
	{target: auth.ErrEmailTaken, status: http.StatusConflict, code: "email_taken"},

	{target: checkout.ErrCheckoutInProgress, status: http.StatusTooManyRequests, code: "checkout_in_progress"},
	{
		target:  checkout.ErrPersistence,
		status:  http.StatusBadGateway,
		code:    "persistence_failed",
		message: "the sale could not be saved, try again",
	},

	{target: auth.ErrNotAuthenticated, status: http.StatusUnauthorized, code: "not_authenticated"},
	{target: auth.ErrInvalidCredentials, status: http.StatusUnauthorized, code: "invalid_credentials"},

	{target: product.ErrNotFound, status: http.StatusNotFound, code: "product_not_found"},
	{target: expense.ErrNotFound, status: http.StatusNotFound, code: "expense_not_found"},
	{target: cart.ErrLineNotFound, status: http.StatusNotFound, code: "line_not_found"},
	{target: auth.ErrNotFound, status: http.StatusNotFound, code: "not_found"},

	{target: cart.ErrInvalidDiscount, status: http.StatusUnprocessableEntity, code: "invalid_discount"},
	{target: checkout.ErrEmptyCart, status: http.StatusUnprocessableEntity, code: "empty_cart"},
	{target: checkout.ErrInsufficientPayment, status: http.StatusUnprocessableEntity, code: "insufficient_payment"},
	{target: checkout.ErrInvalidPaymentMethod, status: http.StatusUnprocessableEntity, code: "invalid_payment_method"},
	{target: product.ErrInvalid, status: http.StatusUnprocessableEntity, code: "invalid_product"},
	{target: expense.ErrInvalid, status: http.StatusUnprocessableEntity, code: "invalid_expense"},
	{target: payment.ErrInvalidLink, status: http.StatusUnprocessableEntity, code: "invalid_payment_link"},
	{target: sale.ErrInvalidRange, status: http.StatusUnprocessableEntity, code: "invalid_range"},
	{target: auth.ErrInvalidInput, status: http.StatusUnprocessableEntity, code: "invalid_input"},
}

// writeError maps err to a status code and error body. Server-side failures
// are logged and answered with a fixed message, never err.Error().
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "bad_request", reqErr.Error())
		return
	}
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		httpmiddleware.WriteError(w, http.StatusUnprocessableEntity, "validation_failed", vErrs.Error())
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status < http.StatusInternalServerError {
				httpmiddleware.WriteError(w, m.status, m.code, err.Error())
				return
			}
			zctx.From(r.Context()).Warn("Request failed", zap.String("code", m.code), zap.Error(err))
			msg := m.message
			if msg == "" {
				msg = http.StatusText(m.status)
			}
			httpmiddleware.WriteError(w, m.status, m.code, msg)
			return
		}
	}

	zctx.From(r.Context()).Error("Unhandled error", zap.Error(err))
	httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal", "internal server error")
}
