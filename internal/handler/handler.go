// Package handler exposes the register, catalog, sales, expenses and reports
// over a JSON HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
	"github.com/xenking/tiendita-pos/internal/domain/expense"
	"github.com/xenking/tiendita-pos/internal/domain/payment"
	"github.com/xenking/tiendita-pos/internal/domain/register"
	"github.com/xenking/tiendita-pos/internal/domain/report"
	"github.com/xenking/tiendita-pos/internal/domain/sale"
	"github.com/xenking/tiendita-pos/pkg/httpmiddleware"
)

const maxBodyBytes = 1 << 20

// Accounts signs users in and manages their profile.
type Accounts interface {
	SignUp(ctx context.Context, req auth.SignUpRequest) (*auth.Profile, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	SignOut(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (string, error)
	Profile(ctx context.Context) (*auth.Profile, error)
	UpdateBusinessName(ctx context.Context, name string) (*auth.Profile, error)
}

// Registers hands out the register of the user in the context.
type Registers interface {
	Get(ctx context.Context) (*register.Register, error)
	Close(userID string)
}

// Reports builds the reports tab.
type Reports interface {
	Report(ctx context.Context, r sale.DateRange) (*report.Report, error)
}

var (
	_ Accounts  = (*auth.Service)(nil)
	_ Registers = (*register.Manager)(nil)
	_ Reports   = (*report.Service)(nil)
)

// Config holds non-dependency settings.
type Config struct {
	// Location interprets date-only query parameters and expense dates.
	// Defaults to time.Local.
	Location *time.Location
}

// Handler serves the API. Every route except sign up and sign in requires a
// bearer token.
type Handler struct {
	accounts  Accounts
	registers Registers
	reports   Reports
	sales     sale.Repository
	expenses  expense.Repository
	links     payment.Repository

	validate *validator.Validate
	loc      *time.Location
	now      func() time.Time
}

// Deps are the services the handler delegates to.
type Deps struct {
	Accounts  Accounts
	Registers Registers
	Reports   Reports
	Sales     sale.Repository
	Expenses  expense.Repository
	Links     payment.Repository
}

// New constructs a Handler.
func New(cfg Config, d Deps) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		accounts:  d.Accounts,
		registers: d.Registers,
		reports:   d.Reports,
		sales:     d.Sales,
		expenses:  d.Expenses,
		links:     d.Links,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		loc:       loc,
		now:       time.Now,
	}
}

// Routes returns the API router, meant to be mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/signup", h.signUp)
	r.Post("/auth/signin", h.signIn)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Post("/auth/signout", h.signOut)
		r.Get("/profile", h.getProfile)
		r.Put("/profile", h.updateProfile)

		r.Get("/products", h.listProducts)
		r.Post("/products", h.createProduct)
		r.Post("/products/quick", h.quickAddProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)

		r.Get("/cart", h.getCart)
		r.Delete("/cart", h.clearCart)
		r.Post("/cart/items", h.addCartItem)
		r.Patch("/cart/items/{id}", h.changeCartItem)
		r.Delete("/cart/items/{id}", h.removeCartItem)
		r.Put("/cart/discount", h.setDiscount)

		r.Post("/checkout", h.checkout)
		r.Post("/checkout/quote", h.quote)
		r.Delete("/checkout", h.cancelCheckout)

		r.Get("/sales", h.listSales)

		r.Get("/expenses", h.listExpenses)
		r.Post("/expenses", h.createExpense)
		r.Get("/expenses/summary", h.expenseSummary)
		r.Delete("/expenses/{id}", h.deleteExpense)

		r.Get("/reports", h.getReport)

		r.Get("/payment-links", h.listPaymentLinks)
		r.Put("/payment-links", h.upsertPaymentLink)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

// authenticate resolves the bearer token and stores the user id in the
// request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.accounts.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, r, auth.ErrNotAuthenticated)
			return
		}
		ctx := auth.WithUserID(r.Context(), userID)
		ctx = zctx.With(ctx, zap.String("user_id", userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	const prefix = "bearer "
	v := r.Header.Get("Authorization")
	if len(v) <= len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(v[len(prefix):])
}

// decode reads a JSON body into dst and validates its struct tags.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &requestError{err: err}
	}
	return h.validate.Struct(dst)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Warn("Write response", zap.Error(err))
	}
}
