// Package register ties one user's cart, catalog snapshot and checkout
// coordinator together behind a typed command interface.
package register

import (
	"context"
	"sync"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/tiendita-pos/internal/domain/cart"
	"github.com/xenking/tiendita-pos/internal/domain/catalog"
	"github.com/xenking/tiendita-pos/internal/domain/checkout"
	"github.com/xenking/tiendita-pos/internal/domain/product"
)

// CartStore caches cart contents so a cart survives a restart. Load returns
// nil without error when nothing is stored.
type CartStore interface {
	Load(ctx context.Context, userID string) (*cart.State, error)
	Save(ctx context.Context, userID string, s cart.State) error
	Delete(ctx context.Context, userID string) error
}

// CartView is the cart as shown at the register.
type CartView struct {
	Lines           []cart.Line
	DiscountPercent decimal.Decimal
	Summary         cart.Summary
}

// Register is one user's point of sale. Commands are serialized: a command
// issued while another runs waits for it to finish.
type Register struct {
	userID string
	store  CartStore

	catalog *catalog.Snapshot

	mu       sync.Mutex
	cart     *cart.Cart
	checkout *checkout.Coordinator
}

// UserID returns the owner of the register.
func (r *Register) UserID() string {
	return r.userID
}

// Catalog returns the register's product snapshot.
func (r *Register) Catalog() *catalog.Snapshot {
	return r.catalog
}

// Products filters the cached catalog.
func (r *Register) Products(f product.Filter) []product.Product {
	return r.catalog.Search(f)
}

// Cart returns the current cart.
func (r *Register) Cart() CartView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view()
}

// Add puts one unit of productID in the cart.
func (r *Register) Add(ctx context.Context, productID int64) (CartView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.cart.Add(productID); err != nil {
		return r.view(), err
	}
	r.persist(ctx)
	return r.view(), nil
}

// ChangeQuantity adds delta to the quantity of productID, removing the line
// when it drops to zero.
func (r *Register) ChangeQuantity(ctx context.Context, productID int64, delta int) (CartView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, _, err := r.cart.ChangeQuantity(productID, delta); err != nil {
		return r.view(), err
	}
	r.persist(ctx)
	return r.view(), nil
}

// Remove deletes the line for productID.
func (r *Register) Remove(ctx context.Context, productID int64) CartView {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cart.Remove(productID)
	r.persist(ctx)
	return r.view()
}

// Clear empties the cart and resets the discount.
func (r *Register) Clear(ctx context.Context) CartView {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cart.Clear()
	r.persist(ctx)
	return r.view()
}

// SetDiscount sets the cart discount percentage.
func (r *Register) SetDiscount(ctx context.Context, percent decimal.Decimal) (CartView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.cart.SetDiscount(percent); err != nil {
		return r.view(), err
	}
	r.persist(ctx)
	return r.view(), nil
}

// Quote previews a checkout without side effects.
func (r *Register) Quote(req checkout.Request) (checkout.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checkout.Quote(req)
}

// Checkout completes the sale. The cart is cleared only when the sale was
// stored.
func (r *Register) Checkout(ctx context.Context, req checkout.Request) (*checkout.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.checkout.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	r.persist(ctx)
	return res, nil
}

// CancelCheckout resets a finished or failed checkout to idle. It waits for
// a checkout running on this register to return first.
func (r *Register) CancelCheckout() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checkout.Cancel()
}

// CheckoutStatus returns the phase of the last checkout attempt.
func (r *Register) CheckoutStatus() checkout.Status {
	return r.checkout.Status()
}

func (r *Register) view() CartView {
	return CartView{
		Lines:           r.cart.Lines(),
		DiscountPercent: r.cart.DiscountPercent(),
		Summary:         r.cart.Summary(),
	}
}

// persist writes the cart to the store. The store is a cache, so failures
// are logged and the command still succeeds.
func (r *Register) persist(ctx context.Context) {
	var err error
	if r.cart.IsEmpty() && r.cart.DiscountPercent().IsZero() {
		err = r.store.Delete(ctx, r.userID)
	} else {
		err = r.store.Save(ctx, r.userID, r.cart.State())
	}
	if err != nil {
		zctx.From(ctx).Warn("Cart cache write failed",
			zap.String("user_id", r.userID),
			zap.Error(err),
		)
	}
}
