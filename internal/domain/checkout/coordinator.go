// Package checkout turns a cart into a persisted sale. The Coordinator runs
// one attempt at a time through Idle, Validating, Committing and then
// Completed or Failed.
package checkout

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
	"github.com/xenking/tiendita-pos/internal/domain/cart"
	"github.com/xenking/tiendita-pos/internal/domain/catalog"
	"github.com/xenking/tiendita-pos/internal/domain/payment"
	"github.com/xenking/tiendita-pos/internal/domain/sale"
)

const instrumentationName = "github.com/xenking/tiendita-pos/internal/domain/checkout"

// StockUpdater receives the quantities sold by a committed sale.
type StockUpdater interface {
	ApplySale(items []catalog.SoldItem)
}

// Request is a payment submitted at the register.
type Request struct {
	Method       sale.PaymentMethod
	CashReceived decimal.Decimal
}

// Quote previews what a Request would charge.
type Quote struct {
	Summary    cart.Summary
	Total      decimal.Decimal
	Change     decimal.Decimal
	Sufficient bool
}

// Result is a completed checkout.
type Result struct {
	Sale        *sale.Sale
	Change      decimal.Decimal
	PaymentLink string
}

// Options configures a Coordinator. Zero values fall back to no-op telemetry.
type Options struct {
	Links          payment.Repository
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Coordinator sequences the write-then-clear protocol for one cart.
type Coordinator struct {
	cart  *cart.Cart
	stock StockUpdater
	sales sale.Repository
	links payment.Repository
	now   func() time.Time

	status atomic.Int32

	tracer    trace.Tracer
	completed metric.Int64Counter
	failed    metric.Int64Counter
}

// NewCoordinator returns an idle coordinator for c.
func NewCoordinator(c *cart.Cart, stock StockUpdater, sales sale.Repository, opts Options) (*Coordinator, error) {
	if opts.TracerProvider == nil {
		opts.TracerProvider = tracenoop.NewTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = metricnoop.NewMeterProvider()
	}
	meter := opts.MeterProvider.Meter(instrumentationName)

	completed, err := meter.Int64Counter("pos.checkout.completed",
		metric.WithDescription("Sales committed by checkout"))
	if err != nil {
		return nil, errors.Wrap(err, "completed counter")
	}
	failed, err := meter.Int64Counter("pos.checkout.failed",
		metric.WithDescription("Checkout attempts that ended in failure"))
	if err != nil {
		return nil, errors.Wrap(err, "failed counter")
	}

	return &Coordinator{
		cart:      c,
		stock:     stock,
		sales:     sales,
		links:     opts.Links,
		now:       time.Now,
		tracer:    opts.TracerProvider.Tracer(instrumentationName),
		completed: completed,
		failed:    failed,
	}, nil
}

// Status returns the phase of the current or last attempt.
func (c *Coordinator) Status() Status {
	return Status(c.status.Load())
}

// Quote computes the total and change for req without side effects.
func (c *Coordinator) Quote(req Request) (Quote, error) {
	if c.cart.IsEmpty() {
		return Quote{}, ErrEmptyCart
	}
	if !req.Method.Valid() {
		return Quote{}, errors.Wrapf(ErrInvalidPaymentMethod, "%q", req.Method)
	}
	summary := c.cart.Summary()
	total := summary.Total.Round(2)
	q := Quote{
		Summary:    summary,
		Total:      total,
		Change:     decimal.Zero,
		Sufficient: true,
	}
	if req.Method.IsCash() {
		q.Change = Change(req.CashReceived, total)
		q.Sufficient = req.CashReceived.GreaterThanOrEqual(total)
	}
	return q, nil
}

// Complete validates req against the cart, persists the sale and clears the
// cart. On any error the cart is unchanged. A call made while another attempt
// is validating or committing fails with ErrCheckoutInProgress.
func (c *Coordinator) Complete(ctx context.Context, req Request) (*Result, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}

	q, err := c.Quote(req)
	if err != nil {
		return nil, c.fail(ctx, err)
	}
	if !q.Sufficient {
		return nil, c.fail(ctx, &PaymentError{Total: q.Total, Received: req.CashReceived})
	}
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, c.fail(ctx, err)
	}

	if err := c.transition(StatusCommitting); err != nil {
		return nil, err
	}
	s := c.buildSale(userID, req.Method, q)

	ctx, span := c.tracer.Start(ctx, "checkout.Commit", trace.WithAttributes(
		attribute.String("pos.payment_method", string(req.Method)),
		attribute.Int("pos.items", len(s.Items)),
	))
	defer span.End()

	if err := c.sales.Create(ctx, s); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create sale")
		return nil, c.fail(ctx, &persistenceError{cause: err})
	}
	span.SetAttributes(attribute.String("pos.sale_id", s.ID))

	sold := make([]catalog.SoldItem, len(s.Items))
	for i, it := range s.Items {
		sold[i] = catalog.SoldItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	c.stock.ApplySale(sold)
	c.cart.Clear()

	res := &Result{Sale: s, Change: q.Change}
	if !req.Method.IsCash() {
		res.PaymentLink = c.paymentLink(ctx, req.Method)
	}

	if err := c.transition(StatusCompleted); err != nil {
		return nil, err
	}
	c.completed.Add(ctx, 1, metric.WithAttributes(attribute.String("method", string(req.Method))))
	return res, nil
}

// Cancel returns a finished or failed attempt to Idle. While an attempt is
// validating or committing it fails with ErrCheckoutInProgress.
func (c *Coordinator) Cancel() error {
	return c.transition(StatusIdle)
}

// Change returns the cash to give back, never negative.
func Change(received, total decimal.Decimal) decimal.Decimal {
	change := received.Sub(total)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}

func (c *Coordinator) begin() error {
	return c.transition(StatusValidating)
}

// transition moves the status to next if the current status allows it.
func (c *Coordinator) transition(next Status) error {
	for {
		cur := Status(c.status.Load())
		if !cur.CanTransitionTo(next) {
			if cur.InProgress() {
				return ErrCheckoutInProgress
			}
			return errors.Errorf("checkout: %s cannot follow %s", next, cur)
		}
		if c.status.CompareAndSwap(int32(cur), int32(next)) {
			return nil
		}
	}
}

func (c *Coordinator) fail(ctx context.Context, err error) error {
	if terr := c.transition(StatusFailed); terr != nil {
		zctx.From(ctx).Warn("Checkout status not updated", zap.Error(terr))
	}
	c.failed.Add(ctx, 1)
	return err
}

func (c *Coordinator) buildSale(userID string, method sale.PaymentMethod, q Quote) *sale.Sale {
	lines := c.cart.Lines()
	items := make([]sale.Item, len(lines))
	for i, l := range lines {
		items[i] = sale.Item{
			ProductID:   l.ProductID,
			ProductName: l.Name,
			UnitPrice:   l.Price,
			Quantity:    l.Quantity,
			Subtotal:    l.Subtotal(),
		}
	}
	return &sale.Sale{
		ID:              uuid.New().String(),
		UserID:          userID,
		Subtotal:        q.Summary.Subtotal.Round(2),
		DiscountPercent: c.cart.DiscountPercent(),
		Total:           q.Total,
		PaymentMethod:   method,
		Items:           items,
		CreatedAt:       c.now(),
	}
}

// paymentLink looks up the link shown to the customer. The sale is already
// committed, so a lookup failure is only logged.
func (c *Coordinator) paymentLink(ctx context.Context, method sale.PaymentMethod) string {
	if c.links == nil {
		return ""
	}
	link, _, err := payment.ActiveLink(ctx, c.links, method)
	if err != nil {
		zctx.From(ctx).Warn("Payment link lookup failed",
			zap.String("method", string(method)),
			zap.Error(err),
		)
		return ""
	}
	return link
}
