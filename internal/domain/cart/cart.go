// Package cart implements the in-memory shopping cart of a register: line
// items, stock checks against the catalog snapshot and pricing math.
package cart

import (
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/tiendita-pos/internal/domain/product"
)

var hundred = decimal.NewFromInt(100)

// discountScale is the number of decimal places a discount may carry.
const discountScale = 2

// Catalog resolves products for stock checks and price snapshots.
type Catalog interface {
	Product(id int64) (product.Product, bool)
}

// Line is one product entry in the cart.
//
// Name and Price are copied from the catalog when the line is created and
// are never refreshed afterwards: the cart keeps the price quoted to the
// customer even if the catalog price changes before checkout.
type Line struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns Price × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Summary holds the derived money values of a cart.
type Summary struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// State is the serializable form of a cart, used by the cart cache.
type State struct {
	Lines           []Line          `json:"lines"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

// Cart is the aggregate of one pending sale. It is not safe for concurrent
// use; the owning register serializes access.
type Cart struct {
	catalog  Catalog
	lines    []Line
	discount decimal.Decimal
}

// New returns an empty cart that checks stock against catalog.
func New(catalog Catalog) *Cart {
	return &Cart{catalog: catalog}
}

// Restore returns a cart holding the lines and discount of s. Lines keep
// their stored price snapshots.
func Restore(catalog Catalog, s State) (*Cart, error) {
	if err := validateDiscount(s.DiscountPercent); err != nil {
		return nil, err
	}
	c := New(catalog)
	for _, l := range s.Lines {
		if l.Quantity <= 0 {
			continue
		}
		if c.index(l.ProductID) >= 0 {
			return nil, errors.Errorf("duplicate line for product %d", l.ProductID)
		}
		c.lines = append(c.lines, l)
	}
	c.discount = s.DiscountPercent
	return c, nil
}

// State returns a copy of the cart contents.
func (c *Cart) State() State {
	return State{Lines: c.Lines(), DiscountPercent: c.discount}
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	return slices.Clone(c.lines)
}

// Line returns the line for productID, if present.
func (c *Cart) Line(productID int64) (Line, bool) {
	i := c.index(productID)
	if i < 0 {
		return Line{}, false
	}
	return c.lines[i], true
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// DiscountPercent returns the current discount percentage.
func (c *Cart) DiscountPercent() decimal.Decimal {
	return c.discount
}

// Add puts one unit of productID in the cart.
func (c *Cart) Add(productID int64) (Line, error) {
	p, ok := c.catalog.Product(productID)
	if !ok {
		return Line{}, errors.Wrapf(product.ErrNotFound, "product %d", productID)
	}
	if p.Stock <= 0 {
		return Line{}, &StockError{ProductID: productID, Available: p.Stock, Requested: 1, err: ErrOutOfStock}
	}

	if i := c.index(productID); i >= 0 {
		l := &c.lines[i]
		if l.Quantity >= p.Stock {
			return Line{}, &StockError{ProductID: productID, Available: p.Stock, Requested: l.Quantity + 1, err: ErrInsufficientStock}
		}
		l.Quantity++
		return *l, nil
	}

	l := Line{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  1,
	}
	c.lines = append(c.lines, l)
	return l, nil
}

// ChangeQuantity adds delta to the quantity of productID. A resulting
// quantity of zero or less removes the line. Any other result must not
// exceed the current catalog stock, whatever the sign of delta; a product
// missing from the catalog counts as zero stock.
// The returned bool is false when the line was removed.
func (c *Cart) ChangeQuantity(productID int64, delta int) (Line, bool, error) {
	i := c.index(productID)
	if i < 0 {
		return Line{}, false, errors.Wrapf(ErrLineNotFound, "product %d", productID)
	}

	newQty := c.lines[i].Quantity + delta
	if newQty <= 0 {
		c.Remove(productID)
		return Line{}, false, nil
	}

	available := 0
	if p, ok := c.catalog.Product(productID); ok {
		available = p.Stock
	}
	if newQty > available {
		return Line{}, false, &StockError{ProductID: productID, Available: available, Requested: newQty, err: ErrInsufficientStock}
	}

	c.lines[i].Quantity = newQty
	return c.lines[i], true, nil
}

// Remove deletes the line for productID. Absent lines are ignored.
func (c *Cart) Remove(productID int64) {
	c.lines = slices.DeleteFunc(c.lines, func(l Line) bool {
		return l.ProductID == productID
	})
}

// Clear empties the cart and resets the discount.
func (c *Cart) Clear() {
	c.lines = nil
	c.discount = decimal.Zero
}

// SetDiscount sets the discount percentage. Values outside [0, 100] or with
// more than two decimal places are rejected, not clamped or rounded.
func (c *Cart) SetDiscount(percent decimal.Decimal) error {
	if err := validateDiscount(percent); err != nil {
		return err
	}
	c.discount = percent
	return nil
}

// Summary computes subtotal, discount amount and total from the current
// lines and discount.
func (c *Cart) Summary() Summary {
	subtotal := decimal.Zero
	for _, l := range c.lines {
		subtotal = subtotal.Add(l.Subtotal())
	}
	discountAmount := subtotal.Mul(c.discount).Div(hundred)
	return Summary{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Total:          subtotal.Sub(discountAmount),
	}
}

func (c *Cart) index(productID int64) int {
	return slices.IndexFunc(c.lines, func(l Line) bool {
		return l.ProductID == productID
	})
}

func validateDiscount(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return errors.Wrapf(ErrInvalidDiscount, "got %s", percent)
	}
	// Stored as NUMERIC(5,2).
	if !percent.Equal(percent.Round(discountScale)) {
		return errors.Wrapf(ErrInvalidDiscount, "at most %d decimal places, got %s", discountScale, percent)
	}
	return nil
}
