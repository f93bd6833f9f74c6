package product

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrInvalid is returned when product fields fail validation.
	ErrInvalid = errors.New("invalid product")
)

// Category groups products on the register screen.
type Category string

const (
	CategoryDrinks   Category = "bebidas"
	CategoryFood     Category = "comida"
	CategoryDesserts Category = "postres"
	CategoryOther    Category = "otros"

	// CategoryAll is the filter value matching every category. It is never
	// stored on a product.
	CategoryAll Category = "todos"
)

// Valid reports whether c is one of the storable categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryDrinks, CategoryFood, CategoryDesserts, CategoryOther:
		return true
	default:
		return false
	}
}

// Product represents a sellable catalog item.
type Product struct {
	ID        int64
	UserID    string
	Code      string
	Name      string
	Category  Category
	Price     decimal.Decimal
	Stock     int
	CreatedAt time.Time
}

// Validate checks the invariants every stored product must hold.
func (p Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Code) == "":
		return errors.Wrap(ErrInvalid, "code required")
	case strings.TrimSpace(p.Name) == "":
		return errors.Wrap(ErrInvalid, "name required")
	case !p.Category.Valid():
		return errors.Wrapf(ErrInvalid, "unknown category %q", p.Category)
	case p.Price.IsNegative():
		return errors.Wrap(ErrInvalid, "price must not be negative")
	case p.Stock < 0:
		return errors.Wrap(ErrInvalid, "stock must not be negative")
	}
	return nil
}

// Patch holds a partial product update. Nil fields are left untouched.
type Patch struct {
	Code     *string
	Name     *string
	Category *Category
	Price    *decimal.Decimal
	Stock    *int
}

// Apply returns p with the non-nil patch fields applied.
func (pt Patch) Apply(p Product) Product {
	if pt.Code != nil {
		p.Code = *pt.Code
	}
	if pt.Name != nil {
		p.Name = *pt.Name
	}
	if pt.Category != nil {
		p.Category = *pt.Category
	}
	if pt.Price != nil {
		p.Price = *pt.Price
	}
	if pt.Stock != nil {
		p.Stock = *pt.Stock
	}
	return p
}

// Repository defines catalog persistence. Implementations scope every call
// to the user carried by ctx.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p Product) (*Product, error)
	Update(ctx context.Context, id int64, patch Patch) (*Product, error)
	Delete(ctx context.Context, id int64) error
	DecrementStock(ctx context.Context, id int64, amount int) (*Product, error)
}
