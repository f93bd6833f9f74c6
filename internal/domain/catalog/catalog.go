// Package catalog keeps the register's local copy of the product list. The
// copy is a cache: the repository stays authoritative and every write goes
// through it before the snapshot is re-fetched.
package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/tiendita-pos/internal/domain/product"
)

// SoldItem is a quantity of one product removed from stock by a sale.
type SoldItem struct {
	ProductID int64
	Quantity  int
}

// Snapshot is a read-mostly cache of the catalog. It is safe for concurrent
// use.
type Snapshot struct {
	repo product.Repository
	now  func() time.Time

	sf singleflight.Group

	mu       sync.RWMutex
	products []product.Product
	byID     map[int64]int
	loadedAt time.Time
}

// NewSnapshot returns an empty snapshot backed by repo. Call Refresh to load it.
func NewSnapshot(repo product.Repository) *Snapshot {
	return &Snapshot{
		repo: repo,
		now:  time.Now,
		byID: map[int64]int{},
	}
}

// Refresh re-fetches the product list. Concurrent calls share one fetch.
func (s *Snapshot) Refresh(ctx context.Context) error {
	_, err, _ := s.sf.Do("refresh", func() (any, error) {
		products, err := s.repo.List(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "list products")
		}
		s.replace(products)
		return nil, nil
	})
	return err
}

// LoadedAt returns when the snapshot was last refreshed; zero if never.
func (s *Snapshot) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// All returns a copy of the cached products.
func (s *Snapshot) All() []product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

// Product returns the cached product with the given id.
func (s *Snapshot) Product(id int64) (product.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return product.Product{}, false
	}
	return s.products[i], true
}

// Search filters the cached products without touching the repository.
func (s *Snapshot) Search(f product.Filter) []product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f.Apply(s.products)
}

// Create stores a new product and refreshes the snapshot.
func (s *Snapshot) Create(ctx context.Context, p product.Product) (*product.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return created, s.Refresh(ctx)
}

// QuickAdd creates a product from just a name and price: category otros,
// zero stock and a generated code.
func (s *Snapshot) QuickAdd(ctx context.Context, name string, price decimal.Decimal) (*product.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Wrap(product.ErrInvalid, "name required")
	}
	if !price.IsPositive() {
		return nil, errors.Wrap(product.ErrInvalid, "price must be greater than 0")
	}
	return s.Create(ctx, product.Product{
		Code:     fmt.Sprintf("PROD%d", s.now().UnixMilli()),
		Name:     name,
		Category: product.CategoryOther,
		Price:    price,
		Stock:    0,
	})
}

// Update applies patch to the stored product and refreshes the snapshot.
func (s *Snapshot) Update(ctx context.Context, id int64, patch product.Patch) (*product.Product, error) {
	if cached, ok := s.Product(id); ok {
		if err := patch.Apply(cached).Validate(); err != nil {
			return nil, err
		}
	}
	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, errors.Wrapf(err, "update product %d", id)
	}
	return updated, s.Refresh(ctx)
}

// Delete removes the stored product and refreshes the snapshot.
func (s *Snapshot) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete product %d", id)
	}
	return s.Refresh(ctx)
}

// ApplySale decrements cached stock for sold items after the repository has
// committed the sale. Stock never drops below zero locally.
func (s *Snapshot) ApplySale(items []SoldItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		i, ok := s.byID[it.ProductID]
		if !ok {
			continue
		}
		s.products[i].Stock = max(0, s.products[i].Stock-it.Quantity)
	}
}

func (s *Snapshot) replace(products []product.Product) {
	byID := make(map[int64]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	s.byID = byID
	s.loadedAt = s.now()
}
