package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/tiendita-pos/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	mu       sync.Mutex
	products []product.Product
	nextID   int64
	listErr  error
	lists    atomic.Int32
	block    chan struct{}
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	m.lists.Add(1)
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]product.Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) Create(_ context.Context, p product.Product) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	m.products = append(m.products, p)
	return &p, nil
}

func (m *mockProductRepo) Update(_ context.Context, id int64, patch product.Patch) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.products {
		if p.ID == id {
			m.products[i] = patch.Apply(p)
			out := m.products[i]
			return &out, nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.products {
		if p.ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return product.ErrNotFound
}

func (m *mockProductRepo) DecrementStock(_ context.Context, id int64, amount int) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.products {
		if p.ID == id {
			m.products[i].Stock -= amount
			out := m.products[i]
			return &out, nil
		}
	}
	return nil, product.ErrNotFound
}

func newTestProduct(id int64, code, name string, cat product.Category, stock int) product.Product {
	return product.Product{
		ID:       id,
		Code:     code,
		Name:     name,
		Category: cat,
		Price:    decimal.NewFromInt(10),
		Stock:    stock,
	}
}

func newLoadedSnapshot(t *testing.T, products ...product.Product) (*Snapshot, *mockProductRepo) {
	t.Helper()
	repo := &mockProductRepo{products: products, nextID: int64(len(products))}
	s := NewSnapshot(repo)
	require.NoError(t, s.Refresh(context.Background()))
	return s, repo
}

// --- Tests ---

func TestRefreshAndLookup(t *testing.T) {
	s, _ := newLoadedSnapshot(t,
		newTestProduct(1, "BEB-1", "Agua", product.CategoryDrinks, 3),
		newTestProduct(2, "COM-1", "Torta", product.CategoryFood, 1),
	)

	assert.Len(t, s.All(), 2)
	assert.False(t, s.LoadedAt().IsZero())

	p, ok := s.Product(2)
	require.True(t, ok)
	assert.Equal(t, "Torta", p.Name)

	_, ok = s.Product(99)
	assert.False(t, ok)
}

func TestRefresh_Error(t *testing.T) {
	repo := &mockProductRepo{listErr: errors.New("db down")}
	s := NewSnapshot(repo)

	err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list products")
	assert.Empty(t, s.All())
}

func TestRefresh_Coalesced(t *testing.T) {
	repo := &mockProductRepo{block: make(chan struct{})}
	s := NewSnapshot(repo)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Refresh(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return repo.lists.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(repo.block)
	wg.Wait()

	assert.Less(t, repo.lists.Load(), int32(5))
}

func TestSearch(t *testing.T) {
	s, _ := newLoadedSnapshot(t,
		newTestProduct(1, "BEB-1", "Agua Natural", product.CategoryDrinks, 3),
		newTestProduct(2, "BEB-2", "Café", product.CategoryDrinks, 3),
		newTestProduct(3, "POS-1", "Flan", product.CategoryDesserts, 3),
	)

	assert.Len(t, s.Search(product.Filter{Category: product.CategoryAll}), 3)
	assert.Len(t, s.Search(product.Filter{Category: product.CategoryDrinks}), 2)

	got := s.Search(product.Filter{Category: product.CategoryAll, Term: "pos"})
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
}

func TestCreateUpdateDelete_Refresh(t *testing.T) {
	s, repo := newLoadedSnapshot(t, newTestProduct(1, "BEB-1", "Agua", product.CategoryDrinks, 3))
	ctx := context.Background()

	created, err := s.Create(ctx, newTestProduct(0, "COM-1", "Torta", product.CategoryFood, 5))
	require.NoError(t, err)
	_, ok := s.Product(created.ID)
	assert.True(t, ok, "snapshot must include the created product")

	stock := 8
	_, err = s.Update(ctx, created.ID, product.Patch{Stock: &stock})
	require.NoError(t, err)
	p, _ := s.Product(created.ID)
	assert.Equal(t, 8, p.Stock)

	require.NoError(t, s.Delete(ctx, 1))
	_, ok = s.Product(1)
	assert.False(t, ok)
	assert.Len(t, repo.products, 1)
}

func TestCreate_Invalid(t *testing.T) {
	s, repo := newLoadedSnapshot(t)

	_, err := s.Create(context.Background(), product.Product{Name: "sin código", Category: product.CategoryFood})
	require.ErrorIs(t, err, product.ErrInvalid)
	assert.Empty(t, repo.products)
}

func TestUpdate_InvalidPatch(t *testing.T) {
	s, _ := newLoadedSnapshot(t, newTestProduct(1, "BEB-1", "Agua", product.CategoryDrinks, 3))

	negative := -1
	_, err := s.Update(context.Background(), 1, product.Patch{Stock: &negative})
	require.ErrorIs(t, err, product.ErrInvalid)
}

func TestDelete_NotFound(t *testing.T) {
	s, _ := newLoadedSnapshot(t)

	err := s.Delete(context.Background(), 5)
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestQuickAdd(t *testing.T) {
	s, _ := newLoadedSnapshot(t)
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }
	ctx := context.Background()

	p, err := s.QuickAdd(ctx, " Chicle ", decimal.RequireFromString("3.50"))
	require.NoError(t, err)
	assert.Equal(t, "PROD1700000000123", p.Code)
	assert.Equal(t, "Chicle", p.Name)
	assert.Equal(t, product.CategoryOther, p.Category)
	assert.Equal(t, 0, p.Stock)

	_, err = s.QuickAdd(ctx, "Gratis", decimal.Zero)
	require.ErrorIs(t, err, product.ErrInvalid)

	_, err = s.QuickAdd(ctx, "", decimal.NewFromInt(1))
	require.ErrorIs(t, err, product.ErrInvalid)
}

func TestApplySale(t *testing.T) {
	s, _ := newLoadedSnapshot(t,
		newTestProduct(1, "A", "A", product.CategoryFood, 5),
		newTestProduct(2, "B", "B", product.CategoryFood, 1),
	)

	s.ApplySale([]SoldItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 3}, {ProductID: 9, Quantity: 1}})

	a, _ := s.Product(1)
	b, _ := s.Product(2)
	assert.Equal(t, 3, a.Stock)
	assert.Equal(t, 0, b.Stock)
}
