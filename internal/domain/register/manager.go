package register

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
	"github.com/xenking/tiendita-pos/internal/domain/cart"
	"github.com/xenking/tiendita-pos/internal/domain/catalog"
	"github.com/xenking/tiendita-pos/internal/domain/checkout"
	"github.com/xenking/tiendita-pos/internal/domain/product"
	"github.com/xenking/tiendita-pos/internal/domain/sale"
)

// Manager holds one Register per signed-in user.
type Manager struct {
	products product.Repository
	sales    sale.Repository
	store    CartStore
	opts     checkout.Options

	sf        singleflight.Group
	mu        sync.RWMutex
	registers map[string]*Register
}

// NewManager creates a Manager. opts is passed to every checkout coordinator.
func NewManager(products product.Repository, sales sale.Repository, store CartStore, opts checkout.Options) *Manager {
	return &Manager{
		products:  products,
		sales:     sales,
		store:     store,
		opts:      opts,
		registers: map[string]*Register{},
	}
}

// Get returns the register of the user in ctx, opening it on first use: the
// catalog is loaded and any cached cart restored.
func (m *Manager) Get(ctx context.Context) (*Register, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	r, ok := m.registers[userID]
	m.mu.RUnlock()
	if ok {
		return r, nil
	}

	v, err, _ := m.sf.Do(userID, func() (any, error) {
		m.mu.RLock()
		r, ok := m.registers[userID]
		m.mu.RUnlock()
		if ok {
			return r, nil
		}

		r, err := m.open(ctx, userID)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.registers[userID] = r
		m.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Register), nil
}

// Close drops the register of userID. The cached cart is kept.
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.registers, userID)
}

// Len returns the number of open registers.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.registers)
}

func (m *Manager) open(ctx context.Context, userID string) (*Register, error) {
	snapshot := catalog.NewSnapshot(m.products)
	if err := snapshot.Refresh(ctx); err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}

	c := m.restoreCart(ctx, userID, snapshot)
	coord, err := checkout.NewCoordinator(c, snapshot, m.sales, m.opts)
	if err != nil {
		return nil, errors.Wrap(err, "create checkout")
	}

	zctx.From(ctx).Debug("Register opened",
		zap.String("user_id", userID),
		zap.Int("products", len(snapshot.All())),
		zap.Time("catalog_loaded_at", snapshot.LoadedAt()),
		zap.Int("cart_lines", len(c.Lines())),
	)
	return &Register{
		userID:   userID,
		store:    m.store,
		catalog:  snapshot,
		cart:     c,
		checkout: coord,
	}, nil
}

// restoreCart returns the cached cart of userID, or an empty one when none
// is stored or the stored one is unusable.
func (m *Manager) restoreCart(ctx context.Context, userID string, snapshot *catalog.Snapshot) *cart.Cart {
	lg := zctx.From(ctx).With(zap.String("user_id", userID))

	state, err := m.store.Load(ctx, userID)
	if err != nil {
		lg.Warn("Cart cache read failed", zap.Error(err))
		return cart.New(snapshot)
	}
	if state == nil {
		return cart.New(snapshot)
	}

	c, err := cart.Restore(snapshot, *state)
	if err != nil {
		lg.Warn("Discarding cached cart", zap.Error(err))
		if err := m.store.Delete(ctx, userID); err != nil {
			lg.Warn("Cart cache delete failed", zap.Error(err))
		}
		return cart.New(snapshot)
	}
	return c
}
