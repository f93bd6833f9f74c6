// Package memory keeps register carts in process memory. It backs the cart
// cache when Redis is not configured; carts do not survive a restart.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/tiendita-pos/internal/domain/cart"
	"github.com/xenking/tiendita-pos/internal/domain/register"
)

var _ register.CartStore = (*CartStore)(nil)

type CartStore struct {
	mu    sync.RWMutex
	carts map[string]cart.State
}

func NewCartStore() *CartStore {
	return &CartStore{carts: map[string]cart.State{}}
}

func (s *CartStore) Load(_ context.Context, userID string) (*cart.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.carts[userID]
	if !ok {
		return nil, nil
	}
	st.Lines = slices.Clone(st.Lines)
	return &st, nil
}

func (s *CartStore) Save(_ context.Context, userID string, st cart.State) error {
	st.Lines = slices.Clone(st.Lines)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = st
	return nil
}

func (s *CartStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}
