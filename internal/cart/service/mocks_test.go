package service

import (
	"context"
	"sync"
	"time"

	"github.com/RohitVelivela/vijaybrothers/internal/cart/cache"
	"github.com/RohitVelivela/vijaybrothers/internal/cart/repository"
	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

// mockRepository keeps one cart and enforces the same version check as the
// Mongo repository.
type mockRepository struct {
	m         sync.Mutex
	cart      *domain.Cart
	err       error
	conflicts int // SaveCart calls to fail with ErrVersionConflict
	saves     int
}

func (m *mockRepository) GetCart(context.Context, string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, repository.ErrCartNotFound
	}
	c := *m.cart
	c.Items = append([]domain.CartItem(nil), m.cart.Items...)
	return &c, nil
}

func (m *mockRepository) SaveCart(_ context.Context, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	if m.conflicts > 0 {
		m.conflicts--
		return repository.ErrVersionConflict
	}
	var current int64
	if m.cart != nil {
		current = m.cart.Version
	}
	if c.Version != current {
		return repository.ErrVersionConflict
	}
	if c.ID == "" {
		c.ID = "cart-" + c.GuestID
	}
	c.Version++
	stored := *c
	stored.Items = append([]domain.CartItem(nil), c.Items...)
	m.cart = &stored
	return nil
}

func (m *mockRepository) saveCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.saves
}

// mockCache mirrors the Redis cache contract: Set keeps a newer cached
// version. setDelay holds back the first Set, like a slow refill.
type mockCache struct {
	m        sync.RWMutex
	cart     *domain.Cart
	err      error
	setErr   error
	deletes  int
	sets     int
	setDelay time.Duration
	delayed  bool
	stalled  chan struct{} // closed once the delayed Set has started
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	delay := time.Duration(0)
	if !m.delayed {
		m.delayed = true
		delay = m.setDelay
		if m.stalled != nil {
			close(m.stalled)
		}
	}
	m.m.Unlock()
	time.Sleep(delay)

	m.m.Lock()
	defer m.m.Unlock()
	m.sets++
	if m.err != nil {
		return m.err
	}
	if m.setErr != nil {
		return m.setErr
	}
	if m.cart != nil && m.cart.Version > cart.Version {
		return nil
	}
	m.cart = cart
	return nil
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	m.deletes++
	return m.err
}

func (m *mockCache) setCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.sets
}

func (m *mockCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

type mockCatalog struct {
	products map[int64]*domain.Product
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func sareeCatalog() *mockCatalog {
	return &mockCatalog{products: map[int64]*domain.Product{
		1: {ID: 1, Name: "Kanjivaram Silk", Image: "kanjivaram.jpg", Price: 120000, Active: true},
		2: {ID: 2, Name: "Banarasi Brocade", Image: "banarasi.jpg", Price: 349950, Heavy: true, Active: true},
	}}
}
