package orders

import (
	"context"
	"sync"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

type mockStore struct {
	mu        sync.Mutex
	byReceipt map[string]*domain.Order
	created   []*domain.Order
	createErr []error // returned by successive CreateOrder calls before succeeding
	getErr    error
}

func newMockStore() *mockStore {
	return &mockStore{byReceipt: map[string]*domain.Order{}}
}

func (m *mockStore) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.createErr) > 0 {
		err := m.createErr[0]
		m.createErr = m.createErr[1:]
		return err
	}
	if _, ok := m.byReceipt[order.Receipt]; ok {
		return ErrDuplicateReceipt
	}
	stored := *order
	m.byReceipt[order.Receipt] = &stored
	m.created = append(m.created, &stored)
	return nil
}

func (m *mockStore) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byReceipt {
		if o.OrderID == orderID {
			return o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (m *mockStore) GetOrderByReceipt(_ context.Context, receipt string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	o, ok := m.byReceipt[receipt]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

type mockProducts struct {
	products map[int64]*domain.Product
	err      error
}

func (m *mockProducts) GetProducts(_ context.Context, ids []int64) (map[int64]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := map[int64]*domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type mockShipping struct {
	charge   domain.Money
	err      error
	gotIDs   []int64
	gotTotal domain.Money
}

func (m *mockShipping) Calculate(_ context.Context, ids []int64, total domain.Money) (domain.ShippingConfig, error) {
	m.gotIDs = ids
	m.gotTotal = total
	if m.err != nil {
		return domain.ShippingConfig{}, m.err
	}
	return domain.ShippingConfig{ShippingCharge: m.charge}, nil
}
