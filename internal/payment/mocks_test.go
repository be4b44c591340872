package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/payment/gateway"
)

const testSecret = "test-secret"

type mockGateway struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
}

func (m *mockGateway) CreateOrder(_ context.Context, _ domain.Money, _, receipt string) (string, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.mu.Unlock()
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("order_%s_%d", receipt, n), nil
}

func (m *mockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return gateway.VerifySignature(orderID, paymentID, signature, testSecret)
}

func (m *mockGateway) KeyID() string { return "rzp_test_key" }

func (m *mockGateway) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockPaymentStore struct {
	mu        sync.Mutex
	byReceipt map[string]*domain.PaymentOrder
}

func newMockPaymentStore() *mockPaymentStore {
	return &mockPaymentStore{byReceipt: map[string]*domain.PaymentOrder{}}
}

func (m *mockPaymentStore) CreatePaymentOrder(_ context.Context, po *domain.PaymentOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byReceipt[po.Receipt]; ok {
		return ErrDuplicateReceipt
	}
	stored := *po
	m.byReceipt[po.Receipt] = &stored
	return nil
}

func (m *mockPaymentStore) GetByReceipt(_ context.Context, receipt string) (*domain.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.byReceipt[receipt]
	if !ok {
		return nil, ErrPaymentOrderNotFound
	}
	out := *po
	return &out, nil
}

func (m *mockPaymentStore) GetByRazorpayOrderID(_ context.Context, id string) (*domain.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, po := range m.byReceipt {
		if po.RazorpayOrderID == id {
			out := *po
			return &out, nil
		}
	}
	return nil, ErrPaymentOrderNotFound
}

type mockOrderStore struct {
	mu      sync.Mutex
	orders  map[string]*domain.Order
	markErr error
	marked  int
}

func (m *mockOrderStore) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	out := *o
	return &out, nil
}

func (m *mockOrderStore) MarkPaid(_ context.Context, id, paymentID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return nil, m.markErr
	}
	o := m.orders[id]
	if o.IsPaid() && o.PaymentID != paymentID {
		return nil, ErrOrderAlreadyPaid
	}
	if !o.IsPaid() {
		m.marked++
	}
	o.PaymentStatus = domain.PaymentStatusPaid
	o.Status = domain.OrderStatusConfirmed
	o.PaymentID = paymentID
	out := *o
	return &out, nil
}

func pendingOrder() *mockOrderStore {
	return &mockOrderStore{orders: map[string]*domain.Order{
		"order-1": {
			OrderID:       "order-1",
			OrderNumber:   "VB-20261017-ABC123",
			GuestID:       "guest-1",
			Totals:        domain.Totals{Subtotal: 240000, Shipping: 5000, GrandTotal: 245000},
			Currency:      domain.Currency,
			Status:        domain.OrderStatusPending,
			PaymentStatus: domain.PaymentStatusUnpaid,
		},
	}}
}
