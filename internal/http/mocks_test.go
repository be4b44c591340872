package http

import (
	"context"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/orders"
	"github.com/RohitVelivela/vijaybrothers/internal/payment"
)

type cartCall struct {
	guestID   string
	productID int64
	quantity  int
	expected  int64
}

type mockCartService struct {
	view  domain.CartView
	err   error
	calls []cartCall
}

func (m *mockCartService) record(c cartCall) (domain.CartView, error) {
	m.calls = append(m.calls, c)
	if m.err != nil {
		return domain.CartView{}, m.err
	}
	return m.view, nil
}

func (m *mockCartService) GetCart(_ context.Context, guestID string) (domain.CartView, error) {
	return m.record(cartCall{guestID: guestID})
}

func (m *mockCartService) AddItem(_ context.Context, guestID string, productID int64, quantity int, expected int64) (domain.CartView, error) {
	return m.record(cartCall{guestID, productID, quantity, expected})
}

func (m *mockCartService) UpdateQuantity(_ context.Context, guestID string, productID int64, quantity int, expected int64) (domain.CartView, error) {
	return m.record(cartCall{guestID, productID, quantity, expected})
}

func (m *mockCartService) RemoveItem(_ context.Context, guestID string, productID int64, expected int64) (domain.CartView, error) {
	return m.record(cartCall{guestID: guestID, productID: productID, expected: expected})
}

func (m *mockCartService) ClearCart(_ context.Context, guestID string, expected int64) (domain.CartView, error) {
	return m.record(cartCall{guestID: guestID, expected: expected})
}

type mockShipping struct {
	cfg        domain.ShippingConfig
	err        error
	productIDs []int64
	total      domain.Money
}

func (m *mockShipping) Calculate(_ context.Context, productIDs []int64, orderTotal domain.Money) (domain.ShippingConfig, error) {
	m.productIDs = productIDs
	m.total = orderTotal
	return m.cfg, m.err
}

type mockOrders struct {
	initiated domain.InitiatedOrder
	order     *domain.Order
	err       error
	lastReq   orders.InitiateRequest
}

func (m *mockOrders) Initiate(_ context.Context, _ string, req orders.InitiateRequest) (domain.InitiatedOrder, error) {
	m.lastReq = req
	return m.initiated, m.err
}

func (m *mockOrders) GetOrder(_ context.Context, guestID, orderID string) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.order == nil || m.order.OrderID != orderID || m.order.GuestID != guestID {
		return nil, domain.ErrOrderNotFound
	}
	return m.order, nil
}

type mockPayments struct {
	po     *domain.PaymentOrder
	result domain.VerificationResult
	err    error
}

func (m *mockPayments) CreatePaymentOrder(_ context.Context, _ string, req payment.CreateRequest) (*domain.PaymentOrder, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.po, nil
}

func (m *mockPayments) Verify(_ context.Context, _ string, _ domain.PaymentVerification) (domain.VerificationResult, error) {
	return m.result, m.err
}

func (m *mockPayments) KeyID() string {
	return "rzp_test_key"
}
