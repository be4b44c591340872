package checkout

import (
	"context"
	"sync"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/orders"
	"github.com/RohitVelivela/vijaybrothers/internal/paymentflow"
)

type mockCart struct {
	mu       sync.Mutex
	view     domain.CartView
	clears   int
	resets   int
	clearErr error
}

func cartWith(version int64, lines ...domain.CartLine) *mockCart {
	v := domain.CartView{CartID: "cart-1", GuestID: "guest-1", Lines: lines, Version: version}
	for _, l := range lines {
		v.Subtotal += l.Total()
		v.ItemCount += l.Quantity
	}
	return &mockCart{view: v}
}

func (m *mockCart) Cart() domain.CartView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

func (m *mockCart) Refresh(context.Context) domain.CartView {
	return m.Cart()
}

func (m *mockCart) Clear(context.Context) (domain.CartView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	if m.clearErr != nil {
		return domain.CartView{}, m.clearErr
	}
	m.view = domain.EmptyCartView("guest-1")
	return m.view, nil
}

func (m *mockCart) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	m.view = domain.EmptyCartView("guest-1")
}

func (m *mockCart) bump() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view.Version++
}

type mockAPI struct {
	shipping    domain.ShippingConfig
	shippingErr error
	initiateErr error
	initiates   []orders.InitiateRequest
	priced      domain.Money
}

func (m *mockAPI) CalculateShipping(context.Context, []int64, domain.Money) (domain.ShippingConfig, error) {
	return m.shipping, m.shippingErr
}

func (m *mockAPI) InitiateOrder(_ context.Context, req orders.InitiateRequest) (domain.InitiatedOrder, error) {
	m.initiates = append(m.initiates, req)
	if m.initiateErr != nil {
		return domain.InitiatedOrder{}, m.initiateErr
	}
	return domain.InitiatedOrder{OrderID: "o-" + req.Receipt, OrderNumber: "VB-20261017-ABC123", Amount: m.priced, Currency: "INR"}, nil
}

type openResult struct {
	v   domain.PaymentVerification
	err error
}

type mockPayments struct {
	mu       sync.Mutex
	memo     map[string]*domain.PaymentOrder
	creates  int
	opens    []openResult
	opened   []*domain.PaymentOrder
	result   domain.VerificationResult
	verify   error
	verifies int
	amounts  []domain.Money
}

func newMockPayments() *mockPayments {
	return &mockPayments{memo: make(map[string]*domain.PaymentOrder)}
}

func (m *mockPayments) EnsurePaymentOrder(_ context.Context, a paymentflow.Attempt) (*domain.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.amounts = append(m.amounts, a.Amount)
	if po, ok := m.memo[a.Receipt]; ok {
		return po, nil
	}
	m.creates++
	po := &domain.PaymentOrder{OrderID: a.OrderID, RazorpayOrderID: "order_" + a.Receipt, Amount: a.Amount, Currency: "INR", Receipt: a.Receipt}
	m.memo[a.Receipt] = po
	return po, nil
}

func (m *mockPayments) Open(_ context.Context, po *domain.PaymentOrder, _ paymentflow.Prefill) (domain.PaymentVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = append(m.opened, po)
	next := m.opens[0]
	if len(m.opens) > 1 {
		m.opens = m.opens[1:]
	}
	return next.v, next.err
}

func (m *mockPayments) Verify(context.Context, *domain.PaymentOrder, domain.PaymentVerification) (domain.VerificationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifies++
	return m.result, m.verify
}
