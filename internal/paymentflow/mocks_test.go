package paymentflow

import (
	"context"
	"sync"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/payment"
	"github.com/RohitVelivela/vijaybrothers/internal/review"
)

type mockAPI struct {
	mu          sync.Mutex
	creates     []payment.CreateRequest
	createErr   error
	keyCalls    int
	result      domain.VerificationResult
	verifyErr   error
	verifyBlock chan struct{}
	verifyCtx   context.Context
}

func (m *mockAPI) CreatePaymentOrder(_ context.Context, req payment.CreateRequest) (*domain.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates = append(m.creates, req)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &domain.PaymentOrder{
		OrderID:         req.OrderID,
		RazorpayOrderID: "order_" + req.Receipt,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Receipt:         req.Receipt,
	}, nil
}

func (m *mockAPI) VerifyPayment(ctx context.Context, _ domain.PaymentVerification) (domain.VerificationResult, error) {
	m.mu.Lock()
	m.verifyCtx = ctx
	block := m.verifyBlock
	m.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.VerificationResult{}, ctx.Err()
		}
	}
	return m.result, m.verifyErr
}

func (m *mockAPI) PaymentKey(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyCalls++
	return "rzp_test_key", nil
}

type mockWidget struct {
	outcome Outcome
	err     error
	opened  []WidgetOptions
}

func (m *mockWidget) Open(_ context.Context, opts WidgetOptions) (Outcome, error) {
	m.opened = append(m.opened, opts)
	return m.outcome, m.err
}

type mockJournal struct {
	mu      sync.Mutex
	entries []review.Entry
	ctxErr  error
}

func (m *mockJournal) Record(ctx context.Context, e review.Entry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctxErr = ctx.Err()
	m.entries = append(m.entries, e)
	return int64(len(m.entries)), nil
}
