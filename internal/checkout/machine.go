// Package checkout walks a shopper from cart review to a paid order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/orders"
	"github.com/RohitVelivela/vijaybrothers/internal/paymentflow"
)

type Cart interface {
	Cart() domain.CartView
	Refresh(ctx context.Context) domain.CartView
}

type API interface {
	CalculateShipping(ctx context.Context, productIDs []int64, orderTotal domain.Money) (domain.ShippingConfig, error)
	InitiateOrder(ctx context.Context, req orders.InitiateRequest) (domain.InitiatedOrder, error)
}

type Payments interface {
	EnsurePaymentOrder(ctx context.Context, attempt paymentflow.Attempt) (*domain.PaymentOrder, error)
	Open(ctx context.Context, po *domain.PaymentOrder, prefill paymentflow.Prefill) (domain.PaymentVerification, error)
	Verify(ctx context.Context, po *domain.PaymentOrder, v domain.PaymentVerification) (domain.VerificationResult, error)
}

// attempt is one try at paying for a fixed cart and amount. Its receipt is
// reused across retries so the server never records the order twice.
type attempt struct {
	receipt      string
	cartVersion  int64
	amount       domain.Money
	initiated    *domain.InitiatedOrder
	paymentOrder *domain.PaymentOrder
}

type Machine struct {
	cart      Cart
	api       API
	payments  Payments
	finalizer *Finalizer
	log       *zap.Logger

	newReceipt func() string

	mu       sync.Mutex
	state    State
	draft    domain.CheckoutDraft
	snapshot domain.CartView
	shipping *domain.ShippingConfig
	attempt  *attempt
	order    *domain.Order
	lastErr  error
}

func NewMachine(cart Cart, api API, payments Payments, finalizer *Finalizer, log *zap.Logger) *Machine {
	return &Machine{
		cart:       cart,
		api:        api,
		payments:   payments,
		finalizer:  finalizer,
		log:        log,
		newReceipt: uuid.NewString,
		state:      StateCartReview,
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Draft returns a copy of the selections made so far.
func (m *Machine) Draft() domain.CheckoutDraft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// Shipping returns the shipping config computed for the current cart, if any.
func (m *Machine) Shipping() (domain.ShippingConfig, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shipping == nil {
		return domain.ShippingConfig{}, false
	}
	return *m.shipping, true
}

// Order returns the paid order once the machine is complete.
func (m *Machine) Order() *domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order
}

// LastError is the error that moved the machine to Failed.
func (m *Machine) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// ProceedToAddress leaves cart review. The cart must have at least one line.
func (m *Machine) ProceedToAddress(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(StateAddressEntry); err != nil {
		return err
	}
	if m.cart.Refresh(ctx).IsEmpty() {
		return domain.ErrEmptyCart
	}
	m.state = StateAddressEntry
	return nil
}

// Back moves one step towards cart review.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateAddressEntry:
		m.state = StateCartReview
	case StateShippingAndPayment:
		m.state = StateAddressEntry
	default:
		return &TransitionError{From: m.state, To: StateCartReview}
	}
	return nil
}

// SubmitAddress validates the contact details and moves on to shipping and
// payment selection. Nothing is sent anywhere.
func (m *Machine) SubmitAddress(customer domain.Customer, address domain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(StateShippingAndPayment); err != nil {
		return err
	}
	if err := domain.ValidateContact(customer, address); err != nil {
		return err
	}
	customer.Phone = domain.NormalizePhone(customer.Phone)
	m.draft.Customer = customer
	m.draft.Address = address
	m.state = StateShippingAndPayment
	return nil
}

// SelectOptions records the methods and prices shipping for the cart as it is
// now. On an estimator error no shipping config is kept.
func (m *Machine) SelectOptions(ctx context.Context, shippingMethod domain.ShippingMethod, paymentMethod domain.PaymentMethod) (domain.ShippingConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateShippingAndPayment {
		return domain.ShippingConfig{}, &TransitionError{From: m.state, To: StateShippingAndPayment}
	}

	fields := map[string]string{}
	if !shippingMethod.Valid() {
		fields["shippingMethod"] = "must be standard or express"
	}
	if !paymentMethod.Valid() {
		fields["paymentMethod"] = "must be card, upi, netbanking or wallet"
	}
	if len(fields) > 0 {
		return domain.ShippingConfig{}, &domain.ValidationError{Fields: fields}
	}

	m.shipping = nil
	snapshot := m.cart.Cart()
	if snapshot.IsEmpty() {
		return domain.ShippingConfig{}, domain.ErrEmptyCart
	}

	cfg, err := m.api.CalculateShipping(ctx, snapshot.ProductIDs(), snapshot.Subtotal)
	if err != nil {
		return domain.ShippingConfig{}, fmt.Errorf("calculate shipping: %w", err)
	}

	m.draft.ShippingMethod = shippingMethod
	m.draft.PaymentMethod = paymentMethod
	m.snapshot = snapshot
	m.shipping = &cfg
	return cfg, nil
}

// Retry returns a failed checkout to option selection, keeping the draft,
// the cart snapshot and the payment order of the attempt. A payment whose
// verification was inconclusive may have been captured, so it stays Failed
// until it is reconciled.
func (m *Machine) Retry() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateFailed {
		return &TransitionError{From: m.state, To: StateShippingAndPayment}
	}
	var verr *VerificationError
	if errors.As(m.lastErr, &verr) {
		return fmt.Errorf("%w: payment %s", ErrAwaitingReview, verr.PaymentID)
	}
	m.state = StateShippingAndPayment
	m.lastErr = nil
	return nil
}

// Pay places the order and takes the shopper through the payment widget.
// It returns the paid order when the machine reaches Complete.
func (m *Machine) Pay(ctx context.Context) (*domain.Order, error) {
	att, req, prefill, err := m.beginPayment()
	if err != nil {
		return nil, err
	}
	log := m.log.With(zap.String("receipt", att.receipt))

	if att.initiated == nil {
		initiated, err := m.api.InitiateOrder(ctx, req)
		if err != nil {
			return nil, m.abort(fmt.Errorf("initiate order: %w", err))
		}
		if initiated.Amount != att.amount {
			log.Warn("server priced the order differently",
				zap.Int64("expected", int64(att.amount)),
				zap.Int64("priced", int64(initiated.Amount)))
		}
		att.initiated = &initiated
	}

	po, err := m.payments.EnsurePaymentOrder(ctx, paymentflow.Attempt{
		OrderID: att.initiated.OrderID,
		Receipt: att.receipt,
		Amount:  att.initiated.Amount,
	})
	if err != nil {
		return nil, m.abort(err)
	}
	att.paymentOrder = po

	verification, err := m.payments.Open(ctx, po, prefill)
	var failed *PaymentFailedError
	switch {
	case errors.Is(err, ErrPaymentDismissed):
		log.Info("payment dismissed")
		return nil, m.abort(err)
	case errors.As(err, &failed):
		log.Warn("payment failed", zap.String("code", failed.Code), zap.String("reason", failed.Reason))
		return nil, m.fail(err)
	case err != nil:
		return nil, m.abort(err)
	}

	result, err := m.payments.Verify(ctx, po, verification)
	if err == nil && !result.Verified {
		err = &VerificationError{PaymentID: verification.PaymentID, RazorpayOrderID: verification.RazorpayOrderID, Unverified: true}
	}
	if err != nil {
		var verr *VerificationError
		if !errors.As(err, &verr) {
			err = &VerificationError{PaymentID: verification.PaymentID, RazorpayOrderID: verification.RazorpayOrderID, Err: err}
		}
		return nil, m.fail(err)
	}

	order, err := m.finalizer.Finalize(ctx, verification, result)
	if err != nil {
		return nil, m.fail(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateComplete
	m.order = order
	return order, nil
}

// beginPayment checks the preconditions of Pay and enters PaymentInFlight.
func (m *Machine) beginPayment() (*attempt, orders.InitiateRequest, paymentflow.Prefill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StatePaymentInFlight {
		return nil, orders.InitiateRequest{}, paymentflow.Prefill{}, ErrPaymentInProgress
	}
	if err := m.check(StatePaymentInFlight); err != nil {
		return nil, orders.InitiateRequest{}, paymentflow.Prefill{}, err
	}
	if m.shipping == nil || m.draft.ShippingMethod == "" || m.draft.PaymentMethod == "" {
		return nil, orders.InitiateRequest{}, paymentflow.Prefill{}, ErrSelectionIncomplete
	}

	current := m.cart.Cart()
	if current.Version != m.snapshot.Version {
		m.shipping = nil
		return nil, orders.InitiateRequest{}, paymentflow.Prefill{}, ErrCartChanged
	}

	amount := m.snapshot.GrandTotal(*m.shipping)
	if m.attempt == nil || m.attempt.amount != amount || m.attempt.cartVersion != m.snapshot.Version {
		m.attempt = &attempt{
			receipt:     m.newReceipt(),
			cartVersion: m.snapshot.Version,
			amount:      amount,
		}
	}

	req := orders.InitiateRequest{
		Receipt:        m.attempt.receipt,
		CartVersion:    m.attempt.cartVersion,
		Items:          make([]orders.ItemRequest, len(m.snapshot.Lines)),
		Customer:       m.draft.Customer,
		Address:        m.draft.Address,
		ShippingMethod: m.draft.ShippingMethod,
		PaymentMethod:  m.draft.PaymentMethod,
	}
	for i, line := range m.snapshot.Lines {
		req.Items[i] = orders.ItemRequest{ProductID: line.ProductID, Quantity: line.Quantity}
	}
	prefill := paymentflow.Prefill{
		Name:    m.draft.Customer.Name,
		Email:   m.draft.Customer.Email,
		Contact: m.draft.Customer.Phone,
		Method:  m.draft.PaymentMethod,
	}

	m.state = StatePaymentInFlight
	return m.attempt, req, prefill, nil
}

// abort returns to option selection with everything kept.
func (m *Machine) abort(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateShippingAndPayment
	return err
}

func (m *Machine) fail(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateFailed
	m.lastErr = err
	return err
}

func (m *Machine) check(next State) error {
	if !m.state.CanTransitionTo(next) {
		return &TransitionError{From: m.state, To: next}
	}
	return nil
}
