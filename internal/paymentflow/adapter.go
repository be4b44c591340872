// Package paymentflow drives the hosted payment widget: it creates the gateway
// order once per checkout attempt, opens the widget and verifies the signed
// callback with the server.
package paymentflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/payment"
	"github.com/RohitVelivela/vijaybrothers/internal/review"
)

type API interface {
	CreatePaymentOrder(ctx context.Context, req payment.CreateRequest) (*domain.PaymentOrder, error)
	VerifyPayment(ctx context.Context, v domain.PaymentVerification) (domain.VerificationResult, error)
	PaymentKey(ctx context.Context) (string, error)
}

type Journal interface {
	Record(ctx context.Context, e review.Entry) (int64, error)
}

// Attempt identifies one checkout attempt. Receipt is its idempotency key.
type Attempt struct {
	OrderID string
	Receipt string
	Amount  domain.Money
}

type Prefill struct {
	Name    string
	Email   string
	Contact string
	Method  domain.PaymentMethod
}

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeDismissed
	OutcomeFailed
)

// Outcome is what the widget reports once the shopper is done with it.
type Outcome struct {
	Kind          OutcomeKind
	Verification  domain.PaymentVerification
	FailureCode   string
	FailureReason string
}

type WidgetOptions struct {
	KeyID       string
	Order       domain.PaymentOrder
	Prefill     Prefill
	Description string
}

// Widget is the hosted checkout UI of the gateway.
type Widget interface {
	Open(ctx context.Context, opts WidgetOptions) (Outcome, error)
}

type Timeouts struct {
	Create time.Duration
	Verify time.Duration
}

type Adapter struct {
	api      API
	widget   Widget
	journal  Journal
	timeouts Timeouts
	log      *zap.Logger

	mu    sync.Mutex
	keyID string
	memo  map[string]*domain.PaymentOrder
}

func NewAdapter(api API, widget Widget, journal Journal, timeouts Timeouts, log *zap.Logger) *Adapter {
	return &Adapter{
		api:      api,
		widget:   widget,
		journal:  journal,
		timeouts: timeouts,
		log:      log,
		memo:     make(map[string]*domain.PaymentOrder),
	}
}

// EnsurePaymentOrder returns the gateway order of the attempt, creating it on
// first use. The server deduplicates by receipt as well.
func (a *Adapter) EnsurePaymentOrder(ctx context.Context, attempt Attempt) (*domain.PaymentOrder, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if po, ok := a.memo[attempt.Receipt]; ok && po.OrderID == attempt.OrderID && po.Amount == attempt.Amount {
		return po, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Create)
	defer cancel()

	po, err := a.api.CreatePaymentOrder(ctx, payment.CreateRequest{
		OrderID:  attempt.OrderID,
		Amount:   attempt.Amount,
		Currency: domain.Currency,
		Receipt:  attempt.Receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment order: %w", err)
	}
	a.memo[attempt.Receipt] = po
	return po, nil
}

// Open shows the widget for the gateway order and returns the signed callback
// on success.
func (a *Adapter) Open(ctx context.Context, po *domain.PaymentOrder, prefill Prefill) (domain.PaymentVerification, error) {
	keyID, err := a.key(ctx)
	if err != nil {
		return domain.PaymentVerification{}, err
	}

	outcome, err := a.widget.Open(ctx, WidgetOptions{
		KeyID:       keyID,
		Order:       *po,
		Prefill:     prefill,
		Description: "Vijay Brothers order " + po.Receipt,
	})
	if err != nil {
		return domain.PaymentVerification{}, fmt.Errorf("open payment widget: %w", err)
	}

	switch outcome.Kind {
	case OutcomeSuccess:
		return outcome.Verification, nil
	case OutcomeDismissed:
		return domain.PaymentVerification{}, ErrPaymentDismissed
	default:
		return domain.PaymentVerification{}, &PaymentFailedError{Code: outcome.FailureCode, Reason: outcome.FailureReason}
	}
}

// Verify asks the server to check the callback signature. It runs to
// completion even if the caller gives up, bounded by its own timeout. Anything
// other than a verified answer is journaled and returned as a
// *VerificationError.
func (a *Adapter) Verify(ctx context.Context, po *domain.PaymentOrder, v domain.PaymentVerification) (domain.VerificationResult, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeouts.Verify)
	defer cancel()

	result, err := a.api.VerifyPayment(ctx, v)
	if err == nil && result.Verified {
		return result, nil
	}

	verr := &VerificationError{PaymentID: v.PaymentID, RazorpayOrderID: v.RazorpayOrderID, Err: err}
	reason := "server rejected the payment signature"
	if err != nil {
		reason = err.Error()
	} else {
		verr.Unverified = true
	}

	log := a.log.With(
		zap.String("payment_id", v.PaymentID),
		zap.String("razorpay_order_id", v.RazorpayOrderID),
		zap.String("order_id", po.OrderID))
	log.Error("payment verification needs review", zap.String("reason", reason))

	if _, jerr := a.journal.Record(context.WithoutCancel(ctx), review.Entry{
		PaymentID:       v.PaymentID,
		RazorpayOrderID: v.RazorpayOrderID,
		Signature:       v.Signature,
		OrderID:         po.OrderID,
		Receipt:         po.Receipt,
		Amount:          po.Amount,
		Reason:          reason,
	}); jerr != nil {
		log.Error("failed to journal payment for review", zap.Error(jerr))
	}
	return domain.VerificationResult{}, verr
}

func (a *Adapter) key(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.keyID != "" {
		return a.keyID, nil
	}
	keyID, err := a.api.PaymentKey(ctx)
	if err != nil {
		return "", fmt.Errorf("load payment key: %w", err)
	}
	a.keyID = keyID
	return keyID, nil
}
