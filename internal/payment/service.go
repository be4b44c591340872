// Package payment creates gateway orders for checkout attempts and verifies
// the signed payment callbacks.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/logger"
)

type Gateway interface {
	CreateOrder(ctx context.Context, amount domain.Money, currency, receipt string) (string, error)
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
	KeyID() string
}

type PaymentOrderStore interface {
	CreatePaymentOrder(ctx context.Context, po *domain.PaymentOrder) error
	GetByReceipt(ctx context.Context, receipt string) (*domain.PaymentOrder, error)
	GetByRazorpayOrderID(ctx context.Context, razorpayOrderID string) (*domain.PaymentOrder, error)
}

type OrderStore interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	MarkPaid(ctx context.Context, orderID, paymentID string) (*domain.Order, error)
}

type CreateRequest struct {
	OrderID  string       `json:"orderId"`
	Amount   domain.Money `json:"amount"`
	Currency string       `json:"currency"`
	Receipt  string       `json:"receipt"`
}

type Service struct {
	gateway  Gateway
	payments PaymentOrderStore
	orders   OrderStore
	sfg      singleflight.Group
}

func NewService(gateway Gateway, payments PaymentOrderStore, orders OrderStore) *Service {
	return &Service{gateway: gateway, payments: payments, orders: orders}
}

func (s *Service) KeyID() string {
	return s.gateway.KeyID()
}

// CreatePaymentOrder returns the gateway order for the receipt, creating it on
// first use. Concurrent and repeated calls with one receipt share one gateway
// order.
func (s *Service) CreatePaymentOrder(ctx context.Context, guestID string, req CreateRequest) (*domain.PaymentOrder, error) {
	if req.Currency == "" {
		req.Currency = domain.Currency
	}
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.GuestID != guestID {
		return nil, domain.ErrOrderNotFound
	}
	if order.IsPaid() {
		return nil, ErrOrderAlreadyPaid
	}
	if req.Amount != order.Totals.GrandTotal {
		return nil, fmt.Errorf("%w: requested %s, order total %s", ErrAmountMismatch, req.Amount, order.Totals.GrandTotal)
	}

	v, err, shared := s.sfg.Do(req.Receipt, func() (interface{}, error) {
		return s.createOnce(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	po := v.(*domain.PaymentOrder)
	if po.OrderID != req.OrderID || po.Amount != req.Amount {
		return nil, ErrReceiptConflict
	}

	if shared {
		logger.FromContext(ctx).Debug("payment order creation shared", zap.String("receipt", req.Receipt))
	}
	return po, nil
}

func (s *Service) createOnce(ctx context.Context, req CreateRequest) (*domain.PaymentOrder, error) {
	log := logger.FromContext(ctx).With(zap.String("receipt", req.Receipt), zap.String("order_id", req.OrderID))

	existing, err := s.payments.GetByReceipt(ctx, req.Receipt)
	if err == nil {
		log.Info("payment order reused", zap.String("razorpay_order_id", existing.RazorpayOrderID))
		return existing, nil
	}
	if !errors.Is(err, ErrPaymentOrderNotFound) {
		return nil, err
	}

	gatewayOrderID, err := s.gateway.CreateOrder(ctx, req.Amount, req.Currency, req.Receipt)
	if err != nil {
		log.Error("gateway order creation failed", zap.Error(err))
		return nil, err
	}

	po := &domain.PaymentOrder{
		OrderID:         req.OrderID,
		RazorpayOrderID: gatewayOrderID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Receipt:         req.Receipt,
	}
	err = s.payments.CreatePaymentOrder(ctx, po)
	if errors.Is(err, ErrDuplicateReceipt) {
		// Another instance won the race; its gateway order is the one to use.
		log.Warn("payment order raced, discarding gateway order", zap.String("razorpay_order_id", gatewayOrderID))
		return s.payments.GetByReceipt(ctx, req.Receipt)
	}
	if err != nil {
		return nil, err
	}

	log.Info("payment order created", zap.String("razorpay_order_id", gatewayOrderID), zap.Int64("amount", int64(req.Amount)))
	return po, nil
}

// Verify checks the callback signature and, when it holds, marks the order
// paid. A bad signature is reported as unverified rather than as an error.
func (s *Service) Verify(ctx context.Context, guestID string, v domain.PaymentVerification) (domain.VerificationResult, error) {
	if v.PaymentID == "" || v.RazorpayOrderID == "" || v.Signature == "" {
		return domain.VerificationResult{}, fmt.Errorf("%w: payment id, gateway order id and signature are required", ErrInvalidRequest)
	}
	log := logger.FromContext(ctx).With(
		zap.String("razorpay_order_id", v.RazorpayOrderID),
		zap.String("payment_id", v.PaymentID))

	po, err := s.payments.GetByRazorpayOrderID(ctx, v.RazorpayOrderID)
	if err != nil {
		return domain.VerificationResult{}, err
	}
	order, err := s.orders.GetOrder(ctx, po.OrderID)
	if err != nil {
		return domain.VerificationResult{}, err
	}
	if order.GuestID != guestID {
		return domain.VerificationResult{}, ErrPaymentOrderNotFound
	}

	if !s.gateway.VerifySignature(v.RazorpayOrderID, v.PaymentID, v.Signature) {
		log.Warn("payment signature mismatch", zap.String("order_id", order.OrderID))
		return domain.VerificationResult{Verified: false}, nil
	}

	paid, err := s.orders.MarkPaid(ctx, order.OrderID, v.PaymentID)
	if err != nil {
		log.Error("failed to mark order paid", zap.String("order_id", order.OrderID), zap.Error(err))
		return domain.VerificationResult{}, err
	}

	log.Info("payment verified", zap.String("order_id", paid.OrderID), zap.String("order_number", paid.OrderNumber))
	return domain.VerificationResult{Verified: true, Order: paid}, nil
}

func validateCreate(req CreateRequest) error {
	switch {
	case strings.TrimSpace(req.OrderID) == "":
		return fmt.Errorf("%w: orderId is required", ErrInvalidRequest)
	case strings.TrimSpace(req.Receipt) == "":
		return fmt.Errorf("%w: receipt is required", ErrInvalidRequest)
	case len(req.Receipt) > 40:
		return fmt.Errorf("%w: receipt must be at most 40 characters", ErrInvalidRequest)
	case req.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	case req.Currency != domain.Currency:
		return fmt.Errorf("%w: unsupported currency %q", ErrInvalidRequest, req.Currency)
	}
	return nil
}
