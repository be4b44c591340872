package checkout

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

type CartClearer interface {
	Clear(ctx context.Context) (domain.CartView, error)
	Reset()
}

// Finalizer completes a verified payment on the client: it empties the cart
// and remembers the order, once per payment id.
type Finalizer struct {
	cart CartClearer
	log  *zap.Logger

	mu   sync.Mutex
	done map[string]*domain.Order
}

func NewFinalizer(cart CartClearer, log *zap.Logger) *Finalizer {
	return &Finalizer{cart: cart, log: log, done: make(map[string]*domain.Order)}
}

// Finalize refuses unverified results. Repeating it for a payment id returns
// the first order and does nothing else.
func (f *Finalizer) Finalize(ctx context.Context, v domain.PaymentVerification, result domain.VerificationResult) (*domain.Order, error) {
	if !result.Verified || result.Order == nil || v.PaymentID == "" {
		return nil, ErrNotVerified
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if order, ok := f.done[v.PaymentID]; ok {
		return order, nil
	}

	log := f.log.With(zap.String("payment_id", v.PaymentID), zap.String("order_id", result.Order.OrderID))
	if _, err := f.cart.Clear(ctx); err != nil {
		// the server clears the cart on order.paid as well
		log.Warn("failed to clear cart after payment", zap.Error(err))
		f.cart.Reset()
	}

	f.done[v.PaymentID] = result.Order
	log.Info("order finalized", zap.String("order_number", result.Order.OrderNumber))
	return result.Order, nil
}
