// Package gateway talks to the Razorpay payment gateway.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/razorpay/razorpay-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrUnexpectedResponse = errors.New("unexpected payment gateway response")
)

// OrderAPI is the slice of the Razorpay SDK orders resource used here.
type OrderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	All(queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Razorpay struct {
	orders  OrderAPI
	keyID   string
	secret  string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[string]
}

func NewRazorpay(keyID, secret string, timeout time.Duration, log *zap.Logger) *Razorpay {
	client := razorpay.NewClient(keyID, secret)
	return newRazorpay(client.Order, keyID, secret, timeout, log)
}

func newRazorpay(orders OrderAPI, keyID, secret string, timeout time.Duration, log *zap.Logger) *Razorpay {
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "razorpay-orders",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Razorpay{
		orders:  orders,
		keyID:   keyID,
		secret:  secret,
		timeout: timeout,
		cb:      cb,
	}
}

// KeyID is the public key the checkout widget is initialised with.
func (r *Razorpay) KeyID() string {
	return r.keyID
}

// CreateOrder creates a gateway order for amount (in paise) and returns its id.
func (r *Razorpay) CreateOrder(ctx context.Context, amount domain.Money, currency, receipt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	id, err := r.cb.Execute(func() (string, error) {
		return r.create(ctx, amount, currency, receipt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return id, err
}

func (r *Razorpay) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifySignature(gatewayOrderID, paymentID, signature, r.secret)
}

type createResult struct {
	id  string
	err error
}

// create runs the SDK calls, which take no context, and abandons them when
// ctx is done.
func (r *Razorpay) create(ctx context.Context, amount domain.Money, currency, receipt string) (string, error) {
	done := make(chan createResult, 1)
	go func() {
		id, err := r.findOrCreate(amount, currency, receipt)
		done <- createResult{id: id, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, ctx.Err())
	case res := <-done:
		return res.id, res.err
	}
}

// findOrCreate reuses a gateway order already made for the receipt. An
// abandoned call can still have created one after its caller gave up.
func (r *Razorpay) findOrCreate(amount domain.Money, currency, receipt string) (string, error) {
	existing, err := r.orders.All(map[string]interface{}{"receipt": receipt}, nil)
	if err != nil {
		return "", fmt.Errorf("list razorpay orders: %w", err)
	}
	if id := matchingOrder(existing, amount, currency, receipt); id != "" {
		return id, nil
	}

	body, err := r.orders.Create(map[string]interface{}{
		"amount":   int64(amount),
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("create razorpay order: %w", err)
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: missing order id", ErrUnexpectedResponse)
	}
	return id, nil
}

// matchingOrder picks the order with the same receipt, amount and currency
// out of a Razorpay collection response.
func matchingOrder(collection map[string]interface{}, amount domain.Money, currency, receipt string) string {
	items, _ := collection["items"].([]interface{})
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := item["id"].(string)
		gotReceipt, _ := item["receipt"].(string)
		gotCurrency, _ := item["currency"].(string)
		gotAmount, _ := item["amount"].(float64)
		if id != "" && gotReceipt == receipt && gotCurrency == currency && int64(gotAmount) == int64(amount) {
			return id
		}
	}
	return ""
}
