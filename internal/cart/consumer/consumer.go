// Package consumer clears carts once their order has been paid. It is the
// server-side backstop for the client clearing its own cart.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

const (
	groupID        = "storefront-cart-cleaner"
	readBackoff    = time.Second
	handleBudget   = 5 * time.Second
	handleAttempts = 3
)

var errMalformedEvent = errors.New("malformed event")

// MessageReader fetches without committing so a message is only committed
// after it was handled.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type CartClearer interface {
	ClearPaidCart(ctx context.Context, guestID string, paidVersion int64) (bool, error)
}

type Consumer struct {
	reader  MessageReader
	carts   CartClearer
	log     *zap.Logger
	backoff time.Duration
}

func NewReader(topic string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6,
	})
}

func New(reader MessageReader, carts CartClearer, log *zap.Logger) *Consumer {
	return &Consumer{reader: reader, carts: carts, log: log.Named("cart-consumer"), backoff: readBackoff}
}

// Run reads until ctx is cancelled. A message is committed once it was
// handled, or once it has failed handleAttempts times.
func (c *Consumer) Run(ctx context.Context) {
	for ctx.Err() == nil {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("error fetching message", zap.Error(err))
			if !c.wait(ctx) {
				return
			}
			continue
		}

		if err := c.handleWithRetry(ctx, m); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error("giving up on message",
				zap.String("key", string(m.Key)),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("error committing message", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, m kafka.Message) error {
	var err error
	for attempt := 1; attempt <= handleAttempts; attempt++ {
		err = c.Handle(ctx, m)
		if err == nil || errors.Is(err, errMalformedEvent) {
			return err
		}
		c.log.Warn("failed to handle message",
			zap.Int64("offset", m.Offset),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < handleAttempts && !c.wait(ctx) {
			return ctx.Err()
		}
	}
	return err
}

func (c *Consumer) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.backoff):
		return true
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Warn("error closing reader", zap.Error(err))
	}
}

// Handle clears the cart the paid order was priced from. Events other than
// order.paid are ignored.
func (c *Consumer) Handle(ctx context.Context, m kafka.Message) error {
	if eventType(m) != domain.EventOrderPaid {
		return nil
	}

	var event domain.OrderPaidEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("%w: error parsing message: %v", errMalformedEvent, err)
	}
	if event.GuestID == "" {
		return fmt.Errorf("%w: missing guest_id", errMalformedEvent)
	}

	ctx, cancel := context.WithTimeout(ctx, handleBudget)
	defer cancel()

	cleared, err := c.carts.ClearPaidCart(ctx, event.GuestID, event.CartVersion)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	c.log.Info("paid order processed",
		zap.String("guest_id", event.GuestID),
		zap.String("order_id", event.OrderID),
		zap.Int64("cart_version", event.CartVersion),
		zap.Bool("cart_cleared", cleared))
	return nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
