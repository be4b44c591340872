// Package orders records checkout orders and publishes their lifecycle
// events.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/logger"
)

var ErrInvalidOrder = errors.New("invalid order request")

const orderNumberAttempts = 3

type Store interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrderByReceipt(ctx context.Context, receipt string) (*domain.Order, error)
}

type ProductLookup interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
}

type ShippingCalculator interface {
	Calculate(ctx context.Context, productIDs []int64, orderTotal domain.Money) (domain.ShippingConfig, error)
}

type ItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type InitiateRequest struct {
	Receipt        string                `json:"receipt"`
	CartVersion    int64                 `json:"cartVersion"`
	Items          []ItemRequest         `json:"items"`
	Customer       domain.Customer       `json:"customer"`
	Address        domain.Address        `json:"address"`
	ShippingMethod domain.ShippingMethod `json:"shippingMethod"`
	PaymentMethod  domain.PaymentMethod  `json:"paymentMethod"`
}

type Service struct {
	store    Store
	products ProductLookup
	shipping ShippingCalculator
	now      func() time.Time
}

func NewService(store Store, products ProductLookup, shipping ShippingCalculator) *Service {
	return &Service{store: store, products: products, shipping: shipping, now: time.Now}
}

// Initiate prices the requested items from the catalog and records a pending
// order. A second call with the same receipt returns the order recorded by the
// first one.
func (s *Service) Initiate(ctx context.Context, guestID string, req InitiateRequest) (domain.InitiatedOrder, error) {
	if err := validateInitiate(req); err != nil {
		return domain.InitiatedOrder{}, err
	}

	existing, err := s.store.GetOrderByReceipt(ctx, req.Receipt)
	switch {
	case err == nil:
		return s.replay(ctx, guestID, existing)
	case !errors.Is(err, domain.ErrOrderNotFound):
		return domain.InitiatedOrder{}, err
	}

	order, err := s.price(ctx, guestID, req)
	if err != nil {
		return domain.InitiatedOrder{}, err
	}

	for attempt := 1; ; attempt++ {
		order.OrderID = uuid.NewString()
		order.OrderNumber = newOrderNumber(s.now())

		err = s.store.CreateOrder(ctx, order)
		if errors.Is(err, ErrDuplicateOrderNumber) && attempt < orderNumberAttempts {
			continue
		}
		break
	}
	if errors.Is(err, ErrDuplicateReceipt) {
		existing, getErr := s.store.GetOrderByReceipt(ctx, req.Receipt)
		if getErr != nil {
			return domain.InitiatedOrder{}, getErr
		}
		return s.replay(ctx, guestID, existing)
	}
	if err != nil {
		return domain.InitiatedOrder{}, err
	}

	logger.FromContext(ctx).Info("order initiated",
		zap.String("order_id", order.OrderID),
		zap.String("order_number", order.OrderNumber),
		zap.String("guest_id", guestID),
		zap.Int64("grand_total", int64(order.Totals.GrandTotal)))

	return summary(order), nil
}

// GetOrder returns the order only to the guest who placed it.
func (s *Service) GetOrder(ctx context.Context, guestID, orderID string) (*domain.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.GuestID != guestID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) replay(ctx context.Context, guestID string, existing *domain.Order) (domain.InitiatedOrder, error) {
	if existing.GuestID != guestID {
		return domain.InitiatedOrder{}, ErrDuplicateReceipt
	}
	logger.FromContext(ctx).Info("order initiation replayed",
		zap.String("order_id", existing.OrderID),
		zap.String("receipt", existing.Receipt))
	return summary(existing), nil
}

func (s *Service) price(ctx context.Context, guestID string, req InitiateRequest) (*domain.Order, error) {
	ids := make([]int64, 0, len(req.Items))
	quantities := make(map[int64]int, len(req.Items))
	for _, item := range req.Items {
		if _, seen := quantities[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}

	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		GuestID:        guestID,
		Receipt:        req.Receipt,
		CartVersion:    req.CartVersion,
		Items:          make([]domain.OrderItem, 0, len(ids)),
		Currency:       domain.Currency,
		Customer:       req.Customer,
		Address:        req.Address,
		ShippingMethod: req.ShippingMethod,
		PaymentMethod:  req.PaymentMethod,
		Status:         domain.OrderStatusPending,
		PaymentStatus:  domain.PaymentStatusUnpaid,
	}
	order.Customer.Phone = domain.NormalizePhone(order.Customer.Phone)

	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", id, domain.ErrProductNotFound)
		}
		qty := quantities[id]
		if qty > domain.MaxLineQuantity {
			return nil, fmt.Errorf("product %d: %w", id, domain.ErrQuantityLimit)
		}
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
		})
		order.Totals.Subtotal += p.Price.Times(qty)
	}

	shipping, err := s.shipping.Calculate(ctx, ids, order.Totals.Subtotal)
	if err != nil {
		return nil, fmt.Errorf("calculate shipping: %w", err)
	}
	order.Totals.Shipping = shipping.ShippingCharge
	order.Totals.GrandTotal = order.Totals.Subtotal + order.Totals.Shipping
	return order, nil
}

func validateInitiate(req InitiateRequest) error {
	if strings.TrimSpace(req.Receipt) == "" {
		return fmt.Errorf("%w: receipt is required", ErrInvalidOrder)
	}
	if len(req.Items) == 0 {
		return domain.ErrEmptyCart
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("product %d: %w", item.ProductID, domain.ErrInvalidQuantity)
		}
	}
	if !req.ShippingMethod.Valid() {
		return fmt.Errorf("%w: unknown shipping method %q", ErrInvalidOrder, req.ShippingMethod)
	}
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidOrder, req.PaymentMethod)
	}
	return domain.ValidateContact(req.Customer, req.Address)
}

// newOrderNumber formats VB-YYYYMMDD-XXXXXX with a random uppercase suffix.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("VB-%s-%s", now.UTC().Format("20060102"), suffix)
}

func summary(o *domain.Order) domain.InitiatedOrder {
	return domain.InitiatedOrder{
		OrderID:     o.OrderID,
		OrderNumber: o.OrderNumber,
		Amount:      o.Totals.GrandTotal,
		Currency:    o.Currency,
	}
}
