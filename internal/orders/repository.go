package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

var (
	ErrDuplicateReceipt     = errors.New("order for this receipt already exists")
	ErrDuplicateOrderNumber = errors.New("order number already taken")
	ErrAlreadyPaid          = errors.New("order already paid with a different payment")
	ErrInvalidTransition    = errors.New("order cannot move to the requested status")
)

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const orderColumns = `id, order_number, guest_id, receipt, cart_version, items, customer, address,
	shipping_method, payment_method, subtotal, shipping, grand_total, currency,
	status, payment_status, payment_id, created_at, updated_at`

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	customer, err := json.Marshal(order.Customer)
	if err != nil {
		return fmt.Errorf("failed to marshal customer: %w", err)
	}
	address, err := json.Marshal(order.Address)
	if err != nil {
		return fmt.Errorf("failed to marshal address: %w", err)
	}

	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NULL, NOW(), NOW())
	          RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		order.OrderID,
		order.OrderNumber,
		order.GuestID,
		order.Receipt,
		order.CartVersion,
		items,
		customer,
		address,
		order.ShippingMethod,
		order.PaymentMethod,
		order.Totals.Subtotal,
		order.Totals.Shipping,
		order.Totals.GrandTotal,
		order.Currency,
		order.Status,
		order.PaymentStatus,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if pqErr.Constraint == "orders_order_number_key" {
				return ErrDuplicateOrderNumber
			}
			return ErrDuplicateReceipt
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, domain.ErrOrderNotFound
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(r.db.QueryRowContext(ctx, query, orderID))
}

func (r *Repository) GetOrderByReceipt(ctx context.Context, receipt string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE receipt = $1`
	return scanOrder(r.db.QueryRowContext(ctx, query, receipt))
}

// MarkPaid moves a pending order to CONFIRMED/PAID and records an order.paid
// outbox event in the same transaction. Marking an order paid again with the
// same payment id returns the order unchanged.
func (r *Repository) MarkPaid(ctx context.Context, orderID, paymentID string) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	order, err := scanOrder(tx.QueryRowContext(ctx, query, orderID))
	if err != nil {
		return nil, err
	}

	if order.IsPaid() {
		if order.PaymentID == paymentID {
			return order, nil
		}
		return nil, ErrAlreadyPaid
	}
	if !order.Status.CanTransitionTo(domain.OrderStatusConfirmed) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, domain.OrderStatusConfirmed)
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE orders
		 SET status = $2, payment_status = $3, payment_id = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		orderID, domain.OrderStatusConfirmed, domain.PaymentStatusPaid, paymentID,
	).Scan(&order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	order.Status = domain.OrderStatusConfirmed
	order.PaymentStatus = domain.PaymentStatusPaid
	order.PaymentID = paymentID

	payload, err := json.Marshal(domain.OrderPaidEvent{
		OrderID:     order.OrderID,
		OrderNumber: order.OrderNumber,
		GuestID:     order.GuestID,
		CartVersion: order.CartVersion,
		PaymentID:   paymentID,
		GrandTotal:  order.Totals.GrandTotal,
		Currency:    order.Currency,
		PaidAt:      order.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		order.OrderID, domain.EventOrderPaid, payload)
	if err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return order, nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM outbox_events
	          WHERE processed_at IS NULL
	          ORDER BY id
	          LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed_at = NOW() WHERE id = $1 AND processed_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event %d processed: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o                        domain.Order
		items, customer, address []byte
		paymentID                sql.NullString
	)
	err := row.Scan(
		&o.OrderID,
		&o.OrderNumber,
		&o.GuestID,
		&o.Receipt,
		&o.CartVersion,
		&items,
		&customer,
		&address,
		&o.ShippingMethod,
		&o.PaymentMethod,
		&o.Totals.Subtotal,
		&o.Totals.Shipping,
		&o.Totals.GrandTotal,
		&o.Currency,
		&o.Status,
		&o.PaymentStatus,
		&paymentID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("unmarshal customer: %w", err)
	}
	if err := json.Unmarshal(address, &o.Address); err != nil {
		return nil, fmt.Errorf("unmarshal address: %w", err)
	}
	o.PaymentID = paymentID.String
	return &o, nil
}
