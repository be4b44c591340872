package domain

import "time"

// OrderEventsTopic carries order lifecycle events keyed by order id.
const OrderEventsTopic = "order-events"

const EventOrderPaid = "order.paid"

// OrderPaidEvent is written to the outbox in the same transaction that marks
// an order paid. CartVersion is the cart version the order was priced from;
// a cart that has moved past it belongs to a later purchase.
type OrderPaidEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	GuestID     string    `json:"guest_id"`
	CartVersion int64     `json:"cart_version"`
	PaymentID   string    `json:"payment_id"`
	GrandTotal  Money     `json:"grand_total"`
	Currency    string    `json:"currency"`
	PaidAt      time.Time `json:"paid_at"`
}
