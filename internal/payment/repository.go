package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreatePaymentOrder(ctx context.Context, po *domain.PaymentOrder) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_orders (receipt, order_id, razorpay_order_id, amount, currency)
		 VALUES ($1, $2, $3, $4, $5)`,
		po.Receipt, po.OrderID, po.RazorpayOrderID, po.Amount, po.Currency)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateReceipt
		}
		return fmt.Errorf("insert payment order: %w", err)
	}
	return nil
}

func (r *Repository) GetByReceipt(ctx context.Context, receipt string) (*domain.PaymentOrder, error) {
	return r.get(ctx, `WHERE receipt = $1`, receipt)
}

func (r *Repository) GetByRazorpayOrderID(ctx context.Context, razorpayOrderID string) (*domain.PaymentOrder, error) {
	return r.get(ctx, `WHERE razorpay_order_id = $1`, razorpayOrderID)
}

func (r *Repository) get(ctx context.Context, where string, arg string) (*domain.PaymentOrder, error) {
	query := `SELECT receipt, order_id, razorpay_order_id, amount, currency FROM payment_orders ` + where

	var po domain.PaymentOrder
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&po.Receipt,
		&po.OrderID,
		&po.RazorpayOrderID,
		&po.Amount,
		&po.Currency,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment order: %w", err)
	}
	return &po, nil
}
