// Package catalog gives read-only access to product pricing and shipping
// attributes.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const productColumns = `id, name, image, price, heavy, shipping_charge, active`

// GetProduct returns an active product or domain.ErrProductNotFound.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND active`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return p, nil
}

// GetProducts returns the active products among ids, keyed by id. Unknown or
// inactive ids are simply absent from the result.
func (r *Repository) GetProducts(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	products := make(map[int64]*domain.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) AND active`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*domain.Product, error) {
	var (
		p        domain.Product
		price    decimal.Decimal
		shipping decimal.NullDecimal
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Image, &price, &p.Heavy, &shipping, &p.Active); err != nil {
		return nil, err
	}
	p.Price = domain.MoneyFromDecimal(price)
	if shipping.Valid {
		charge := domain.MoneyFromDecimal(shipping.Decimal)
		p.ShippingCharge = &charge
	}
	return &p, nil
}
