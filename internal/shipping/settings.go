package shipping

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

// Settings is the store-wide shipping policy maintained by the admin.
type Settings struct {
	FreeShippingAll         bool
	MinOrderForFreeShipping *domain.Money
	DefaultCharge           domain.Money
}

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) GetSettings(ctx context.Context) (Settings, error) {
	query := `
		SELECT free_shipping_all, min_order_for_free_shipping, default_charge
		FROM shipping_settings
		WHERE id = 1
	`

	var (
		s        Settings
		minOrder decimal.NullDecimal
		charge   decimal.Decimal
	)
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.FreeShippingAll, &minOrder, &charge); err != nil {
		return Settings{}, fmt.Errorf("failed to load shipping settings: %w", err)
	}

	s.DefaultCharge = domain.MoneyFromDecimal(charge)
	if minOrder.Valid {
		m := domain.MoneyFromDecimal(minOrder.Decimal)
		s.MinOrderForFreeShipping = &m
	}
	return s, nil
}
