// Package shipping computes the shipping charge for a set of products.
package shipping

import (
	"context"
	"errors"
	"fmt"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

var ErrNoProducts = errors.New("no products to estimate shipping for")

type SettingsStore interface {
	GetSettings(ctx context.Context) (Settings, error)
}

type ProductLookup interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
}

type Estimator struct {
	settings SettingsStore
	products ProductLookup
}

func NewEstimator(settings SettingsStore, products ProductLookup) *Estimator {
	return &Estimator{settings: settings, products: products}
}

// Calculate applies, in order: store-wide free shipping, the free-shipping
// threshold (inclusive), then per-product charges. Heavy items each pay their
// own charge while non-heavy items share the largest one. When no product
// carries its own charge the default charge applies.
func (e *Estimator) Calculate(ctx context.Context, productIDs []int64, orderTotal domain.Money) (domain.ShippingConfig, error) {
	if len(productIDs) == 0 {
		return domain.ShippingConfig{}, ErrNoProducts
	}

	settings, err := e.settings.GetSettings(ctx)
	if err != nil {
		return domain.ShippingConfig{}, err
	}

	cfg := domain.ShippingConfig{MinOrderForFreeShipping: settings.MinOrderForFreeShipping}

	if settings.FreeShippingAll {
		cfg.FreeShipping = true
		cfg.Message = "Free shipping on all orders"
		return cfg, nil
	}

	if threshold := settings.MinOrderForFreeShipping; threshold != nil && orderTotal >= *threshold {
		cfg.FreeShipping = true
		cfg.Message = fmt.Sprintf("Free shipping on orders of %s or more", *threshold)
		return cfg, nil
	}

	ids := unique(productIDs)
	products, err := e.products.GetProducts(ctx, ids)
	if err != nil {
		return domain.ShippingConfig{}, err
	}

	var (
		heavy      domain.Money
		lightMax   domain.Money
		overridden bool
	)
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			return domain.ShippingConfig{}, fmt.Errorf("product %d: %w", id, domain.ErrProductNotFound)
		}
		if p.ShippingCharge == nil {
			continue
		}
		overridden = true
		if p.Heavy {
			heavy += *p.ShippingCharge
		} else if *p.ShippingCharge > lightMax {
			lightMax = *p.ShippingCharge
		}
	}

	if overridden {
		cfg.ShippingCharge = heavy + lightMax
	} else {
		cfg.ShippingCharge = settings.DefaultCharge
	}

	if threshold := settings.MinOrderForFreeShipping; threshold != nil {
		cfg.Message = fmt.Sprintf("Add %s more for free shipping", *threshold-orderTotal)
	} else {
		cfg.Message = fmt.Sprintf("Shipping charge %s", cfg.ShippingCharge)
	}
	return cfg, nil
}

func unique(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
