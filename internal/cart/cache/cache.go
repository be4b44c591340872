package cache

import (
	"context"
	"errors"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

// CartCache holds read copies of carts. Set must never replace a cached cart
// with one of a lower version.
type CartCache interface {
	Get(ctx context.Context, guestID string) (*domain.Cart, error)
	Set(ctx context.Context, guestID string, cart *domain.Cart) error
	Delete(ctx context.Context, guestID string) error
}

var ErrCacheMiss = errors.New("cache miss")
