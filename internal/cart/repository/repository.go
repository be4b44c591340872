package repository

import (
	"context"
	"errors"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrVersionConflict = errors.New("cart version conflict")
)

// CartRepository stores one cart document per guest. SaveCart is a
// compare-and-swap on Cart.Version: it succeeds only if the stored version
// still equals the version the cart was read at, and bumps it on success.
type CartRepository interface {
	GetCart(ctx context.Context, guestID string) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart *domain.Cart) error
}
