package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/RohitVelivela/vijaybrothers/internal/cart/cache"
	"github.com/RohitVelivela/vijaybrothers/internal/cart/repository"
	"github.com/RohitVelivela/vijaybrothers/internal/domain"
	"github.com/RohitVelivela/vijaybrothers/internal/logger"
)

// AnyVersion skips the expected-version check on a mutation.
const AnyVersion int64 = -1

// maxSaveAttempts bounds how often a mutation without an expected version is
// re-applied after losing a compare-and-swap race.
const maxSaveAttempts = 3

type ProductCatalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog ProductCatalog
	sfg     singleflight.Group
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, catalog ProductCatalog) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
	}
}

// GetCart returns the guest's cart, or an empty one when none is stored.
// Concurrent reads for the same guest share one cache/repository lookup.
func (s *CartService) GetCart(ctx context.Context, guestID string) (domain.CartView, error) {
	v, err, _ := s.sfg.Do(guestID, func() (interface{}, error) {
		log := logger.FromContext(ctx)

		cart, err := s.cache.Get(ctx, guestID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn("cache get failed", zap.String("guest_id", guestID), zap.Error(err))
		}

		cart, err = s.repo.GetCart(ctx, guestID)
		if errors.Is(err, repository.ErrCartNotFound) {
			return &domain.Cart{GuestID: guestID}, nil
		}
		if err != nil {
			return nil, err
		}

		go func(cart *domain.Cart) {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(setCtx, guestID, cart); err != nil {
				log.Warn("cache set failed", zap.String("guest_id", guestID), zap.Error(err))
			}
		}(cart)

		return cart, nil
	})
	if err != nil {
		return domain.CartView{}, err
	}

	return v.(*domain.Cart).View(), nil
}

// AddItem prices the product from the catalog and merges it into the cart.
func (s *CartService) AddItem(ctx context.Context, guestID string, productID int64, quantity int, expected int64) (domain.CartView, error) {
	if quantity <= 0 {
		return domain.CartView{}, domain.ErrInvalidQuantity
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.CartView{}, err
	}

	return s.mutate(ctx, guestID, expected, func(cart *domain.Cart) error {
		return cart.AddItem(domain.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.Image,
			Price:     product.Price,
			Quantity:  quantity,
			AddedAt:   time.Now().UTC(),
		})
	})
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, guestID string, productID int64, quantity int, expected int64) (domain.CartView, error) {
	return s.mutate(ctx, guestID, expected, func(cart *domain.Cart) error {
		return cart.SetQuantity(productID, quantity)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, guestID string, productID int64, expected int64) (domain.CartView, error) {
	return s.mutate(ctx, guestID, expected, func(cart *domain.Cart) error {
		return cart.RemoveItem(productID)
	})
}

// ClearCart empties the cart but keeps the document so its version keeps
// increasing for clients holding an older copy.
func (s *CartService) ClearCart(ctx context.Context, guestID string, expected int64) (domain.CartView, error) {
	return s.mutate(ctx, guestID, expected, func(cart *domain.Cart) error {
		cart.Clear()
		return nil
	})
}

// errNothingToClear stops ClearPaidCart without saving.
var errNothingToClear = errors.New("nothing to clear")

// ClearPaidCart empties the cart an order was paid from, provided the cart
// has not moved past paidVersion. A later version means the cart was already
// cleared or refilled for another purchase, and it is left alone. It reports
// whether anything was removed.
func (s *CartService) ClearPaidCart(ctx context.Context, guestID string, paidVersion int64) (bool, error) {
	_, err := s.mutate(ctx, guestID, AnyVersion, func(cart *domain.Cart) error {
		if cart.Version > paidVersion || len(cart.Items) == 0 {
			return errNothingToClear
		}
		cart.Clear()
		return nil
	})
	if errors.Is(err, errNothingToClear) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *CartService) mutate(ctx context.Context, guestID string, expected int64, apply func(*domain.Cart) error) (domain.CartView, error) {
	log := logger.FromContext(ctx).With(zap.String("guest_id", guestID))

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		cart, err := s.load(ctx, guestID)
		if err != nil {
			return domain.CartView{}, err
		}
		if expected != AnyVersion && cart.Version != expected {
			return domain.CartView{}, domain.ErrStaleCart
		}

		if err := apply(cart); err != nil {
			return domain.CartView{}, err
		}

		err = s.repo.SaveCart(ctx, cart)
		if errors.Is(err, repository.ErrVersionConflict) {
			if expected != AnyVersion {
				return domain.CartView{}, domain.ErrStaleCart
			}
			log.Debug("cart save lost a race, retrying", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			log.Error("cart save failed", zap.Error(err))
			return domain.CartView{}, err
		}

		s.writeThrough(log, cart)
		return cart.View(), nil
	}

	return domain.CartView{}, fmt.Errorf("%w: gave up after %d attempts", domain.ErrStaleCart, maxSaveAttempts)
}

// load reads the authoritative cart, bypassing the cache so the version used
// for compare-and-swap is current.
func (s *CartService) load(ctx context.Context, guestID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, guestID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return &domain.Cart{GuestID: guestID}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// writeThrough caches the saved cart. Its version is higher than any copy a
// concurrent read may still be refilling, so the cache keeps it. When the
// write fails the entry is dropped instead.
func (s *CartService) writeThrough(log *zap.Logger, cart *domain.Cart) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.cache.Set(ctx, cart.GuestID, cart)
	if err == nil {
		return
	}
	log.Warn("cache write failed", zap.Error(err))
	if err := s.cache.Delete(ctx, cart.GuestID); err != nil {
		log.Warn("cache invalidate failed", zap.Error(err))
	}
}
