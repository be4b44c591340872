package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

func TestGetCart_FromRepositoryFillsCache(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{
		ID:      "cart-1",
		GuestID: "guest-1",
		Items: []domain.CartItem{
			{ProductID: 1, Price: 120000, Quantity: 2},
			{ProductID: 2, Price: 349950, Quantity: 1},
		},
		Version: 4,
	}}
	c := &mockCache{}

	sut := NewCartService(repo, c, sareeCatalog())
	view, err := sut.GetCart(context.Background(), "guest-1")
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2)
	assert.Equal(t, domain.Money(589950), view.Subtotal)
	assert.Equal(t, 3, view.ItemCount)
	assert.Equal(t, int64(4), view.Version)

	require.Eventually(t, func() bool {
		return c.getCart() != nil
	}, 100*time.Millisecond, 10*time.Millisecond, "cart was not set in cache")
}

func TestGetCart_CacheHit(t *testing.T) {
	repo := &mockRepository{err: errors.New("repository must not be called")}
	c := &mockCache{cart: &domain.Cart{
		GuestID: "guest-1",
		Items:   []domain.CartItem{{ProductID: 1, Price: 120000, Quantity: 1}},
	}}

	sut := NewCartService(repo, c, sareeCatalog())
	view, err := sut.GetCart(context.Background(), "guest-1")
	require.NoError(t, err)
	assert.Len(t, view.Lines, 1)
}

func TestGetCart_NoCartIsEmpty(t *testing.T) {
	sut := NewCartService(&mockRepository{}, &mockCache{}, sareeCatalog())

	view, err := sut.GetCart(context.Background(), "guest-1")
	require.NoError(t, err)
	assert.True(t, view.IsEmpty())
	assert.NotNil(t, view.Lines)
	assert.Equal(t, "guest-1", view.GuestID)
	assert.Equal(t, domain.Money(0), view.Subtotal)
}

func TestGetCart_RepoError(t *testing.T) {
	c := &mockCache{}
	sut := NewCartService(&mockRepository{err: errors.New("database error")}, c, sareeCatalog())

	_, err := sut.GetCart(context.Background(), "guest-1")
	assert.ErrorContains(t, err, "database error")
	assert.Nil(t, c.getCart())
}

func TestGetCart_CacheErrorFallsBackToRepository(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{GuestID: "guest-1", Items: []domain.CartItem{{ProductID: 1, Quantity: 1}}}}
	sut := NewCartService(repo, &mockCache{err: errors.New("redis down")}, sareeCatalog())

	view, err := sut.GetCart(context.Background(), "guest-1")
	require.NoError(t, err)
	assert.Len(t, view.Lines, 1)
}

func TestGetCart_ConcurrentReads(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{GuestID: "guest-1", Items: []domain.CartItem{{ProductID: 1, Quantity: 1}}}}
	sut := NewCartService(repo, &mockCache{}, sareeCatalog())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			view, err := sut.GetCart(context.Background(), "guest-1")
			assert.NoError(t, err)
			assert.Len(t, view.Lines, 1)
		}()
	}
	wg.Wait()
}

func TestAddItem_PricesFromCatalog(t *testing.T) {
	repo := &mockRepository{}
	c := &mockCache{cart: &domain.Cart{GuestID: "guest-1"}}
	sut := NewCartService(repo, c, sareeCatalog())
	ctx := context.Background()

	view, err := sut.AddItem(ctx, "guest-1", 1, 2, AnyVersion)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, "Kanjivaram Silk", view.Lines[0].Name)
	assert.Equal(t, domain.Money(120000), view.Lines[0].Price)
	assert.Equal(t, domain.Money(240000), view.Subtotal)
	assert.Equal(t, int64(1), view.Version)
	require.NotNil(t, c.getCart(), "mutation must write the saved cart through")
	assert.Equal(t, int64(1), c.getCart().Version)
}

func TestAddItem_MergesExistingLine(t *testing.T) {
	sut := NewCartService(&mockRepository{}, &mockCache{}, sareeCatalog())
	ctx := context.Background()

	_, err := sut.AddItem(ctx, "guest-1", 1, 1, AnyVersion)
	require.NoError(t, err)
	view, err := sut.AddItem(ctx, "guest-1", 1, 2, AnyVersion)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, 3, view.Lines[0].Quantity)
	assert.Equal(t, int64(2), view.Version)
}

func TestAddItem_Errors(t *testing.T) {
	tests := []struct {
		name      string
		productID int64
		quantity  int
		want      error
	}{
		{name: "unknown product", productID: 99, quantity: 1, want: domain.ErrProductNotFound},
		{name: "zero quantity", productID: 1, quantity: 0, want: domain.ErrInvalidQuantity},
		{name: "over line limit", productID: 1, quantity: 100, want: domain.ErrQuantityLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{}
			sut := NewCartService(repo, &mockCache{}, sareeCatalog())

			_, err := sut.AddItem(context.Background(), "guest-1", tt.productID, tt.quantity, AnyVersion)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, repo.cart)
		})
	}
}

func TestMutation_StaleExpectedVersion(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{ID: "cart-1", GuestID: "guest-1", Version: 5,
		Items: []domain.CartItem{{ProductID: 1, Price: 120000, Quantity: 1}}}}
	sut := NewCartService(repo, &mockCache{}, sareeCatalog())

	_, err := sut.UpdateQuantity(context.Background(), "guest-1", 1, 3, 4)
	assert.ErrorIs(t, err, domain.ErrStaleCart)
	assert.Equal(t, 0, repo.saveCount())

	view, err := sut.UpdateQuantity(context.Background(), "guest-1", 1, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(6), view.Version)
	assert.Equal(t, 3, view.Lines[0].Quantity)
}

func TestMutation_ConflictWithExpectedVersionIsStale(t *testing.T) {
	repo := &mockRepository{
		cart:      &domain.Cart{GuestID: "guest-1", Version: 2, Items: []domain.CartItem{{ProductID: 1, Quantity: 1}}},
		conflicts: 1,
	}
	sut := NewCartService(repo, &mockCache{}, sareeCatalog())

	_, err := sut.RemoveItem(context.Background(), "guest-1", 1, 2)
	assert.ErrorIs(t, err, domain.ErrStaleCart)
	assert.Equal(t, 1, repo.saveCount())
}

func TestMutation_RetriesConflictsWithoutExpectedVersion(t *testing.T) {
	repo := &mockRepository{conflicts: 2}
	sut := NewCartService(repo, &mockCache{}, sareeCatalog())

	view, err := sut.AddItem(context.Background(), "guest-1", 2, 1, AnyVersion)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 1)
	assert.Equal(t, 3, repo.saveCount())
}

func TestMutation_GivesUpAfterBoundedRetries(t *testing.T) {
	repo := &mockRepository{conflicts: maxSaveAttempts}
	sut := NewCartService(repo, &mockCache{}, sareeCatalog())

	_, err := sut.AddItem(context.Background(), "guest-1", 2, 1, AnyVersion)
	assert.ErrorIs(t, err, domain.ErrStaleCart)
	assert.Equal(t, maxSaveAttempts, repo.saveCount())
}

func TestUpdateQuantity_ZeroMatchesRemove(t *testing.T) {
	seed := func() *mockRepository {
		return &mockRepository{cart: &domain.Cart{ID: "cart-1", GuestID: "guest-1", Version: 1, Items: []domain.CartItem{
			{ProductID: 1, Price: 120000, Quantity: 2},
			{ProductID: 2, Price: 349950, Quantity: 1},
		}}}
	}

	for _, pid := range []int64{1, 42} {
		viaUpdate, err := NewCartService(seed(), &mockCache{}, sareeCatalog()).
			UpdateQuantity(context.Background(), "guest-1", pid, 0, AnyVersion)
		require.NoError(t, err)

		viaRemove, err := NewCartService(seed(), &mockCache{}, sareeCatalog()).
			RemoveItem(context.Background(), "guest-1", pid, AnyVersion)
		require.NoError(t, err)

		assert.Equal(t, viaRemove, viaUpdate)
	}
}

func TestUpdateQuantity_MissingLine(t *testing.T) {
	sut := NewCartService(&mockRepository{}, &mockCache{}, sareeCatalog())

	_, err := sut.UpdateQuantity(context.Background(), "guest-1", 1, 2, AnyVersion)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestClearCart(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{ID: "cart-1", GuestID: "guest-1", Version: 3,
		Items: []domain.CartItem{{ProductID: 1, Quantity: 2}}}}
	c := &mockCache{}
	sut := NewCartService(repo, c, sareeCatalog())

	view, err := sut.ClearCart(context.Background(), "guest-1", 3)
	require.NoError(t, err)
	assert.True(t, view.IsEmpty())
	assert.Equal(t, int64(4), view.Version)
	require.NotNil(t, c.getCart())
	assert.Empty(t, c.getCart().Items)
	assert.Equal(t, int64(4), c.getCart().Version)
}

func TestMutation_FailedCacheWriteDropsEntry(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{ID: "cart-1", GuestID: "guest-1", Version: 1,
		Items: []domain.CartItem{{ProductID: 1, Price: 120000, Quantity: 1}}}}
	c := &mockCache{cart: &domain.Cart{GuestID: "guest-1", Version: 1}, setErr: errors.New("redis down")}
	sut := NewCartService(repo, c, sareeCatalog())

	_, err := sut.UpdateQuantity(context.Background(), "guest-1", 1, 2, 1)
	require.NoError(t, err)
	assert.Nil(t, c.getCart())
	assert.Equal(t, 1, c.deletes)
}

func TestGetCart_SlowRefillDoesNotHideLaterWrite(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{ID: "cart-1", GuestID: "guest-1", Version: 1,
		Items: []domain.CartItem{{ProductID: 1, Price: 120000, Quantity: 1}}}}
	c := &mockCache{setDelay: 50 * time.Millisecond, stalled: make(chan struct{})}
	sut := NewCartService(repo, c, sareeCatalog())
	ctx := context.Background()

	view, err := sut.GetCart(ctx, "guest-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), view.Version)
	<-c.stalled

	updated, err := sut.UpdateQuantity(ctx, "guest-1", 1, 3, view.Version)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.Version)

	require.Eventually(t, func() bool {
		return c.setCount() == 2
	}, time.Second, 10*time.Millisecond, "refill never finished")

	view, err = sut.GetCart(ctx, "guest-1")
	require.NoError(t, err)
	assert.Equal(t, updated, view)

	_, err = sut.UpdateQuantity(ctx, "guest-1", 1, 4, view.Version)
	assert.NoError(t, err)
}

func TestClearPaidCart(t *testing.T) {
	items := func() []domain.CartItem {
		return []domain.CartItem{{ProductID: 1, Price: 120000, Quantity: 2}}
	}
	tests := []struct {
		name        string
		stored      *domain.Cart
		paidVersion int64
		wantCleared bool
		wantVersion int64
		wantItems   int
	}{
		{
			name:        "cart still holds the paid items",
			stored:      &domain.Cart{ID: "cart-1", GuestID: "guest-1", Version: 6, Items: items()},
			paidVersion: 6,
			wantCleared: true,
			wantVersion: 7,
		},
		{
			name:        "refilled after the checkout cleared it",
			stored:      &domain.Cart{ID: "cart-1", GuestID: "guest-1", Version: 8, Items: items()},
			paidVersion: 6,
			wantVersion: 8,
			wantItems:   1,
		},
		{
			name:        "already empty",
			stored:      &domain.Cart{ID: "cart-1", GuestID: "guest-1", Version: 6},
			paidVersion: 6,
			wantVersion: 6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{cart: tt.stored}
			sut := NewCartService(repo, &mockCache{}, sareeCatalog())

			cleared, err := sut.ClearPaidCart(context.Background(), "guest-1", tt.paidVersion)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCleared, cleared)

			view, err := sut.GetCart(context.Background(), "guest-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, view.Version)
			assert.Len(t, view.Lines, tt.wantItems)
		})
	}
}

func TestClearPaidCart_NoCart(t *testing.T) {
	repo := &mockRepository{}
	sut := NewCartService(repo, &mockCache{}, sareeCatalog())

	cleared, err := sut.ClearPaidCart(context.Background(), "guest-1", 3)
	require.NoError(t, err)
	assert.False(t, cleared)
	assert.Zero(t, repo.saveCount())
}
