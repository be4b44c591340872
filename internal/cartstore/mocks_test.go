package cartstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

var errUnavailable = errors.New("connection refused")

// fakeAPI is an in-memory cart server with version checks.
type fakeAPI struct {
	mu      sync.Mutex
	cart    domain.Cart
	prices  map[int64]domain.Money
	getErr  error
	calls   []string
	gate    chan struct{}
	active  int32
	maxSeen int32
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		cart:   domain.Cart{ID: "cart-1", GuestID: "guest-1"},
		prices: map[int64]domain.Money{1: 120000, 2: 349950, 3: 89900},
	}
}

func (f *fakeAPI) enter(name string) func() {
	n := atomic.AddInt32(&f.active, 1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, n) {
			break
		}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.calls = append(f.calls, name)
	return func() {
		f.mu.Unlock()
		atomic.AddInt32(&f.active, -1)
	}
}

func (f *fakeAPI) GetCart(context.Context) (domain.CartView, error) {
	defer f.enter("get")()
	if f.getErr != nil {
		return domain.CartView{}, f.getErr
	}
	return f.cart.View(), nil
}

func (f *fakeAPI) write(expected int64, apply func(*domain.Cart) error) (domain.CartView, error) {
	if expected >= 0 && expected != f.cart.Version {
		return domain.CartView{}, domain.ErrStaleCart
	}
	if err := apply(&f.cart); err != nil {
		return domain.CartView{}, err
	}
	f.cart.Version++
	return f.cart.View(), nil
}

func (f *fakeAPI) AddItem(_ context.Context, productID int64, quantity int, expected int64) (domain.CartView, error) {
	defer f.enter("add")()
	return f.write(expected, func(c *domain.Cart) error {
		price, ok := f.prices[productID]
		if !ok {
			return domain.ErrProductNotFound
		}
		return c.AddItem(domain.CartItem{ProductID: productID, Price: price, Quantity: quantity})
	})
}

func (f *fakeAPI) UpdateQuantity(_ context.Context, productID int64, quantity int, expected int64) (domain.CartView, error) {
	defer f.enter("update")()
	return f.write(expected, func(c *domain.Cart) error {
		return c.SetQuantity(productID, quantity)
	})
}

func (f *fakeAPI) RemoveItem(_ context.Context, productID int64, expected int64) (domain.CartView, error) {
	defer f.enter("remove")()
	return f.write(expected, func(c *domain.Cart) error {
		return c.RemoveItem(productID)
	})
}

func (f *fakeAPI) ClearCart(_ context.Context, expected int64) (domain.CartView, error) {
	defer f.enter("clear")()
	return f.write(expected, func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
}

// bumpElsewhere simulates a write from another device.
func (f *fakeAPI) bumpElsewhere(productID int64, quantity int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = f.cart.AddItem(domain.CartItem{ProductID: productID, Price: f.prices[productID], Quantity: quantity})
	f.cart.Version++
}

func (f *fakeAPI) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
