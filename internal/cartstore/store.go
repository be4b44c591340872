// Package cartstore keeps the client's copy of the server cart. Every change
// goes through the API one request at a time and the local copy is replaced
// with whatever the server answers.
package cartstore

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

var (
	ErrMutationInFlight = errors.New("a change to this item is already in progress")
	ErrClosed           = errors.New("cart store is closed")
)

// anyVersion asks the server to apply a write without a version check.
const anyVersion int64 = -1

const queueSize = 32

type API interface {
	GetCart(ctx context.Context) (domain.CartView, error)
	AddItem(ctx context.Context, productID int64, quantity int, expected int64) (domain.CartView, error)
	UpdateQuantity(ctx context.Context, productID int64, quantity int, expected int64) (domain.CartView, error)
	RemoveItem(ctx context.Context, productID int64, expected int64) (domain.CartView, error)
	ClearCart(ctx context.Context, expected int64) (domain.CartView, error)
}

type mutation struct {
	ctx       context.Context
	productID int64
	isAdd     bool
	send      func(ctx context.Context, expected int64) (domain.CartView, error)
	done      chan error
}

type Store struct {
	api     API
	guestID string
	log     *zap.Logger

	mu     sync.RWMutex
	view   domain.CartView
	loaded bool
	// gen moves on every applied mutation so a refresh that started earlier
	// cannot overwrite a newer view.
	gen     uint64
	pending map[int64]int
	adding  map[int64]bool

	sfg     singleflight.Group
	queue   chan *mutation
	closed  chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func New(api API, guestID string, log *zap.Logger) *Store {
	s := &Store{
		api:     api,
		guestID: guestID,
		log:     log.With(zap.String("guest_id", guestID)),
		view:    domain.EmptyCartView(guestID),
		pending: make(map[int64]int),
		adding:  make(map[int64]bool),
		queue:   make(chan *mutation, queueSize),
		closed:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.worker()
	return s
}

// Close stops the mutation worker. Queued mutations that have not started
// fail with ErrClosed.
func (s *Store) Close() {
	s.once.Do(func() { close(s.closed) })
	<-s.stopped
}

// Refresh loads the server cart. Concurrent calls share one request. When the
// server cannot be reached the store falls back to an empty cart.
func (s *Store) Refresh(ctx context.Context) domain.CartView {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	v, err, _ := s.sfg.Do("refresh", func() (interface{}, error) {
		return s.api.GetCart(ctx)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.gen != gen:
		// a mutation landed while loading; its view is newer
	case err != nil:
		s.log.Warn("failed to load cart, showing an empty cart", zap.Error(err))
		s.view = domain.EmptyCartView(s.guestID)
		s.loaded = false
	default:
		s.view = v.(domain.CartView)
		s.loaded = true
	}
	return cloneView(s.view)
}

// AddItem adds quantity units of the product. A quantity of 0 adds one.
func (s *Store) AddItem(ctx context.Context, productID int64, quantity int) (domain.CartView, error) {
	if quantity < 0 {
		return domain.CartView{}, domain.ErrInvalidQuantity
	}
	if quantity == 0 {
		quantity = 1
	}
	return s.enqueue(ctx, productID, true, func(ctx context.Context, expected int64) (domain.CartView, error) {
		return s.api.AddItem(ctx, productID, quantity, expected)
	})
}

// UpdateQuantity sets the line quantity. Zero removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) (domain.CartView, error) {
	if quantity < 0 {
		return domain.CartView{}, domain.ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, productID)
	}
	return s.enqueue(ctx, productID, false, func(ctx context.Context, expected int64) (domain.CartView, error) {
		return s.api.UpdateQuantity(ctx, productID, quantity, expected)
	})
}

func (s *Store) RemoveItem(ctx context.Context, productID int64) (domain.CartView, error) {
	return s.enqueue(ctx, productID, false, func(ctx context.Context, expected int64) (domain.CartView, error) {
		return s.api.RemoveItem(ctx, productID, expected)
	})
}

func (s *Store) Clear(ctx context.Context) (domain.CartView, error) {
	return s.enqueue(ctx, 0, false, func(ctx context.Context, expected int64) (domain.CartView, error) {
		return s.api.ClearCart(ctx, expected)
	})
}

// Reset drops the local copy without touching the server.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = domain.EmptyCartView(s.guestID)
	s.loaded = false
	s.gen++
}

func (s *Store) Cart() domain.CartView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneView(s.view)
}

func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.ItemCount
}

// Pending reports whether a change to the product is queued or in flight.
func (s *Store) Pending(productID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending[productID] > 0
}

func (s *Store) enqueue(ctx context.Context, productID int64, isAdd bool, send func(context.Context, int64) (domain.CartView, error)) (domain.CartView, error) {
	s.mu.Lock()
	if isAdd && s.adding[productID] {
		s.mu.Unlock()
		return domain.CartView{}, ErrMutationInFlight
	}
	if isAdd {
		s.adding[productID] = true
	}
	s.pending[productID]++
	s.mu.Unlock()

	m := &mutation{ctx: ctx, productID: productID, isAdd: isAdd, send: send, done: make(chan error, 1)}

	select {
	case <-s.closed:
		s.release(m)
		return domain.CartView{}, ErrClosed
	default:
	}

	select {
	case s.queue <- m:
	case <-s.closed:
		s.release(m)
		return domain.CartView{}, ErrClosed
	case <-ctx.Done():
		s.release(m)
		return domain.CartView{}, ctx.Err()
	}

	var err error
	select {
	case err = <-m.done:
	case <-s.stopped:
		// the worker exited after our send; drain may still have answered
		select {
		case err = <-m.done:
		default:
			s.release(m)
			err = ErrClosed
		}
	}
	if err != nil {
		return domain.CartView{}, err
	}
	return s.Cart(), nil
}

func (s *Store) worker() {
	defer close(s.stopped)
	for {
		select {
		case <-s.closed:
			s.drain()
			return
		case m := <-s.queue:
			m.done <- s.apply(m)
		}
	}
}

func (s *Store) drain() {
	for {
		select {
		case m := <-s.queue:
			s.release(m)
			m.done <- ErrClosed
		default:
			return
		}
	}
}

func (s *Store) apply(m *mutation) error {
	defer s.release(m)
	if err := m.ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	expected := anyVersion
	if s.loaded {
		expected = s.view.Version
	}
	s.mu.RUnlock()

	view, err := m.send(m.ctx, expected)
	if errors.Is(err, domain.ErrStaleCart) {
		s.log.Info("cart changed elsewhere, reloading", zap.Int64("expected_version", expected))
		s.Refresh(m.ctx)
		return err
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.view = view
	s.loaded = true
	s.gen++
	s.mu.Unlock()
	return nil
}

func (s *Store) release(m *mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[m.productID]--; s.pending[m.productID] <= 0 {
		delete(s.pending, m.productID)
	}
	if m.isAdd {
		delete(s.adding, m.productID)
	}
}

func cloneView(v domain.CartView) domain.CartView {
	v.Lines = append([]domain.CartLine(nil), v.Lines...)
	if v.Lines == nil {
		v.Lines = []domain.CartLine{}
	}
	return v
}
