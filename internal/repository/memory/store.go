// Package memory is an in-process implementation of repository.Store.
//
// All state sits behind one RWMutex. WithTx holds the write lock for the whole
// unit of work and runs it against a private copy of the state, which replaces
// the live state only when the unit of work succeeds. Transactions are therefore
// serializable and all-or-nothing. Repositories obtained from the Store itself
// lock per call; repositories obtained from a Tx must not be used after the
// unit of work returns, and the Store's own repositories must not be used
// inside one.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"shop-service/internal/models"
	"shop-service/internal/repository"
)

type state struct {
	users      map[int64]models.User
	categories map[int64]models.Category
	products   map[int64]models.Product
	cartItems  map[int64]models.CartItem
	orders     map[int64]models.Order
	orderItems map[int64][]models.OrderItem
	operations []models.Operation

	nextUserID      int64
	nextCategoryID  int64
	nextProductID   int64
	nextCartItemID  int64
	nextOrderID     int64
	nextOrderItemID int64
	nextOperationID int64
}

func newState() *state {
	return &state{
		users:      make(map[int64]models.User),
		categories: make(map[int64]models.Category),
		products:   make(map[int64]models.Product),
		cartItems:  make(map[int64]models.CartItem),
		orders:     make(map[int64]models.Order),
		orderItems: make(map[int64][]models.OrderItem),
	}
}

func (s *state) clone() *state {
	c := *s
	c.users = maps.Clone(s.users)
	c.categories = maps.Clone(s.categories)
	c.products = maps.Clone(s.products)
	c.cartItems = maps.Clone(s.cartItems)
	c.orders = maps.Clone(s.orders)
	c.orderItems = make(map[int64][]models.OrderItem, len(s.orderItems))
	for id, items := range s.orderItems {
		c.orderItems[id] = slices.Clone(items)
	}
	c.operations = slices.Clone(s.operations)
	return &c
}

type Store struct {
	mu sync.RWMutex
	st *state
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) live() *view {
	return &view{store: s}
}

func (s *Store) Products() repository.ProductRepository     { return s.live().Products() }
func (s *Store) Categories() repository.CategoryRepository  { return s.live().Categories() }
func (s *Store) Users() repository.UserRepository           { return s.live().Users() }
func (s *Store) Carts() repository.CartRepository           { return s.live().Carts() }
func (s *Store) Orders() repository.OrderRepository         { return s.live().Orders() }
func (s *Store) Operations() repository.OperationRepository { return s.live().Operations() }

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrConflict, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&view{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrConflict, err)
	}

	s.st = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() {}

// view binds repositories either to the live state (store set) or to the
// private state of one unit of work (st set).
type view struct {
	store *Store
	st    *state
}

func (v *view) Products() repository.ProductRepository     { return &productRepo{v: v} }
func (v *view) Categories() repository.CategoryRepository  { return &categoryRepo{v: v} }
func (v *view) Users() repository.UserRepository           { return &userRepo{v: v} }
func (v *view) Carts() repository.CartRepository           { return &cartRepo{v: v} }
func (v *view) Orders() repository.OrderRepository         { return &orderRepo{v: v} }
func (v *view) Operations() repository.OperationRepository { return &operationRepo{v: v} }

func (v *view) read(fn func(st *state) error) error {
	if v.store == nil {
		return fn(v.st)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.st)
}

// write runs fn with exclusive access. fn must validate before it mutates.
func (v *view) write(fn func(st *state) error) error {
	if v.store == nil {
		return fn(v.st)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}
