package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/repository"
)

type userRepo struct {
	v *view
}

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := repository.ValidateUser(u); err != nil {
		return err
	}
	return r.v.write(func(st *state) error {
		for _, other := range st.users {
			if other.Email == u.Email {
				return fmt.Errorf("%w: email already registered", repository.ErrDuplicate)
			}
		}
		st.nextUserID++
		u.UserID = st.nextUserID
		u.CreatedAt = time.Now().UTC()
		st.users[u.UserID] = *u
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	var out *models.User
	err := r.v.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var out *models.User
	err := r.v.read(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				out = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

type cartRepo struct {
	v *view
}

func (r *cartRepo) Snapshot(_ context.Context, userID int64) (*models.CartSnapshot, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", repository.ErrInvalidInput)
	}
	snap := &models.CartSnapshot{UserID: userID}
	err := r.v.read(func(st *state) error {
		for _, ci := range st.cartItems {
			if ci.UserID != userID {
				continue
			}
			p, ok := st.products[ci.ProductID]
			if !ok {
				continue
			}
			snap.Lines = append(snap.Lines, models.CartLine{Item: ci, Product: p})
		}
		return nil
	})
	slices.SortFunc(snap.Lines, func(a, b models.CartLine) int {
		return cmp.Compare(a.Item.CartItemID, b.Item.CartItemID)
	})
	return snap, err
}

// LockSnapshot equals Snapshot: a unit of work already owns the whole state.
func (r *cartRepo) LockSnapshot(ctx context.Context, userID int64) (*models.CartSnapshot, error) {
	return r.Snapshot(ctx, userID)
}

func (r *cartRepo) AddQuantity(_ context.Context, item *models.CartItem) error {
	if item.UserID <= 0 || item.ProductID <= 0 {
		return fmt.Errorf("%w: user and product ID must be positive", repository.ErrInvalidInput)
	}
	if item.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be positive", repository.ErrInvalidInput)
	}
	return r.v.write(func(st *state) error {
		if _, ok := st.products[item.ProductID]; !ok {
			return repository.ErrNotFound
		}
		for id, ci := range st.cartItems {
			if ci.UserID == item.UserID && ci.ProductID == item.ProductID {
				ci.Quantity += item.Quantity
				st.cartItems[id] = ci
				*item = ci
				return nil
			}
		}
		st.nextCartItemID++
		item.CartItemID = st.nextCartItemID
		item.CreatedAt = time.Now().UTC()
		st.cartItems[item.CartItemID] = *item
		return nil
	})
}

func (r *cartRepo) SetQuantity(_ context.Context, userID, itemID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be positive", repository.ErrInvalidInput)
	}
	return r.v.write(func(st *state) error {
		ci, ok := st.cartItems[itemID]
		if !ok || ci.UserID != userID {
			return repository.ErrNotFound
		}
		ci.Quantity = quantity
		st.cartItems[itemID] = ci
		return nil
	})
}

func (r *cartRepo) Delete(_ context.Context, userID, itemID int64) error {
	return r.v.write(func(st *state) error {
		ci, ok := st.cartItems[itemID]
		if !ok || ci.UserID != userID {
			return repository.ErrNotFound
		}
		delete(st.cartItems, itemID)
		return nil
	})
}

func (r *cartRepo) DeleteItems(_ context.Context, userID int64, itemIDs []int64) (int64, error) {
	var deleted int64
	err := r.v.write(func(st *state) error {
		for _, id := range itemIDs {
			if ci, ok := st.cartItems[id]; ok && ci.UserID == userID {
				delete(st.cartItems, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

type orderRepo struct {
	v *view
}

func (r *orderRepo) Create(_ context.Context, o *models.Order) error {
	if o == nil || o.UserID <= 0 || len(o.Items) == 0 {
		return fmt.Errorf("%w: order needs a user and at least one item", repository.ErrInvalidInput)
	}
	for _, it := range o.Items {
		if it.Quantity <= 0 || !it.Price.IsPositive() || it.ProductID <= 0 {
			return fmt.Errorf("%w: invalid order item", repository.ErrInvalidInput)
		}
	}
	return r.v.write(func(st *state) error {
		for _, it := range o.Items {
			if _, ok := st.products[it.ProductID]; !ok {
				return repository.ErrNotFound
			}
		}
		now := time.Now().UTC()
		st.nextOrderID++
		o.OrderID = st.nextOrderID
		o.CreatedAt = now
		o.UpdatedAt = now
		for i := range o.Items {
			st.nextOrderItemID++
			o.Items[i].OrderItemID = st.nextOrderItemID
			o.Items[i].OrderID = o.OrderID
		}
		stored := *o
		stored.Items = nil
		st.orders[o.OrderID] = stored
		st.orderItems[o.OrderID] = slices.Clone(o.Items)
		return nil
	})
}

func (st *state) hydrate(o models.Order) models.Order {
	items := slices.Clone(st.orderItems[o.OrderID])
	for i := range items {
		if p, ok := st.products[items[i].ProductID]; ok {
			items[i].ProductName = p.Name
		}
	}
	if items == nil {
		items = []models.OrderItem{}
	}
	o.Items = items
	return o
}

func (r *orderRepo) GetByID(_ context.Context, orderID int64) (*models.Order, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: order ID must be positive", repository.ErrInvalidInput)
	}
	var out *models.Order
	err := r.v.read(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return repository.ErrNotFound
		}
		full := st.hydrate(o)
		out = &full
		return nil
	})
	return out, err
}

func (r *orderRepo) GetForUser(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	o, err := r.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (r *orderRepo) LockForUpdate(ctx context.Context, orderID int64) (*models.Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *orderRepo) ListByUser(_ context.Context, userID int64) ([]models.Order, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", repository.ErrInvalidInput)
	}
	out := []models.Order{}
	err := r.v.read(func(st *state) error {
		for _, o := range st.orders {
			if o.UserID == userID {
				out = append(out, st.hydrate(o))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b models.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.OrderID, a.OrderID)
	})
	return out, err
}

func (r *orderRepo) UpdateStatus(_ context.Context, orderID int64, status models.OrderStatus, trackingNumber *string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: invalid status '%s'", repository.ErrInvalidInput, status)
	}
	return r.v.write(func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return repository.ErrNotFound
		}
		o.Status = status
		if trackingNumber != nil {
			tn := *trackingNumber
			o.TrackingNumber = &tn
		}
		o.UpdatedAt = time.Now().UTC()
		st.orders[orderID] = o
		return nil
	})
}

type operationRepo struct {
	v *view
}

func (r *operationRepo) Create(_ context.Context, o *models.Operation) error {
	if err := repository.ValidateOperation(o); err != nil {
		return err
	}
	return r.v.write(func(st *state) error {
		if _, ok := st.products[o.ProductID]; !ok {
			return repository.ErrNotFound
		}
		st.nextOperationID++
		o.OperationID = st.nextOperationID
		o.CreatedAt = time.Now().UTC()
		st.operations = append(st.operations, *o)
		return nil
	})
}

func (r *operationRepo) GetByProductID(_ context.Context, productID int64) ([]models.Operation, error) {
	return r.filter(func(o models.Operation) bool { return o.ProductID == productID })
}

func (r *operationRepo) GetByOrderID(_ context.Context, orderID int64) ([]models.Operation, error) {
	return r.filter(func(o models.Operation) bool { return o.OrderID != nil && *o.OrderID == orderID })
}

func (r *operationRepo) filter(keep func(models.Operation) bool) ([]models.Operation, error) {
	out := []models.Operation{}
	err := r.v.read(func(st *state) error {
		for _, o := range st.operations {
			if keep(o) {
				out = append(out, o)
			}
		}
		return nil
	})
	return out, err
}
