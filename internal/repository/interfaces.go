package repository

import (
	"context"

	"shop-service/internal/models"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter, limit, offset int) ([]models.Product, int64, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error

	// LockForUpdate loads the given products and holds their row locks until the
	// surrounding transaction ends. Missing ids are absent from the result.
	LockForUpdate(ctx context.Context, ids []int64) (map[int64]models.Product, error)
	// AdjustStock adds delta to the product stock and returns the new stock.
	// It fails with ErrNotEnough when the result would be negative.
	AdjustStock(ctx context.Context, id int64, delta int) (int, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	GetAll(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id int64) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type CartRepository interface {
	// Snapshot returns every cart line of the user joined with its product.
	Snapshot(ctx context.Context, userID int64) (*models.CartSnapshot, error)
	// LockSnapshot is Snapshot holding the cart row locks until the transaction ends.
	LockSnapshot(ctx context.Context, userID int64) (*models.CartSnapshot, error)
	// AddQuantity creates the (user, product) line or increments it, and stores
	// the resulting id and quantity back into item.
	AddQuantity(ctx context.Context, item *models.CartItem) error
	SetQuantity(ctx context.Context, userID, itemID int64, quantity int) error
	Delete(ctx context.Context, userID, itemID int64) error
	DeleteItems(ctx context.Context, userID int64, itemIDs []int64) (int64, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	// GetForUser returns the order with items when it belongs to the user.
	GetForUser(ctx context.Context, userID, orderID int64) (*models.Order, error)
	GetByID(ctx context.Context, orderID int64) (*models.Order, error)
	// LockForUpdate is GetByID holding the order row lock until the transaction ends.
	LockForUpdate(ctx context.Context, orderID int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status models.OrderStatus, trackingNumber *string) error
}

type OperationRepository interface {
	Create(ctx context.Context, operation *models.Operation) error
	GetByProductID(ctx context.Context, productID int64) ([]models.Operation, error)
	GetByOrderID(ctx context.Context, orderID int64) ([]models.Operation, error)
}

type Repositories interface {
	Products() ProductRepository
	Categories() CategoryRepository
	Users() UserRepository
	Carts() CartRepository
	Orders() OrderRepository
	Operations() OperationRepository
}

// Tx is a unit of work. Repositories obtained from it share one transaction.
type Tx interface {
	Repositories
}

type Store interface {
	Repositories
	// WithTx runs fn in a single transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close()
}
