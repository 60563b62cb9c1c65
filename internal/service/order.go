package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/repository"

	"github.com/shopspring/decimal"
)

type PlacedOrder struct {
	OrderID     int64              `json:"order_id"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Status      models.OrderStatus `json:"status"`
}

// OrderEngine turns carts into orders and moves orders through their
// lifecycle. Every stock change it makes happens inside one unit of work
// together with the order rows and the stock ledger.
type OrderEngine struct {
	store    repository.Store
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewOrderEngine(store repository.Store, notifier Notifier, logger *slog.Logger) *OrderEngine {
	return &OrderEngine{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder checks out the whole cart of the user: it re-validates stock
// against locked product rows, freezes current prices into the order items,
// decrements stock and empties the cart. Nothing is applied unless all of it is.
func (e *OrderEngine) CreateOrder(ctx context.Context, userID int64, shippingAddress string) (*PlacedOrder, error) {
	address := strings.TrimSpace(shippingAddress)
	if address == "" {
		return nil, fmt.Errorf("%w: shipping address is required", repository.ErrInvalidInput)
	}

	var order *models.Order
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		snap, err := tx.Carts().LockSnapshot(ctx, userID)
		if err != nil {
			return err
		}
		if snap.Empty() {
			return repository.ErrEmptyCart
		}

		locked, err := tx.Products().LockForUpdate(ctx, snap.ProductIDs())
		if err != nil {
			return err
		}

		o := &models.Order{
			UserID:          userID,
			TotalAmount:     decimal.Zero,
			Status:          models.OrderStatusPending,
			ShippingAddress: address,
			Items:           make([]models.OrderItem, 0, len(snap.Lines)),
		}
		itemIDs := make([]int64, 0, len(snap.Lines))

		for _, line := range snap.Lines {
			product, ok := locked[line.Item.ProductID]
			if !ok {
				return fmt.Errorf("%w: product %d no longer exists", repository.ErrNotFound, line.Item.ProductID)
			}
			if product.Stock < line.Item.Quantity {
				return &repository.StockError{
					ProductID:   product.ProductID,
					ProductName: product.Name,
					Requested:   line.Item.Quantity,
					Available:   product.Stock,
				}
			}

			item := models.OrderItem{
				ProductID:   product.ProductID,
				ProductName: product.Name,
				Quantity:    line.Item.Quantity,
				Price:       product.Price,
			}
			o.Items = append(o.Items, item)
			o.TotalAmount = o.TotalAmount.Add(item.Subtotal())
			itemIDs = append(itemIDs, line.Item.CartItemID)
		}

		if err := tx.Orders().Create(ctx, o); err != nil {
			return err
		}

		for _, item := range o.Items {
			if err := moveStock(ctx, tx, o.OrderID, item.ProductID, -item.Quantity, models.OperationOutgoing); err != nil {
				return err
			}
		}

		if _, err := tx.Carts().DeleteItems(ctx, userID, itemIDs); err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("order placed",
		"order_id", order.OrderID,
		"user_id", userID,
		"items", len(order.Items),
		"total_amount", order.TotalAmount.StringFixed(2),
	)
	notify(ctx, e.notifier, e.logger, models.NewOrderEvent(models.EventOrderPlaced, order, e.now()))

	return &PlacedOrder{
		OrderID:     order.OrderID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
	}, nil
}

// CancelOrder cancels a pending order of the user and puts its items back in stock.
func (e *OrderEngine) CancelOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	var order *models.Order
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		o, err := tx.Orders().LockForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return repository.ErrNotFound
		}
		if !o.Status.Cancellable() {
			return fmt.Errorf("%w: order %d is %s and cannot be cancelled", repository.ErrInvalidState, orderID, o.Status)
		}

		if err := restock(ctx, tx, o); err != nil {
			return err
		}

		if err := tx.Orders().UpdateStatus(ctx, orderID, models.OrderStatusCancelled, nil); err != nil {
			return err
		}

		order, err = tx.Orders().GetByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("order cancelled", "order_id", orderID, "user_id", userID)
	notify(ctx, e.notifier, e.logger, models.NewOrderEvent(models.EventOrderCancelled, order, e.now()))

	return order, nil
}

// AdvanceStatus moves an order one step forward in its fulfillment lifecycle.
// Cancellation is not a fulfillment step and is refused here.
func (e *OrderEngine) AdvanceStatus(ctx context.Context, orderID int64, target models.OrderStatus, trackingNumber *string) (*models.Order, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status", repository.ErrInvalidInput)
	}
	if target == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: orders are cancelled through the cancel operation", repository.ErrInvalidState)
	}
	if trackingNumber != nil {
		tn := strings.TrimSpace(*trackingNumber)
		if tn == "" || len(tn) > 100 {
			return nil, fmt.Errorf("%w: tracking number must be 1-100 characters", repository.ErrInvalidInput)
		}
		trackingNumber = &tn
	}

	var (
		order *models.Order
		from  models.OrderStatus
	)
	err := e.store.WithTx(ctx, func(tx repository.Tx) error {
		o, err := tx.Orders().LockForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: cannot move order %d from %s to %s", repository.ErrInvalidState, orderID, o.Status, target)
		}
		from = o.Status

		if err := tx.Orders().UpdateStatus(ctx, orderID, target, trackingNumber); err != nil {
			return err
		}

		order, err = tx.Orders().GetByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("order status changed", "order_id", orderID, "from", from.String(), "to", target.String())
	notify(ctx, e.notifier, e.logger, models.NewOrderEvent(models.EventOrderStatusChanged, order, e.now()))

	return order, nil
}

func (e *OrderEngine) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return e.store.Orders().ListByUser(ctx, userID)
}

func (e *OrderEngine) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	return e.store.Orders().GetForUser(ctx, userID, orderID)
}

// restock locks the products of the order in id order and returns every item
// quantity to stock.
func restock(ctx context.Context, tx repository.Tx, o *models.Order) error {
	ids := make([]int64, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.ProductID)
	}
	slices.Sort(ids)
	if _, err := tx.Products().LockForUpdate(ctx, slices.Compact(ids)); err != nil {
		return err
	}

	for _, item := range o.Items {
		if err := moveStock(ctx, tx, o.OrderID, item.ProductID, item.Quantity, models.OperationIncoming); err != nil {
			return err
		}
	}
	return nil
}

// moveStock applies a stock delta and records it in the ledger.
func moveStock(ctx context.Context, tx repository.Tx, orderID, productID int64, delta int, opType models.OperationType) error {
	if _, err := tx.Products().AdjustStock(ctx, productID, delta); err != nil {
		return err
	}
	return tx.Operations().Create(ctx, &models.Operation{
		ProductID:     productID,
		OrderID:       &orderID,
		OperationType: opType,
		ChangeQuant:   delta,
	})
}
