package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type orderRepo struct {
	db DBTX
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("%w: order cannot be nil", ErrInvalidInput)
	}
	if order.UserID <= 0 {
		return fmt.Errorf("%w: user ID cannot be empty", ErrInvalidInput)
	}
	if len(order.Items) == 0 {
		return fmt.Errorf("slice items cannot be empty: %w", ErrInvalidInput)
	}
	for _, item := range order.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("quantity must be positive: %w", ErrInvalidInput)
		}
		if !item.Price.IsPositive() {
			return fmt.Errorf("price must be positive: %w", ErrInvalidInput)
		}
		if item.ProductID <= 0 {
			return fmt.Errorf("product ID cannot be empty: %w", ErrInvalidInput)
		}
	}

	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	insert := `INSERT INTO orders (
	user_id,
	total_amount,
	status,
	shipping_address,
	tracking_number,
	created_at,
	updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING order_id
	`

	err := r.db.QueryRow(ctx, insert,
		order.UserID,
		order.TotalAmount,
		order.Status.String(),
		order.ShippingAddress,
		order.TrackingNumber,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.OrderID)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	insertItemSQL := `INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING order_item_id
	`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.OrderID
		err := r.db.QueryRow(ctx, insertItemSQL, order.OrderID, item.ProductID, item.Quantity, item.Price).
			Scan(&item.OrderItemID)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

const orderColumns = `
	o.order_id,
	o.user_id,
	o.total_amount,
	o.status,
	o.shipping_address,
	o.tracking_number,
	o.created_at,
	o.updated_at`

func scanOrder(row pgx.Row, o *models.Order) error {
	var status string
	err := row.Scan(
		&o.OrderID,
		&o.UserID,
		&o.TotalAmount,
		&status,
		&o.ShippingAddress,
		&o.TrackingNumber,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	o.Status, err = models.ParseOrderStatus(status)
	return err
}

func (r *orderRepo) GetForUser(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	order, err := r.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotFound
	}
	return order, nil
}

func (r *orderRepo) GetByID(ctx context.Context, orderID int64) (*models.Order, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: order ID must be positive", ErrInvalidInput)
	}

	sql := `SELECT` + orderColumns + `,
	oi.order_item_id,
	oi.product_id,
	p.name,
	oi.quantity,
	oi.price
	FROM orders o
	LEFT JOIN order_items oi ON o.order_id = oi.order_id
	LEFT JOIN products p ON p.product_id = oi.product_id
	WHERE o.order_id = $1
	ORDER BY oi.order_item_id
	`

	rows, err := r.db.Query(ctx, sql, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order with items %d: %w", orderID, err)
	}
	defer rows.Close()

	var order *models.Order

	for rows.Next() {
		var (
			current     models.Order
			status      string
			orderItemID pgtype.Int8
			productID   pgtype.Int8
			productName pgtype.Text
			quantity    pgtype.Int4
			price       decimal.NullDecimal
		)

		err := rows.Scan(
			&current.OrderID,
			&current.UserID,
			&current.TotalAmount,
			&status,
			&current.ShippingAddress,
			&current.TrackingNumber,
			&current.CreatedAt,
			&current.UpdatedAt,
			&orderItemID,
			&productID,
			&productName,
			&quantity,
			&price,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order/item: %w", err)
		}
		if order == nil {
			if current.Status, err = models.ParseOrderStatus(status); err != nil {
				return nil, fmt.Errorf("scan order %d: %w", orderID, err)
			}
			current.Items = []models.OrderItem{}
			order = &current
		}
		if orderItemID.Valid {
			order.Items = append(order.Items, models.OrderItem{
				OrderItemID: orderItemID.Int64,
				OrderID:     order.OrderID,
				ProductID:   productID.Int64,
				ProductName: productName.String,
				Quantity:    int(quantity.Int32),
				Price:       price.Decimal,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	if order == nil {
		return nil, ErrNotFound
	}

	return order, nil
}

func (r *orderRepo) LockForUpdate(ctx context.Context, orderID int64) (*models.Order, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: order ID must be positive", ErrInvalidInput)
	}

	sql := `SELECT` + orderColumns + ` FROM orders o WHERE o.order_id = $1 FOR UPDATE`

	var locked models.Order
	if err := scanOrder(r.db.QueryRow(ctx, sql, orderID), &locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock order %d: %w", orderID, err)
	}

	return r.GetByID(ctx, orderID)
}

func (r *orderRepo) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}

	sql := `SELECT` + orderColumns + `
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.order_id DESC`

	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders by userID %d: %w", userID, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	index := make(map[int64]int)
	var ids []int64

	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan orders by userID: %w", err)
		}
		o.Items = []models.OrderItem{}
		index[o.OrderID] = len(orders)
		ids = append(ids, o.OrderID)
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return orders, nil
	}

	itemsSQL := `SELECT
		oi.order_item_id,
		oi.order_id,
		oi.product_id,
		p.name,
		oi.quantity,
		oi.price
		FROM order_items oi
		JOIN products p ON p.product_id = oi.product_id
		WHERE oi.order_id = ANY($1::bigint[])
		ORDER BY oi.order_item_id`

	itemRows, err := r.db.Query(ctx, itemsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var it models.OrderItem
		err := itemRows.Scan(
			&it.OrderItemID,
			&it.OrderID,
			&it.ProductID,
			&it.ProductName,
			&it.Quantity,
			&it.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order items: %w", err)
		}
		o := &orders[index[it.OrderID]]
		o.Items = append(o.Items, it)
	}

	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return orders, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, orderID int64, status models.OrderStatus, trackingNumber *string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: invalid status '%s'", ErrInvalidInput, status)
	}

	sql := `UPDATE orders
		SET status = $1,
			tracking_number = COALESCE($2, tracking_number),
			updated_at = $3
		WHERE order_id = $4
		`

	result, err := r.db.Exec(ctx, sql, status.String(), trackingNumber, time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("update status order %d: %w", orderID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
