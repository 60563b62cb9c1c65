package repository

import (
	"context"
	"fmt"
	"time"

	"shop-service/internal/models"
)

type cartRepo struct {
	db DBTX
}

const cartSnapshotSQL = `SELECT
	ci.cart_item_id,
	ci.user_id,
	ci.product_id,
	ci.quantity,
	ci.created_at,
	p.product_id,
	p.name,
	p.description,
	p.price,
	p.stock,
	p.category_id,
	p.created_at,
	p.updated_at
	FROM cart_items ci
	JOIN products p ON p.product_id = ci.product_id
	WHERE ci.user_id = $1
	ORDER BY ci.cart_item_id`

func (r *cartRepo) Snapshot(ctx context.Context, userID int64) (*models.CartSnapshot, error) {
	return r.snapshot(ctx, userID, cartSnapshotSQL)
}

func (r *cartRepo) LockSnapshot(ctx context.Context, userID int64) (*models.CartSnapshot, error) {
	return r.snapshot(ctx, userID, cartSnapshotSQL+` FOR UPDATE OF ci`)
}

func (r *cartRepo) snapshot(ctx context.Context, userID int64, sql string) (*models.CartSnapshot, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}

	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart of user %d: %w", userID, err)
	}
	defer rows.Close()

	snap := &models.CartSnapshot{UserID: userID}
	for rows.Next() {
		var l models.CartLine
		err := rows.Scan(
			&l.Item.CartItemID,
			&l.Item.UserID,
			&l.Item.ProductID,
			&l.Item.Quantity,
			&l.Item.CreatedAt,
			&l.Product.ProductID,
			&l.Product.Name,
			&l.Product.Description,
			&l.Product.Price,
			&l.Product.Stock,
			&l.Product.CategoryID,
			&l.Product.CreatedAt,
			&l.Product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		snap.Lines = append(snap.Lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return snap, nil
}

func (r *cartRepo) AddQuantity(ctx context.Context, item *models.CartItem) error {
	if item.UserID <= 0 || item.ProductID <= 0 {
		return fmt.Errorf("%w: user and product ID must be positive", ErrInvalidInput)
	}
	if item.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	sql := `INSERT INTO cart_items (user_id, product_id, quantity, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id, product_id)
	DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	RETURNING cart_item_id, quantity, created_at
	`

	err := r.db.QueryRow(ctx, sql, item.UserID, item.ProductID, item.Quantity, time.Now().UTC()).
		Scan(&item.CartItemID, &item.Quantity, &item.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}

func (r *cartRepo) SetQuantity(ctx context.Context, userID, itemID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	result, err := r.db.Exec(ctx,
		`UPDATE cart_items SET quantity = $1 WHERE cart_item_id = $2 AND user_id = $3`,
		quantity, itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("update cart item %d: %w", itemID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *cartRepo) Delete(ctx context.Context, userID, itemID int64) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_item_id = $1 AND user_id = $2`,
		itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete cart item %d: %w", itemID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *cartRepo) DeleteItems(ctx context.Context, userID int64, itemIDs []int64) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}

	result, err := r.db.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND cart_item_id = ANY($2::bigint[])`,
		userID, itemIDs,
	)
	if err != nil {
		return 0, fmt.Errorf("clear cart of user %d: %w", userID, err)
	}

	return result.RowsAffected(), nil
}
