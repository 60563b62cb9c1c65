package repository

import (
	"context"
	"fmt"
	"time"

	"shop-service/internal/models"
)

type operationRepo struct {
	db DBTX
}

var validOperationTypes = map[models.OperationType]bool{
	models.OperationIncoming:   true,
	models.OperationOutgoing:   true,
	models.OperationAdjustment: true,
}

func ValidateOperation(o *models.Operation) error {
	if o == nil {
		return fmt.Errorf("%w: operation cannot be nil", ErrInvalidInput)
	}
	if o.ProductID <= 0 {
		return fmt.Errorf("%w: product ID must be positive", ErrInvalidInput)
	}
	if o.ChangeQuant == 0 {
		return fmt.Errorf("%w: the variable quantity cannot be 0", ErrInvalidInput)
	}
	if !validOperationTypes[o.OperationType] {
		return fmt.Errorf("%w: invalid operation type '%s'", ErrInvalidInput, o.OperationType)
	}
	return nil
}

func (r *operationRepo) Create(ctx context.Context, o *models.Operation) error {
	if err := ValidateOperation(o); err != nil {
		return err
	}

	sql := ` INSERT INTO operations (
		product_id,
		order_id,
		operation_type,
		change_quant,
		created_at
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING operation_id
	`

	o.CreatedAt = time.Now().UTC()

	err := r.db.QueryRow(ctx, sql,
		o.ProductID,
		o.OrderID,
		string(o.OperationType),
		o.ChangeQuant,
		o.CreatedAt,
	).Scan(&o.OperationID)
	if err != nil {
		return fmt.Errorf("failed to create operation: %w", err)
	}
	return nil
}

func (r *operationRepo) GetByProductID(ctx context.Context, productID int64) ([]models.Operation, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}
	return r.list(ctx, "product_id", productID)
}

func (r *operationRepo) GetByOrderID(ctx context.Context, orderID int64) ([]models.Operation, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}
	return r.list(ctx, "order_id", orderID)
}

func (r *operationRepo) list(ctx context.Context, column string, id int64) ([]models.Operation, error) {
	sql := `SELECT
		operation_id,
		product_id,
		order_id,
		operation_type,
		change_quant,
		created_at
		FROM operations
		WHERE ` + column + ` = $1
		ORDER BY operation_id`

	rows, err := r.db.Query(ctx, sql, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get operations by %s %d: %w", column, id, err)
	}
	defer rows.Close()

	operations := []models.Operation{}

	for rows.Next() {
		var (
			o      models.Operation
			opType string
		)
		err := rows.Scan(
			&o.OperationID,
			&o.ProductID,
			&o.OrderID,
			&opType,
			&o.ChangeQuant,
			&o.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operations by %s: %w", column, err)
		}
		o.OperationType = models.OperationType(opType)
		operations = append(operations, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete rows iteration: %w", err)
	}

	return operations, nil
}
