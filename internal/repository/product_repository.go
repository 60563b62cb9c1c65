package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type productRepo struct {
	db DBTX
}

const productColumns = `
	product_id,
	name,
	description,
	price,
	stock,
	category_id,
	created_at,
	updated_at`

func scanProduct(row pgx.Row, p *models.Product) error {
	return row.Scan(
		&p.ProductID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.CategoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// ValidatePrice accepts positive prices with at most two decimal places, the
// precision of the price columns.
func ValidatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("%w: product price should be positive", ErrInvalidInput)
	}
	if !price.Equal(price.Truncate(2)) {
		return fmt.Errorf("%w: product price cannot have more than 2 decimal places", ErrInvalidInput)
	}
	return nil
}

func validateProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name required", ErrInvalidInput)
	}
	if err := ValidatePrice(p.Price); err != nil {
		return err
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: product stock cannot be negative", ErrInvalidInput)
	}
	if p.CategoryID <= 0 {
		return fmt.Errorf("%w: category ID cannot be empty", ErrInvalidInput)
	}
	return nil
}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}

	sql := `
		INSERT INTO products (
			name,
			description,
			price,
			stock,
			category_id,
			created_at,
			updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING product_id
	`

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	err := r.db.QueryRow(ctx, sql,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.CategoryID,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ProductID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: category %d does not exist", ErrInvalidInput, p.CategoryID)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: ID cannot be empty", ErrInvalidInput)
	}

	sql := `SELECT` + productColumns + ` FROM products WHERE product_id = $1`

	var product models.Product
	if err := scanProduct(r.db.QueryRow(ctx, sql, id), &product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by id %d: %w", id, err)
	}

	return &product, nil
}

func (r *productRepo) List(ctx context.Context, filter models.ProductFilter, limit, offset int) ([]models.Product, int64, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.CategoryID != nil {
		add("category_id = $%d", *filter.CategoryID)
	}
	if filter.MinPrice != nil {
		add("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		add("price <= $%d", *filter.MaxPrice)
	}
	if filter.InStock {
		where = append(where, "stock > 0")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	args = append(args, limit, offset)
	sql := fmt.Sprintf(`SELECT%s FROM products%s ORDER BY product_id LIMIT $%d OFFSET $%d`,
		productColumns, clause, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("failed to scan products: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return products, total, nil
}

func (r *productRepo) Update(ctx context.Context, p *models.Product) error {
	if p.ProductID <= 0 {
		return fmt.Errorf("%w: ID cannot be empty", ErrInvalidInput)
	}
	if err := validateProduct(p); err != nil {
		return err
	}

	sql := `
	UPDATE products
	SET
		name = $1,
		description = $2,
		price = $3,
		stock = $4,
		category_id = $5,
		updated_at = $6
	WHERE product_id = $7
	RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, sql,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.CategoryID,
		time.Now().UTC(),
		p.ProductID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: category %d does not exist", ErrInvalidInput, p.CategoryID)
		}
		return fmt.Errorf("failed to update product %d: %w", p.ProductID, err)
	}

	return nil
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: ID cannot be empty", ErrInvalidInput)
	}

	result, err := r.db.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: product %d has orders", ErrInUse, id)
		}
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *productRepo) LockForUpdate(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	locked := make(map[int64]models.Product, len(ids))
	if len(ids) == 0 {
		return locked, nil
	}

	// Rows are locked in product_id order so two checkouts never wait on each other in a cycle.
	sql := `SELECT` + productColumns + `
		FROM products
		WHERE product_id = ANY($1::bigint[])
		ORDER BY product_id
		FOR UPDATE`

	rows, err := r.db.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product data: %w", err)
		}
		locked[p.ProductID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return locked, nil
}

func (r *productRepo) AdjustStock(ctx context.Context, id int64, delta int) (int, error) {
	sql := `UPDATE products SET
		stock = stock + $1,
		updated_at = $2
	WHERE product_id = $3 AND stock + $1 >= 0
	RETURNING stock
	`

	var stock int
	err := r.db.QueryRow(ctx, sql, delta, time.Now().UTC(), id).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to update product stock %d: %w", id, err)
	}

	// No row matched: either the product is gone or the guard rejected the change.
	var current int
	if err := r.db.QueryRow(ctx, `SELECT stock FROM products WHERE product_id = $1`, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to read product stock %d: %w", id, err)
	}
	return 0, &StockError{ProductID: id, Requested: -delta, Available: current}
}
