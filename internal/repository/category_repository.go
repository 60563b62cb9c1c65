package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shop-service/internal/models"

	"github.com/jackc/pgx/v5"
)

type categoryRepo struct {
	db DBTX
}

func (r *categoryRepo) Create(ctx context.Context, c *models.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: category name must be 1-100 characters", ErrInvalidInput)
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING category_id`,
		c.Name,
	).Scan(&c.CategoryID)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("%w: category already exists", ErrDuplicate)
		}
		return fmt.Errorf("create category: %w", err)
	}

	return nil
}

func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}

	var c models.Category
	err := r.db.QueryRow(ctx,
		`SELECT category_id, name FROM categories WHERE category_id = $1`, id,
	).Scan(&c.CategoryID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}

	return &c, nil
}

func (r *categoryRepo) GetAll(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT category_id, name FROM categories ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.CategoryID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan categories: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return categories, nil
}

func (r *categoryRepo) Update(ctx context.Context, c *models.Category) error {
	if c.CategoryID <= 0 {
		return fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}
	c.Name = strings.TrimSpace(c.Name)
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: category name must be 1-100 characters", ErrInvalidInput)
	}

	result, err := r.db.Exec(ctx,
		`UPDATE categories SET name = $1 WHERE category_id = $2`,
		c.Name, c.CategoryID,
	)
	if err != nil {
		if _, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("%w: category name already exists", ErrDuplicate)
		}
		return fmt.Errorf("update category %d: %w", c.CategoryID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *categoryRepo) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}

	result, err := r.db.Exec(ctx, `DELETE FROM categories WHERE category_id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: category %d still has products", ErrInUse, id)
		}
		return fmt.Errorf("delete category %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
