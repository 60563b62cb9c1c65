package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shop-service/internal/models"
	"shop-service/internal/repository"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ProductCache fronts single product lookups. Catalog writes invalidate it.
type ProductCache interface {
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Invalidate(ctx context.Context, ids ...int64)
}

type Catalog struct {
	store  repository.Store
	cache  ProductCache
	logger *slog.Logger
}

// NewCatalog returns the catalog service. cache may be nil.
func NewCatalog(store repository.Store, cache ProductCache, logger *slog.Logger) *Catalog {
	return &Catalog{store: store, cache: cache, logger: logger}
}

func (c *Catalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := c.store.Categories().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (c *Catalog) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return c.store.Categories().GetByID(ctx, id)
}

func (c *Catalog) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	category := &models.Category{Name: name}
	if err := c.store.Categories().Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (c *Catalog) UpdateCategory(ctx context.Context, id int64, name string) (*models.Category, error) {
	category := &models.Category{CategoryID: id, Name: name}
	if err := c.store.Categories().Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (c *Catalog) DeleteCategory(ctx context.Context, id int64) error {
	return c.store.Categories().Delete(ctx, id)
}

func (c *Catalog) ListProducts(ctx context.Context, filter models.ProductFilter, page, perPage int) (models.Page[models.Product], error) {
	if page < 1 {
		return models.Page[models.Product]{}, fmt.Errorf("%w: page must be at least 1", repository.ErrInvalidInput)
	}
	if perPage < 1 || perPage > MaxPerPage {
		return models.Page[models.Product]{}, fmt.Errorf("%w: per_page must be between 1 and %d", repository.ErrInvalidInput, MaxPerPage)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return models.Page[models.Product]{}, fmt.Errorf("%w: min_price is greater than max_price", repository.ErrInvalidInput)
	}

	items, total, err := c.store.Products().List(ctx, filter, perPage, (page-1)*perPage)
	if err != nil {
		return models.Page[models.Product]{}, err
	}
	return models.NewPage(items, page, perPage, total), nil
}

func (c *Catalog) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if c.cache != nil {
		return c.cache.GetByID(ctx, id)
	}
	return c.store.Products().GetByID(ctx, id)
}

// CreateProduct stores a new product and books its initial stock as incoming.
func (c *Catalog) CreateProduct(ctx context.Context, p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	err := c.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.Products().Create(ctx, p); err != nil {
			return err
		}
		if p.Stock == 0 {
			return nil
		}
		return tx.Operations().Create(ctx, &models.Operation{
			ProductID:     p.ProductID,
			OperationType: models.OperationIncoming,
			ChangeQuant:   p.Stock,
		})
	})
	if err != nil {
		return err
	}

	c.invalidate(ctx, p.ProductID)
	c.logger.Info("product created", "product_id", p.ProductID, "stock", p.Stock)
	return nil
}

// UpdateProduct applies a partial update. A stock change is written to the
// ledger as an adjustment.
func (c *Catalog) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	var updated models.Product
	err := c.store.WithTx(ctx, func(tx repository.Tx) error {
		locked, err := tx.Products().LockForUpdate(ctx, []int64{id})
		if err != nil {
			return err
		}
		current, ok := locked[id]
		if !ok {
			return repository.ErrNotFound
		}

		next := current
		if patch.Name != nil {
			next.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			next.Description = *patch.Description
		}
		if patch.Price != nil {
			next.Price = *patch.Price
		}
		if patch.Stock != nil {
			next.Stock = *patch.Stock
		}
		if patch.CategoryID != nil {
			next.CategoryID = *patch.CategoryID
		}

		if err := tx.Products().Update(ctx, &next); err != nil {
			return err
		}

		if delta := next.Stock - current.Stock; delta != 0 {
			err := tx.Operations().Create(ctx, &models.Operation{
				ProductID:     id,
				OperationType: models.OperationAdjustment,
				ChangeQuant:   delta,
			})
			if err != nil {
				return err
			}
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, id)
	return &updated, nil
}

func (c *Catalog) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.store.Products().Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	c.logger.Info("product deleted", "product_id", id)
	return nil
}

// ProductOperations returns the stock ledger of one product.
func (c *Catalog) ProductOperations(ctx context.Context, id int64) ([]models.Operation, error) {
	if _, err := c.store.Products().GetByID(ctx, id); err != nil {
		return nil, err
	}
	return c.store.Operations().GetByProductID(ctx, id)
}

func (c *Catalog) invalidate(ctx context.Context, ids ...int64) {
	if c.cache != nil {
		c.cache.Invalidate(ctx, ids...)
	}
}
