package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"shop-service/internal/models"
	"shop-service/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	mu          sync.Mutex
	source      repository.ProductRepository
	lookups     int
	invalidated []int64
}

func (c *fakeCache) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	c.mu.Lock()
	c.lookups++
	c.mu.Unlock()
	return c.source.GetByID(ctx, id)
}

func (c *fakeCache) Invalidate(_ context.Context, ids ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, ids...)
}

func TestListProductsPagingAndFilters(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 12; i++ {
		f.product(t, fmt.Sprintf("P%02d", i), fmt.Sprintf("%d", i*5), i%3)
	}

	page, err := f.catalog.ListProducts(f.ctx, models.ProductFilter{}, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, page.Items, 5)
	assert.Equal(t, "P06", page.Items[0].Name)

	last, err := f.catalog.ListProducts(f.ctx, models.ProductFilter{}, 3, 5)
	require.NoError(t, err)
	assert.Len(t, last.Items, 2)

	beyond, err := f.catalog.ListProducts(f.ctx, models.ProductFilter{}, 9, 5)
	require.NoError(t, err)
	assert.NotNil(t, beyond.Items)
	assert.Empty(t, beyond.Items)

	lo, hi := decimal.NewFromInt(20), decimal.NewFromInt(40)
	ranged, err := f.catalog.ListProducts(f.ctx, models.ProductFilter{MinPrice: &lo, MaxPrice: &hi}, 1, DefaultPerPage)
	require.NoError(t, err)
	assert.Equal(t, int64(5), ranged.Total)

	inStock, err := f.catalog.ListProducts(f.ctx, models.ProductFilter{InStock: true}, 1, MaxPerPage)
	require.NoError(t, err)
	assert.Equal(t, int64(8), inStock.Total)
	for _, p := range inStock.Items {
		assert.Positive(t, p.Stock)
	}

	other := &models.Category{Name: "Other"}
	require.NoError(t, f.store.Categories().Create(f.ctx, other))
	byCategory, err := f.catalog.ListProducts(f.ctx, models.ProductFilter{CategoryID: &other.CategoryID}, 1, DefaultPerPage)
	require.NoError(t, err)
	assert.Zero(t, byCategory.Total)
}

func TestListProductsRejectsBadPaging(t *testing.T) {
	f := newFixture(t)
	lo, hi := decimal.NewFromInt(50), decimal.NewFromInt(10)

	tests := []struct {
		name    string
		filter  models.ProductFilter
		page    int
		perPage int
	}{
		{"zero page", models.ProductFilter{}, 0, 10},
		{"zero per_page", models.ProductFilter{}, 1, 0},
		{"per_page over max", models.ProductFilter{}, 1, MaxPerPage + 1},
		{"inverted price range", models.ProductFilter{MinPrice: &lo, MaxPrice: &hi}, 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.ListProducts(f.ctx, tt.filter, tt.page, tt.perPage)
			assert.ErrorIs(t, err, repository.ErrInvalidInput)
		})
	}
}

func TestCreateProductBooksInitialStock(t *testing.T) {
	f := newFixture(t)
	cache := &fakeCache{source: f.store.Products()}
	catalog := NewCatalog(f.store, cache, discardLogger())

	p := &models.Product{Name: " Lamp ", Price: decimal.NewFromInt(30), Stock: 7, CategoryID: f.category.CategoryID}
	require.NoError(t, catalog.CreateProduct(f.ctx, p))
	assert.Equal(t, "Lamp", p.Name)

	ops, err := catalog.ProductOperations(f.ctx, p.ProductID)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, models.OperationIncoming, ops[0].OperationType)
	assert.Equal(t, 7, ops[0].ChangeQuant)
	assert.Nil(t, ops[0].OrderID)

	empty := &models.Product{Name: "Shelf", Price: decimal.NewFromInt(30), CategoryID: f.category.CategoryID}
	require.NoError(t, catalog.CreateProduct(f.ctx, empty))
	ops, err = catalog.ProductOperations(f.ctx, empty.ProductID)
	require.NoError(t, err)
	assert.Empty(t, ops)

	bad := &models.Product{Name: "Free", Price: decimal.Zero, CategoryID: f.category.CategoryID}
	assert.ErrorIs(t, catalog.CreateProduct(f.ctx, bad), repository.ErrInvalidInput)

	assert.Equal(t, []int64{p.ProductID, empty.ProductID}, cache.invalidated)
}

func TestUpdateProductRecordsAdjustment(t *testing.T) {
	f := newFixture(t)
	cache := &fakeCache{source: f.store.Products()}
	catalog := NewCatalog(f.store, cache, discardLogger())
	p := f.product(t, "Lamp", "30", 7)

	name, stock := "Desk lamp", 4
	updated, err := catalog.UpdateProduct(f.ctx, p.ProductID, models.ProductPatch{Name: &name, Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", updated.Name)
	assert.Equal(t, 4, updated.Stock)
	assert.True(t, decimal.NewFromInt(30).Equal(updated.Price))

	ops, err := catalog.ProductOperations(f.ctx, p.ProductID)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, models.OperationAdjustment, ops[0].OperationType)
	assert.Equal(t, -3, ops[0].ChangeQuant)

	desc := "brass"
	_, err = catalog.UpdateProduct(f.ctx, p.ProductID, models.ProductPatch{Description: &desc})
	require.NoError(t, err)
	ops, err = catalog.ProductOperations(f.ctx, p.ProductID)
	require.NoError(t, err)
	assert.Len(t, ops, 1, "no ledger row without a stock change")

	negative := -1
	_, err = catalog.UpdateProduct(f.ctx, p.ProductID, models.ProductPatch{Stock: &negative})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = catalog.UpdateProduct(f.ctx, 999, models.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := catalog.GetProduct(f.ctx, p.ProductID)
	require.NoError(t, err)
	assert.Equal(t, "brass", got.Description)
	assert.Equal(t, 1, cache.lookups)
	assert.Equal(t, []int64{p.ProductID, p.ProductID}, cache.invalidated)
}

func TestDeleteProductInUse(t *testing.T) {
	f := newFixture(t)
	sold := f.product(t, "Sold", "10", 5)
	unsold := f.product(t, "Unsold", "10", 5)

	_, err := f.carts.AddItem(f.ctx, 1, sold.ProductID, 1)
	require.NoError(t, err)
	_, err = f.orders.CreateOrder(f.ctx, 1, "1 Main St")
	require.NoError(t, err)

	assert.ErrorIs(t, f.catalog.DeleteProduct(f.ctx, sold.ProductID), repository.ErrInUse)
	require.NoError(t, f.catalog.DeleteProduct(f.ctx, unsold.ProductID))

	_, err = f.catalog.GetProduct(f.ctx, unsold.ProductID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.catalog.ProductOperations(f.ctx, unsold.ProductID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t)

	books, err := f.catalog.CreateCategory(f.ctx, "Books")
	require.NoError(t, err)

	_, err = f.catalog.CreateCategory(f.ctx, "books")
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = f.catalog.CreateCategory(f.ctx, "  ")
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	renamed, err := f.catalog.UpdateCategory(f.ctx, books.CategoryID, "Novels")
	require.NoError(t, err)
	assert.Equal(t, "Novels", renamed.Name)

	_, err = f.catalog.UpdateCategory(f.ctx, books.CategoryID, "general")
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	all, err := f.catalog.ListCategories(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	f.product(t, "Lamp", "30", 1)
	assert.ErrorIs(t, f.catalog.DeleteCategory(f.ctx, f.category.CategoryID), repository.ErrInUse)
	require.NoError(t, f.catalog.DeleteCategory(f.ctx, books.CategoryID))

	_, err = f.catalog.GetCategory(f.ctx, books.CategoryID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProductPriceHasTwoDecimals(t *testing.T) {
	f := newFixture(t)

	tooPrecise := &models.Product{Name: "Pen", Price: decimal.RequireFromString("10.005"), Stock: 1, CategoryID: f.category.CategoryID}
	assert.ErrorIs(t, f.catalog.CreateProduct(f.ctx, tooPrecise), repository.ErrInvalidInput)

	p := &models.Product{Name: "Pen", Price: decimal.RequireFromString("10.50"), Stock: 1, CategoryID: f.category.CategoryID}
	require.NoError(t, f.catalog.CreateProduct(f.ctx, p))

	tiny := decimal.RequireFromString("0.001")
	_, err := f.catalog.UpdateProduct(f.ctx, p.ProductID, models.ProductPatch{Price: &tiny})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	got, err := f.catalog.GetProduct(f.ctx, p.ProductID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.5").Equal(got.Price))
}
