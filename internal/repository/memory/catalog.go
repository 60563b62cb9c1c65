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

type productRepo struct {
	v *view
}

func checkProduct(st *state, p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name required", repository.ErrInvalidInput)
	}
	if err := repository.ValidatePrice(p.Price); err != nil {
		return err
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: product stock cannot be negative", repository.ErrInvalidInput)
	}
	if _, ok := st.categories[p.CategoryID]; !ok {
		return fmt.Errorf("%w: category %d does not exist", repository.ErrInvalidInput, p.CategoryID)
	}
	return nil
}

func (r *productRepo) Create(_ context.Context, p *models.Product) error {
	return r.v.write(func(st *state) error {
		if err := checkProduct(st, p); err != nil {
			return err
		}
		st.nextProductID++
		now := time.Now().UTC()
		p.ProductID = st.nextProductID
		p.CreatedAt = now
		p.UpdatedAt = now
		st.products[p.ProductID] = *p
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id int64) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: ID cannot be empty", repository.ErrInvalidInput)
	}
	var out *models.Product
	err := r.v.read(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *productRepo) List(_ context.Context, f models.ProductFilter, limit, offset int) ([]models.Product, int64, error) {
	var (
		page  []models.Product
		total int64
	)
	err := r.v.read(func(st *state) error {
		var matched []models.Product
		for _, p := range st.products {
			if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
				continue
			}
			if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
				continue
			}
			if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
				continue
			}
			if f.InStock && p.Stock <= 0 {
				continue
			}
			matched = append(matched, p)
		}
		slices.SortFunc(matched, func(a, b models.Product) int {
			return cmp.Compare(a.ProductID, b.ProductID)
		})
		total = int64(len(matched))
		if offset < len(matched) {
			end := min(offset+limit, len(matched))
			page = matched[offset:end]
		}
		return nil
	})
	return page, total, err
}

func (r *productRepo) Update(_ context.Context, p *models.Product) error {
	return r.v.write(func(st *state) error {
		current, ok := st.products[p.ProductID]
		if !ok {
			return repository.ErrNotFound
		}
		if err := checkProduct(st, p); err != nil {
			return err
		}
		p.CreatedAt = current.CreatedAt
		p.UpdatedAt = time.Now().UTC()
		st.products[p.ProductID] = *p
		return nil
	})
}

func (r *productRepo) Delete(_ context.Context, id int64) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return repository.ErrNotFound
		}
		for _, items := range st.orderItems {
			for _, it := range items {
				if it.ProductID == id {
					return fmt.Errorf("%w: product %d has orders", repository.ErrInUse, id)
				}
			}
		}
		delete(st.products, id)
		for itemID, ci := range st.cartItems {
			if ci.ProductID == id {
				delete(st.cartItems, itemID)
			}
		}
		st.operations = slices.DeleteFunc(st.operations, func(o models.Operation) bool {
			return o.ProductID == id
		})
		return nil
	})
}

func (r *productRepo) LockForUpdate(_ context.Context, ids []int64) (map[int64]models.Product, error) {
	locked := make(map[int64]models.Product, len(ids))
	err := r.v.read(func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				locked[id] = p
			}
		}
		return nil
	})
	return locked, err
}

func (r *productRepo) AdjustStock(_ context.Context, id int64, delta int) (int, error) {
	var stock int
	err := r.v.write(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return repository.ErrNotFound
		}
		if p.Stock+delta < 0 {
			return &repository.StockError{ProductID: id, ProductName: p.Name, Requested: -delta, Available: p.Stock}
		}
		p.Stock += delta
		p.UpdatedAt = time.Now().UTC()
		st.products[id] = p
		stock = p.Stock
		return nil
	})
	return stock, err
}

type categoryRepo struct {
	v *view
}

func checkCategoryName(st *state, c *models.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" || len(c.Name) > 100 {
		return fmt.Errorf("%w: category name must be 1-100 characters", repository.ErrInvalidInput)
	}
	for _, other := range st.categories {
		if other.CategoryID != c.CategoryID && strings.EqualFold(other.Name, c.Name) {
			return fmt.Errorf("%w: category already exists", repository.ErrDuplicate)
		}
	}
	return nil
}

func (r *categoryRepo) Create(_ context.Context, c *models.Category) error {
	return r.v.write(func(st *state) error {
		c.CategoryID = 0
		if err := checkCategoryName(st, c); err != nil {
			return err
		}
		st.nextCategoryID++
		c.CategoryID = st.nextCategoryID
		st.categories[c.CategoryID] = *c
		return nil
	})
}

func (r *categoryRepo) GetByID(_ context.Context, id int64) (*models.Category, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", repository.ErrInvalidInput)
	}
	var out *models.Category
	err := r.v.read(func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *categoryRepo) GetAll(_ context.Context) ([]models.Category, error) {
	var out []models.Category
	err := r.v.read(func(st *state) error {
		for _, c := range st.categories {
			out = append(out, c)
		}
		slices.SortFunc(out, func(a, b models.Category) int {
			return cmp.Compare(a.CategoryID, b.CategoryID)
		})
		return nil
	})
	return out, err
}

func (r *categoryRepo) Update(_ context.Context, c *models.Category) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.categories[c.CategoryID]; !ok {
			return repository.ErrNotFound
		}
		if err := checkCategoryName(st, c); err != nil {
			return err
		}
		st.categories[c.CategoryID] = *c
		return nil
	})
}

func (r *categoryRepo) Delete(_ context.Context, id int64) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return repository.ErrNotFound
		}
		for _, p := range st.products {
			if p.CategoryID == id {
				return fmt.Errorf("%w: category %d still has products", repository.ErrInUse, id)
			}
		}
		delete(st.categories, id)
		return nil
	})
}

