package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"shop-service/internal/models"
	"shop-service/internal/repository"

	"github.com/shopspring/decimal"
)

type CartLineView struct {
	ID                 int64           `json:"id"`
	ProductID          int64           `json:"product_id"`
	ProductName        string          `json:"product_name"`
	ProductDescription string          `json:"product_description"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	StockAvailable     int             `json:"stock_available"`
}

type CartView struct {
	Items   []CartLineView     `json:"items"`
	Summary models.CartSummary `json:"summary"`
}

func newCartLineView(l models.CartLine) CartLineView {
	return CartLineView{
		ID:                 l.Item.CartItemID,
		ProductID:          l.Product.ProductID,
		ProductName:        l.Product.Name,
		ProductDescription: l.Product.Description,
		Quantity:           l.Item.Quantity,
		UnitPrice:          l.Product.Price,
		Subtotal:           l.Subtotal(),
		StockAvailable:     l.Product.Stock,
	}
}

// CartManager owns cart mutations. Its stock checks are advisory: stock is
// only decremented by the OrderEngine.
// MaxQuantity is the largest quantity a cart line can hold; quantities are
// stored in INTEGER columns.
const MaxQuantity = math.MaxInt32

type CartManager struct {
	store  repository.Store
	logger *slog.Logger
}

func NewCartManager(store repository.Store, logger *slog.Logger) *CartManager {
	return &CartManager{store: store, logger: logger}
}

// AddItem adds quantity units of a product to the cart, creating the line or
// incrementing it.
func (m *CartManager) AddItem(ctx context.Context, userID, productID int64, quantity int) (*CartLineView, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", repository.ErrInvalidInput, MaxQuantity)
	}
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product ID must be positive", repository.ErrInvalidInput)
	}

	var line CartLineView
	err := m.store.WithTx(ctx, func(tx repository.Tx) error {
		product, err := tx.Products().GetByID(ctx, productID)
		if err != nil {
			return err
		}

		snap, err := tx.Carts().Snapshot(ctx, userID)
		if err != nil {
			return err
		}

		inCart := 0
		if existing, ok := snap.LineByProduct(productID); ok {
			inCart = existing.Item.Quantity
		}
		if quantity > product.Stock-inCart {
			return &repository.StockError{
				ProductID:   product.ProductID,
				ProductName: product.Name,
				Requested:   quantity,
				Available:   product.Stock,
				InCart:      inCart,
			}
		}

		item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
		if err := tx.Carts().AddQuantity(ctx, item); err != nil {
			return err
		}

		line = newCartLineView(models.CartLine{Item: *item, Product: *product})
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("cart item added",
		"user_id", userID,
		"product_id", productID,
		"quantity", line.Quantity,
	)
	return &line, nil
}

// SetQuantity replaces the quantity of a cart line. Zero removes the line, in
// which case the returned line is nil.
func (m *CartManager) SetQuantity(ctx context.Context, userID, itemID int64, quantity int) (*CartLineView, error) {
	if quantity < 0 || quantity > MaxQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 0 and %d", repository.ErrInvalidInput, MaxQuantity)
	}

	var line *CartLineView
	err := m.store.WithTx(ctx, func(tx repository.Tx) error {
		snap, err := tx.Carts().Snapshot(ctx, userID)
		if err != nil {
			return err
		}
		current, ok := snap.LineByItem(itemID)
		if !ok {
			return repository.ErrNotFound
		}

		if quantity == 0 {
			return tx.Carts().Delete(ctx, userID, itemID)
		}

		if quantity > current.Product.Stock {
			return &repository.StockError{
				ProductID:   current.Product.ProductID,
				ProductName: current.Product.Name,
				Requested:   quantity,
				Available:   current.Product.Stock,
			}
		}

		if err := tx.Carts().SetQuantity(ctx, userID, itemID, quantity); err != nil {
			return err
		}

		current.Item.Quantity = quantity
		v := newCartLineView(current)
		line = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (m *CartManager) RemoveItem(ctx context.Context, userID, itemID int64) error {
	return m.store.Carts().Delete(ctx, userID, itemID)
}

func (m *CartManager) GetCart(ctx context.Context, userID int64) (*CartView, error) {
	snap, err := m.store.Carts().Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{
		Items:   make([]CartLineView, 0, len(snap.Lines)),
		Summary: snap.Summary(),
	}
	for _, l := range snap.Lines {
		view.Items = append(view.Items, newCartLineView(l))
	}
	return view, nil
}
