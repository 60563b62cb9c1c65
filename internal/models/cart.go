package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	CartItemID int64     `json:"id"`
	UserID     int64     `json:"-"`
	ProductID  int64     `json:"product_id"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"-"`
}

// CartLine is a cart item joined with the product it points at.
type CartLine struct {
	Item    CartItem
	Product Product
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Item.Quantity)))
}

// CartSnapshot is the whole cart of one user, read once per operation.
type CartSnapshot struct {
	UserID int64
	Lines  []CartLine
}

func (c *CartSnapshot) Empty() bool {
	return c == nil || len(c.Lines) == 0
}

func (c *CartSnapshot) LineByItem(itemID int64) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.Item.CartItemID == itemID {
			return l, true
		}
	}
	return CartLine{}, false
}

func (c *CartSnapshot) LineByProduct(productID int64) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.Item.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

// ProductIDs returns the distinct product ids in ascending order.
func (c *CartSnapshot) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(c.Lines))
	ids := make([]int64, 0, len(c.Lines))
	for _, l := range c.Lines {
		if _, ok := seen[l.Item.ProductID]; ok {
			continue
		}
		seen[l.Item.ProductID] = struct{}{}
		ids = append(ids, l.Item.ProductID)
	}
	slices.Sort(ids)
	return ids
}

type CartSummary struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

func (c *CartSnapshot) Summary() CartSummary {
	subtotal := decimal.Zero
	count := 0
	if c != nil {
		for _, l := range c.Lines {
			subtotal = subtotal.Add(l.Subtotal())
			count += l.Item.Quantity
		}
	}
	return CartSummary{
		Subtotal:  subtotal,
		Total:     subtotal,
		ItemCount: count,
	}
}
