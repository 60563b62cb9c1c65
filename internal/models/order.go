package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	OrderID         int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	TrackingNumber  *string         `json:"tracking_number"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items"`
}

// OrderItem keeps the unit price the product had when the order was placed.
type OrderItem struct {
	OrderItemID int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderEventType string

const (
	EventOrderPlaced        OrderEventType = "order.placed"
	EventOrderCancelled     OrderEventType = "order.cancelled"
	EventOrderStatusChanged OrderEventType = "order.status_changed"
)

type OrderEventLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// OrderEvent is emitted after an order change has been committed.
type OrderEvent struct {
	Type       OrderEventType   `json:"type"`
	OrderID    int64            `json:"order_id"`
	UserID     int64            `json:"user_id"`
	Status     OrderStatus      `json:"status"`
	Lines      []OrderEventLine `json:"lines"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func NewOrderEvent(t OrderEventType, o *Order, at time.Time) OrderEvent {
	lines := make([]OrderEventLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, OrderEventLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return OrderEvent{
		Type:       t,
		OrderID:    o.OrderID,
		UserID:     o.UserID,
		Status:     o.Status,
		Lines:      lines,
		OccurredAt: at,
	}
}

// Page is one page of a listing.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
}

func NewPage[T any](items []T, page, perPage int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Page[T]{Items: items, Page: page, PerPage: perPage, Total: total, Pages: pages}
}
