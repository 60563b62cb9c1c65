package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/service"

	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	orders *service.OrderEngine
	logger *slog.Logger
}

func NewOrderHandler(orders *service.OrderEngine, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

type CreateOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
}

type orderItemResponse struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type orderResponse struct {
	ID             int64               `json:"id"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	Status         models.OrderStatus  `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	TrackingNumber *string             `json:"tracking_number"`
	Items          []orderItemResponse `json:"items"`
}

type orderDetailResponse struct {
	orderResponse
	UpdatedAt       time.Time `json:"updated_at"`
	ShippingAddress string    `json:"shipping_address"`
}

func newOrderResponse(o models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Subtotal:    it.Subtotal(),
		})
	}
	return orderResponse{
		ID:             o.OrderID,
		TotalAmount:    o.TotalAmount,
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
		TrackingNumber: o.TrackingNumber,
		Items:          items,
	}
}

func newOrderDetailResponse(o models.Order) orderDetailResponse {
	return orderDetailResponse{
		orderResponse:   newOrderResponse(o),
		UpdatedAt:       o.UpdatedAt,
		ShippingAddress: o.ShippingAddress,
	}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	placed, err := h.orders.CreateOrder(r.Context(), uid, req.ShippingAddress)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to create order")
		return
	}

	w.Header().Set("Location", "/orders/"+strconv.FormatInt(placed.OrderID, 10))
	writeJSON(w, http.StatusCreated, placed)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), uid)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to get orders")
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": resp})
}

func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	orderID, ok := idParam(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), uid, orderID)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to get order")
		return
	}
	writeJSON(w, http.StatusOK, newOrderDetailResponse(*order))
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	orderID, ok := idParam(w, r, "id", "order")
	if !ok {
		return
	}

	order, err := h.orders.CancelOrder(r.Context(), uid, orderID)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to cancel order")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "order cancelled successfully",
		"order_id": order.OrderID,
		"status":   order.Status,
	})
}
