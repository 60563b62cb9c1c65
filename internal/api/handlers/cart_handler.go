package handlers

import (
	"log/slog"
	"net/http"

	"shop-service/internal/service"
)

type CartHandler struct {
	carts  *service.CartManager
	logger *slog.Logger
}

func NewCartHandler(carts *service.CartManager, logger *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

type AddToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  *int  `json:"quantity"`
}

type UpdateCartRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(r.Context(), uid)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to get cart")
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req AddToCartRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}
	if req.ProductID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_input", "product_id is required", nil)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	line, err := h.carts.AddItem(r.Context(), uid, req.ProductID, quantity)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to add item to cart")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "item added to cart",
		"cart_item": line,
	})
}

func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	itemID, ok := idParam(w, r, "itemID", "cart item")
	if !ok {
		return
	}

	var req UpdateCartRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "quantity is required", nil)
		return
	}

	line, err := h.carts.SetQuantity(r.Context(), uid, itemID, *req.Quantity)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to update cart")
		return
	}

	resp := map[string]any{"message": "cart updated successfully"}
	if line != nil {
		resp["cart_item"] = line
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	itemID, ok := idParam(w, r, "itemID", "cart item")
	if !ok {
		return
	}

	if err := h.carts.RemoveItem(r.Context(), uid, itemID); err != nil {
		writeStoreError(w, r, h.logger, err, "failed to remove item from cart")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
}
