package handlers

import (
	"log/slog"
	"net/http"

	"shop-service/internal/models"
	"shop-service/internal/service"
)

// AdminHandler serves the fulfillment routes used by back-office tooling.
type AdminHandler struct {
	orders *service.OrderEngine
	logger *slog.Logger
}

func NewAdminHandler(orders *service.OrderEngine, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{orders: orders, logger: logger}
}

type AdvanceStatusRequest struct {
	Status         string  `json:"status"`
	TrackingNumber *string `json:"tracking_number"`
}

func (h *AdminHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := idParam(w, r, "id", "order")
	if !ok {
		return
	}

	var req AdvanceStatusRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	target, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		return
	}

	order, err := h.orders.AdvanceStatus(r.Context(), orderID, target, req.TrackingNumber)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to update order status")
		return
	}
	writeJSON(w, http.StatusOK, newOrderDetailResponse(*order))
}
