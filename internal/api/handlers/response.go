package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"shop-service/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type apiError struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Available *int   `json:"available,omitempty"`
	InCart    *int   `json:"in_cart,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, apiError{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// writeStoreError maps service and repository errors onto HTTP responses.
// Unknown errors are logged and answered with a generic message.
func writeStoreError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	var stockErr *repository.StockError

	switch {
	case errors.As(err, &stockErr):
		body := apiError{
			Error:     stockErr.Error(),
			Code:      "insufficient_stock",
			Available: &stockErr.Available,
			Details:   map[string]any{"product_id": stockErr.ProductID},
		}
		if stockErr.InCart > 0 {
			body.InCart = &stockErr.InCart
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found", nil)
	case errors.Is(err, repository.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	case errors.Is(err, repository.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "empty_cart", err.Error(), nil)
	case errors.Is(err, repository.ErrInvalidState):
		writeError(w, http.StatusBadRequest, "invalid_state", err.Error(), nil)
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusBadRequest, "duplicate", err.Error(), nil)
	case errors.Is(err, repository.ErrInUse):
		writeError(w, http.StatusBadRequest, "in_use", err.Error(), nil)
	case errors.Is(err, repository.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case errors.Is(err, repository.ErrConflict):
		logger.Error(fallback, "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, "persistence_conflict", "the operation could not be completed, nothing was changed", nil)
	default:
		logger.Error(fallback, "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", map[string]any{"error": err.Error()})
		return false
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", map[string]any{"error": "extra data after json"})
		return false
	}

	return true
}

// idParam reads a positive integer URL parameter and answers 400 otherwise.
func idParam(w http.ResponseWriter, r *http.Request, name, what string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid "+what+" id", nil)
		return 0, false
	}
	return id, true
}
