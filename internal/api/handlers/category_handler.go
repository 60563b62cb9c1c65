package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"shop-service/internal/service"
)

type CategoryHandler struct {
	catalog *service.Catalog
	logger  *slog.Logger
}

func NewCategoryHandler(catalog *service.Catalog, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{catalog: catalog, logger: logger}
}

type CategoryRequest struct {
	Name string `json:"name"`
}

func (h *CategoryHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to get categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "category")
	if !ok {
		return
	}

	category, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to get category")
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to create category")
		return
	}

	w.Header().Set("Location", "/categories/"+strconv.FormatInt(category.CategoryID, 10))
	writeJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "category")
	if !ok {
		return
	}

	var req CategoryRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	category, err := h.catalog.UpdateCategory(r.Context(), id, req.Name)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to update category")
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "category")
	if !ok {
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		writeStoreError(w, r, h.logger, err, "failed to delete category")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
