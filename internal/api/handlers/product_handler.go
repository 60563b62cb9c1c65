package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"shop-service/internal/models"
	"shop-service/internal/service"

	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	catalog *service.Catalog
	logger  *slog.Logger
}

func NewProductHandler(catalog *service.Catalog, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

type ProductCreateRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  int64           `json:"category_id"`
}

type ProductUpdateRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	CategoryID  *int64           `json:"category_id"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intQuery(q, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "page must be an integer", nil)
		return
	}
	perPage, err := intQuery(q, "per_page", service.DefaultPerPage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "per_page must be an integer", nil)
		return
	}

	filter, msg := parseProductFilter(q)
	if msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_input", msg, nil)
		return
	}

	result, err := h.catalog.ListProducts(r.Context(), filter, page, perPage)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to get products")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "product")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to get product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductCreateRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	p := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}

	if err := h.catalog.CreateProduct(r.Context(), &p); err != nil {
		writeStoreError(w, r, h.logger, err, "failed to create product")
		return
	}

	w.Header().Set("Location", "/products/"+strconv.FormatInt(p.ProductID, 10))
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "product")
	if !ok {
		return
	}

	var req ProductUpdateRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, models.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to update product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "product")
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		writeStoreError(w, r, h.logger, err, "failed to delete product")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *ProductHandler) Operations(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "product")
	if !ok {
		return
	}

	ops, err := h.catalog.ProductOperations(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "failed to get product operations")
		return
	}
	writeJSON(w, http.StatusOK, ops)
}

func intQuery(q url.Values, key string, def int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// parseProductFilter returns the filter and a message describing the first bad parameter.
func parseProductFilter(q url.Values) (models.ProductFilter, string) {
	var f models.ProductFilter

	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, "category_id must be a positive integer"
		}
		f.CategoryID = &id
	}
	if v := q.Get("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, "min_price must be a number"
		}
		f.MinPrice = &d
	}
	if v := q.Get("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, "max_price must be a number"
		}
		f.MaxPrice = &d
	}
	if v := q.Get("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, "in_stock must be a boolean"
		}
		f.InStock = b
	}
	return f, ""
}
