package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"shop-service/internal/auth"
	"shop-service/internal/models"
	"shop-service/internal/repository/memory"
	"shop-service/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const adminKey = "admin-test-key"

type testServer struct {
	t       *testing.T
	handler http.Handler
	store   *memory.Store
	tokens  *auth.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	tokens := auth.NewManager("router-secret", time.Hour)

	catalog := service.NewCatalog(store, nil, logger)
	handler := NewRouter(Deps{
		Store:          store,
		Tokens:         tokens,
		Accounts:       service.NewAccounts(store, tokens, logger).WithBcryptCost(bcrypt.MinCost),
		Catalog:        catalog,
		Carts:          service.NewCartManager(store, logger),
		Orders:         service.NewOrderEngine(store, nil, logger),
		AdminAPIKey:    adminKey,
		RequestTimeout: 5 * time.Second,
		Logger:         logger,
	})
	return &testServer{t: t, handler: handler, store: store, tokens: tokens}
}

func (s *testServer) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// signUp registers a user and returns a bearer token for it.
func (s *testServer) signUp(email string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "name": "Shopper", "password": "sup3r-secret",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "sup3r-secret",
	})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(s.t, rec)
	assert.Equal(s.t, "Bearer", body["token_type"])
	return body["access_token"].(string)
}

func (s *testServer) product(name, price string, stock int) int64 {
	s.t.Helper()
	ctx := context.Background()
	cats, err := s.store.Categories().GetAll(ctx)
	require.NoError(s.t, err)
	var categoryID int64
	if len(cats) == 0 {
		c := &models.Category{Name: "General"}
		require.NoError(s.t, s.store.Categories().Create(ctx, c))
		categoryID = c.CategoryID
	} else {
		categoryID = cats[0].CategoryID
	}
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock, CategoryID: categoryID}
	require.NoError(s.t, s.store.Products().Create(ctx, p))
	return p.ProductID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/cart"},
		{http.MethodPost, "/orders"},
		{http.MethodPost, "/products"},
		{http.MethodPost, "/auth/logout"},
	} {
		rec := s.do(tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
		assert.Equal(t, "unauthorized", decode(t, rec)["code"])
	}

	rec := s.do(http.MethodGet, "/cart", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenForUnknownUserIsRejected(t *testing.T) {
	s := newTestServer(t)
	s.signUp("buyer@example.com")

	ghost, _, err := s.tokens.Issue(999)
	require.NoError(t, err)

	rec := s.do(http.MethodGet, "/cart", ghost, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "unauthorized", body["code"])
	assert.Equal(t, "unknown user", body["error"])
}

func TestHugeCartQuantityIsRejected(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp("buyer@example.com")
	a := s.product("A", "10", 10)

	rec := s.do(http.MethodPost, "/cart", token, map[string]any{"product_id": a, "quantity": int64(9223372036854775806)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode(t, rec)["code"])

	rec = s.do(http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["items"])
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t)
	s.signUp("ada@example.com")

	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "ADA@example.com", "name": "Ada", "password": "sup3r-secret",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "duplicate", decode(t, rec)["code"])

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/auth/register", "", map[string]any{"email": "x@example.com", "bogus": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp("buyer@example.com")
	a := s.product("A", "10", 5)
	b := s.product("B", "5", 3)

	rec := s.do(http.MethodPost, "/cart", token, map[string]any{"product_id": a, "quantity": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "item added to cart", decode(t, rec)["message"])

	rec = s.do(http.MethodPost, "/cart", token, map[string]any{"product_id": b})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/cart", token, map[string]any{"product_id": a, "quantity": 4})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "insufficient_stock", body["code"])
	assert.InDelta(t, 5, body["available"], 0)
	assert.InDelta(t, 2, body["in_cart"], 0)

	rec = s.do(http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)["summary"].(map[string]any)
	assert.InDelta(t, 25, summary["total"], 0)
	assert.InDelta(t, 3, summary["item_count"], 0)

	rec = s.do(http.MethodPost, "/orders", token, map[string]string{"shipping_address": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode(t, rec)["code"])

	rec = s.do(http.MethodPost, "/orders", token, map[string]string{"shipping_address": "1 Main St"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decode(t, rec)
	assert.InDelta(t, 25, placed["total_amount"], 0)
	assert.Equal(t, "pending", placed["status"])
	orderID := int64(placed["order_id"].(float64))
	orderPath := "/orders/" + strconv.FormatInt(orderID, 10)
	assert.Equal(t, orderPath, rec.Header().Get("Location"))

	rec = s.do(http.MethodPost, "/orders", token, map[string]string{"shipping_address": "1 Main St"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_cart", decode(t, rec)["code"])

	rec = s.do(http.MethodGet, orderPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode(t, rec)
	assert.Equal(t, "1 Main St", detail["shipping_address"])
	assert.Len(t, detail["items"], 2)

	other := s.signUp("other@example.com")
	rec = s.do(http.MethodGet, orderPath, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodPost, orderPath+"/cancel", other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, orderPath+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cancelled", decode(t, rec)["status"])

	rec = s.do(http.MethodPost, orderPath+"/cancel", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_state", decode(t, rec)["code"])

	rec = s.do(http.MethodGet, "/products/"+strconv.FormatInt(a, 10), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 5, decode(t, rec)["stock"], 0)

	rec = s.do(http.MethodGet, "/orders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["orders"], 1)
}

func TestCartUpdateAndRemove(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp("buyer@example.com")
	a := s.product("A", "10", 5)

	rec := s.do(http.MethodPost, "/cart", token, map[string]any{"product_id": a, "quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	item := decode(t, rec)["cart_item"].(map[string]any)
	itemPath := "/cart/" + strconv.FormatInt(int64(item["id"].(float64)), 10)

	rec = s.do(http.MethodPut, itemPath, token, map[string]int{"quantity": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 4, decode(t, rec)["cart_item"].(map[string]any)["quantity"], 0)

	rec = s.do(http.MethodPut, itemPath, token, map[string]int{"quantity": 6})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, itemPath, token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, itemPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, itemPath, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPut, "/cart/abc", token, map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAdvancesStatus(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp("buyer@example.com")
	a := s.product("A", "10", 5)

	rec := s.do(http.MethodPost, "/cart", token, map[string]any{"product_id": a})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, "/orders", token, map[string]string{"shipping_address": "1 Main St"})
	require.Equal(t, http.StatusCreated, rec.Code)
	statusPath := "/admin" + rec.Header().Get("Location") + "/status"

	rec = s.do(http.MethodPost, statusPath, "", map[string]string{"status": "processing"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, statusPath, "", map[string]string{"status": "shipped"}, "X-Admin-Key", adminKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_state", decode(t, rec)["code"])

	rec = s.do(http.MethodPost, statusPath, "", map[string]string{"status": "lost"}, "X-Admin-Key", adminKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode(t, rec)["code"])

	rec = s.do(http.MethodPost, statusPath, "", map[string]string{"status": "processing"}, "X-Admin-Key", adminKey)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, statusPath, "", map[string]string{"status": "shipped", "tracking_number": "TRK-9"}, "X-Admin-Key", adminKey)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "shipped", body["status"])
	assert.Equal(t, "TRK-9", body["tracking_number"])

	rec = s.do(http.MethodPost, statusPath, "", map[string]string{"status": "cancelled"}, "X-Admin-Key", adminKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductListing(t *testing.T) {
	s := newTestServer(t)
	for i := range 3 {
		s.product("P"+strconv.Itoa(i), "10", i)
	}

	rec := s.do(http.MethodGet, "/products?per_page=2&in_stock=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.InDelta(t, 2, body["total"], 0)
	assert.Len(t, body["items"], 2)

	rec = s.do(http.MethodGet, "/products?per_page=500", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/products/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
