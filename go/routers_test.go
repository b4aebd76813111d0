package inventoryserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/hcustod/inventory-management-system/internal/domains/catalog/adapters/memory"
	catalogapp "github.com/hcustod/inventory-management-system/internal/domains/catalog/application"
	identitymemory "github.com/hcustod/inventory-management-system/internal/domains/identity/adapters/memory"
	identityapp "github.com/hcustod/inventory-management-system/internal/domains/identity/application"
	stockadapter "github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/catalog"
	ordersmemory "github.com/hcustod/inventory-management-system/internal/domains/orders/adapters/memory"
	ordersapp "github.com/hcustod/inventory-management-system/internal/domains/orders/application"
	"github.com/hcustod/inventory-management-system/internal/platform/memtx"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tx := memtx.NewTransactor()
	catalogStore := catalogmemory.NewStore()
	orderRepo := ordersmemory.NewRepository(nil)
	catalogStore.GuardProductDeletes(orderRepo.ReferencesProduct)
	catalogService := catalogapp.NewService(catalogStore.Categories(), catalogStore.Products(), catalogapp.WithTransactor(tx))
	orderService := ordersapp.NewService(orderRepo, stockadapter.NewStockLedger(catalogStore.Products()),
		ordersapp.WithTransactor(tx),
		ordersapp.WithIdempotencyStore(ordersmemory.NewIdempotencyStore()),
	)

	tokens := identitymemory.NewTokenStore(0)
	grants, err := identityapp.ParseTokenGrants(adminToken + ":Admin:alice," + userToken + ":User:bob")
	require.NoError(t, err)
	require.NoError(t, identityapp.SeedTokens(context.Background(), tokens, grants))

	responder := NewResponder(nil)
	return NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{
		CategoryAPI:   NewCategoryAPI(catalogService, responder),
		ProductAPI:    NewProductAPI(catalogService, responder),
		OrderAPI:      NewOrderAPI(orderService, responder),
		Authenticator: identityapp.NewTokenAuthenticator(tokens),
		Errors:        responder,
	})
}

func do(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func seedCatalog(t *testing.T, router *gin.Engine, stock int) (categoryID, productID int64) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/categories", adminToken, map[string]any{"name": "Tools"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	categoryID = int64(decode[map[string]any](t, rec)["id"].(float64))

	rec = do(t, router, http.MethodPost, "/api/products", adminToken, map[string]any{
		"name":              "Widget",
		"description":       "A widget",
		"price":             2,
		"stockAmount":       stock,
		"lowStockThreshold": 1,
		"categoryId":        categoryID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	productID = int64(decode[map[string]any](t, rec)["id"].(float64))
	return categoryID, productID
}

func TestRouter_HealthAndAnonymousCategoryReads(t *testing.T) {
	router := newTestServer(t)

	require.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/healthz", "", nil).Code)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/categories", "", nil).Code)

	rec := do(t, router, http.MethodGet, "/api/categories/9", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouter_RoleGuards(t *testing.T) {
	router := newTestServer(t)
	body := map[string]any{"name": "Tools"}

	require.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/api/categories", "", body).Code)
	require.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/api/categories", "bogus", body).Code)
	require.Equal(t, http.StatusForbidden, do(t, router, http.MethodPost, "/api/categories", userToken, body).Code)
	require.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/api/products", "", nil).Code)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/products", userToken, nil).Code)

	rec := do(t, router, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, `Bearer realm="inventory"`, rec.Header().Get("WWW-Authenticate"))
}

func TestRouter_CategoryLifecycle(t *testing.T) {
	router := newTestServer(t)
	categoryID, productID := seedCatalog(t, router, 5)
	path := fmt.Sprintf("/api/categories/%d", categoryID)

	rec := do(t, router, http.MethodPost, "/api/categories", adminToken, map[string]any{"name": "tools"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "category already exists", decode[map[string]any](t, rec)["detail"])

	rec = do(t, router, http.MethodPut, path, adminToken, map[string]any{"id": categoryID + 1, "name": "Hardware"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "ID mismatch", decode[map[string]any](t, rec)["detail"])

	require.Equal(t, http.StatusNoContent, do(t, router, http.MethodPut, path, adminToken, map[string]any{"name": "Hardware"}).Code)
	require.Equal(t, http.StatusNotFound, do(t, router, http.MethodPut, "/api/categories/999", adminToken, map[string]any{"name": "X"}).Code)

	rec = do(t, router, http.MethodDelete, path, adminToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "cannot delete category with existing products", decode[map[string]any](t, rec)["detail"])

	require.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, fmt.Sprintf("/api/products/%d", productID), adminToken, nil).Code)
	require.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, path, adminToken, nil).Code)
	require.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, path, adminToken, nil).Code)
}

func TestRouter_ProductValidationAndQueries(t *testing.T) {
	router := newTestServer(t)
	categoryID, productID := seedCatalog(t, router, 5)

	rec := do(t, router, http.MethodPost, "/api/products", adminToken, map[string]any{
		"name": "Bad", "description": "bad", "price": -1, "stockAmount": 1, "categoryId": categoryID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/products", adminToken, map[string]any{
		"name": "Orphan", "description": "orphan", "price": 1, "stockAmount": 1, "categoryId": 999,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/products", adminToken, map[string]any{"price": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decode[map[string]any](t, rec)
	require.Contains(t, problem["fields"], "name")

	rec = do(t, router, http.MethodGet, fmt.Sprintf("/api/products/%d", productID), userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"price":2.00`)

	rec = do(t, router, http.MethodGet, fmt.Sprintf("/api/products/byCategory/%d", categoryID), userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = do(t, router, http.MethodGet, "/api/products?minPrice=abc", userToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/products?search=widg&sortBy=price&lowStockOnly=true", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[[]map[string]any](t, rec))

	rec = do(t, router, http.MethodPut, fmt.Sprintf("/api/products/%d", productID), adminToken, map[string]any{
		"id": productID, "name": "Widget", "description": "A widget", "price": "3.50", "stockAmount": 0, "lowStockThreshold": 1, "categoryId": categoryID,
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/products?lowStockOnly=true", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]map[string]any](t, rec), 1)
}

func TestRouter_OrderFlow(t *testing.T) {
	router := newTestServer(t)
	_, productID := seedCatalog(t, router, 5)

	order := map[string]any{
		"userName":  "Bob",
		"userEmail": "bob@example.com",
		"orderDate": "1999-01-01T00:00:00Z",
		"lines": []map[string]any{
			{"productId": productID, "quantity": 2},
			{"productId": productID, "quantity": 3},
		},
	}
	require.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/api/orders", "", order).Code)

	rec := do(t, router, http.MethodPost, "/api/orders", userToken, order)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"totalPrice":10.00`)
	created := decode[map[string]any](t, rec)
	require.NotContains(t, created["orderDate"], "1999")
	require.Len(t, created["lines"], 1)
	orderPath := fmt.Sprintf("/api/orders/%d", int64(created["id"].(float64)))

	rec = do(t, router, http.MethodPost, "/api/orders", adminToken, map[string]any{
		"userName": "Bob", "userEmail": "bob@example.com",
		"lines": []map[string]any{{"productId": productID, "quantity": 1}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Not enough stock for Widget: only 0 left", decode[map[string]any](t, rec)["detail"])

	rec = do(t, router, http.MethodPost, "/api/orders", userToken, map[string]any{
		"userName": "Bob", "userEmail": "bob@example.com",
		"lines": []map[string]any{{"productId": 4242, "quantity": 1}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Product with ID 4242 not found.", decode[map[string]any](t, rec)["detail"])

	rec = do(t, router, http.MethodPost, "/api/orders", userToken, map[string]any{
		"userName": "Bob", "userEmail": "bob@example.com", "lines": []map[string]any{},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "order must contain at least one line", decode[map[string]any](t, rec)["detail"])

	rec = do(t, router, http.MethodGet, orderPath, userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/orders?search=bo&orderDate=not-a-date", userToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/orders?email=EXAMPLE", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]map[string]any](t, rec), 1)

	require.Equal(t, http.StatusForbidden, do(t, router, http.MethodDelete, orderPath, userToken, nil).Code)
	rec = do(t, router, http.MethodDelete, orderPath, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"Order deleted successfully."}`, rec.Body.String())
	require.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, orderPath, adminToken, nil).Code)
	require.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/orders/abc", userToken, nil).Code)
}

func TestRouter_IdempotentOrderRetry(t *testing.T) {
	router := newTestServer(t)
	_, productID := seedCatalog(t, router, 5)

	place := func(key string, quantity int) *httptest.ResponseRecorder {
		raw, err := json.Marshal(map[string]any{
			"userName": "Bob", "userEmail": "bob@example.com",
			"lines": []map[string]any{{"productId": productID, "quantity": quantity}},
		})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+userToken)
		req.Header.Set("Idempotency-Key", key)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := place("checkout-1", 2)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	retry := place("checkout-1", 2)
	require.Equal(t, http.StatusCreated, retry.Code, retry.Body.String())
	require.Equal(t, decode[map[string]any](t, first)["id"], decode[map[string]any](t, retry)["id"])

	rec := do(t, router, http.MethodGet, fmt.Sprintf("/api/products/%d", productID), userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 3, decode[map[string]any](t, rec)["stockAmount"])

	conflict := place("checkout-1", 1)
	require.Equal(t, http.StatusConflict, conflict.Code)
	require.Equal(t, "/problems/idempotency-conflict", decode[map[string]any](t, conflict)["type"])
}
