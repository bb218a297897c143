package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sofuled/catalog-service/internal/auth"
	httpAPI "github.com/sofuled/catalog-service/internal/http"
	"github.com/sofuled/catalog-service/internal/http/controller"
	reposql "github.com/sofuled/catalog-service/internal/repository/sql"
	"github.com/sofuled/catalog-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiTestSecret = "integration-test-secret"

func setupAPIRouter(testDB *TestDB) *gin.Engine {
	productRepo := reposql.NewProductRepository(testDB.DB)
	eventRepo := reposql.NewEventRepository(testDB.DB)
	productService := service.NewProductService(productRepo, eventRepo)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	productCtr := controller.NewProductController(productService)
	verifier := auth.NewTokenVerifier(apiTestSecret)
	httpAPI.InitRouter(verifier, router, controller.New(), productCtr)
	return router
}

func authedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := auth.GenerateToken(apiTestSecret, "integration-tester", "tester@example.com", time.Minute)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	return req
}

func createProductViaAPI(t *testing.T, router *gin.Engine, name string, price float64, inventory int64) int64 {
	t.Helper()

	req := authedRequest(t, http.MethodPost, "/products", map[string]interface{}{
		"name":      name,
		"price":     price,
		"inventory": inventory,
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return int64(response["id"].(float64))
}

func TestProductAPI_Auth_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	router := setupAPIRouter(testDB)

	t.Run("request without a token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error": "No token provided"}`, w.Body.String())
	})

	t.Run("request with a forged token is rejected", func(t *testing.T) {
		token, err := auth.GenerateToken("wrong-secret", "intruder", "", time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error": "Invalid token"}`, w.Body.String())
	})

	t.Run("health check needs no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestProductAPI_CRUD_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	router := setupAPIRouter(testDB)

	t.Run("create then fetch", func(t *testing.T) {
		testDB.TruncateTables(t)

		req := authedRequest(t, http.MethodPost, "/products", map[string]interface{}{
			"name":        "Test Laptop",
			"description": "High-performance laptop",
			"price":       1299.99,
			"inventory":   7,
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var created map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created["id"])
		assert.Equal(t, "Test Laptop", created["name"])
		assert.Equal(t, "High-performance laptop", created["description"])
		assert.Equal(t, 1299.99, created["price"])
		assert.Equal(t, float64(7), created["inventory"])
		assert.NotEmpty(t, created["created_at"])
		assert.NotEmpty(t, created["updated_at"])

		id := int64(created["id"].(float64))
		req = authedRequest(t, http.MethodGet, fmt.Sprintf("/products/%d", id), nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var fetched map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
		assert.Equal(t, "Test Laptop", fetched["name"])
	})

	t.Run("create with missing fields", func(t *testing.T) {
		testDB.TruncateTables(t)

		req := authedRequest(t, http.MethodPost, "/products", map[string]interface{}{
			"name": "Test Product",
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error": "Name, price, and inventory are required"}`, w.Body.String())
	})

	t.Run("duplicate name is rejected with 400", func(t *testing.T) {
		testDB.TruncateTables(t)

		createProductViaAPI(t, router, "One of a Kind", 10, 1)

		req := authedRequest(t, http.MethodPost, "/products", map[string]interface{}{
			"name":      "One of a Kind",
			"price":     20.0,
			"inventory": 2,
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error": "Product name must be unique"}`, w.Body.String())
	})

	t.Run("partial update", func(t *testing.T) {
		testDB.TruncateTables(t)

		id := createProductViaAPI(t, router, "Updatable", 10, 5)

		req := authedRequest(t, http.MethodPut, fmt.Sprintf("/products/%d", id), map[string]interface{}{
			"price": 14.5,
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var updated map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, 14.5, updated["price"])
		assert.Equal(t, "Updatable", updated["name"])
	})

	t.Run("explicit null clears a nullable field", func(t *testing.T) {
		testDB.TruncateTables(t)

		id := createProductViaAPI(t, router, "Clearable", 10, 1)

		req := authedRequest(t, http.MethodPut, fmt.Sprintf("/products/%d", id), map[string]interface{}{
			"description": "temporary note",
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		req = authedRequest(t, http.MethodPut, fmt.Sprintf("/products/%d", id), map[string]interface{}{
			"description": nil,
		})
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var cleared map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cleared))
		assert.Nil(t, cleared["description"])
		assert.Equal(t, "Clearable", cleared["name"])
	})

	t.Run("delete then fetch returns 404", func(t *testing.T) {
		testDB.TruncateTables(t)

		id := createProductViaAPI(t, router, "Doomed", 10, 1)

		req := authedRequest(t, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message": "Product deleted successfully"}`, w.Body.String())

		req = authedRequest(t, http.MethodGet, fmt.Sprintf("/products/%d", id), nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error": "Product not found"}`, w.Body.String())
	})
}

func TestProductAPI_List_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	router := setupAPIRouter(testDB)

	t.Run("newest first by default", func(t *testing.T) {
		testDB.TruncateTables(t)

		createProductViaAPI(t, router, "Product 1", 10.99, 1)
		createProductViaAPI(t, router, "Product 2", 20.99, 1)
		createProductViaAPI(t, router, "Product 3", 30.99, 1)

		req := authedRequest(t, http.MethodGet, "/products", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		products := response["products"].([]interface{})
		require.Len(t, products, 3)

		first := products[0].(map[string]interface{})
		assert.Equal(t, "Product 3", first["name"])

		pagination := response["pagination"].(map[string]interface{})
		assert.Equal(t, float64(3), pagination["total"])
		assert.Equal(t, float64(1), pagination["totalPages"])
	})

	t.Run("paginates with metadata", func(t *testing.T) {
		testDB.TruncateTables(t)

		for i := 1; i <= 5; i++ {
			createProductViaAPI(t, router, fmt.Sprintf("Product %d", i), float64(i*10), 1)
		}

		req := authedRequest(t, http.MethodGet, "/products?limit=2&page=2&sortBy=price&order=asc", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		products := response["products"].([]interface{})
		require.Len(t, products, 2)
		assert.Equal(t, "Product 3", products[0].(map[string]interface{})["name"])
		assert.Equal(t, "Product 4", products[1].(map[string]interface{})["name"])

		pagination := response["pagination"].(map[string]interface{})
		assert.Equal(t, float64(5), pagination["total"])
		assert.Equal(t, float64(2), pagination["page"])
		assert.Equal(t, float64(3), pagination["totalPages"])
	})

	t.Run("filters by name substring", func(t *testing.T) {
		testDB.TruncateTables(t)

		createProductViaAPI(t, router, "Red Widget", 10, 1)
		createProductViaAPI(t, router, "Blue Widget", 20, 1)
		createProductViaAPI(t, router, "Green Gadget", 30, 1)

		req := authedRequest(t, http.MethodGet, "/products?name=widget", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		products := response["products"].([]interface{})
		assert.Len(t, products, 2)
	})

	t.Run("empty catalog lists cleanly", func(t *testing.T) {
		testDB.TruncateTables(t)

		req := authedRequest(t, http.MethodGet, "/products", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Empty(t, response["products"])
	})
}

func TestProductAPI_Sell_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	router := setupAPIRouter(testDB)

	t.Run("sell decrements inventory", func(t *testing.T) {
		testDB.TruncateTables(t)

		id := createProductViaAPI(t, router, "Sellable", 9.99, 10)

		req := authedRequest(t, http.MethodPost, fmt.Sprintf("/products/%d/sell", id), map[string]interface{}{
			"quantity": 4,
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message": "Product sold successfully"}`, w.Body.String())

		req = authedRequest(t, http.MethodGet, fmt.Sprintf("/products/%d", id), nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var fetched map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
		assert.Equal(t, float64(6), fetched["inventory"])
	})

	t.Run("overselling returns 400 and keeps stock", func(t *testing.T) {
		testDB.TruncateTables(t)

		id := createProductViaAPI(t, router, "Scarce", 9.99, 3)

		req := authedRequest(t, http.MethodPost, fmt.Sprintf("/products/%d/sell", id), map[string]interface{}{
			"quantity": 5,
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error": "Not enough inventory available"}`, w.Body.String())

		req = authedRequest(t, http.MethodGet, fmt.Sprintf("/products/%d", id), nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var fetched map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
		assert.Equal(t, float64(3), fetched["inventory"])
	})

	t.Run("selling an unknown product returns 404", func(t *testing.T) {
		testDB.TruncateTables(t)

		req := authedRequest(t, http.MethodPost, "/products/424242/sell", map[string]interface{}{
			"quantity": 1,
		})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error": "Product not found"}`, w.Body.String())
	})
}
