package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sofuled/catalog-service/internal/model"
	"github.com/sofuled/catalog-service/internal/repository"
	"github.com/sofuled/catalog-service/internal/service"
)

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	productService *service.ProductService
}

// NewProductController creates a new ProductController with the given product service.
func NewProductController(productService *service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// CreateProductRequest represents the request body for creating a product.
// Pointer fields distinguish "field omitted" from "field zero".
type CreateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Inventory   *int64   `json:"inventory"`
	ImageURL    *string  `json:"image_url"`
}

// UpdateProductRequest represents the request body for a partial update.
// A nil pointer alone cannot distinguish an omitted key from an explicit
// JSON null, so the raw field set is inspected alongside this struct to
// turn "description": null into a clear of the nullable column.
type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Inventory   *int64   `json:"inventory"`
	ImageURL    *string  `json:"image_url"`
}

// SellProductRequest represents the request body for selling a product.
type SellProductRequest struct {
	Quantity *int64 `json:"quantity"`
}

// ListProductsRequest represents the query parameters for listing products.
// Page and Limit are pointers so an omitted parameter falls back to the
// default while a malformed one is rejected.
type ListProductsRequest struct {
	Page   *int   `form:"page"`
	Limit  *int   `form:"limit"`
	SortBy string `form:"sortBy"`
	Order  string `form:"order"`
	Name   string `form:"name"`
}

// ProductResponse represents the response body for a product.
type ProductResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	Inventory   int64   `json:"inventory"`
	ImageURL    *string `json:"image_url"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ListProductsResponse represents the response body for listing products.
type ListProductsResponse struct {
	Products   []ProductResponse     `json:"products"`
	Pagination repository.Pagination `json:"pagination"`
}

// ListProducts handles the HTTP GET request for listing products with
// pagination, sorting and filtering.
func (pc *ProductController) ListProducts(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	query := repository.NewQuery()
	if err := query.ApplySort(req.SortBy, req.Order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, limit := query.Page, query.Limit
	if req.Page != nil {
		page = *req.Page
	}
	if req.Limit != nil {
		limit = *req.Limit
	}
	if err := query.ApplyPagination(page, limit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	query.WithNameFilter(req.Name)

	products, pagination, err := pc.productService.ListProducts(c.Request.Context(), *query)
	if err != nil {
		respondError(c, err, "failed to list products")
		return
	}

	productResponses := make([]ProductResponse, 0, len(products))
	for i := range products {
		productResponses = append(productResponses, toProductResponse(&products[i]))
	}

	c.JSON(http.StatusOK, ListProductsResponse{
		Products:   productResponses,
		Pagination: pagination,
	})
}

// GetProduct handles the HTTP GET request for fetching a single product.
func (pc *ProductController) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	product, err := pc.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, toProductResponse(product))
}

// CreateProduct handles the HTTP POST request for creating a new product.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Name == nil || req.Price == nil || req.Inventory == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, price, and inventory are required"})
		return
	}

	created, err := pc.productService.CreateProduct(c.Request.Context(), service.CreateProductInput{
		Name:        *req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Inventory:   *req.Inventory,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondError(c, err, "failed to create product")
		return
	}

	c.JSON(http.StatusCreated, toProductResponse(created))
}

// UpdateProduct handles the HTTP PUT request for partially updating a product.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var req UpdateProductRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updated, err := pc.productService.UpdateProduct(c.Request.Context(), id, repository.ProductChanges{
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		Inventory:        req.Inventory,
		ImageURL:         req.ImageURL,
		ClearDescription: req.Description == nil && isNullField(fields, "description"),
		ClearImageURL:    req.ImageURL == nil && isNullField(fields, "image_url"),
	})
	if err != nil {
		respondError(c, err, "failed to update product")
		return
	}

	c.JSON(http.StatusOK, toProductResponse(updated))
}

// DeleteProduct handles the HTTP DELETE request for deleting a product by ID.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := pc.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err, "failed to delete product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// SellProduct handles the HTTP POST request for selling product inventory.
func (pc *ProductController) SellProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req SellProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be a positive integer"})
		return
	}
	if req.Quantity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be a positive integer"})
		return
	}

	if err := pc.productService.SellProduct(c.Request.Context(), id, *req.Quantity); err != nil {
		respondError(c, err, "failed to sell product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product sold successfully"})
}

// isNullField reports whether the key was supplied as an explicit JSON null.
func isNullField(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	return ok && bytes.Equal(raw, []byte("null"))
}

func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return 0, false
	}
	return id, true
}

// respondError maps service and repository errors onto the HTTP error
// taxonomy. Unexpected errors are logged and surface as a generic 500.
func respondError(c *gin.Context, err error, logMsg string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, repository.ErrInsufficientInventory):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough inventory available"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	default:
		slog.Error(logMsg, slog.Any("err", err), slog.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func toProductResponse(product *model.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Inventory:   product.Inventory,
		ImageURL:    product.ImageURL,
		CreatedAt:   product.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   product.UpdatedAt.Format(time.RFC3339),
	}
}
