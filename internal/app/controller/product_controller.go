package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	apperrors "github.com/pasteldream/pastel-backend/internal/errors"
	"github.com/pasteldream/pastel-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// ProductRequest is the admin product form. Tags is a comma separated list.
type ProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Tags        string          `json:"tags"`
	Tag         string          `json:"tag"`
	Category    string          `json:"category"`
	IsActive    *bool           `json:"is_active"`
}

func (r ProductRequest) input() service.ProductInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		Tags:        r.Tags,
		Tag:         r.Tag,
		Category:    r.Category,
		IsActive:    active,
	}
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ListProducts
// GET /api/v1/products?category=&search=&order_by=&asc=&limit=&include_inactive=
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	filter := repository.ProductFilter{
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		OrderBy:    c.DefaultQuery("order_by", "created_at"),
		Ascending:  c.Query("asc") == "true",
		ActiveOnly: c.Query("include_inactive") != "true",
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "limit must be a positive number")
			return
		}
		filter.Limit = limit
	}

	products, err := ctrl.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "List products")
		return
	}

	middleware.GetLoggerFromContext(c).Debug("Products fetched", map[string]interface{}{
		"count":    len(products),
		"category": filter.Category,
	})
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// Shelf returns a storefront shelf such as new-arrivals
// GET /api/v1/products/shelves/:category
func (ctrl *ProductController) Shelf(c *gin.Context) {
	products, err := ctrl.productService.Shelf(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, err, "Load shelf")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct returns a product with up to four related products
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	detail, err := ctrl.productService.GetProductDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Get product")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// CreateProduct notifies every user about the new product
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Price.IsNegative() {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "price must not be negative")
		return
	}

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err, "Create product")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Product created", map[string]interface{}{
		"product_id": product.ProductID,
	})
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct
// PUT /api/v1/admin/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	var req ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Price.IsNegative() {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "price must not be negative")
		return
	}

	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		respondError(c, err, "Update product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// SetActive shows or hides a product on the storefront
// PATCH /api/v1/admin/products/:id/active
func (ctrl *ProductController) SetActive(c *gin.Context) {
	var req SetActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := ctrl.productService.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive); err != nil {
		respondError(c, err, "Update product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": c.Param("id"), "is_active": *req.IsActive})
}

// DeleteProduct
// DELETE /api/v1/admin/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	if err := ctrl.productService.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
