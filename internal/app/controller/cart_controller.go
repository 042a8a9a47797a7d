package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/internal/app/service"
	"github.com/pasteldream/pastel-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type UpdateCartRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// GetCart returns the caller's cart with its total
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.GetUserCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Get cart")
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddToCart adds one unit, or increments an existing line
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := ctrl.cartService.AddToCart(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		respondError(c, err, "Add to cart")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Item added to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": req.ProductID,
		"quantity":   item.Quantity,
	})
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// UpdateCartItem sets the quantity of a line
// PUT /api/v1/cart/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req UpdateCartRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ctrl.cartService.UpdateCartItem(c.Request.Context(), userID, c.Param("id"), req.Quantity); err != nil {
		respondError(c, err, "Update cart item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated"})
}

// RemoveFromCart
// DELETE /api/v1/cart/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := ctrl.cartService.RemoveFromCart(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err, "Remove cart item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

// ClearCart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := ctrl.cartService.ClearCart(c.Request.Context(), userID); err != nil {
		respondError(c, err, "Clear cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
