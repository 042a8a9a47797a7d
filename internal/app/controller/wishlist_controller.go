package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pasteldream/pastel-backend/internal/app/service"
)

type WishlistController struct {
	wishlistService service.WishlistService
}

func NewWishlistController(wishlistService service.WishlistService) *WishlistController {
	return &WishlistController{
		wishlistService: wishlistService,
	}
}

// ToggleWishlistRequest carries the like state the client currently shows.
type ToggleWishlistRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Liked     bool   `json:"liked"`
}

// GetWishlist
// GET /api/v1/wishlist
func (ctrl *WishlistController) GetWishlist(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	items, err := ctrl.wishlistService.GetUserWishlist(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Get wishlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// IsLiked
// GET /api/v1/wishlist/products/:productId
func (ctrl *WishlistController) IsLiked(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	liked, err := ctrl.wishlistService.IsLiked(c.Request.Context(), userID, c.Param("productId"))
	if err != nil {
		respondError(c, err, "Get wishlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// Toggle likes or unlikes a product and returns the new state
// POST /api/v1/wishlist/toggle
func (ctrl *WishlistController) Toggle(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req ToggleWishlistRequest
	if !bindJSON(c, &req) {
		return
	}

	liked, err := ctrl.wishlistService.Toggle(c.Request.Context(), userID, req.ProductID, req.Liked)
	if err != nil {
		respondError(c, err, "Update wishlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// Remove
// DELETE /api/v1/wishlist/:id
func (ctrl *WishlistController) Remove(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := ctrl.wishlistService.Remove(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err, "Delete wishlist item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from wishlist"})
}

// MoveToCart
// POST /api/v1/wishlist/:id/move-to-cart
func (ctrl *WishlistController) MoveToCart(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	item, err := ctrl.wishlistService.MoveToCart(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, "Move to cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}
