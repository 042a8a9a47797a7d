package controller

import (
	"net/http"
	"testing"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	apperrors "github.com/pasteldream/pastel-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCartControllerTest(t *testing.T, userID string) (*controllerEnv, *model.Product) {
	env := setupControllerTest(t)
	product := env.seedProduct(t, "Lilac Hoodie", "tops", "100", true)

	ctrl := NewCartController(env.carts)
	cart := env.router.Group("/cart", asUser(userID))
	cart.GET("", ctrl.GetCart)
	cart.POST("", ctrl.AddToCart)
	cart.PUT("/:id", ctrl.UpdateCartItem)
	cart.DELETE("/:id", ctrl.RemoveFromCart)
	cart.DELETE("", ctrl.ClearCart)
	return env, product
}

func TestCartController_AddToCart_IncrementsExistingLine(t *testing.T) {
	env, product := setupCartControllerTest(t, "user-1")

	w := env.do(t, http.MethodPost, "/cart", AddToCartRequest{ProductID: product.ProductID})
	require.Equal(t, http.StatusOK, w.Code)
	item := decodeBody(t, w)["item"].(map[string]interface{})
	assert.Equal(t, float64(1), item["quantity"])

	w = env.do(t, http.MethodPost, "/cart", AddToCartRequest{ProductID: product.ProductID})
	require.Equal(t, http.StatusOK, w.Code)
	item = decodeBody(t, w)["item"].(map[string]interface{})
	assert.Equal(t, float64(2), item["quantity"])

	assert.Equal(t, int64(1), countRows(t, env.db, &model.CartItem{}, "user_id = ?", "user-1"))
}

func TestCartController_GetCart(t *testing.T) {
	env, product := setupCartControllerTest(t, "user-1")
	require.NoError(t, env.db.Create(&model.CartItem{UserID: "user-1", ProductID: product.ProductID, Quantity: 3}).Error)

	w := env.do(t, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	assert.Len(t, response["items"], 1)
	assert.Equal(t, float64(300), response["total"])
	assert.Equal(t, float64(3), response["item_count"])
}

func TestCartController_GetCart_Empty(t *testing.T) {
	env, _ := setupCartControllerTest(t, "user-1")

	w := env.do(t, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeBody(t, w)
	assert.Empty(t, response["items"])
	assert.Equal(t, float64(0), response["total"])
}

func TestCartController_AddToCart_Errors(t *testing.T) {
	env, _ := setupCartControllerTest(t, "user-1")
	hidden := env.seedProduct(t, "Retired Tee", "tops", "40", false)

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"missing product", map[string]string{}, http.StatusBadRequest, apperrors.ValidationInvalidInput},
		{"unknown product", AddToCartRequest{ProductID: "nope"}, http.StatusNotFound, apperrors.ProductNotFound},
		{"inactive product", AddToCartRequest{ProductID: hidden.ProductID}, http.StatusConflict, apperrors.ProductUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/cart", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeBody(t, w)["error"])
		})
	}
}

func TestCartController_UpdateCartItem(t *testing.T) {
	env, product := setupCartControllerTest(t, "user-1")
	item := &model.CartItem{UserID: "user-1", ProductID: product.ProductID, Quantity: 1}
	require.NoError(t, env.db.Create(item).Error)

	w := env.do(t, http.MethodPut, "/cart/"+item.ID, UpdateCartRequest{Quantity: 5})
	require.Equal(t, http.StatusOK, w.Code)

	var stored model.CartItem
	require.NoError(t, env.db.First(&stored, "id = ?", item.ID).Error)
	assert.Equal(t, 5, stored.Quantity)

	w = env.do(t, http.MethodPut, "/cart/"+item.ID, map[string]int{"quantity": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ValidationInvalidRange, decodeBody(t, w)["error"])
}

func TestCartController_OtherUsersLineIsHidden(t *testing.T) {
	env, product := setupCartControllerTest(t, "user-1")
	item := &model.CartItem{UserID: "user-2", ProductID: product.ProductID, Quantity: 1}
	require.NoError(t, env.db.Create(item).Error)

	w := env.do(t, http.MethodDelete, "/cart/"+item.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.CartItemNotFound, decodeBody(t, w)["error"])
	assert.Equal(t, int64(1), countRows(t, env.db, &model.CartItem{}, "id = ?", item.ID))
}

func TestCartController_RemoveAndClear(t *testing.T) {
	env, product := setupCartControllerTest(t, "user-1")
	other := env.seedProduct(t, "Mint Skirt", "bottoms", "55", true)
	first := &model.CartItem{UserID: "user-1", ProductID: product.ProductID, Quantity: 1}
	require.NoError(t, env.db.Create(first).Error)
	require.NoError(t, env.db.Create(&model.CartItem{UserID: "user-1", ProductID: other.ProductID, Quantity: 2}).Error)

	w := env.do(t, http.MethodDelete, "/cart/"+first.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), countRows(t, env.db, &model.CartItem{}, "user_id = ?", "user-1"))

	w = env.do(t, http.MethodDelete, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), countRows(t, env.db, &model.CartItem{}, "user_id = ?", "user-1"))
}

func TestCartController_Unauthenticated(t *testing.T) {
	env := setupControllerTest(t)
	ctrl := NewCartController(env.carts)
	env.router.GET("/cart", ctrl.GetCart)

	w := env.do(t, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthUnauthorized, decodeBody(t, w)["error"])
}
