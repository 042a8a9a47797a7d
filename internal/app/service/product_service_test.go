package service

import (
	"context"
	"testing"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProductServiceTest(t *testing.T) (*testEnv, ProductService) {
	env := setupServiceTest(t)
	notifications := NewNotificationService(env.notifications, env.profiles)
	return env, NewProductService(env.products, notifications)
}

func TestProductService_CreateProductFansOut(t *testing.T) {
	env, products := setupProductServiceTest(t)
	ctx := context.Background()
	env.seedProfile(t, "user-1", "A", "")
	env.seedProfile(t, "user-2", "B", "")

	product, err := products.CreateProduct(ctx, ProductInput{
		Name:        "  Lilac Hoodie ",
		Description: "Soft and warm",
		Price:       decimal.RequireFromString("1299"),
		Tags:        "cozy, , lilac ",
		Category:    model.CategoryNewArrivals,
		IsActive:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Lilac Hoodie", product.Name)
	assert.Equal(t, model.StringList{"cozy", "lilac"}, product.Tags)

	for _, id := range []string{"user-1", "user-2"} {
		hasUnread, err := env.notifications.HasUnread(ctx, id)
		require.NoError(t, err)
		assert.True(t, hasUnread, id)
	}

	shelf, err := products.Shelf(ctx, model.CategoryNewArrivals)
	require.NoError(t, err)
	require.Len(t, shelf, 1)
	assert.Equal(t, product.ProductID, shelf[0].ProductID)
}

func TestProductService_CreateProductInvalid(t *testing.T) {
	_, products := setupProductServiceTest(t)

	_, err := products.CreateProduct(context.Background(), ProductInput{Price: decimal.NewFromInt(-1), Name: "Bad"})
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestProductService_DetailAndLifecycle(t *testing.T) {
	env, products := setupProductServiceTest(t)
	ctx := context.Background()
	main := env.seedProduct(t, "Pink Dress", "999")
	env.seedProduct(t, "Blue Dress", "899")

	detail, err := products.GetProductDetail(ctx, main.ProductID)
	require.NoError(t, err)
	assert.Equal(t, main.ProductID, detail.Product.ProductID)
	assert.Len(t, detail.Related, 1)

	updated, err := products.UpdateProduct(ctx, main.ProductID, ProductInput{
		Name:     "Pink Dress",
		Price:    decimal.RequireFromString("799"),
		Category: "dresses",
		IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "799.00", updated.Price.StringFixed(2))

	require.NoError(t, products.SetActive(ctx, main.ProductID, false))
	active, err := products.ListProducts(ctx, productFilterActive())
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, products.DeleteProduct(ctx, main.ProductID))
	_, err = products.GetProduct(ctx, main.ProductID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, products.DeleteProduct(ctx, main.ProductID), ErrProductNotFound)
	assert.ErrorIs(t, products.SetActive(ctx, "missing", true), ErrProductNotFound)
}

func productFilterActive() repository.ProductFilter {
	return repository.ProductFilter{ActiveOnly: true}
}
