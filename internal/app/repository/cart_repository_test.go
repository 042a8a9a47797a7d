package repository

import (
	"context"
	"testing"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartTest(t *testing.T) (*gorm.DB, CartRepository, *model.Profile, *model.Product) {
	testDB := setupDB(t)
	user := seedProfile(t, testDB, "user-1", "Test User")
	product := seedProduct(t, testDB, "Cloud Tee", "tops", "499.00")
	return testDB, NewCartRepository(testDB), user, product
}

func TestCartRepository_AddOne(t *testing.T) {
	_, repo, user, product := setupCartTest(t)
	ctx := context.Background()

	item, err := repo.AddOne(ctx, user.ID, product.ProductID)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, 1, item.Quantity)

	again, err := repo.AddOne(ctx, user.ID, product.ProductID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID)
	assert.Equal(t, 2, again.Quantity)

	items, err := repo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCartRepository_FindByUserID(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	ctx := context.Background()
	other := seedProduct(t, testDB, "Sky Skirt", "bottoms", "899.50")

	_, err := repo.AddOne(ctx, user.ID, product.ProductID)
	require.NoError(t, err)
	_, err = repo.AddOne(ctx, user.ID, other.ProductID)
	require.NoError(t, err)

	items, err := repo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		require.NotNil(t, item.Product)
		assert.Equal(t, item.ProductID, item.Product.ProductID)
	}

	empty, err := repo.FindByUserID(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCartRepository_UpdateQuantity(t *testing.T) {
	_, repo, user, product := setupCartTest(t)
	ctx := context.Background()

	item, err := repo.AddOne(ctx, user.ID, product.ProductID)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateQuantity(ctx, item.ID, 5))
	found, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, found.Quantity)

	err = repo.UpdateQuantity(ctx, "missing", 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_Delete(t *testing.T) {
	_, repo, user, product := setupCartTest(t)
	ctx := context.Background()

	item, err := repo.AddOne(ctx, user.ID, product.ProductID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, item.ID))
	_, err = repo.FindByID(ctx, item.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The unique index allows the line to be added again after a hard delete.
	again, err := repo.AddOne(ctx, user.ID, product.ProductID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Quantity)
}

func TestCartRepository_DeleteByUserID(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	ctx := context.Background()
	other := seedProfile(t, testDB, "user-2", "Other")

	_, err := repo.AddOne(ctx, user.ID, product.ProductID)
	require.NoError(t, err)
	_, err = repo.AddOne(ctx, other.ID, product.ProductID)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByUserID(ctx, user.ID))

	items, err := repo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = repo.FindByUserID(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
