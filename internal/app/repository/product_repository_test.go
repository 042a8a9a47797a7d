package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductTest(t *testing.T) (*gorm.DB, ProductRepository) {
	testDB := setupDB(t)
	return testDB, NewProductRepository(testDB)
}

func TestProductRepository_Create(t *testing.T) {
	_, repo := setupProductTest(t)
	ctx := context.Background()

	product := &model.Product{
		Name:     "Lilac Hoodie",
		Price:    decimal.RequireFromString("1299.00"),
		Tags:     model.ParseTags("cozy, lilac"),
		Category: "tops",
		IsActive: true,
	}
	require.NoError(t, repo.Create(ctx, product))
	assert.NotEmpty(t, product.ProductID)

	found, err := repo.FindByID(ctx, product.ProductID)
	require.NoError(t, err)
	assert.Equal(t, "Lilac Hoodie", found.Name)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("1299")))
	assert.Equal(t, model.StringList{"cozy", "lilac"}, found.Tags)
}

func TestProductRepository_CreateRejectsInvalid(t *testing.T) {
	_, repo := setupProductTest(t)

	err := repo.Create(context.Background(), &model.Product{Price: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, ErrInvalidRow)
}

func TestProductRepository_List(t *testing.T) {
	testDB, repo := setupProductTest(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, p := range []*model.Product{
		{Name: "Old Arrival", Price: decimal.NewFromInt(100), Category: model.CategoryNewArrivals, IsActive: true, CreatedAt: base},
		{Name: "New Arrival", Price: decimal.NewFromInt(300), Category: model.CategoryNewArrivals, IsActive: true, CreatedAt: base.Add(time.Minute)},
		{Name: "Hidden Arrival", Price: decimal.NewFromInt(200), Category: model.CategoryNewArrivals, IsActive: false, CreatedAt: base.Add(2 * time.Minute)},
		{Name: "Best Seller", Price: decimal.NewFromInt(50), Category: model.CategoryBestSellers, IsActive: true, CreatedAt: base.Add(3 * time.Minute)},
	} {
		require.NoError(t, testDB.Create(p).Error, "product %d", i)
	}

	t.Run("Shelf is active and newest first", func(t *testing.T) {
		products, err := repo.List(ctx, ProductFilter{Category: model.CategoryNewArrivals, ActiveOnly: true})
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "New Arrival", products[0].Name)
		assert.Equal(t, "Old Arrival", products[1].Name)
	})

	t.Run("Admin listing includes inactive", func(t *testing.T) {
		products, err := repo.List(ctx, ProductFilter{})
		require.NoError(t, err)
		assert.Len(t, products, 4)
	})

	t.Run("Search and price order", func(t *testing.T) {
		products, err := repo.List(ctx, ProductFilter{Search: "arrival", OrderBy: "price", Ascending: true})
		require.NoError(t, err)
		require.Len(t, products, 3)
		assert.Equal(t, "Old Arrival", products[0].Name)
		assert.Equal(t, "New Arrival", products[2].Name)
	})

	t.Run("Limit", func(t *testing.T) {
		products, err := repo.List(ctx, ProductFilter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Best Seller", products[0].Name)
	})
}

func TestProductRepository_FindRelated(t *testing.T) {
	testDB, repo := setupProductTest(t)
	ctx := context.Background()

	target := seedProduct(t, testDB, "Pink Dress", "dresses", "999", "pink", "summer")
	sameCategory := seedProduct(t, testDB, "Blue Dress", "dresses", "899")
	tagMatch := seedProduct(t, testDB, "Pink Sandals", "shoes", "499", "pink", "summer", "beach")
	seedProduct(t, testDB, "Pink Cap", "accessories", "199", "pink")
	inactive := seedProduct(t, testDB, "Old Dress", "dresses", "299")
	require.NoError(t, repo.SetActive(ctx, inactive.ProductID, false))

	related, err := repo.FindRelated(ctx, target, 4)
	require.NoError(t, err)

	ids := make([]string, 0, len(related))
	for _, p := range related {
		ids = append(ids, p.ProductID)
	}
	assert.ElementsMatch(t, []string{sameCategory.ProductID, tagMatch.ProductID}, ids)

	limited, err := repo.FindRelated(ctx, target, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	untagged, err := repo.FindRelated(ctx, sameCategory, 4)
	require.NoError(t, err)
	require.Len(t, untagged, 1)
	assert.Equal(t, target.ProductID, untagged[0].ProductID)
}

func TestProductRepository_Update(t *testing.T) {
	testDB, repo := setupProductTest(t)
	ctx := context.Background()
	product := seedProduct(t, testDB, "Mint Tee", "tops", "399")

	product.Name = "Mint Tee v2"
	product.Price = decimal.RequireFromString("449.99")
	require.NoError(t, repo.Update(ctx, product))

	found, err := repo.FindByID(ctx, product.ProductID)
	require.NoError(t, err)
	assert.Equal(t, "Mint Tee v2", found.Name)
	assert.Equal(t, "449.99", found.Price.StringFixed(2))
}

func TestProductRepository_SetActive(t *testing.T) {
	testDB, repo := setupProductTest(t)
	ctx := context.Background()
	product := seedProduct(t, testDB, "Mint Tee", "tops", "399")

	require.NoError(t, repo.SetActive(ctx, product.ProductID, false))
	found, err := repo.FindByID(ctx, product.ProductID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	assert.ErrorIs(t, repo.SetActive(ctx, "missing", true), gorm.ErrRecordNotFound)
}

func TestProductRepository_Delete(t *testing.T) {
	testDB, repo := setupProductTest(t)
	ctx := context.Background()
	user := seedProfile(t, testDB, "user-1", "Shopper")
	product := seedProduct(t, testDB, "Mint Tee", "tops", "399")

	_, err := NewCartRepository(testDB).AddOne(ctx, user.ID, product.ProductID)
	require.NoError(t, err)
	require.NoError(t, NewWishlistRepository(testDB).Add(ctx, user.ID, product.ProductID))

	require.NoError(t, repo.Delete(ctx, product.ProductID))

	_, err = repo.FindByID(ctx, product.ProductID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var carts, wishes int64
	testDB.Model(&model.CartItem{}).Count(&carts)
	testDB.Model(&model.WishlistItem{}).Count(&wishes)
	assert.Zero(t, carts)
	assert.Zero(t, wishes)
}
