package repository

import (
	"testing"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func seedProfile(t *testing.T, testDB *gorm.DB, id, name string) *model.Profile {
	profile := &model.Profile{ID: id, Name: name, Email: id + "@example.com"}
	require.NoError(t, testDB.Create(profile).Error)
	return profile
}

func seedProduct(t *testing.T, testDB *gorm.DB, name, category string, price string, tags ...string) *model.Product {
	product := &model.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: category,
		Tags:     model.StringList(tags),
		IsActive: true,
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}
