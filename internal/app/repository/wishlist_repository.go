package repository

import (
	"context"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistRepository interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	Exists(ctx context.Context, userID, productID string) (bool, error)
	FindByUserID(ctx context.Context, userID string) ([]model.WishlistItem, error)
	FindByID(ctx context.Context, id string) (*model.WishlistItem, error)
	Delete(ctx context.Context, id string) error
}

type wishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

// Add is idempotent: a second insert for the same pair is ignored.
func (r *wishlistRepository) Add(ctx context.Context, userID, productID string) error {
	logger.Debug("Adding wishlist item in database", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	item := &model.WishlistItem{UserID: userID, ProductID: productID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoNothing: true,
	}).Create(item).Error
	if err != nil {
		logger.Error("Failed to add wishlist item in database", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return err
	}
	return nil
}

func (r *wishlistRepository) Remove(ctx context.Context, userID, productID string) error {
	logger.Debug("Removing wishlist item from database", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.WishlistItem{}).Error
	if err != nil {
		logger.Error("Failed to remove wishlist item from database", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return err
	}
	return nil
}

func (r *wishlistRepository) Exists(ctx context.Context, userID, productID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to check wishlist item", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *wishlistRepository) FindByUserID(ctx context.Context, userID string) ([]model.WishlistItem, error) {
	logger.Debug("Finding wishlist items by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	items := []model.WishlistItem{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Product").
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to find wishlist items", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if err := validRows("wishlist_items", items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *wishlistRepository) FindByID(ctx context.Context, id string) (*model.WishlistItem, error) {
	var item model.WishlistItem
	if err := r.db.WithContext(ctx).Preload("Product").Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	if err := validRow("wishlist_items", &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *wishlistRepository) Delete(ctx context.Context, id string) error {
	logger.Debug("Deleting wishlist item from database", map[string]interface{}{
		"wishlist_item_id": id,
	})

	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.WishlistItem{}).Error; err != nil {
		logger.Error("Failed to delete wishlist item", err, map[string]interface{}{
			"wishlist_item_id": id,
		})
		return err
	}
	return nil
}
