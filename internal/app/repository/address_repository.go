package repository

import (
	"context"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"gorm.io/gorm"
)

type AddressRepository interface {
	FindByUserID(ctx context.Context, userID string) ([]model.Address, error)
	Replace(ctx context.Context, userID string, address *model.Address) error
	Delete(ctx context.Context, userID, id string) error
	HasAny(ctx context.Context, userID string) (bool, error)
}

type addressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

// FindByUserID returns the default address first.
func (r *addressRepository) FindByUserID(ctx context.Context, userID string) ([]model.Address, error) {
	addresses := []model.Address{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error
	if err != nil {
		logger.Error("Failed to find addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, validRows("addresses", addresses)
}

// Replace deletes every address of the user and stores address as the
// single default one.
func (r *addressRepository) Replace(ctx context.Context, userID string, address *model.Address) error {
	logger.Debug("Replacing user address", map[string]interface{}{
		"user_id": userID,
	})

	address.ID = ""
	address.UserID = userID
	address.IsDefault = true
	if err := validRow("addresses", address); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.Address{}).Error; err != nil {
			logger.Error("Failed to clear addresses", err, map[string]interface{}{
				"user_id": userID,
			})
			return err
		}
		if err := tx.Create(address).Error; err != nil {
			logger.Error("Failed to insert address", err, map[string]interface{}{
				"user_id": userID,
			})
			return err
		}
		return nil
	})
}

func (r *addressRepository) Delete(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Address{})
	if result.Error != nil {
		logger.Error("Failed to delete address", result.Error, map[string]interface{}{
			"address_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *addressRepository) HasAny(ctx context.Context, userID string) (bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Address{}).
		Where("user_id = ?", userID).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}
