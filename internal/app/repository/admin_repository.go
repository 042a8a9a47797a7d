package repository

import (
	"context"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminRepository interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	Grant(ctx context.Context, userID string) error
	Revoke(ctx context.Context, userID string) error
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Admin{}).
		Where("user_id = ?", userID).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		logger.Error("Failed to check admin membership", err, map[string]interface{}{
			"user_id": userID,
		})
		return false, err
	}
	return len(ids) > 0, nil
}

func (r *adminRepository) Grant(ctx context.Context, userID string) error {
	admin := &model.Admin{UserID: userID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(admin).Error; err != nil {
		logger.Error("Failed to grant admin", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	logger.Info("Admin granted", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

func (r *adminRepository) Revoke(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Admin{}).Error
}
