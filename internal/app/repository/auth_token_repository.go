package repository

import (
	"context"
	"time"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"gorm.io/gorm"
)

type AuthTokenRepository interface {
	Create(ctx context.Context, token *model.AuthToken) error
	FindByHash(ctx context.Context, kind model.AuthTokenKind, hash string) (*model.AuthToken, error)
	MarkUsed(ctx context.Context, id string, at time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type authTokenRepository struct {
	db *gorm.DB
}

func NewAuthTokenRepository(db *gorm.DB) AuthTokenRepository {
	return &authTokenRepository{db: db}
}

func (r *authTokenRepository) Create(ctx context.Context, token *model.AuthToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		logger.Error("Failed to create auth token", err, map[string]interface{}{
			"identity_id": token.IdentityID,
			"kind":        token.Kind,
		})
		return err
	}
	return nil
}

// FindByHash returns only unused tokens.
func (r *authTokenRepository) FindByHash(ctx context.Context, kind model.AuthTokenKind, hash string) (*model.AuthToken, error) {
	var token model.AuthToken
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND kind = ? AND used_at IS NULL", hash, kind).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// MarkUsed fails with gorm.ErrRecordNotFound if the token was already used.
func (r *authTokenRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.AuthToken{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	if result.Error != nil {
		logger.Error("Failed to mark auth token as used", result.Error, map[string]interface{}{
			"token_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *authTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR used_at IS NOT NULL", now).
		Delete(&model.AuthToken{})
	return result.RowsAffected, result.Error
}
