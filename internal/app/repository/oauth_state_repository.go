package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"gorm.io/gorm"
)

type OAuthStateRepository interface {
	Create(ctx context.Context, state *model.OAuthState) error
	Take(ctx context.Context, state string, now time.Time) (*model.OAuthState, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type oauthStateRepository struct {
	db *gorm.DB
}

func NewOAuthStateRepository(db *gorm.DB) OAuthStateRepository {
	return &oauthStateRepository{db: db}
}

func (r *oauthStateRepository) Create(ctx context.Context, state *model.OAuthState) error {
	return r.db.WithContext(ctx).Create(state).Error
}

// Take loads and deletes the state in one transaction. Expired states are
// deleted too but reported as not found.
func (r *oauthStateRepository) Take(ctx context.Context, state string, now time.Time) (*model.OAuthState, error) {
	var found model.OAuthState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&found, "state = ?", state).Error; err != nil {
			return err
		}
		result := tx.Where("state = ?", state).Delete(&model.OAuthState{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !now.Before(found.ExpiresAt) {
		return nil, errors.Join(gorm.ErrRecordNotFound, errors.New("oauth state expired"))
	}
	return &found, nil
}

func (r *oauthStateRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&model.OAuthState{})
	return result.RowsAffected, result.Error
}
