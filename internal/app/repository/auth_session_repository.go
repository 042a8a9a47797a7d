package repository

import (
	"context"
	"time"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"gorm.io/gorm"
)

type AuthSessionRepository interface {
	Create(ctx context.Context, session *model.AuthSession) error
	FindByID(ctx context.Context, id string) (*model.AuthSession, error)
	FindByRefreshHash(ctx context.Context, hash string) (*model.AuthSession, error)
	Rotate(ctx context.Context, id, oldHash, newHash string, expiresAt time.Time) error
	Revoke(ctx context.Context, id string, at time.Time) error
	RevokeAllForIdentity(ctx context.Context, identityID string, at time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type authSessionRepository struct {
	db *gorm.DB
}

func NewAuthSessionRepository(db *gorm.DB) AuthSessionRepository {
	return &authSessionRepository{db: db}
}

func (r *authSessionRepository) Create(ctx context.Context, session *model.AuthSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		logger.Error("Failed to create auth session", err, map[string]interface{}{
			"identity_id": session.IdentityID,
		})
		return err
	}
	logger.Debug("Auth session created", map[string]interface{}{
		"session_id":  session.ID,
		"identity_id": session.IdentityID,
	})
	return nil
}

func (r *authSessionRepository) FindByID(ctx context.Context, id string) (*model.AuthSession, error) {
	var session model.AuthSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *authSessionRepository) FindByRefreshHash(ctx context.Context, hash string) (*model.AuthSession, error) {
	var session model.AuthSession
	if err := r.db.WithContext(ctx).Where("refresh_token_hash = ?", hash).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Rotate swaps the refresh hash only if oldHash is still current, so a
// refresh token can be redeemed once.
func (r *authSessionRepository) Rotate(ctx context.Context, id, oldHash, newHash string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.AuthSession{}).
		Where("id = ? AND refresh_token_hash = ? AND revoked_at IS NULL", id, oldHash).
		Updates(map[string]interface{}{
			"refresh_token_hash": newHash,
			"expires_at":         expiresAt,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		logger.Error("Failed to rotate refresh token", result.Error, map[string]interface{}{
			"session_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *authSessionRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.AuthSession{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if result.Error != nil {
		logger.Error("Failed to revoke auth session", result.Error, map[string]interface{}{
			"session_id": id,
		})
		return result.Error
	}
	return nil
}

func (r *authSessionRepository) RevokeAllForIdentity(ctx context.Context, identityID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.AuthSession{}).
		Where("identity_id = ? AND revoked_at IS NULL", identityID).
		Update("revoked_at", at)
	return result.RowsAffected, result.Error
}

// DeleteExpired purges sessions past expiry and revoked ones.
func (r *authSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", now).
		Delete(&model.AuthSession{})
	return result.RowsAffected, result.Error
}
