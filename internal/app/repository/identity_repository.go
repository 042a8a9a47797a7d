package repository

import (
	"context"
	"strings"
	"time"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"gorm.io/gorm"
)

type IdentityRepository interface {
	Create(ctx context.Context, identity *model.Identity) error
	FindByID(ctx context.Context, id string) (*model.Identity, error)
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)
	Update(ctx context.Context, identity *model.Identity) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	MarkConfirmed(ctx context.Context, id string, at time.Time) error
	TouchSignIn(ctx context.Context, id string, at time.Time) error
}

type identityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) Create(ctx context.Context, identity *model.Identity) error {
	logger.Debug("Creating identity in database", map[string]interface{}{
		"email":    identity.Email,
		"provider": identity.Provider,
	})

	identity.Email = strings.ToLower(strings.TrimSpace(identity.Email))
	if err := validRow("identities", identity); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(identity).Error; err != nil {
		logger.Error("Failed to create identity in database", err, map[string]interface{}{
			"email": identity.Email,
		})
		return err
	}

	logger.Debug("Identity created in database", map[string]interface{}{
		"identity_id": identity.ID,
	})
	return nil
}

func (r *identityRepository) FindByID(ctx context.Context, id string) (*model.Identity, error) {
	var identity model.Identity
	if err := r.db.WithContext(ctx).First(&identity, "id = ?", id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find identity by ID in database", err, map[string]interface{}{
				"identity_id": id,
			})
		}
		return nil, err
	}
	if err := validRow("identities", &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// FindByEmail matches case-insensitively; emails are stored lowercased.
func (r *identityRepository) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	var identity model.Identity
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&identity).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find identity by email in database", err, map[string]interface{}{
				"email": email,
			})
		}
		return nil, err
	}
	if err := validRow("identities", &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepository) Update(ctx context.Context, identity *model.Identity) error {
	if err := validRow("identities", identity); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(identity).Error; err != nil {
		logger.Error("Failed to update identity in database", err, map[string]interface{}{
			"identity_id": identity.ID,
		})
		return err
	}
	return nil
}

func (r *identityRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	})
}

func (r *identityRepository) MarkConfirmed(ctx context.Context, id string, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"email_confirmed_at": at,
		"updated_at":         time.Now(),
	})
}

func (r *identityRepository) TouchSignIn(ctx context.Context, id string, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"last_sign_in_at": at,
	})
}

func (r *identityRepository) updateColumns(ctx context.Context, id string, values map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Identity{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		logger.Error("Failed to update identity columns", result.Error, map[string]interface{}{
			"identity_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
