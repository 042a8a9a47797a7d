package repository

import (
	"context"
	"time"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Profile, error)
	Save(ctx context.Context, profile *model.Profile) error
	CreateIfAbsent(ctx context.Context, profile *model.Profile) (bool, error)
	List(ctx context.Context) ([]model.Profile, error)
	ListIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find profile in database", err, map[string]interface{}{
				"profile_id": id,
			})
		}
		return nil, err
	}
	if err := validRow("profiles", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Profile, error) {
	profiles := []model.Profile{}
	if len(ids) == 0 {
		return profiles, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		logger.Error("Failed to find profiles by IDs", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	return profiles, validRows("profiles", profiles)
}

// Save updates the row with the same id or inserts it.
func (r *profileRepository) Save(ctx context.Context, profile *model.Profile) error {
	logger.Debug("Saving profile in database", map[string]interface{}{
		"profile_id": profile.ID,
	})

	if err := validRow("profiles", profile); err != nil {
		return err
	}

	profile.UpdatedAt = time.Now()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "age", "gender", "email", "phone", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		logger.Error("Failed to save profile in database", err, map[string]interface{}{
			"profile_id": profile.ID,
		})
		return err
	}
	return nil
}

// CreateIfAbsent inserts the profile unless a row with its id exists. An
// existing row is left untouched and false is returned.
func (r *profileRepository) CreateIfAbsent(ctx context.Context, profile *model.Profile) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(profile)
	if result.Error != nil {
		logger.Error("Failed to bootstrap profile in database", result.Error, map[string]interface{}{
			"profile_id": profile.ID,
		})
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List returns newest first.
func (r *profileRepository) List(ctx context.Context) ([]model.Profile, error) {
	profiles := []model.Profile{}
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&profiles).Error; err != nil {
		logger.Error("Failed to list profiles", err)
		return nil, err
	}
	return profiles, validRows("profiles", profiles)
}

func (r *profileRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Profile{}).Order("created_at").Pluck("id", &ids).Error; err != nil {
		logger.Error("Failed to list profile IDs", err)
		return nil, err
	}
	return ids, nil
}

func (r *profileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Profile{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
