package service

import (
	"context"
	"errors"
	"strings"

	"github.com/pasteldream/pastel-backend/internal/app/model"
	"github.com/pasteldream/pastel-backend/internal/app/repository"
	"github.com/pasteldream/pastel-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrAddressNotFound = errors.New("address not found")
	ErrInvalidProfile  = errors.New("invalid profile")
	ErrInvalidAddress  = errors.New("invalid address")
)

type ProfileInput struct {
	Name   string
	Age    *int
	Gender string
	Email  string
	Phone  string
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	SaveProfile(ctx context.Context, userID string, in ProfileInput) (*model.Profile, error)
	EnsureProfile(ctx context.Context, identity *model.Identity) (bool, error)
	GetAddresses(ctx context.Context, userID string) ([]model.Address, error)
	ReplaceAddress(ctx context.Context, userID string, address *model.Address) (*model.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
}

type profileService struct {
	profileRepo repository.ProfileRepository
	addressRepo repository.AddressRepository
}

func NewProfileService(profileRepo repository.ProfileRepository, addressRepo repository.AddressRepository) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		addressRepo: addressRepo,
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// SaveProfile updates the profile keyed by userID, inserting it if absent.
func (s *profileService) SaveProfile(ctx context.Context, userID string, in ProfileInput) (*model.Profile, error) {
	profile := &model.Profile{
		ID:     userID,
		Name:   strings.TrimSpace(in.Name),
		Age:    in.Age,
		Gender: in.Gender,
		Email:  strings.TrimSpace(in.Email),
		Phone:  strings.TrimSpace(in.Phone),
	}

	if err := s.profileRepo.Save(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrInvalidRow) {
			return nil, ErrInvalidProfile
		}
		logger.Error("Failed to save profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Profile saved", map[string]interface{}{
		"user_id": userID,
	})
	return s.GetProfile(ctx, userID)
}

// EnsureProfile creates the first profile for a signed-in identity. An
// existing profile is left as it is.
func (s *profileService) EnsureProfile(ctx context.Context, identity *model.Identity) (bool, error) {
	created, err := s.profileRepo.CreateIfAbsent(ctx, &model.Profile{
		ID:    identity.ID,
		Name:  identity.DisplayName(),
		Email: identity.Email,
	})
	if err != nil {
		return false, err
	}
	if created {
		logger.Info("Profile bootstrapped", map[string]interface{}{
			"user_id": identity.ID,
		})
	}
	return created, nil
}

func (s *profileService) GetAddresses(ctx context.Context, userID string) ([]model.Address, error) {
	return s.addressRepo.FindByUserID(ctx, userID)
}

func (s *profileService) ReplaceAddress(ctx context.Context, userID string, address *model.Address) (*model.Address, error) {
	if err := s.addressRepo.Replace(ctx, userID, address); err != nil {
		if errors.Is(err, repository.ErrInvalidRow) {
			return nil, ErrInvalidAddress
		}
		logger.Error("Failed to replace address", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return address, nil
}

func (s *profileService) DeleteAddress(ctx context.Context, userID, addressID string) error {
	if err := s.addressRepo.Delete(ctx, userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddressNotFound
		}
		return err
	}
	return nil
}
