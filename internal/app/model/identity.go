package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

// Identity is an authenticated account. Its id is shared with the Profile row.
type Identity struct {
	ID               string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email            string            `gorm:"size:255;not null;uniqueIndex" json:"email" validate:"required,email"`
	PasswordHash     string            `gorm:"size:255" json:"-"`
	Provider         string            `gorm:"size:20;not null" json:"provider" validate:"oneof=email google"`
	Metadata         datatypes.JSONMap `json:"user_metadata"`
	EmailConfirmedAt *time.Time        `json:"email_confirmed_at,omitempty"`
	LastSignInAt     *time.Time        `json:"last_sign_in_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (Identity) TableName() string {
	return "identities"
}

func (i *Identity) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	i.Email = strings.ToLower(strings.TrimSpace(i.Email))
	return nil
}

// DisplayName picks full_name, then name, then the email local part, then "User".
func (i *Identity) DisplayName() string {
	for _, key := range []string{"full_name", "name"} {
		if v, ok := i.Metadata[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	if local, _, ok := strings.Cut(i.Email, "@"); ok && local != "" {
		return local
	}
	return "User"
}

// Confirmed reports whether the email address has been verified.
func (i *Identity) Confirmed() bool {
	return i.EmailConfirmedAt != nil
}
