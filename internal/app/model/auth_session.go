package model

import (
	"time"

	"gorm.io/gorm"
)

// AuthSession backs one signed-in device. Access tokens carry its id.
type AuthSession struct {
	ID               string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	IdentityID       string     `gorm:"type:varchar(36);not null;index" json:"identity_id"`
	RefreshTokenHash string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	UserAgent        string     `gorm:"size:255" json:"user_agent"`
	ExpiresAt        time.Time  `gorm:"not null;index" json:"expires_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (AuthSession) TableName() string {
	return "auth_sessions"
}

func (s *AuthSession) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// Active reports whether the session can still be used or refreshed.
func (s *AuthSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
