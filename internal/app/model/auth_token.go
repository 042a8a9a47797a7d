package model

import (
	"time"

	"gorm.io/gorm"
)

type AuthTokenKind string

const (
	AuthTokenConfirmation AuthTokenKind = "confirmation"
	AuthTokenRecovery     AuthTokenKind = "recovery"
)

// AuthToken is a one-shot emailed link token. Only its hash is stored.
type AuthToken struct {
	ID         string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	IdentityID string        `gorm:"type:varchar(36);not null;index" json:"identity_id"`
	Email      string        `gorm:"size:255;not null;index" json:"email"`
	Kind       AuthTokenKind `gorm:"size:20;not null" json:"kind"`
	TokenHash  string        `gorm:"size:64;not null;uniqueIndex" json:"-"`
	ExpiresAt  time.Time     `gorm:"not null;index" json:"expires_at"`
	UsedAt     *time.Time    `json:"used_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

func (AuthToken) TableName() string {
	return "auth_tokens"
}

func (t *AuthToken) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// OAuthState remembers an outstanding authorization request until its callback.
type OAuthState struct {
	State        string    `gorm:"primaryKey;size:64" json:"state"`
	Provider     string    `gorm:"size:20;not null" json:"provider"`
	CodeVerifier string    `gorm:"size:128;not null" json:"-"`
	RedirectTo   string    `gorm:"size:500" json:"redirect_to"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func (OAuthState) TableName() string {
	return "oauth_states"
}
