package model

import (
	"time"

	"gorm.io/gorm"
)

// Profile holds contact details. ID equals the owning Identity id.
type Profile struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id" validate:"required"`
	Name      string    `gorm:"size:100" json:"name"`
	Age       *int      `json:"age,omitempty" validate:"omitempty,gte=0,lte=150"`
	Gender    string    `gorm:"size:20" json:"gender"`
	Email     string    `gorm:"size:255" json:"email" validate:"omitempty,email"`
	Phone     string    `gorm:"size:30" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// ReadyForCheckout reports whether name and phone are filled in.
func (p *Profile) ReadyForCheckout() bool {
	return p.Name != "" && p.Phone != ""
}

// Admin grants back-office access to the identity in UserID.
type Admin struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Admin) TableName() string {
	return "admins"
}

func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
