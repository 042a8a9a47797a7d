package model

import (
	"time"

	"gorm.io/gorm"
)

type Address struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string    `gorm:"type:varchar(36);not null;index" json:"user_id" validate:"required"`
	AddressLine1 string    `gorm:"column:address_line_1;type:text;not null" json:"address_line_1" validate:"required"`
	AddressLine2 string    `gorm:"column:address_line_2;type:text" json:"address_line_2"`
	City         string    `gorm:"size:100;not null" json:"city" validate:"required"`
	State        string    `gorm:"size:100;not null" json:"state" validate:"required"`
	PostalCode   string    `gorm:"size:20;not null" json:"postal_code" validate:"required"`
	Country      string    `gorm:"size:100;not null" json:"country" validate:"required"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Address) TableName() string {
	return "addresses"
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
