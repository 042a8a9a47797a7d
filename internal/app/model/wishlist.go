package model

import (
	"time"

	"gorm.io/gorm"
)

type WishlistItem struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_wishlist_user_product,priority:1" json:"user_id" validate:"required"`
	ProductID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_wishlist_user_product,priority:2" json:"product_id" validate:"required"`
	CreatedAt time.Time `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID;references:ProductID" json:"product,omitempty" validate:"-"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

func (w *WishlistItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&w.ID)
	return nil
}
