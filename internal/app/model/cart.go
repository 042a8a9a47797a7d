package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartItem is unique per (user, product); adding again bumps Quantity.
type CartItem struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product,priority:1" json:"user_id" validate:"required"`
	ProductID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product,priority:2" json:"product_id" validate:"required"`
	Quantity  int       `gorm:"not null" json:"quantity" validate:"gte=1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID;references:ProductID" json:"product,omitempty" validate:"-"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// LineTotal is price times quantity, zero when the product was not loaded.
func (c *CartItem) LineTotal() decimal.Decimal {
	if c.Product == nil {
		return decimal.Zero
	}
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
