package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Storefront shelves that are driven by the category column.
const (
	CategoryNewArrivals = "new-arrivals"
	CategoryBestSellers = "best-sellers"
)

type Product struct {
	ProductID   string          `gorm:"column:product_id;primaryKey;type:varchar(36)" json:"product_id"`
	Name        string          `gorm:"size:255;not null" json:"name" validate:"required"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price" validate:"gte=0"`
	ImageURL    string          `gorm:"type:text" json:"image_url"`
	Tags        StringList      `json:"tags"`
	Tag         string          `gorm:"size:50" json:"tag"`
	Category    string          `gorm:"size:100;index" json:"category"`
	IsActive    bool            `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ProductID)
	return nil
}

// ParseTags splits a comma separated tag string, trimming blanks.
func ParseTags(raw string) StringList {
	tags := StringList{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
