package model

import (
	"time"

	"gorm.io/gorm"
)

type NotificationKind string

const (
	NotificationOrderPlaced NotificationKind = "order_placed"
	NotificationOrderStatus NotificationKind = "order_status"
	NotificationNewProduct  NotificationKind = "new_product"
)

type Notification struct {
	ID        string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string           `gorm:"type:varchar(36);not null;index" json:"user_id" validate:"required"`
	Kind      NotificationKind `gorm:"size:30;index" json:"kind"`
	Title     string           `gorm:"type:text;not null" json:"title" validate:"required"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	IsRead    bool             `gorm:"not null;index" json:"is_read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	assignID(&n.ID)
	return nil
}

// Owner is the user whose change feed receives this row.
func (n Notification) Owner() string {
	return n.UserID
}
