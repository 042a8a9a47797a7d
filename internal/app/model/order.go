package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"

	// PaymentMethodRazorpay is recorded on every order; payment itself is simulated.
	PaymentMethodRazorpay = "razorpay"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID        string          `gorm:"type:varchar(36);not null;index" json:"user_id" validate:"required"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount" validate:"gte=0"`
	Status        OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status" validate:"oneof=pending completed cancelled"`
	PaymentMethod string          `gorm:"type:varchar(30)" json:"payment_method"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20)" json:"payment_status"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty" validate:"-"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// ShortID is the first eight characters shown to customers.
func (o *Order) ShortID() string {
	if len(o.ID) <= 8 {
		return o.ID
	}
	return o.ID[:8]
}

// OrderItem keeps the unit price the customer paid.
type OrderItem struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID   string          `gorm:"type:varchar(36);not null;index" json:"order_id" validate:"required"`
	ProductID string          `gorm:"type:varchar(36);not null;index" json:"product_id" validate:"required"`
	Quantity  int             `gorm:"not null" json:"quantity" validate:"gte=1"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price" validate:"gte=0"`
	CreatedAt time.Time       `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID;references:ProductID" json:"product,omitempty" validate:"-"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}
