package model

import (
	"time"
)

// Cart is keyed by the identity provider's user id, one per user.
type Cart struct {
	ID        uint       `gorm:"primarykey" json:"-"`
	UserID    string     `gorm:"type:varchar(191);uniqueIndex;not null" json:"userId"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (Cart) TableName() string {
	return "carts"
}

type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"-"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product;index" json:"productId"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Relationships
	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
