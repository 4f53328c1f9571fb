package models

import "time"

// Cart holds the serialized line collection of one anonymous cart
type Cart struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Items     string    `gorm:"type:text;not null" json:"-"` // JSON array, decoded by the cart package
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

// TableName carts
func (Cart) TableName() string {
	return "carts"
}
