package models

// OrderItem is one flattened line of an order. Addons are stored as their own lines.
type OrderItem struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	OrderID      string `gorm:"type:varchar(36);index;not null" json:"order_id"`
	MenuItemID   string `gorm:"type:varchar(255);not null" json:"menu_item_id"`
	MenuItemName string `gorm:"type:varchar(255);not null" json:"menu_item_name"`
	Quantity     int    `gorm:"not null" json:"quantity"`
	Price        Money  `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // unit price
}

// TableName order_items
func (OrderItem) TableName() string {
	return "order_items"
}
