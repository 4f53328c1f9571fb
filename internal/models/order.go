package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a paid customer order
type Order struct {
	ID                string          `gorm:"primaryKey;type:varchar(36)" json:"id"`                           // uuid
	OrderNumber       *int64          `gorm:"uniqueIndex" json:"order_number,omitempty"`                       // human-facing number, optional column
	CustomerName      string          `gorm:"type:varchar(200);not null" json:"customer_name"`                 // full name
	CustomerFirstName string          `gorm:"type:varchar(100);not null" json:"customer_first_name"`           // first name
	CustomerLastName  string          `gorm:"type:varchar(100);not null" json:"customer_last_name"`            // last name
	CustomerPhone     string          `gorm:"type:varchar(40);not null;index" json:"customer_phone"`           // phone as entered
	CustomerEmail     string          `gorm:"type:varchar(200)" json:"customer_email,omitempty"`               // optional email
	OrderType         string          `gorm:"type:varchar(20)" json:"order_type,omitempty"`                    // pickup / delivery, optional column
	TimeChoice        string          `gorm:"type:varchar(20)" json:"time_choice,omitempty"`                   // asap / scheduled, optional column
	ScheduledTime     *time.Time      `json:"scheduled_time,omitempty"`                                        // requested time, optional column
	PaymentMethod     string          `gorm:"type:varchar(32)" json:"payment_method,omitempty"`                // tag, optional column
	TipPercent        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tip_percent"`         // 0..100
	TipAmount         Money           `gorm:"type:decimal(20,2);not null;default:0" json:"tip_amount"`         // tip
	Comments          string          `gorm:"type:varchar(400)" json:"comments,omitempty"`                     // trimmed, capped
	TotalAmount       Money           `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`       // subtotal + tax + tip
	TaxAmount         Money           `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`         // tax
	Status            string          `gorm:"type:varchar(20);not null;index" json:"status"`                   // fulfillment status
	StripeSessionID   string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"stripe_session_id"` // idempotency key
	CreatedAt         time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// TableName orders
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns a uuid when missing
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(o.ID) == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// Subtotal is derived, it is not stored
func (o Order) Subtotal() Money {
	return NewMoney(o.TotalAmount.Sub(o.TaxAmount.Decimal).Sub(o.TipAmount.Decimal))
}
