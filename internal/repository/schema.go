package repository

import (
	"github.com/denver-kabob/internal/models"

	"gorm.io/gorm"
)

// OrderSchema records which optional order columns exist in the store
type OrderSchema struct {
	OrderNumber   bool `json:"order_number"`
	OrderType     bool `json:"order_type"`
	TimeChoice    bool `json:"time_choice"`
	ScheduledTime bool `json:"scheduled_time"`
	PaymentMethod bool `json:"payment_method"`
}

// FullOrderSchema has every optional column
func FullOrderSchema() OrderSchema {
	return OrderSchema{
		OrderNumber:   true,
		OrderType:     true,
		TimeChoice:    true,
		ScheduledTime: true,
		PaymentMethod: true,
	}
}

// ProbeOrderSchema inspects the orders table once
func ProbeOrderSchema(db *gorm.DB) OrderSchema {
	m := db.Migrator()
	return OrderSchema{
		OrderNumber:   m.HasColumn(&models.Order{}, "order_number"),
		OrderType:     m.HasColumn(&models.Order{}, "order_type"),
		TimeChoice:    m.HasColumn(&models.Order{}, "time_choice"),
		ScheduledTime: m.HasColumn(&models.Order{}, "scheduled_time"),
		PaymentMethod: m.HasColumn(&models.Order{}, "payment_method"),
	}
}

// MissingColumns lists the optional columns an insert must omit
func (s OrderSchema) MissingColumns() []string {
	var missing []string
	if !s.OrderNumber {
		missing = append(missing, "order_number")
	}
	if !s.OrderType {
		missing = append(missing, "order_type")
	}
	if !s.TimeChoice {
		missing = append(missing, "time_choice")
	}
	if !s.ScheduledTime {
		missing = append(missing, "scheduled_time")
	}
	if !s.PaymentMethod {
		missing = append(missing, "payment_method")
	}
	return missing
}

// Complete reports whether nothing needs to be omitted
func (s OrderSchema) Complete() bool {
	return len(s.MissingColumns()) == 0
}
