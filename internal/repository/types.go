package repository

import "time"

// OrderListFilter admin order listing
type OrderListFilter struct {
	Page     int
	PageSize int
	Status   string
}

// OrderPhoneFilter customer lookup by phone
type OrderPhoneFilter struct {
	Digits string
	Since  time.Time
	Limit  int
}
