package service

import "errors"

// Checkout validation, the text is shown to the customer
var (
	ErrCartEmpty             = errors.New("Cart is empty")
	ErrCustomerInfoRequired  = errors.New("Customer information is required")
	ErrCustomerNameRequired  = errors.New("Customer first and last name are required")
	ErrCustomerPhoneRequired = errors.New("Customer phone number is required")
	ErrCustomerPhoneInvalid  = errors.New("Customer phone number must contain at least 10 digits")
	ErrCustomerEmailInvalid  = errors.New("Customer email is invalid")
	ErrItemInvalid           = errors.New("Invalid item data")
	ErrItemPriceInvalid      = errors.New("Invalid item price or quantity")
	ErrOrderTypeInvalid      = errors.New("Invalid order type")
	ErrTimeChoiceInvalid     = errors.New("Invalid time choice")
	ErrScheduledTimeRequired = errors.New("Scheduled time is required for scheduled orders")
	ErrScheduledTimeInvalid  = errors.New("Scheduled time is invalid")
	ErrOrderTotalInvalid     = errors.New("Invalid order total. Please review your cart and try again.")
	ErrCartTooLarge          = errors.New("Cart is too large to check out")
)

// Payment processor
var (
	ErrPaymentNotConfigured = errors.New("Payment service is not configured. Please contact support.")
	ErrWebhookNotConfigured = errors.New("Webhook not configured")
	ErrCheckoutFailed       = errors.New("Failed to create checkout session")
	ErrPaymentNotCompleted  = errors.New("Payment has not been completed")
)

// Materialization
var (
	ErrMetadataMissing      = errors.New("Missing required order metadata")
	ErrSessionIDRequired    = errors.New("Session ID is required")
	ErrCartItemsRequired    = errors.New("Cart items are required")
	ErrOrderNumberExhausted = errors.New("Could not assign an order number")
	ErrOrderPersistFailed   = errors.New("Failed to process order")
)

// Orders
var (
	ErrOrderNotFound      = errors.New("Order not found")
	ErrStatusInvalid      = errors.New("Invalid status. Must be one of: pending, preparing, ready, completed")
	ErrStatusTransition   = errors.New("Order status can only advance one step")
	ErrLookupKeyRequired  = errors.New("Phone number or Order ID is required")
	ErrLookupPhoneInvalid = errors.New("Phone number must contain digits")
)

// Admin sessions
var (
	ErrInvalidCredentials = errors.New("Invalid password")
	ErrAdminNotConfigured = errors.New("Admin login is not configured")
	ErrTokenInvalid       = errors.New("Invalid or expired token")
)
