package constants

// Order status, forward-only in this order
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
)

// OrderStatusFlow lists every status in fulfillment order
var OrderStatusFlow = []string{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusCompleted,
}

// Order type
const (
	OrderTypePickup   = "pickup"
	OrderTypeDelivery = "delivery"
)

// Time choice
const (
	TimeChoiceASAP      = "asap"
	TimeChoiceScheduled = "scheduled"
)

// Payment method tag recorded on the order
const (
	PaymentMethodCard = "card"
)

// Materialization source
const (
	OrderSourceWebhook  = "webhook"
	OrderSourceFallback = "fallback"
	OrderSourceRetry    = "retry"
	OrderSourceSeed     = "seed"
)

// Stripe checkout session payment_status values
const (
	StripePaymentStatusPaid              = "paid"
	StripePaymentStatusNoPaymentRequired = "no_payment_required"
	StripePaymentStatusUnpaid            = "unpaid"
)

// Stripe webhook event types
const (
	StripeEventCheckoutSessionCompleted             = "checkout.session.completed"
	StripeEventCheckoutSessionAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// Realtime topics and event names
const (
	TopicAdminOrders = "admin:orders"
	TopicCartPrefix  = "cart:"

	EventCartUpdated        = "cart_updated"
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
)

// CartTopic returns the realtime topic for one cart
func CartTopic(cartID string) string {
	return TopicCartPrefix + cartID
}

// Queue names
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// Admin token claims
const (
	AdminRole = "admin"
)

// Queue task types
const (
	TaskOrderMaterialize = "order:materialize"
	TaskOrderNotify      = "order:notify"
)
