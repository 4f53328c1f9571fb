package service

import (
	"context"
	"time"

	"github.com/denver-kabob/internal/cache"
	"github.com/denver-kabob/internal/models"
	"github.com/denver-kabob/internal/queue"
	"github.com/denver-kabob/internal/repository"
)

const diagnosticsRecentOrders = 5

// DiagnosticsService reports on the backing services for the admin
type DiagnosticsService struct {
	orderRepo   repository.OrderRepository
	schema      repository.OrderSchema
	gateway     PaymentGateway
	webhook     WebhookVerifier
	queueClient *queue.Client
}

// NewDiagnosticsService builds the diagnostics service
func NewDiagnosticsService(orderRepo repository.OrderRepository, schema repository.OrderSchema, gateway PaymentGateway, webhook WebhookVerifier, queueClient *queue.Client) *DiagnosticsService {
	return &DiagnosticsService{
		orderRepo:   orderRepo,
		schema:      schema,
		gateway:     gateway,
		webhook:     webhook,
		queueClient: queueClient,
	}
}

// RecentOrder is the diagnostics view of an order
type RecentOrder struct {
	ID              string    `json:"id"`
	CustomerName    string    `json:"customer_name"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	StripeSessionID string    `json:"stripe_session_id"`
}

// Diagnostics is one health snapshot
type Diagnostics struct {
	DatabaseConnected bool                   `json:"database_connected"`
	DatabaseError     string                 `json:"database_error,omitempty"`
	OrderCount        int64                  `json:"order_count"`
	RecentOrders      []RecentOrder          `json:"recent_orders"`
	Schema            repository.OrderSchema `json:"schema"`
	SchemaComplete    bool                   `json:"schema_complete"`
	RedisEnabled      bool                   `json:"redis_enabled"`
	RedisReachable    bool                   `json:"redis_reachable"`
	QueueEnabled      bool                   `json:"queue_enabled"`
	StripeConfigured  bool                   `json:"stripe_configured"`
	WebhookConfigured bool                   `json:"webhook_configured"`
	CheckedAt         time.Time              `json:"checked_at"`
}

// Run collects the snapshot; failures are reported, not returned
func (s *DiagnosticsService) Run(ctx context.Context) *Diagnostics {
	result := &Diagnostics{
		RecentOrders:   []RecentOrder{},
		Schema:         s.schema,
		SchemaComplete: s.schema.Complete(),
		RedisEnabled:   cache.Enabled(),
		QueueEnabled:   s.queueClient.Enabled(),
		CheckedAt:      time.Now(),
	}
	if s.gateway != nil {
		result.StripeConfigured = s.gateway.Configured()
	}
	if s.webhook != nil {
		result.WebhookConfigured = s.webhook.WebhookConfigured()
	}
	if result.RedisEnabled {
		result.RedisReachable = cache.Ping(ctx) == nil
	}

	if err := s.orderRepo.Ping(); err != nil {
		result.DatabaseError = err.Error()
		return result
	}
	result.DatabaseConnected = true

	count, err := s.orderRepo.Count()
	if err != nil {
		result.DatabaseError = err.Error()
		return result
	}
	result.OrderCount = count

	recent, err := s.orderRepo.ListRecent(diagnosticsRecentOrders)
	if err != nil {
		result.DatabaseError = err.Error()
		return result
	}
	result.RecentOrders = recentOrders(recent)
	return result
}

func recentOrders(orders []models.Order) []RecentOrder {
	out := make([]RecentOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, RecentOrder{
			ID:              o.ID,
			CustomerName:    o.CustomerName,
			Status:          o.Status,
			CreatedAt:       o.CreatedAt,
			StripeSessionID: o.StripeSessionID,
		})
	}
	return out
}
