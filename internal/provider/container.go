package provider

import (
	"github.com/denver-kabob/internal/cache"
	"github.com/denver-kabob/internal/cart"
	"github.com/denver-kabob/internal/config"
	"github.com/denver-kabob/internal/logger"
	"github.com/denver-kabob/internal/models"
	"github.com/denver-kabob/internal/payment/stripe"
	"github.com/denver-kabob/internal/queue"
	"github.com/denver-kabob/internal/realtime"
	"github.com/denver-kabob/internal/repository"
	"github.com/denver-kabob/internal/service"

	"gorm.io/gorm"
)

// Container holds every long-lived dependency
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	OrderRepo   repository.OrderRepository
	CartRepo    repository.CartRepository
	OrderSchema repository.OrderSchema

	// Boundaries
	StripeClient   *stripe.Client
	RealtimeHub    *realtime.Hub
	RealtimeBroker *realtime.Broker
	CartStore      *cart.Store

	// Services
	AuthService        *service.AuthService
	CartService        *service.CartService
	CheckoutService    *service.CheckoutService
	OrderNotifier      *service.OrderNotifier
	OrderMaterializer  *service.OrderMaterializer
	WebhookService     *service.WebhookService
	OrderStatusService *service.OrderStatusService
	OrderQueryService  *service.OrderQueryService
	DiagnosticsService *service.DiagnosticsService
}

// NewContainer wires everything against the global database handle
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}
	return NewContainerWithDB(cfg, models.DB, queueClient)
}

// NewContainerWithDB wires against db; queueClient may be nil
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, queueClient *queue.Client) *Container {
	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. repositories and the one-time schema probe
	c.initRepositories(db)

	// 2. outbound boundaries
	c.initBoundaries()

	// 3. services
	c.initServices()

	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderSchema = repository.ProbeOrderSchema(db)
	if !c.OrderSchema.Complete() {
		logger.Warnw("provider_order_schema_degraded", "missing_columns", c.OrderSchema.MissingColumns())
	}
}

func (c *Container) initBoundaries() {
	c.StripeClient = stripe.NewClient(stripe.Config{
		SecretKey:               c.Config.Stripe.SecretKey,
		PublishableKey:          c.Config.Stripe.PublishableKey,
		WebhookSecret:           c.Config.Stripe.WebhookSecret,
		APIBaseURL:              c.Config.Stripe.APIBaseURL,
		WebhookToleranceSeconds: c.Config.Stripe.WebhookToleranceSeconds,
		PaymentMethodTypes:      c.Config.Stripe.PaymentMethodTypes,
		Currency:                c.Config.Stripe.Currency,
	})
	if !c.StripeClient.Configured() {
		logger.Warnw("provider_stripe_not_configured")
	}

	c.RealtimeHub = realtime.NewHub()
	c.RealtimeBroker = realtime.NewBroker(c.RealtimeHub)
	c.CartStore = cart.NewStore(cart.NewRepositoryStorage(c.CartRepo), c.RealtimeBroker)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config)
	if !c.AuthService.Configured() {
		logger.Warnw("provider_admin_password_missing")
	}
	c.CartService = service.NewCartService(c.Config, c.CartStore, c.CartRepo)
	c.CheckoutService = service.NewCheckoutService(c.Config, c.StripeClient, c.CartStore)
	c.OrderNotifier = service.NewOrderNotifier(c.QueueClient, c.RealtimeBroker, c.OrderRepo)
	c.OrderMaterializer = service.NewOrderMaterializer(c.Config, c.OrderRepo, c.OrderSchema, c.StripeClient, c.CartStore, c.OrderNotifier, c.QueueClient)
	c.WebhookService = service.NewWebhookService(c.StripeClient, c.OrderMaterializer)
	c.OrderStatusService = service.NewOrderStatusService(c.OrderRepo, c.OrderNotifier)
	c.OrderQueryService = service.NewOrderQueryService(c.Config, c.OrderRepo)
	c.DiagnosticsService = service.NewDiagnosticsService(c.OrderRepo, c.OrderSchema, c.StripeClient, c.StripeClient, c.QueueClient)
}
