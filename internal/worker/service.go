package worker

import (
	"context"
	"errors"
	"time"

	"github.com/denver-kabob/internal/config"
	"github.com/denver-kabob/internal/logger"
	"github.com/denver-kabob/internal/queue"
	"github.com/denver-kabob/internal/service"

	"github.com/hibiken/asynq"
)

const defaultCartPurgeInterval = time.Hour

// Service runs the asynq server plus the cart purge loop
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService creates the queue worker
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name service name
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start blocks until the asynq server exits
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.CartService != nil {
		go runCartPurgeLoop(ctx, s.consumer.CartService, cartPurgeInterval(s.consumer.Config))
	}
	return s.server.Run(s.mux)
}

// Stop shuts the asynq server down
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// MaintenanceService runs only the periodic loops, for deployments without a queue
type MaintenanceService struct {
	carts    *service.CartService
	interval time.Duration
}

// NewMaintenanceService creates the loop runner
func NewMaintenanceService(cfg *config.Config, carts *service.CartService) *MaintenanceService {
	return &MaintenanceService{carts: carts, interval: cartPurgeInterval(cfg)}
}

// Name service name
func (s *MaintenanceService) Name() string {
	return "maintenance"
}

// Start blocks until ctx ends
func (s *MaintenanceService) Start(ctx context.Context) error {
	if s == nil || s.carts == nil {
		return errors.New("maintenance not initialized")
	}
	runCartPurgeLoop(ctx, s.carts, s.interval)
	return nil
}

// Stop is a no-op, Start returns when its context ends
func (s *MaintenanceService) Stop(ctx context.Context) error {
	return nil
}

// cartPurger is the slice of CartService the purge loop needs
type cartPurger interface {
	PurgeStale(now time.Time) (int64, error)
}

func cartPurgeInterval(cfg *config.Config) time.Duration {
	if cfg == nil || cfg.Cart.CleanupIntervalMinutes <= 0 {
		return defaultCartPurgeInterval
	}
	return time.Duration(cfg.Cart.CleanupIntervalMinutes) * time.Minute
}

func runCartPurgeLoop(ctx context.Context, carts cartPurger, interval time.Duration) {
	if carts == nil {
		return
	}
	if interval <= 0 {
		interval = defaultCartPurgeInterval
	}
	runOnce := func() {
		if _, err := carts.PurgeStale(time.Now()); err != nil {
			logger.Warnw("worker_cart_purge_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
