package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/denver-kabob/internal/constants"
	"github.com/denver-kabob/internal/logger"
	"github.com/denver-kabob/internal/provider"
	"github.com/denver-kabob/internal/queue"
	"github.com/denver-kabob/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer handles queued order tasks
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register binds task types to handlers
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderMaterialize, c.handleOrderMaterialize)
	mux.HandleFunc(queue.TaskOrderNotify, c.handleOrderNotify)
}

// handleOrderMaterialize retries a webhook whose order could not be stored.
// Metadata that can never produce an order is not retried.
func (c *Consumer) handleOrderMaterialize(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.OrderMaterializer == nil {
		logger.Debugw("worker_order_materialize_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderMaterializePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_materialize_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	in, err := c.OrderMaterializer.FromCheckoutMetadata(payload.SessionID, payload.Metadata)
	if err != nil {
		logger.Warnw("worker_order_materialize_metadata_invalid", "session_id", payload.SessionID, "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	in.Source = constants.OrderSourceRetry

	order, created, err := c.OrderMaterializer.Materialize(ctx, in)
	if err != nil {
		if isValidationError(err) {
			logger.Warnw("worker_order_materialize_rejected", "session_id", payload.SessionID, "error", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logger.Warnw("worker_order_materialize_failed", "session_id", payload.SessionID, "error", err)
		return err
	}
	logger.Infow("worker_order_materialized",
		"session_id", payload.SessionID,
		"order_id", order.ID,
		"created", created,
	)
	return nil
}

func (c *Consumer) handleOrderNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.OrderNotifier == nil {
		logger.Debugw("worker_order_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_notify_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if strings.TrimSpace(payload.OrderID) == "" {
		logger.Debugw("worker_order_notify_skip_invalid_payload", "event", payload.Event)
		return nil
	}
	if err := c.OrderNotifier.Deliver(ctx, payload.OrderID, payload.Event); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			logger.Debugw("worker_order_notify_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		}
		logger.Warnw("worker_order_notify_failed", "order_id", payload.OrderID, "event", payload.Event, "error", err)
		return err
	}
	return nil
}

var validationErrors = []error{
	service.ErrSessionIDRequired,
	service.ErrMetadataMissing,
	service.ErrCartEmpty,
	service.ErrCustomerNameRequired,
	service.ErrCustomerPhoneRequired,
	service.ErrCustomerPhoneInvalid,
	service.ErrItemInvalid,
	service.ErrItemPriceInvalid,
	service.ErrOrderTotalInvalid,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
