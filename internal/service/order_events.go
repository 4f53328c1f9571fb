package service

import (
	"context"

	"github.com/denver-kabob/internal/logger"
	"github.com/denver-kabob/internal/models"
	"github.com/denver-kabob/internal/queue"
	"github.com/denver-kabob/internal/repository"
)

// OrderEvents pushes order changes to live listeners
type OrderEvents interface {
	OrderChanged(ctx context.Context, eventType string, order *models.Order) error
}

// OrderNotifier sends order events through the queue when it runs, else directly
type OrderNotifier struct {
	queueClient *queue.Client
	events      OrderEvents
	orderRepo   repository.OrderRepository
}

// NewOrderNotifier wires the notifier; every argument may be nil
func NewOrderNotifier(queueClient *queue.Client, events OrderEvents, orderRepo repository.OrderRepository) *OrderNotifier {
	return &OrderNotifier{queueClient: queueClient, events: events, orderRepo: orderRepo}
}

// Notify never fails the caller, push is best effort
func (n *OrderNotifier) Notify(ctx context.Context, eventType string, order *models.Order) {
	if n == nil || order == nil {
		return
	}
	if n.queueClient != nil && n.queueClient.Enabled() {
		err := n.queueClient.EnqueueOrderNotify(queue.OrderNotifyPayload{OrderID: order.ID, Event: eventType})
		if err == nil {
			return
		}
		logger.Warnw("order_notify_enqueue_failed", "order_id", order.ID, "event", eventType, "error", err)
	}
	if n.events == nil {
		return
	}
	if err := n.events.OrderChanged(ctx, eventType, order); err != nil {
		logger.Warnw("order_notify_publish_failed", "order_id", order.ID, "event", eventType, "error", err)
	}
}

// Deliver loads the order and publishes it, used by the queue worker
func (n *OrderNotifier) Deliver(ctx context.Context, orderID, eventType string) error {
	if n == nil || n.events == nil || n.orderRepo == nil {
		return nil
	}
	order, err := n.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	return n.events.OrderChanged(ctx, eventType, order)
}
