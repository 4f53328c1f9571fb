package service

import (
	"context"
	"strings"

	"github.com/denver-kabob/internal/constants"
	"github.com/denver-kabob/internal/logger"
	"github.com/denver-kabob/internal/models"
	"github.com/denver-kabob/internal/repository"
)

// OrderStatusService moves orders forward through fulfillment
type OrderStatusService struct {
	orderRepo repository.OrderRepository
	notifier  *OrderNotifier
}

// NewOrderStatusService builds the status service
func NewOrderStatusService(orderRepo repository.OrderRepository, notifier *OrderNotifier) *OrderStatusService {
	return &OrderStatusService{orderRepo: orderRepo, notifier: notifier}
}

// NormalizeStatus lowercases status and reports whether it is known
func NormalizeStatus(status string) (string, bool) {
	status = strings.ToLower(strings.TrimSpace(status))
	for _, known := range constants.OrderStatusFlow {
		if status == known {
			return status, true
		}
	}
	return status, false
}

// NextStatus returns the single allowed successor, empty for the last status
func NextStatus(current string) string {
	for i, known := range constants.OrderStatusFlow {
		if known == current && i+1 < len(constants.OrderStatusFlow) {
			return constants.OrderStatusFlow[i+1]
		}
	}
	return ""
}

// UpdateStatus applies target when it is the current status or its successor.
// The write only lands if the status is unchanged since it was read.
func (s *OrderStatusService) UpdateStatus(ctx context.Context, orderID, target string) (*models.Order, error) {
	target, ok := NormalizeStatus(target)
	if !ok {
		return nil, ErrStatusInvalid
	}
	order, err := s.orderRepo.GetByID(strings.TrimSpace(orderID))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == target {
		return order, nil
	}
	if NextStatus(order.Status) != target {
		return nil, ErrStatusTransition
	}

	updated, err := s.orderRepo.UpdateStatusIfCurrent(order.ID, order.Status, target)
	if err != nil {
		return nil, err
	}
	fresh, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, ErrOrderNotFound
	}
	if !updated {
		// lost the race; fine only if the winner wrote the same status
		if fresh.Status == target {
			return fresh, nil
		}
		return nil, ErrStatusTransition
	}

	logger.Infow("order_status_changed", "order_id", fresh.ID, "from", order.Status, "to", target)
	s.notifier.Notify(ctx, constants.EventOrderStatusChanged, fresh)
	return fresh, nil
}
