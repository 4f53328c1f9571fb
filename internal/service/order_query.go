package service

import (
	"strings"
	"time"

	"github.com/denver-kabob/internal/config"
	"github.com/denver-kabob/internal/models"
	"github.com/denver-kabob/internal/repository"
)

const defaultLookupLimit = 50

// OrderQueryService read-only order projections
type OrderQueryService struct {
	cfg       *config.Config
	orderRepo repository.OrderRepository
	now       func() time.Time
}

// NewOrderQueryService builds the query service
func NewOrderQueryService(cfg *config.Config, orderRepo repository.OrderRepository) *OrderQueryService {
	return &OrderQueryService{cfg: cfg, orderRepo: orderRepo, now: time.Now}
}

// OrderListInput admin listing filter
type OrderListInput struct {
	Status   string
	Page     int
	PageSize int
}

// ListOrders returns orders newest first with items
func (s *OrderQueryService) ListOrders(in OrderListInput) ([]models.Order, int64, error) {
	status := strings.TrimSpace(in.Status)
	if status != "" {
		normalized, ok := NormalizeStatus(status)
		if !ok {
			return nil, 0, ErrStatusInvalid
		}
		status = normalized
	}
	return s.orderRepo.ListAdmin(repository.OrderListFilter{
		Page:     in.Page,
		PageSize: in.PageSize,
		Status:   status,
	})
}

// GetOrder loads one order with items
func (s *OrderQueryService) GetOrder(id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetBySession is polled by the confirmation page
func (s *OrderQueryService) GetBySession(sessionID string) (*models.Order, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}
	order, err := s.orderRepo.GetBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Lookup finds a customer's orders by exact id, or by phone digits within the
// recent window. An unknown id yields an empty list.
func (s *OrderQueryService) Lookup(phone, orderID string) ([]models.Order, error) {
	phone = strings.TrimSpace(phone)
	orderID = strings.TrimSpace(orderID)
	if phone == "" && orderID == "" {
		return nil, ErrLookupKeyRequired
	}
	if orderID != "" {
		order, err := s.orderRepo.GetByID(orderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return []models.Order{}, nil
		}
		return []models.Order{*order}, nil
	}

	digits := repository.DigitsOnly(phone)
	if digits == "" {
		return nil, ErrLookupPhoneInvalid
	}
	window := 30 * 24 * time.Hour
	limit := defaultLookupLimit
	if s.cfg != nil {
		window = s.cfg.Orders.LookupWindow()
		if s.cfg.Orders.LookupLimit > 0 {
			limit = s.cfg.Orders.LookupLimit
		}
	}
	orders, err := s.orderRepo.ListByPhone(repository.OrderPhoneFilter{
		Digits: digits,
		Since:  s.now().Add(-window),
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}
