package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/denver-kabob/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository order data access
type OrderRepository interface {
	Create(order *models.Order, omit ...string) error
	CreateItems(items []models.OrderItem) error
	Delete(id string) error
	GetByID(id string) (*models.Order, error)
	GetBySessionID(sessionID string) (*models.Order, error)
	MaxOrderNumber() (int64, bool, error)
	UpdateStatusIfCurrent(id, from, to string) (bool, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	ListByPhone(filter OrderPhoneFilter) ([]models.Order, error)
	ListRecent(limit int) ([]models.Order, error)
	Count() (int64, error)
	Ping() error
}

// GormOrderRepository GORM implementation
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository builds the order repository
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx binds a transaction
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create inserts the order row only. omit names optional columns the store lacks.
// Unique violations come back wrapped in ErrDuplicateKey.
func (r *GormOrderRepository) Create(order *models.Order, omit ...string) error {
	columns := append([]string{clause.Associations}, omit...)
	if err := r.db.Omit(columns...).Create(order).Error; err != nil {
		if IsDuplicateKey(err) {
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
		return err
	}
	return nil
}

// CreateItems inserts order lines in one batch
func (r *GormOrderRepository) CreateItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// Delete removes an order and its lines
func (r *GormOrderRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Order{}).Error
	})
}

// GetByID loads an order with items, nil when absent
func (r *GormOrderRepository) GetByID(id string) (*models.Order, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetBySessionID loads the order created for a checkout session, nil when absent
func (r *GormOrderRepository) GetBySessionID(sessionID string) (*models.Order, error) {
	return r.first(r.db.Where("stripe_session_id = ?", sessionID))
}

func (r *GormOrderRepository) first(query *gorm.DB) (*models.Order, error) {
	var order models.Order
	if err := query.Preload("Items", orderItemsOrder).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// MaxOrderNumber returns the highest assigned number; ok is false on an empty table
func (r *GormOrderRepository) MaxOrderNumber() (int64, bool, error) {
	var max sql.NullInt64
	if err := r.db.Model(&models.Order{}).Select("MAX(order_number)").Scan(&max).Error; err != nil {
		return 0, false, err
	}
	return max.Int64, max.Valid, nil
}

// UpdateStatusIfCurrent moves an order from one status to another. It reports
// false when the order is missing or no longer in the from status.
func (r *GormOrderRepository) UpdateStatusIfCurrent(id, from, to string) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListAdmin lists orders newest first with items
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	var orders []models.Order
	if err := query.Preload("Items", orderItemsOrder).Order("created_at desc").Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByPhone matches digits as a substring of the stored phone's digits
func (r *GormOrderRepository) ListByPhone(filter OrderPhoneFilter) ([]models.Order, error) {
	digits := DigitsOnly(filter.Digits)
	if digits == "" {
		return nil, nil
	}
	query := r.db.Where(digitsOnlyExpr(r.db, "customer_phone")+" LIKE ?", "%"+digits+"%")
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var orders []models.Order
	if err := query.Preload("Items", orderItemsOrder).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListRecent returns the latest orders without items
func (r *GormOrderRepository) ListRecent(limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Select("id", "customer_name", "status", "created_at", "stripe_session_id", "total_amount").
		Order("created_at desc").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts every order
func (r *GormOrderRepository) Count() (int64, error) {
	var total int64
	if err := r.db.Model(&models.Order{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Ping checks the underlying connection
func (r *GormOrderRepository) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func orderItemsOrder(db *gorm.DB) *gorm.DB {
	return db.Order("id asc")
}
