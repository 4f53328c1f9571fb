package repository

import (
	"errors"
	"time"

	"github.com/denver-kabob/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository cart snapshot data access
type CartRepository interface {
	Get(id string) (*models.Cart, error)
	Save(id, items string) error
	Delete(id string) error
	DeleteStaleBefore(cutoff time.Time) (int64, error)
}

// GormCartRepository GORM implementation
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository builds the cart repository
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// Get loads a cart snapshot, nil when absent
func (r *GormCartRepository) Get(id string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Where("id = ?", id).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// Save upserts the whole serialized collection, last writer wins
func (r *GormCartRepository) Save(id, items string) error {
	cart := models.Cart{ID: id, Items: items, UpdatedAt: time.Now()}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
	}).Create(&cart).Error
}

// Delete drops a cart snapshot
func (r *GormCartRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.Cart{}).Error
}

// DeleteStaleBefore drops carts untouched since cutoff
func (r *GormCartRepository) DeleteStaleBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("updated_at < ?", cutoff).Delete(&models.Cart{})
	return result.RowsAffected, result.Error
}
