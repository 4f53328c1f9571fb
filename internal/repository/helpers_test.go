package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/denver-kabob/internal/models"

	"gorm.io/gorm"
)

func openTestDB(t *testing.T, name string, migrate bool) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := models.Open("sqlite", dsn, false)
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if migrate {
		if err := models.AutoMigrate(db); err != nil {
			t.Fatalf("auto migrate failed: %v", err)
		}
	}
	return db
}

func newTestOrder(session, phone string, createdAt time.Time) *models.Order {
	return &models.Order{
		CustomerName:      "Ada Lovelace",
		CustomerFirstName: "Ada",
		CustomerLastName:  "Lovelace",
		CustomerPhone:     phone,
		TotalAmount:       models.MoneyFromString("27.06"),
		TaxAmount:         models.MoneyFromString("1.76"),
		TipAmount:         models.MoneyFromString("3.30"),
		Status:            "pending",
		StripeSessionID:   session,
		CreatedAt:         createdAt,
	}
}

func int64Ptr(v int64) *int64 { return &v }
