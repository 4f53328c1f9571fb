package repository

import (
	"testing"
	"time"

	"github.com/denver-kabob/internal/models"
)

func TestCartRepositorySaveUpserts(t *testing.T) {
	repo := NewCartRepository(openTestDB(t, "cart_repo_upsert", true))
	if got, err := repo.Get("cart-1"); err != nil || got != nil {
		t.Fatalf("missing cart should be nil,nil: %v %v", got, err)
	}
	if err := repo.Save("cart-1", `[{"id":"a"}]`); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save("cart-1", `[{"id":"b"}]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := repo.Get("cart-1")
	if err != nil || got == nil || got.Items != `[{"id":"b"}]` {
		t.Fatalf("get = %+v err=%v", got, err)
	}
	if err := repo.Delete("cart-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := repo.Get("cart-1"); got != nil {
		t.Fatalf("cart should be gone")
	}
}

func TestCartRepositoryDeleteStale(t *testing.T) {
	db := openTestDB(t, "cart_repo_stale", true)
	repo := NewCartRepository(db)
	old := models.Cart{ID: "old", Items: "[]", UpdatedAt: time.Now().Add(-10 * 24 * time.Hour)}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("seed old cart: %v", err)
	}
	if err := repo.Save("fresh", "[]"); err != nil {
		t.Fatalf("save fresh: %v", err)
	}
	removed, err := repo.DeleteStaleBefore(time.Now().Add(-7 * 24 * time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("removed=%d err=%v", removed, err)
	}
	if got, _ := repo.Get("fresh"); got == nil {
		t.Fatalf("fresh cart should survive")
	}
}
