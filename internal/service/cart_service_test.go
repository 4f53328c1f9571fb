package service

import (
	"errors"
	"testing"
	"time"

	"github.com/denver-kabob/internal/cart"
	"github.com/denver-kabob/internal/models"
)

func TestCartServiceQuotesEveryChange(t *testing.T) {
	f := newFixture(t, "cart_service")
	svc := NewCartService(f.cfg, f.carts, f.cartRepo)

	view, err := svc.AddItem("cart-q", scenarioCart()[0])
	if err != nil || view.ItemCount != 1 {
		t.Fatalf("add: view=%+v err=%v", view, err)
	}
	view, err = svc.AddItem("cart-q", scenarioCart()[0])
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if view.ItemCount != 2 || view.Quote.Subtotal.StringFixed(2) != "22.00" || view.Quote.Tax.StringFixed(2) != "1.76" {
		t.Fatalf("view = %+v", view)
	}

	withTip, err := svc.Get("cart-q", dec("15"))
	if err != nil || withTip.Quote.Total.StringFixed(2) != "27.06" {
		t.Fatalf("quote = %+v err=%v", withTip, err)
	}

	lineID := view.Items[0].ID
	view, err = svc.UpdateQuantity("cart-q", lineID, 1)
	if err != nil || view.ItemCount != 1 || view.Quote.Subtotal.StringFixed(2) != "11.00" {
		t.Fatalf("update: view=%+v err=%v", view, err)
	}

	edited := scenarioCart()[0]
	edited.SelectedAddons = nil
	edited.SelectedOptions = []string{"Spicy"}
	view, err = svc.ReplaceItem("cart-q", lineID, edited, 3)
	if err != nil || len(view.Items) != 1 || view.Items[0].Quantity != 3 || view.Items[0].DisplayName() != "Chicken Kabob (Spicy)" {
		t.Fatalf("replace: view=%+v err=%v", view, err)
	}

	view, err = svc.RemoveItem("cart-q", view.Items[0].ID)
	if err != nil || len(view.Items) != 0 || !view.Quote.Total.IsZero() {
		t.Fatalf("remove: view=%+v err=%v", view, err)
	}
	if _, err := svc.UpdateQuantity("cart-q", "ghost", 2); !errors.Is(err, cart.ErrLineNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestResolveCartID(t *testing.T) {
	if got := ResolveCartID(" abc "); got != "abc" {
		t.Fatalf("got %q", got)
	}
	issued := ResolveCartID("NEW")
	if issued == "new" || !cart.ValidCartID(issued) {
		t.Fatalf("issued %q", issued)
	}
}

func TestPurgeStaleCarts(t *testing.T) {
	f := newFixture(t, "cart_purge")
	svc := NewCartService(f.cfg, f.carts, f.cartRepo)
	for _, id := range []string{"stale", "fresh"} {
		fillScenarioCart(t, f.carts, id)
	}
	now := time.Now()
	if err := f.db.Model(&models.Cart{}).Where("id = ?", "stale").UpdateColumn("updated_at", now.AddDate(0, 0, -8)).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	removed, err := svc.PurgeStale(now)
	if err != nil || removed != 1 {
		t.Fatalf("removed=%d err=%v", removed, err)
	}
	if items, _ := svc.Get("fresh", dec("0")); items.ItemCount != 2 {
		t.Fatalf("fresh cart lost")
	}
}
