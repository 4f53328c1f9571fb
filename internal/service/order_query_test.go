package service

import (
	"errors"
	"testing"
	"time"

	"github.com/denver-kabob/internal/models"
)

func backdate(t *testing.T, f *fixture, orderID string, at time.Time) {
	t.Helper()
	if err := f.db.Model(&models.Order{}).Where("id = ?", orderID).UpdateColumn("created_at", at).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}
}

func TestLookupByPhoneHonorsWindow(t *testing.T) {
	f := newFixture(t, "lookup_window")
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	old := mustMaterialize(t, f, "cs_old")
	recent := mustMaterialize(t, f, "cs_recent")
	backdate(t, f, old.ID, now.AddDate(0, 0, -31))
	backdate(t, f, recent.ID, now.AddDate(0, 0, -29))

	svc := NewOrderQueryService(f.cfg, f.orderRepo)
	svc.now = func() time.Time { return now }

	orders, err := svc.Lookup("720-555-0100", "")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != recent.ID {
		t.Fatalf("orders = %+v", orders)
	}
	if len(orders[0].Items) != 2 {
		t.Fatalf("items not loaded")
	}
}

func TestLookupByOrderID(t *testing.T) {
	f := newFixture(t, "lookup_id")
	order := mustMaterialize(t, f, "cs_lookup")
	svc := NewOrderQueryService(f.cfg, f.orderRepo)

	orders, err := svc.Lookup("", order.ID)
	if err != nil || len(orders) != 1 || orders[0].ID != order.ID {
		t.Fatalf("orders=%v err=%v", orders, err)
	}
	orders, err = svc.Lookup("", "no-such-order")
	if err != nil || orders == nil || len(orders) != 0 {
		t.Fatalf("unknown id: orders=%v err=%v", orders, err)
	}
}

func TestLookupValidatesKeys(t *testing.T) {
	svc := NewOrderQueryService(nil, nil)
	if _, err := svc.Lookup(" ", ""); !errors.Is(err, ErrLookupKeyRequired) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.Lookup("call me", ""); !errors.Is(err, ErrLookupPhoneInvalid) {
		t.Fatalf("err = %v", err)
	}
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	f := newFixture(t, "list_orders")
	a := mustMaterialize(t, f, "cs_list_a")
	mustMaterialize(t, f, "cs_list_b")
	status := NewOrderStatusService(f.orderRepo, f.notifier)
	if _, err := status.UpdateStatus(t.Context(), a.ID, "preparing"); err != nil {
		t.Fatalf("update: %v", err)
	}

	svc := NewOrderQueryService(f.cfg, f.orderRepo)
	orders, total, err := svc.ListOrders(OrderListInput{Status: "Preparing", Page: 1, PageSize: 20})
	if err != nil || total != 1 || orders[0].ID != a.ID {
		t.Fatalf("orders=%v total=%d err=%v", orders, total, err)
	}
	if _, _, err := svc.ListOrders(OrderListInput{Status: "lost"}); !errors.Is(err, ErrStatusInvalid) {
		t.Fatalf("err = %v", err)
	}
	_, total, err = svc.ListOrders(OrderListInput{})
	if err != nil || total != 2 {
		t.Fatalf("total=%d err=%v", total, err)
	}
}

func TestGetBySession(t *testing.T) {
	f := newFixture(t, "get_session")
	order := mustMaterialize(t, f, "cs_poll")
	svc := NewOrderQueryService(f.cfg, f.orderRepo)

	got, err := svc.GetBySession("cs_poll")
	if err != nil || got.ID != order.ID {
		t.Fatalf("got=%v err=%v", got, err)
	}
	if _, err := svc.GetBySession("cs_pending"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.GetBySession(""); !errors.Is(err, ErrSessionIDRequired) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.GetOrder("missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v", err)
	}
}
