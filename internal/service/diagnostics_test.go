package service

import (
	"context"
	"testing"

	"github.com/denver-kabob/internal/payment/stripe"
	"github.com/denver-kabob/internal/repository"
)

func TestDiagnosticsReportsStore(t *testing.T) {
	f := newFixture(t, "diagnostics")
	order := mustMaterialize(t, f, "cs_diag")

	webhook := stripe.NewClient(stripe.Config{SecretKey: "sk_test_1"})
	svc := NewDiagnosticsService(f.orderRepo, repository.OrderSchema{OrderNumber: true}, f.gateway, webhook, nil)
	got := svc.Run(context.Background())

	if !got.DatabaseConnected || got.DatabaseError != "" || got.OrderCount != 1 {
		t.Fatalf("diagnostics = %+v", got)
	}
	if len(got.RecentOrders) != 1 || got.RecentOrders[0].ID != order.ID || got.RecentOrders[0].StripeSessionID != "cs_diag" {
		t.Fatalf("recent = %+v", got.RecentOrders)
	}
	if got.SchemaComplete || !got.StripeConfigured || got.WebhookConfigured || got.RedisEnabled || got.QueueEnabled {
		t.Fatalf("flags = %+v", got)
	}
}

func TestDiagnosticsSurvivesClosedDatabase(t *testing.T) {
	f := newFixture(t, "diagnostics_down")
	sqlDB, _ := f.db.DB()
	_ = sqlDB.Close()

	got := NewDiagnosticsService(f.orderRepo, repository.FullOrderSchema(), nil, nil, nil).Run(context.Background())
	if got.DatabaseConnected || got.DatabaseError == "" {
		t.Fatalf("diagnostics = %+v", got)
	}
	if got.RecentOrders == nil {
		t.Fatalf("recent orders should be an empty list")
	}
}
