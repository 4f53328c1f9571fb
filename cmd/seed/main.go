package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/denver-kabob/internal/cart"
	"github.com/denver-kabob/internal/config"
	"github.com/denver-kabob/internal/constants"
	"github.com/denver-kabob/internal/logger"
	"github.com/denver-kabob/internal/models"
	"github.com/denver-kabob/internal/provider"
	"github.com/denver-kabob/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// menu is a small slice of the real menu, enough to fill the kitchen board
var menu = []cart.Item{
	{MenuItemID: "chicken-kabob", Name: "Chicken Kabob", Price: decimal.RequireFromString("14.99"), SelectedOptions: []string{"Rice"}},
	{MenuItemID: "beef-koobideh", Name: "Beef Koobideh", Price: decimal.RequireFromString("16.49"), SelectedAddons: []cart.Addon{{Name: "Grilled tomato", Price: decimal.RequireFromString("1.50")}}},
	{MenuItemID: "falafel-wrap", Name: "Falafel Wrap", Price: decimal.RequireFromString("10.99"), SelectedOptions: []string{"Spicy"}},
	{MenuItemID: "hummus", Name: "Hummus & Pita", Price: decimal.RequireFromString("7.50")},
}

var customers = []service.CustomerInfo{
	{FirstName: "Ada", LastName: "Lovelace", Phone: "(720) 555-0100", Email: "ada@example.com"},
	{FirstName: "Alan", LastName: "Turing", Phone: "303-555-0142"},
	{FirstName: "Grace", LastName: "Hopper", Phone: "7205550199", Email: "grace@example.com"},
}

func main() {
	var count int
	flag.IntVar(&count, "count", 6, "number of orders to create")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, false, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(models.DB); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	container := provider.NewContainerWithDB(cfg, models.DB, nil)
	ctx := context.Background()
	for i := 0; i < count; i++ {
		customer := customers[i%len(customers)]
		first := menu[i%len(menu)]
		first.Quantity = 1 + i%2
		second := menu[(i+1)%len(menu)]
		second.Quantity = 1

		in, err := container.OrderMaterializer.FromFallbackRequest(service.FallbackRequest{
			SessionID: "cs_seed_" + uuid.NewString(),
			Items:     []cart.Item{first, second},
			Customer:  &customer,
			Details: service.OrderDetails{
				TipPercent: decimal.NewFromInt(int64(10 + 5*(i%3))),
				OrderType:  constants.OrderTypePickup,
				TimeChoice: constants.TimeChoiceASAP,
			},
		})
		if err != nil {
			stdLog.Fatalf("Invalid seed order: %v", err)
		}
		in.Source = constants.OrderSourceSeed
		order, _, err := container.OrderMaterializer.Materialize(ctx, in)
		if err != nil {
			stdLog.Fatalf("Failed to seed order: %v", err)
		}
		fmt.Printf("seeded order %s for %s, total %s\n", order.ID, order.CustomerName, order.TotalAmount.StringFixed(2))
	}
}
