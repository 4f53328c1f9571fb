package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/denver-kabob/internal/cart"
	"github.com/denver-kabob/internal/config"
	"github.com/denver-kabob/internal/models"
	"github.com/denver-kabob/internal/payment/stripe"
	"github.com/denver-kabob/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
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
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.Unmarshal(v)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Redis.Enabled = false
	cfg.Queue.Enabled = false
	cfg.JWT.SecretKey = "test-secret-key-with-enough-length"
	return cfg
}

// fakeGateway plays the payment processor
type fakeGateway struct {
	mu          sync.Mutex
	configured  bool
	created     []stripe.CheckoutSessionInput
	createErr   error
	session     *stripe.CheckoutSession
	retrieveErr error
	retrieved   int
}

func (g *fakeGateway) Configured() bool       { return g.configured }
func (g *fakeGateway) Currency() string       { return "usd" }
func (g *fakeGateway) PublishableKey() string { return "pk_test_1" }

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, in stripe.CheckoutSessionInput) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, in)
	id := fmt.Sprintf("cs_test_%d", len(g.created))
	return &stripe.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id, Metadata: in.Metadata}, nil
}

func (g *fakeGateway) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.retrieved++
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	if g.session == nil {
		return nil, &stripe.APIError{StatusCode: 404, Type: "invalid_request_error", Message: "No such checkout.session"}
	}
	session := *g.session
	session.ID = sessionID
	return &session, nil
}

// recordingEvents collects published order events
type recordingEvents struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingEvents) OrderChanged(ctx context.Context, eventType string, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType+":"+order.ID)
	return nil
}

func (r *recordingEvents) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fixture struct {
	cfg          *config.Config
	db           *gorm.DB
	orderRepo    *repository.GormOrderRepository
	cartRepo     *repository.GormCartRepository
	carts        *cart.Store
	gateway      *fakeGateway
	events       *recordingEvents
	notifier     *OrderNotifier
	materializer *OrderMaterializer
}

func newFixture(t *testing.T, name string) *fixture {
	t.Helper()
	f := &fixture{
		cfg:     testConfig(t),
		db:      openServiceTestDB(t, name),
		gateway: &fakeGateway{configured: true},
		events:  &recordingEvents{},
	}
	f.orderRepo = repository.NewOrderRepository(f.db)
	f.cartRepo = repository.NewCartRepository(f.db)
	f.carts = cart.NewStore(cart.NewRepositoryStorage(f.cartRepo), nil)
	f.notifier = NewOrderNotifier(nil, f.events, f.orderRepo)
	f.materializer = NewOrderMaterializer(f.cfg, f.orderRepo, repository.FullOrderSchema(), f.gateway, f.carts, f.notifier, nil)
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// scenarioCart is two kabobs with extra rice
func scenarioCart() []cart.Item {
	return []cart.Item{{
		MenuItemID:     "kabob1",
		Name:           "Chicken Kabob",
		Price:          dec("10.00"),
		Quantity:       2,
		SelectedAddons: []cart.Addon{{Name: "extra rice", Price: dec("1")}},
	}}
}

// fillScenarioCart adds scenarioCart one unit at a time, leaving two kabobs
func fillScenarioCart(t *testing.T, store *cart.Store, cartID string) []cart.Item {
	t.Helper()
	item := scenarioCart()[0]
	var items []cart.Item
	for i := 0; i < item.Quantity; i++ {
		var err error
		if items, err = store.Add(cartID, item); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	return items
}

func testCustomer() *CustomerInfo {
	return &CustomerInfo{FirstName: "Ada", LastName: "Lovelace", Phone: "(720) 555-0100", Email: "ada@example.com"}
}

// checkoutMetadata is what checkout writes onto the session for items
func checkoutMetadata(t *testing.T, items []cart.Item, details OrderDetails) map[string]string {
	t.Helper()
	draft, err := buildDraft(items, testCustomer(), details, draftRules{TaxRate: dec("0.08"), CommentsMax: 400})
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	md, err := sessionMetadata(draft)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	return md
}

func mustMaterialize(t *testing.T, f *fixture, sessionID string) *models.Order {
	t.Helper()
	in, err := f.materializer.FromCheckoutMetadata(sessionID, checkoutMetadata(t, scenarioCart(), OrderDetails{TipPercent: dec("15")}))
	if err != nil {
		t.Fatalf("from metadata: %v", err)
	}
	order, created, err := f.materializer.Materialize(context.Background(), in)
	if err != nil || !created {
		t.Fatalf("materialize: created=%v err=%v", created, err)
	}
	return order
}
