package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/denver-kabob/internal/cart"
	"github.com/denver-kabob/internal/payment/stripe"
)

func TestCreateSessionPricesAndDescribesCart(t *testing.T) {
	f := newFixture(t, "checkout_ok")
	svc := NewCheckoutService(f.cfg, f.gateway, f.carts)

	result, err := svc.CreateSession(context.Background(), CheckoutInput{
		Items:    scenarioCart(),
		Customer: testCustomer(),
		Details:  OrderDetails{TipPercent: dec("15"), Comments: "  no onions  "},
		Origin:   "https://kabob.test/",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if result.SessionID != "cs_test_1" || result.Quote.Total.StringFixed(2) != "27.06" {
		t.Fatalf("unexpected result %+v", result)
	}

	in := f.gateway.created[0]
	wantLines := []struct {
		name, amount string
		qty          int
	}{
		{"Chicken Kabob", "10.00", 2},
		{"+ extra rice", "1.00", 2},
		{"Sales Tax", "1.76", 1},
		{"Tip", "3.30", 1},
	}
	if len(in.LineItems) != len(wantLines) {
		t.Fatalf("line items = %+v", in.LineItems)
	}
	for i, want := range wantLines {
		got := in.LineItems[i]
		if got.Name != want.name || got.UnitAmount.StringFixed(2) != want.amount || got.Quantity != want.qty {
			t.Fatalf("line %d = %+v, want %+v", i, got, want)
		}
	}

	md := in.Metadata
	checks := map[string]string{
		"customer_name":  "Ada Lovelace",
		"customer_phone": "(720) 555-0100",
		"subtotal":       "22.00",
		"tax":            "1.76",
		"tip_percent":    "15.00",
		"tip_amount":     "3.30",
		"total":          "27.06",
		"order_type":     "pickup",
		"time_choice":    "asap",
		"payment_method": "card",
		"comments":       "no onions",
	}
	for key, want := range checks {
		if md[key] != want {
			t.Fatalf("metadata %s = %q, want %q", key, md[key], want)
		}
	}
	if in.SuccessURL != "https://kabob.test/order-confirmation?session_id={CHECKOUT_SESSION_ID}" {
		t.Fatalf("success url = %s", in.SuccessURL)
	}
	if in.CancelURL != "https://kabob.test/payment-cancel" {
		t.Fatalf("cancel url = %s", in.CancelURL)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	valid := scenarioCart
	cases := []struct {
		name     string
		items    []cart.Item
		customer *CustomerInfo
		details  OrderDetails
		want     error
	}{
		{"empty cart", nil, testCustomer(), OrderDetails{}, ErrCartEmpty},
		{"no customer", valid(), nil, OrderDetails{}, ErrCustomerInfoRequired},
		{"blank last name", valid(), &CustomerInfo{FirstName: "Ada", LastName: " ", Phone: "7205550100"}, OrderDetails{}, ErrCustomerNameRequired},
		{"no phone", valid(), &CustomerInfo{FirstName: "Ada", LastName: "L"}, OrderDetails{}, ErrCustomerPhoneRequired},
		{"short phone", valid(), &CustomerInfo{FirstName: "Ada", LastName: "L", Phone: "555-0100"}, OrderDetails{}, ErrCustomerPhoneInvalid},
		{"bad email", valid(), &CustomerInfo{FirstName: "Ada", LastName: "L", Phone: "7205550100", Email: "ada@"}, OrderDetails{}, ErrCustomerEmailInvalid},
		{"item without name", []cart.Item{{MenuItemID: "k", Price: dec("1"), Quantity: 1}}, testCustomer(), OrderDetails{}, ErrItemInvalid},
		{"zero quantity", []cart.Item{{MenuItemID: "k", Name: "K", Price: dec("1")}}, testCustomer(), OrderDetails{}, ErrItemInvalid},
		{"negative price", []cart.Item{{MenuItemID: "k", Name: "K", Price: dec("-1"), Quantity: 1}}, testCustomer(), OrderDetails{}, ErrItemPriceInvalid},
		{"negative quantity", []cart.Item{{MenuItemID: "k", Name: "K", Price: dec("1"), Quantity: -2}}, testCustomer(), OrderDetails{}, ErrItemPriceInvalid},
		{"order type", valid(), testCustomer(), OrderDetails{OrderType: "drone"}, ErrOrderTypeInvalid},
		{"scheduled without time", valid(), testCustomer(), OrderDetails{TimeChoice: "scheduled"}, ErrScheduledTimeRequired},
		{"scheduled garbage", valid(), testCustomer(), OrderDetails{TimeChoice: "scheduled", ScheduledTime: "tomorrow"}, ErrScheduledTimeInvalid},
		{"free cart", []cart.Item{{MenuItemID: "w", Name: "Water", Price: dec("0"), Quantity: 1}}, testCustomer(), OrderDetails{}, ErrOrderTotalInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := &fakeGateway{configured: true}
			svc := NewCheckoutService(nil, gateway, nil)
			_, err := svc.CreateSession(context.Background(), CheckoutInput{Items: tc.items, Customer: tc.customer, Details: tc.details})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if len(gateway.created) != 0 {
				t.Fatalf("session created despite validation failure")
			}
		})
	}
}

func TestCreateSessionRequiresConfiguredProcessor(t *testing.T) {
	svc := NewCheckoutService(nil, &fakeGateway{}, nil)
	_, err := svc.CreateSession(context.Background(), CheckoutInput{Items: scenarioCart(), Customer: testCustomer()})
	if !errors.Is(err, ErrPaymentNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateSessionSurfacesProcessorMessage(t *testing.T) {
	gateway := &fakeGateway{configured: true, createErr: &stripe.APIError{StatusCode: 402, Type: "card_error", Message: "Your card was declined."}}
	svc := NewCheckoutService(nil, gateway, nil)
	_, err := svc.CreateSession(context.Background(), CheckoutInput{Items: scenarioCart(), Customer: testCustomer()})
	if !errors.Is(err, ErrCheckoutFailed) {
		t.Fatalf("err = %v", err)
	}
	if got := CheckoutMessage(err); got != "Your card was declined." {
		t.Fatalf("message = %q", got)
	}
	if got := CheckoutMessage(errors.New("dial tcp: timeout")); got != "Failed to create checkout session" {
		t.Fatalf("generic message = %q", got)
	}
}

func TestCreateSessionFromStoredCart(t *testing.T) {
	f := newFixture(t, "checkout_cart")
	fillScenarioCart(t, f.carts, "cart-7")
	f.cfg.Server.PublicBaseURL = "https://order.kabob.test"
	svc := NewCheckoutService(f.cfg, f.gateway, f.carts)

	if _, err := svc.CreateSession(context.Background(), CheckoutInput{CartID: "cart-7", Customer: testCustomer(), Origin: "http://ignored"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	in := f.gateway.created[0]
	if in.Metadata["cart_id"] != "cart-7" || in.Metadata["subtotal"] != "22.00" {
		t.Fatalf("metadata = %v", in.Metadata)
	}
	if !strings.HasPrefix(in.SuccessURL, "https://order.kabob.test/order-confirmation") {
		t.Fatalf("success url = %s", in.SuccessURL)
	}
}

func TestScheduledOrderMetadata(t *testing.T) {
	md := checkoutMetadata(t, scenarioCart(), OrderDetails{
		OrderType:     "Delivery",
		TimeChoice:    "scheduled",
		ScheduledTime: "2026-03-01T18:30:00-07:00",
	})
	if md["order_type"] != "delivery" || md["time_choice"] != "scheduled" {
		t.Fatalf("metadata = %v", md)
	}
	if md["scheduled_time"] != "2026-03-02T01:30:00Z" {
		t.Fatalf("scheduled_time = %s", md["scheduled_time"])
	}
}

func TestLongCartSplitsAcrossMetadataKeys(t *testing.T) {
	var items []cart.Item
	for i := 0; i < 20; i++ {
		items = append(items, cart.Item{
			MenuItemID:      "plate-" + strconv.Itoa(i),
			Name:            "Mixed Grill Platter " + strconv.Itoa(i),
			Price:           dec("18.50"),
			Quantity:        1,
			SelectedOptions: []string{"Spicy", "Extra garlic sauce"},
		})
	}
	md := map[string]string{}
	if err := putItems(md, items); err != nil {
		t.Fatalf("put items: %v", err)
	}
	if md["items"] != "" || md["items_parts"] == "" {
		t.Fatalf("expected chunked items, got keys %v", md)
	}
	for key, value := range md {
		if len([]rune(value)) > stripe.MetadataValueLimit {
			t.Fatalf("%s exceeds the value limit", key)
		}
	}
	back, err := itemsFromMetadata(md)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(back) != 20 || back[19].Name != "Mixed Grill Platter 19" || len(back[0].SelectedOptions) != 2 {
		t.Fatalf("round trip lost data: %+v", back[19])
	}
}

func TestCommentsAreCapped(t *testing.T) {
	long := strings.Repeat("a", 450)
	if got := capComments("  "+long+"  ", 400); len(got) != 400 {
		t.Fatalf("len = %d", len(got))
	}
	if got := capComments(" short ", 400); got != "short" {
		t.Fatalf("got %q", got)
	}
}

func TestOriginFromURL(t *testing.T) {
	if got := OriginFromURL("https://kabob.test/checkout?x=1"); got != "https://kabob.test" {
		t.Fatalf("got %q", got)
	}
	if got := OriginFromURL("not a url"); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestCreateSessionAcceptsNonASCIICart(t *testing.T) {
	var posted int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posted++
		_, _ = w.Write([]byte(`{"id":"cs_test_ar","url":"https://checkout.stripe.test/cs_test_ar"}`))
	}))
	defer srv.Close()

	var items []cart.Item
	for i := 0; i < 8; i++ {
		items = append(items, cart.Item{
			MenuItemID: "grill-" + strconv.Itoa(i),
			Name:       "كباب لحم مشوي مع أرز",
			Price:      dec("15.00"),
			Quantity:   1,
		})
	}
	gateway := stripe.NewClient(stripe.Config{SecretKey: "sk_test", APIBaseURL: srv.URL})
	svc := NewCheckoutService(nil, gateway, nil)
	result, err := svc.CreateSession(context.Background(), CheckoutInput{
		Items:    items,
		Customer: testCustomer(),
		Details:  OrderDetails{Comments: strings.Repeat("é", 300)},
		Origin:   "https://kabob.test",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if result.SessionID != "cs_test_ar" || posted != 1 {
		t.Fatalf("unexpected result %+v posted=%d", result, posted)
	}
}
