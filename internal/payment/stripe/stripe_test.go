package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCreateCheckoutSessionEncodesLineItems(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		_, _ = w.Write([]byte(`{"id":"cs_test_abc","url":"https://checkout.stripe.com/c/pay/cs_test_abc","status":"open","payment_status":"unpaid"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{SecretKey: " sk_test_123 ", APIBaseURL: srv.URL + "/"})
	session, err := client.CreateCheckoutSession(context.Background(), CheckoutSessionInput{
		LineItems: []LineItem{
			{Name: "Kabob Plate", Description: "Beef", UnitAmount: decimal.RequireFromString("12.00"), Quantity: 1},
			{Name: "+ Extra Meat", UnitAmount: decimal.RequireFromString("4.00"), Quantity: 1},
			{Name: "Sales Tax", UnitAmount: decimal.RequireFromString("1.76"), Quantity: 1},
		},
		SuccessURL: "https://shop.test/order-confirmation?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://shop.test/payment-cancel",
		Metadata:   map[string]string{"customer_name": "Ada Lovelace", "total": "27.06"},
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.ID != "cs_test_abc" || session.URL == "" {
		t.Fatalf("unexpected session %+v", session)
	}

	checks := map[string]string{
		"mode":                                   "payment",
		"payment_method_types[]":                 "card",
		"line_items[0][price_data][currency]":    "usd",
		"line_items[0][price_data][unit_amount]": "1200",
		"line_items[0][price_data][product_data][description]": "Beef",
		"line_items[1][price_data][product_data][name]":        "+ Extra Meat",
		"line_items[2][price_data][unit_amount]":               "176",
		"metadata[customer_name]":                              "Ada Lovelace",
		"success_url":                                          "https://shop.test/order-confirmation?session_id={CHECKOUT_SESSION_ID}",
	}
	for key, want := range checks {
		if got := form.Get(key); got != want {
			t.Fatalf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestCreateCheckoutSessionSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid API Key provided"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{SecretKey: "sk_bad", APIBaseURL: srv.URL})
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutSessionInput{
		LineItems:  []LineItem{{Name: "x", UnitAmount: decimal.NewFromInt(1), Quantity: 1}},
		SuccessURL: "https://a", CancelURL: "https://b",
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Invalid API Key provided" || !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestCreateCheckoutSessionRequiresConfig(t *testing.T) {
	_, err := NewClient(Config{}).CreateCheckoutSession(context.Background(), CheckoutSessionInput{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCreateCheckoutSessionRejectsLongMetadata(t *testing.T) {
	client := NewClient(Config{SecretKey: "sk_test"})
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutSessionInput{
		LineItems:  []LineItem{{Name: "x", UnitAmount: decimal.NewFromInt(1), Quantity: 1}},
		SuccessURL: "https://a", CancelURL: "https://b",
		Metadata: map[string]string{"items": strings.Repeat("x", MetadataValueLimit+1)},
	})
	if !errors.Is(err, ErrInputInvalid) {
		t.Fatalf("expected ErrInputInvalid, got %v", err)
	}
}

func TestCreateCheckoutSessionCountsMetadataInCharacters(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		_, _ = w.Write([]byte(`{"id":"cs_test_utf8","url":"https://checkout.stripe.com/c/pay/cs_test_utf8"}`))
	}))
	defer srv.Close()

	comments := strings.Repeat("é", 300)
	names := strings.Repeat("ك", MetadataValueLimit)
	client := NewClient(Config{SecretKey: "sk_test", APIBaseURL: srv.URL})
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutSessionInput{
		LineItems:  []LineItem{{Name: "كباب لحم مشوي مع أرز", UnitAmount: decimal.NewFromInt(12), Quantity: 1}},
		SuccessURL: "https://a", CancelURL: "https://b",
		Metadata: map[string]string{"comments": comments, "items_0": names},
	})
	if err != nil {
		t.Fatalf("multi-byte metadata within the limit should pass: %v", err)
	}
	if form.Get("metadata[comments]") != comments || form.Get("metadata[items_0]") != names {
		t.Fatalf("metadata not sent intact")
	}

	_, err = client.CreateCheckoutSession(context.Background(), CheckoutSessionInput{
		LineItems:  []LineItem{{Name: "x", UnitAmount: decimal.NewFromInt(1), Quantity: 1}},
		SuccessURL: "https://a", CancelURL: "https://b",
		Metadata: map[string]string{"comments": strings.Repeat("é", MetadataValueLimit+1)},
	})
	if !errors.Is(err, ErrInputInvalid) {
		t.Fatalf("expected ErrInputInvalid past the character limit, got %v", err)
	}
}

func TestRetrieveCheckoutSessionReadsMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions/cs_test_1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","payment_status":"paid","status":"complete","currency":"usd","amount_total":2706,"metadata":{"customer_phone":"3035550142"}}`))
	}))
	defer srv.Close()

	session, err := NewClient(Config{SecretKey: "sk", APIBaseURL: srv.URL}).RetrieveCheckoutSession(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if !session.Paid() || session.AmountTotal != "27.06" || session.Metadata["customer_phone"] != "3035550142" {
		t.Fatalf("unexpected session %+v", session)
	}
}

func webhookBody(t *testing.T) []byte {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{
		"id":   "evt_test_1",
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":         "checkout.session",
				"id":             "cs_test_123",
				"payment_status": "paid",
				"currency":       "usd",
				"amount_total":   2706,
				"metadata":       map[string]interface{}{"customer_name": "Ada Lovelace"},
			},
		},
	})
	return body
}

func TestVerifyWebhookCheckoutCompleted(t *testing.T) {
	now := time.Unix(1760000000, 0)
	client := NewClient(Config{WebhookSecret: "whsec_test_abc"})
	body := webhookBody(t)
	headers := map[string]string{"stripe-signature": SignPayload("whsec_test_abc", now, body)}

	event, err := client.VerifyWebhook(headers, body, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if event.Type != "checkout.session.completed" || event.Session == nil {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Session.ID != "cs_test_123" || event.Session.AmountTotal != "27.06" {
		t.Fatalf("unexpected session %+v", event.Session)
	}
	if event.Session.Metadata["customer_name"] != "Ada Lovelace" {
		t.Fatalf("metadata = %v", event.Session.Metadata)
	}
}

func TestVerifyWebhookRejects(t *testing.T) {
	now := time.Unix(1760000000, 0)
	client := NewClient(Config{WebhookSecret: "whsec_test_abc"})
	body := webhookBody(t)

	cases := map[string]map[string]string{
		"missing header": {},
		"bad signature":  {"Stripe-Signature": "t=1760000000,v1=deadbeef"},
		"wrong secret":   {"Stripe-Signature": SignPayload("whsec_other", now, body)},
		"stale":          {"Stripe-Signature": SignPayload("whsec_test_abc", now.Add(-time.Hour), body)},
		"no timestamp":   {"Stripe-Signature": "v1=abc"},
	}
	for name, headers := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := client.VerifyWebhook(headers, body, now); !errors.Is(err, ErrSignatureInvalid) {
				t.Fatalf("expected ErrSignatureInvalid, got %v", err)
			}
		})
	}

	if _, err := NewClient(Config{}).VerifyWebhook(nil, body, now); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestToMinorAmount(t *testing.T) {
	got, err := toMinorAmount(decimal.RequireFromString("27.06"), "usd")
	if err != nil || got != 2706 {
		t.Fatalf("usd minor = %d err=%v", got, err)
	}
	if got, _ := toMinorAmount(decimal.Zero, "usd"); got != 0 {
		t.Fatalf("zero should be allowed for free addons, got %d", got)
	}
	if _, err := toMinorAmount(decimal.RequireFromString("1.005"), "usd"); err == nil {
		t.Fatalf("expected precision error")
	}
	if got, _ := toMinorAmount(decimal.NewFromInt(500), "jpy"); got != 500 {
		t.Fatalf("jpy minor = %d", got)
	}
}
