package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	ErrNotConfigured    = errors.New("stripe not configured")
	ErrInputInvalid     = errors.New("stripe input invalid")
	ErrRequestFailed    = errors.New("stripe request failed")
	ErrResponseInvalid  = errors.New("stripe response invalid")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
)

const (
	defaultAPIBaseURL        = "https://api.stripe.com"
	defaultTimeout           = 12 * time.Second
	defaultWebhookToleranceS = 300
	defaultCurrency          = "usd"

	// MetadataValueLimit is the longest value Stripe accepts per metadata key
	MetadataValueLimit = 500
	// MetadataKeyLimit is the most keys one object may carry
	MetadataKeyLimit = 50
)

var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {}, "KRW": {}, "MGA": {},
	"PYG": {}, "RWF": {}, "UGX": {}, "VND": {}, "VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

// Config Stripe account settings
type Config struct {
	SecretKey               string
	PublishableKey          string
	WebhookSecret           string
	APIBaseURL              string
	WebhookToleranceSeconds int
	PaymentMethodTypes      []string
	Currency                string
}

// LineItem is one row on the hosted payment page
type LineItem struct {
	Name        string
	Description string
	UnitAmount  decimal.Decimal
	Quantity    int
}

// CheckoutSessionInput describes a session to create
type CheckoutSessionInput struct {
	LineItems     []LineItem
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
}

// CheckoutSession is the subset of the Stripe session object this service reads
type CheckoutSession struct {
	ID            string
	URL           string
	Status        string
	PaymentStatus string
	AmountTotal   string
	Currency      string
	Metadata      map[string]string
}

// Paid reports whether funds were captured or none were needed
func (s *CheckoutSession) Paid() bool {
	if s == nil {
		return false
	}
	switch strings.ToLower(s.PaymentStatus) {
	case "paid", "no_payment_required":
		return true
	}
	return false
}

// Event is a verified webhook event
type Event struct {
	ID      string
	Type    string
	Session *CheckoutSession // set for checkout.session.* events
}

// APIError carries the message Stripe returned with a non-2xx response
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe api error %d %s: %s", e.StatusCode, e.Type, e.Message)
}

func (e *APIError) Unwrap() error { return ErrRequestFailed }

// Client talks to the Stripe REST API
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient normalizes cfg and builds a client
func NewClient(cfg Config) *Client {
	cfg.normalize()
	return &Client{cfg: cfg, http: &http.Client{Timeout: defaultTimeout}}
}

// Configured reports whether sessions can be created
func (c *Client) Configured() bool {
	return c != nil && c.cfg.SecretKey != ""
}

// WebhookConfigured reports whether webhooks can be verified
func (c *Client) WebhookConfigured() bool {
	return c != nil && c.cfg.WebhookSecret != ""
}

// PublishableKey is safe to hand to browsers
func (c *Client) PublishableKey() string {
	if c == nil {
		return ""
	}
	return c.cfg.PublishableKey
}

// Currency lowercase ISO code used for every session
func (c *Client) Currency() string {
	if c == nil {
		return defaultCurrency
	}
	return c.cfg.Currency
}

// CreateCheckoutSession creates a hosted payment session
func (c *Client) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if len(in.LineItems) == 0 {
		return nil, fmt.Errorf("%w: line items are required", ErrInputInvalid)
	}
	if strings.TrimSpace(in.SuccessURL) == "" || strings.TrimSpace(in.CancelURL) == "" {
		return nil, fmt.Errorf("%w: redirect urls are required", ErrInputInvalid)
	}
	if len(in.Metadata) > MetadataKeyLimit {
		return nil, fmt.Errorf("%w: too many metadata keys", ErrInputInvalid)
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)
	if email := strings.TrimSpace(in.CustomerEmail); email != "" {
		form.Set("customer_email", email)
	}
	for _, pmType := range c.cfg.PaymentMethodTypes {
		form.Add("payment_method_types[]", pmType)
	}
	for i, item := range in.LineItems {
		minor, err := toMinorAmount(item.UnitAmount, c.cfg.Currency)
		if err != nil {
			return nil, err
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line %d quantity must be positive", ErrInputInvalid, i)
		}
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		form.Set(prefix+"[price_data][currency]", c.cfg.Currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(minor, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if desc := strings.TrimSpace(item.Description); desc != "" {
			form.Set(prefix+"[price_data][product_data][description]", desc)
		}
	}
	for key, value := range in.Metadata {
		// the limit is in characters, multi-byte names count once per rune
		if utf8.RuneCountInString(value) > MetadataValueLimit {
			return nil, fmt.Errorf("%w: metadata %s exceeds %d characters", ErrInputInvalid, key, MetadataValueLimit)
		}
		form.Set("metadata["+key+"]", value)
	}

	raw, err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	session := parseCheckoutSession(raw)
	if session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("%w: missing session id or url", ErrResponseInvalid)
	}
	return session, nil
}

// RetrieveCheckoutSession loads a session with its metadata
func (c *Client) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInputInvalid)
	}
	raw, err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	session := parseCheckoutSession(raw)
	if session.ID == "" {
		return nil, fmt.Errorf("%w: missing checkout session id", ErrResponseInvalid)
	}
	return session, nil
}

// VerifyWebhook checks the Stripe-Signature header and decodes the event
func (c *Client) VerifyWebhook(headers map[string]string, body []byte, now time.Time) (*Event, error) {
	if !c.WebhookConfigured() {
		return nil, ErrNotConfigured
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrSignatureInvalid)
	}
	if now.IsZero() {
		now = time.Now()
	}

	header := getHeaderValue(headers, "Stripe-Signature")
	if header == "" {
		return nil, fmt.Errorf("%w: Stripe-Signature is required", ErrSignatureInvalid)
	}
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return nil, err
	}
	if math.Abs(float64(now.Unix()-timestamp)) > float64(c.cfg.WebhookToleranceSeconds) {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}
	expected := computeSignature(c.cfg.WebhookSecret, timestamp, body)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}

	raw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	event := &Event{
		ID:   readString(raw, "id"),
		Type: readString(raw, "type"),
	}
	if event.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	object := readMap(readMap(raw, "data"), "object")
	if object == nil {
		return nil, fmt.Errorf("%w: missing event object", ErrResponseInvalid)
	}
	if readString(object, "object") == "checkout.session" {
		event.Session = parseCheckoutSession(object)
	}
	return event, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values) (map[string]interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrResponseInvalid, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, payload)
	}
	return decodeRawMap(payload)
}

func parseAPIError(status int, payload []byte) error {
	apiErr := &APIError{StatusCode: status}
	if raw, err := decodeRawMap(payload); err == nil {
		detail := readMap(raw, "error")
		apiErr.Type = readString(detail, "type")
		apiErr.Message = readString(detail, "message")
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func parseCheckoutSession(raw map[string]interface{}) *CheckoutSession {
	session := &CheckoutSession{
		ID:            readString(raw, "id"),
		URL:           readString(raw, "url"),
		Status:        readString(raw, "status"),
		PaymentStatus: readString(raw, "payment_status"),
		Currency:      strings.ToLower(readString(raw, "currency")),
		Metadata:      map[string]string{},
	}
	if minor := readInt64(raw, "amount_total"); minor > 0 && session.Currency != "" {
		session.AmountTotal = fromMinorAmount(minor, session.Currency)
	}
	for key, value := range readMap(raw, "metadata") {
		if s, ok := value.(string); ok {
			session.Metadata[key] = s
		}
	}
	return session
}

func (c *Config) normalize() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.PublishableKey = strings.TrimSpace(c.PublishableKey)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.WebhookToleranceSeconds <= 0 {
		c.WebhookToleranceSeconds = defaultWebhookToleranceS
	}
	c.Currency = strings.ToLower(strings.TrimSpace(c.Currency))
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}
	types := make([]string, 0, len(c.PaymentMethodTypes))
	for _, item := range c.PaymentMethodTypes {
		if trimmed := strings.ToLower(strings.TrimSpace(item)); trimmed != "" {
			types = append(types, trimmed)
		}
	}
	if len(types) == 0 {
		types = []string{"card"}
	}
	c.PaymentMethodTypes = types
}

func toMinorAmount(amount decimal.Decimal, currency string) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("%w: amount must not be negative", ErrInputInvalid)
	}
	minor := amount.Shift(int32(currencyScale(currency)))
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: amount precision is invalid", ErrInputInvalid)
	}
	return minor.IntPart(), nil
}

func fromMinorAmount(minor int64, currency string) string {
	scale := currencyScale(currency)
	return decimal.NewFromInt(minor).Shift(int32(-scale)).StringFixed(int32(scale))
}

func currencyScale(currency string) int {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return 0
	}
	return 2
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func computeSignature(secret string, timestamp int64, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(strconv.FormatInt(timestamp, 10) + "."))
	_, _ = h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// SignPayload builds a Stripe-Signature header value, used by tooling and tests
func SignPayload(secret string, timestamp time.Time, body []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp.Unix(), computeSignature(secret, timestamp.Unix(), body))
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		value := strings.TrimSpace(kv[1])
		switch strings.TrimSpace(kv[0]) {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed <= 0 {
				return 0, nil, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			timestamp = parsed
		case "v1":
			if value != "" {
				signatures = append(signatures, strings.ToLower(value))
			}
		}
	}
	if timestamp <= 0 {
		return 0, nil, fmt.Errorf("%w: timestamp is missing", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: v1 signature is missing", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}

func getHeaderValue(headers map[string]string, key string) string {
	for h, value := range headers {
		if strings.EqualFold(strings.TrimSpace(h), key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func readString(raw map[string]interface{}, key string) string {
	switch typed := raw[key].(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	case json.Number:
		return typed.String()
	default:
		return ""
	}
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	mapped, _ := raw[key].(map[string]interface{})
	return mapped
}

func readInt64(raw map[string]interface{}, key string) int64 {
	switch typed := raw[key].(type) {
	case float64:
		return int64(typed)
	case json.Number:
		parsed, _ := typed.Int64()
		return parsed
	case string:
		parsed, _ := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		return parsed
	default:
		return 0
	}
}
