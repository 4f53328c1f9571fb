package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/denver-kabob/internal/cart"
	"github.com/denver-kabob/internal/config"
	"github.com/denver-kabob/internal/logger"
	"github.com/denver-kabob/internal/payment/stripe"
	"github.com/denver-kabob/internal/pricing"
)

// PaymentGateway is the hosted checkout boundary
type PaymentGateway interface {
	Configured() bool
	Currency() string
	CreateCheckoutSession(ctx context.Context, in stripe.CheckoutSessionInput) (*stripe.CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
}

// CheckoutService validates a cart and opens a hosted payment session
type CheckoutService struct {
	cfg     *config.Config
	gateway PaymentGateway
	carts   *cart.Store
}

// NewCheckoutService builds the checkout service; carts may be nil
func NewCheckoutService(cfg *config.Config, gateway PaymentGateway, carts *cart.Store) *CheckoutService {
	return &CheckoutService{cfg: cfg, gateway: gateway, carts: carts}
}

// CheckoutInput is the client checkout request. Items wins over CartID.
type CheckoutInput struct {
	CartID   string
	Items    []cart.Item
	Customer *CustomerInfo
	Details  OrderDetails
	Origin   string
}

// CheckoutResult points the browser at the hosted payment page
type CheckoutResult struct {
	SessionID string            `json:"session_id"`
	URL       string            `json:"url"`
	Quote     pricing.Breakdown `json:"quote"`
}

// CreateSession recomputes totals server-side and asks the processor for a session
func (s *CheckoutService) CreateSession(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if s.gateway == nil || !s.gateway.Configured() {
		return nil, ErrPaymentNotConfigured
	}

	items := in.Items
	cartID := strings.TrimSpace(in.CartID)
	if len(items) == 0 && cartID != "" && s.carts != nil {
		stored, err := s.carts.Get(cartID)
		if err != nil {
			return nil, err
		}
		items = stored
	}

	draft, err := buildDraft(items, in.Customer, in.Details, s.rules())
	if err != nil {
		return nil, err
	}
	draft.CartID = cartID

	metadata, err := sessionMetadata(draft)
	if err != nil {
		return nil, err
	}
	successURL, cancelURL := s.redirectURLs(in.Origin)

	session, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutSessionInput{
		LineItems:     checkoutLineItems(draft),
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		CustomerEmail: draft.Email,
		Metadata:      metadata,
	})
	if err != nil {
		logger.Errorw("checkout_session_create_failed",
			"customer_phone", draft.Phone,
			"total", draft.Quote.Total.StringFixed(2),
			"error", err,
		)
		return nil, checkoutError(err)
	}
	logger.Infow("checkout_session_created",
		"session_id", session.ID,
		"cart_id", cartID,
		"total", draft.Quote.Total.StringFixed(2),
	)
	return &CheckoutResult{SessionID: session.ID, URL: session.URL, Quote: draft.Quote}, nil
}

func (s *CheckoutService) rules() draftRules {
	return checkoutRules(s.cfg)
}

func checkoutRules(cfg *config.Config) draftRules {
	if cfg == nil {
		return draftRules{TaxRate: pricing.DefaultTaxRate, CommentsMax: defaultCommentsMaxChars}
	}
	return draftRules{
		TaxRate:     cfg.Checkout.TaxRateDecimal(),
		CommentsMax: cfg.Checkout.CommentsMaxLength,
	}
}

// redirectURLs builds the success and cancel pages on the public origin
func (s *CheckoutService) redirectURLs(origin string) (string, string) {
	base := strings.TrimRight(strings.TrimSpace(origin), "/")
	successPath, cancelPath := "/order-confirmation", "/payment-cancel"
	if s.cfg != nil {
		if public := strings.TrimSpace(s.cfg.Server.PublicBaseURL); public != "" {
			base = strings.TrimRight(public, "/")
		}
		if p := strings.TrimSpace(s.cfg.Checkout.SuccessPath); p != "" {
			successPath = p
		}
		if p := strings.TrimSpace(s.cfg.Checkout.CancelPath); p != "" {
			cancelPath = p
		}
	}
	return base + ensureLeadingSlash(successPath) + "?session_id={CHECKOUT_SESSION_ID}",
		base + ensureLeadingSlash(cancelPath)
}

func ensureLeadingSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

// checkoutLineItems lists each cart line, each addon at the parent quantity, then tax and tip
func checkoutLineItems(draft *orderDraft) []stripe.LineItem {
	lines := make([]stripe.LineItem, 0, len(draft.Items)+2)
	for _, item := range draft.Items {
		main := stripe.LineItem{
			Name:       item.DisplayName(),
			UnitAmount: item.Price,
			Quantity:   item.Quantity,
		}
		if len(item.SelectedOptions) > 0 {
			main.Description = "Options: " + strings.Join(item.SelectedOptions, ", ")
		}
		lines = append(lines, main)
		for _, addon := range item.SelectedAddons {
			lines = append(lines, stripe.LineItem{
				Name:       "+ " + addon.Name,
				UnitAmount: addon.Price,
				Quantity:   item.Quantity,
			})
		}
	}
	if draft.Quote.Tax.IsPositive() {
		lines = append(lines, stripe.LineItem{Name: "Sales Tax", UnitAmount: draft.Quote.Tax, Quantity: 1})
	}
	if draft.Quote.Tip.IsPositive() {
		lines = append(lines, stripe.LineItem{Name: "Tip", UnitAmount: draft.Quote.Tip, Quantity: 1})
	}
	return lines
}

// checkoutError keeps the processor error in the chain for CheckoutMessage
func checkoutError(err error) error {
	if errors.Is(err, stripe.ErrNotConfigured) {
		return ErrPaymentNotConfigured
	}
	if errors.Is(err, stripe.ErrInputInvalid) {
		return fmt.Errorf("%w: %w", ErrItemInvalid, err)
	}
	return fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
}

// CheckoutMessage is the text shown to the customer for a failed session
func CheckoutMessage(err error) string {
	var apiErr *stripe.APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return ErrCheckoutFailed.Error()
}

// OriginFromURL reduces a referer or origin header to scheme://host
func OriginFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
