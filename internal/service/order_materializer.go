package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/denver-kabob/internal/cart"
	"github.com/denver-kabob/internal/config"
	"github.com/denver-kabob/internal/constants"
	"github.com/denver-kabob/internal/logger"
	"github.com/denver-kabob/internal/models"
	"github.com/denver-kabob/internal/payment/stripe"
	"github.com/denver-kabob/internal/pricing"
	"github.com/denver-kabob/internal/queue"
	"github.com/denver-kabob/internal/repository"

	"github.com/shopspring/decimal"
)

// an order_number collision with a concurrent insert is retried this many times
const maxOrderNumberRetries = 3

const defaultFirstOrderNumber int64 = 1000

// OrderMaterializer turns a confirmed payment session into exactly one order
type OrderMaterializer struct {
	cfg         *config.Config
	orderRepo   repository.OrderRepository
	schema      repository.OrderSchema
	gateway     PaymentGateway
	carts       *cart.Store
	notifier    *OrderNotifier
	queueClient *queue.Client
}

// NewOrderMaterializer builds the materializer. schema comes from
// repository.ProbeOrderSchema at startup.
func NewOrderMaterializer(
	cfg *config.Config,
	orderRepo repository.OrderRepository,
	schema repository.OrderSchema,
	gateway PaymentGateway,
	carts *cart.Store,
	notifier *OrderNotifier,
	queueClient *queue.Client,
) *OrderMaterializer {
	return &OrderMaterializer{
		cfg:         cfg,
		orderRepo:   orderRepo,
		schema:      schema,
		gateway:     gateway,
		carts:       carts,
		notifier:    notifier,
		queueClient: queueClient,
	}
}

// MaterializeInput is a priced order bound to its payment session
type MaterializeInput struct {
	SessionID string
	Source    string
	draft     *orderDraft
}

// FallbackRequest is the client payload sent after the payment redirect
type FallbackRequest struct {
	SessionID string
	CartID    string
	Items     []cart.Item
	Customer  *CustomerInfo
	Details   OrderDetails
}

// Schema reports the optional columns this materializer writes
func (m *OrderMaterializer) Schema() repository.OrderSchema {
	return m.schema
}

// FromCheckoutMetadata rebuilds the order from metadata written at checkout
func (m *OrderMaterializer) FromCheckoutMetadata(sessionID string, md map[string]string) (MaterializeInput, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return MaterializeInput{}, ErrSessionIDRequired
	}
	name := strings.TrimSpace(md[metaCustomerName])
	phone := strings.TrimSpace(md[metaCustomerPhone])
	if name == "" || phone == "" || (md[metaItems] == "" && md[metaItemsParts] == "") {
		return MaterializeInput{}, ErrMetadataMissing
	}
	items, err := itemsFromMetadata(md)
	if err != nil {
		return MaterializeInput{}, err
	}

	first, last := splitCustomerName(name, md[metaCustomerFirstName], md[metaCustomerLastName])
	draft := &orderDraft{
		CartID:        strings.TrimSpace(md[metaCartID]),
		Items:         items,
		FirstName:     first,
		LastName:      last,
		FullName:      name,
		Phone:         phone,
		Email:         strings.TrimSpace(md[metaCustomerEmail]),
		OrderType:     strings.ToLower(strings.TrimSpace(md[metaOrderType])),
		TimeChoice:    strings.ToLower(strings.TrimSpace(md[metaTimeChoice])),
		PaymentMethod: strings.ToLower(strings.TrimSpace(md[metaPaymentMethod])),
		Comments:      capComments(md[metaComments], m.rules().CommentsMax),
	}
	if raw := strings.TrimSpace(md[metaScheduledTime]); raw != "" {
		if at, ok := parseScheduledTime(raw); ok {
			draft.ScheduledTime = &at
		}
	}
	if draft.PaymentMethod == "" {
		draft.PaymentMethod = constants.PaymentMethodCard
	}

	tip := pricing.TipInput{Percent: parseDecimal(md[metaTipPercent])}
	if raw := strings.TrimSpace(md[metaTipAmount]); raw != "" {
		if amount, err := decimal.NewFromString(raw); err == nil {
			tip.Amount = &amount
		}
	}
	draft.Quote = pricing.Quote(cart.PricingLines(items), tip, m.rules().TaxRate)
	if stored := strings.TrimSpace(md[metaTotal]); stored != "" && stored != draft.Quote.Total.StringFixed(2) {
		logger.Warnw("order_metadata_total_mismatch",
			"session_id", sessionID,
			"metadata_total", stored,
			"computed_total", draft.Quote.Total.StringFixed(2),
		)
	}
	return MaterializeInput{SessionID: sessionID, Source: constants.OrderSourceWebhook, draft: draft}, nil
}

// FromFallbackRequest validates a client payload the same way checkout does
func (m *OrderMaterializer) FromFallbackRequest(req FallbackRequest) (MaterializeInput, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return MaterializeInput{}, ErrSessionIDRequired
	}
	items := req.Items
	cartID := strings.TrimSpace(req.CartID)
	if len(items) == 0 && cartID != "" && m.carts != nil {
		if stored, err := m.carts.Get(cartID); err == nil {
			items = stored
		}
	}
	if len(items) == 0 {
		return MaterializeInput{}, ErrCartItemsRequired
	}
	draft, err := buildDraft(items, req.Customer, req.Details, m.rules())
	if err != nil {
		return MaterializeInput{}, err
	}
	draft.CartID = cartID
	return MaterializeInput{SessionID: sessionID, Source: constants.OrderSourceFallback, draft: draft}, nil
}

// Materialize persists the order once per session. created is false when the
// session already had an order, including one inserted by a concurrent call.
func (m *OrderMaterializer) Materialize(ctx context.Context, in MaterializeInput) (*models.Order, bool, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, false, ErrSessionIDRequired
	}
	if in.draft == nil || len(in.draft.Items) == 0 {
		return nil, false, ErrCartItemsRequired
	}

	existing, err := m.orderRepo.GetBySessionID(sessionID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	order, existing, err := m.insertOrder(sessionID, in.draft)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		logger.Infow("order_materialize_duplicate", "session_id", sessionID, "order_id", existing.ID, "source", in.Source)
		return existing, false, nil
	}

	items := flattenOrderItems(order.ID, in.draft.Items)
	if err := m.orderRepo.CreateItems(items); err != nil {
		if delErr := m.orderRepo.Delete(order.ID); delErr != nil {
			logger.Errorw("order_compensating_delete_failed", "order_id", order.ID, "session_id", sessionID, "error", delErr)
		}
		logger.Errorw("order_items_insert_failed", "order_id", order.ID, "session_id", sessionID, "error", err)
		return nil, false, fmt.Errorf("%w: %v", ErrOrderPersistFailed, err)
	}

	saved, err := m.orderRepo.GetByID(order.ID)
	if err != nil || saved == nil {
		order.Items = items
		saved = order
	}
	logger.Infow("order_materialized",
		"order_id", saved.ID,
		"order_number", saved.OrderNumber,
		"session_id", sessionID,
		"source", in.Source,
		"total", saved.TotalAmount.String(),
	)

	m.notifier.Notify(ctx, constants.EventOrderCreated, saved)
	m.clearCart(in.draft.CartID)
	return saved, true, nil
}

// insertOrder inserts the order row. A unique conflict on the session returns
// the order that won; a conflict on the number is retried.
func (m *OrderMaterializer) insertOrder(sessionID string, draft *orderDraft) (*models.Order, *models.Order, error) {
	omit := m.schema.MissingColumns()
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		order := buildOrder(sessionID, draft)
		if m.schema.OrderNumber {
			number, err := m.nextOrderNumber()
			if err != nil {
				return nil, nil, err
			}
			order.OrderNumber = &number
		}

		err := m.orderRepo.Create(order, omit...)
		if err == nil {
			return order, nil, nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			logger.Errorw("order_insert_failed", "session_id", sessionID, "error", err)
			return nil, nil, fmt.Errorf("%w: %v", ErrOrderPersistFailed, err)
		}
		existing, lookupErr := m.orderRepo.GetBySessionID(sessionID)
		if lookupErr != nil {
			return nil, nil, lookupErr
		}
		if existing != nil {
			return nil, existing, nil
		}
		logger.Warnw("order_number_conflict", "session_id", sessionID, "attempt", attempt+1)
	}
	return nil, nil, ErrOrderNumberExhausted
}

func (m *OrderMaterializer) nextOrderNumber() (int64, error) {
	max, ok, err := m.orderRepo.MaxOrderNumber()
	if err != nil {
		return 0, err
	}
	if !ok {
		if m.cfg != nil && m.cfg.Orders.FirstOrderNumber > 0 {
			return m.cfg.Orders.FirstOrderNumber, nil
		}
		return defaultFirstOrderNumber, nil
	}
	return max + 1, nil
}

// EnsureOrder returns the session's order, creating it when the webhook has not
// landed yet. When the processor can be asked, its paid status and metadata win
// over the client payload.
func (m *OrderMaterializer) EnsureOrder(ctx context.Context, req FallbackRequest) (*models.Order, bool, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return nil, false, ErrSessionIDRequired
	}
	existing, err := m.orderRepo.GetBySessionID(sessionID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if m.verifySessions() {
		session, err := m.gateway.RetrieveCheckoutSession(ctx, sessionID)
		switch {
		case err == nil:
			if !session.Paid() {
				return nil, false, ErrPaymentNotCompleted
			}
			if len(session.Metadata) > 0 {
				in, mdErr := m.FromCheckoutMetadata(sessionID, session.Metadata)
				if mdErr == nil {
					in.Source = constants.OrderSourceFallback
					return m.Materialize(ctx, in)
				}
				logger.Warnw("order_ensure_metadata_unusable", "session_id", sessionID, "error", mdErr)
			}
		case sessionRejected(err):
			logger.Warnw("order_ensure_session_rejected", "session_id", sessionID, "error", err)
			return nil, false, ErrPaymentNotCompleted
		default:
			logger.Warnw("order_ensure_session_lookup_failed", "session_id", sessionID, "error", err)
		}
	}

	req.SessionID = sessionID
	in, err := m.FromFallbackRequest(req)
	if err != nil {
		return nil, false, err
	}
	return m.Materialize(ctx, in)
}

// sessionRejected reports a 4xx answer from the processor, as opposed to a transport failure
func sessionRejected(err error) bool {
	var apiErr *stripe.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests
}

func (m *OrderMaterializer) verifySessions() bool {
	if m.gateway == nil || !m.gateway.Configured() {
		return false
	}
	return m.cfg == nil || m.cfg.Checkout.VerifyFallbackSession
}

// ScheduleRetry queues a webhook materialization for the worker
func (m *OrderMaterializer) ScheduleRetry(sessionID string, md map[string]string, delay time.Duration) (bool, error) {
	if m.queueClient == nil || !m.queueClient.Enabled() {
		return false, nil
	}
	err := m.queueClient.EnqueueOrderMaterialize(queue.OrderMaterializePayload{SessionID: sessionID, Metadata: md}, delay)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *OrderMaterializer) rules() draftRules {
	return checkoutRules(m.cfg)
}

func (m *OrderMaterializer) clearCart(cartID string) {
	if cartID == "" || m.carts == nil {
		return
	}
	if err := m.carts.Clear(cartID); err != nil {
		logger.Warnw("order_cart_clear_failed", "cart_id", cartID, "error", err)
	}
}

func buildOrder(sessionID string, draft *orderDraft) *models.Order {
	return &models.Order{
		CustomerName:      draft.FullName,
		CustomerFirstName: draft.FirstName,
		CustomerLastName:  draft.LastName,
		CustomerPhone:     draft.Phone,
		CustomerEmail:     draft.Email,
		OrderType:         draft.OrderType,
		TimeChoice:        draft.TimeChoice,
		ScheduledTime:     draft.ScheduledTime,
		PaymentMethod:     draft.PaymentMethod,
		TipPercent:        draft.Quote.TipPercent,
		TipAmount:         models.NewMoney(draft.Quote.Tip),
		Comments:          draft.Comments,
		TotalAmount:       models.NewMoney(draft.Quote.Total),
		TaxAmount:         models.NewMoney(draft.Quote.Tax),
		Status:            constants.OrderStatusPending,
		StripeSessionID:   sessionID,
	}
}

// flattenOrderItems writes one row per line and one per addon at the parent quantity
func flattenOrderItems(orderID string, items []cart.Item) []models.OrderItem {
	rows := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.OrderItem{
			OrderID:      orderID,
			MenuItemID:   item.MenuItemID,
			MenuItemName: item.DisplayName(),
			Quantity:     item.Quantity,
			Price:        models.NewMoney(item.Price),
		})
		for _, addon := range item.SelectedAddons {
			rows = append(rows, models.OrderItem{
				OrderID:      orderID,
				MenuItemID:   item.MenuItemID + "-addon-" + addon.Name,
				MenuItemName: "+ " + addon.Name,
				Quantity:     item.Quantity,
				Price:        models.NewMoney(addon.Price),
			})
		}
	}
	return rows
}

// splitCustomerName prefers explicit names and derives the rest from the full name
func splitCustomerName(full, first, last string) (string, string) {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	parts := strings.Fields(full)
	if first == "" {
		if len(parts) > 0 {
			first = parts[0]
		} else {
			first = full
		}
	}
	if last == "" && len(parts) > 1 {
		last = strings.Join(parts[1:], " ")
	}
	return first, last
}

func parseDecimal(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}
