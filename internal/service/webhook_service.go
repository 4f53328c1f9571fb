package service

import (
	"context"
	"errors"
	"time"

	"github.com/denver-kabob/internal/constants"
	"github.com/denver-kabob/internal/logger"
	"github.com/denver-kabob/internal/payment/stripe"
)

// first worker attempt after an inline failure
const webhookRetryDelay = 10 * time.Second

// WebhookVerifier checks and decodes signed processor events
type WebhookVerifier interface {
	WebhookConfigured() bool
	VerifyWebhook(headers map[string]string, body []byte, now time.Time) (*stripe.Event, error)
}

// WebhookService acknowledges processor events and materializes paid sessions
type WebhookService struct {
	verifier     WebhookVerifier
	materializer *OrderMaterializer
}

// NewWebhookService builds the webhook service
func NewWebhookService(verifier WebhookVerifier, materializer *OrderMaterializer) *WebhookService {
	return &WebhookService{verifier: verifier, materializer: materializer}
}

// WebhookResult describes what happened to one event
type WebhookResult struct {
	EventType string `json:"event_type"`
	OrderID   string `json:"order_id,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Queued    bool   `json:"queued,omitempty"`
}

// Handle returns an error only for configuration and signature problems.
// Processing failures are logged and acknowledged so the processor does not
// retry events that cannot succeed; retryable ones go to the queue.
func (s *WebhookService) Handle(ctx context.Context, headers map[string]string, body []byte) (*WebhookResult, error) {
	if s.verifier == nil || !s.verifier.WebhookConfigured() {
		return nil, ErrWebhookNotConfigured
	}
	event, err := s.verifier.VerifyWebhook(headers, body, time.Now())
	if err != nil {
		if errors.Is(err, stripe.ErrNotConfigured) {
			return nil, ErrWebhookNotConfigured
		}
		logger.Warnw("stripe_webhook_signature_invalid", "error", err)
		return nil, err
	}

	result := &WebhookResult{EventType: event.Type}
	switch event.Type {
	case constants.StripeEventCheckoutSessionCompleted, constants.StripeEventCheckoutSessionAsyncPaymentSucceeded:
	default:
		logger.Debugw("stripe_webhook_ignored", "event_id", event.ID, "event_type", event.Type)
		return result, nil
	}
	session := event.Session
	if session == nil || session.ID == "" {
		logger.Warnw("stripe_webhook_session_missing", "event_id", event.ID)
		return result, nil
	}
	if !session.Paid() {
		// async methods complete later with async_payment_succeeded
		logger.Infow("stripe_webhook_session_unpaid", "session_id", session.ID, "payment_status", session.PaymentStatus)
		return result, nil
	}

	in, err := s.materializer.FromCheckoutMetadata(session.ID, session.Metadata)
	if err != nil {
		logger.Errorw("stripe_webhook_metadata_invalid", "session_id", session.ID, "error", err)
		return result, nil
	}
	order, created, err := s.materializer.Materialize(ctx, in)
	if err != nil {
		queued, qErr := s.materializer.ScheduleRetry(session.ID, session.Metadata, webhookRetryDelay)
		if qErr != nil {
			logger.Errorw("stripe_webhook_retry_enqueue_failed", "session_id", session.ID, "error", qErr)
		}
		logger.Errorw("stripe_webhook_materialize_failed", "session_id", session.ID, "queued", queued, "error", err)
		result.Queued = queued
		return result, nil
	}
	result.OrderID = order.ID
	result.Duplicate = !created
	return result, nil
}
