package public

import (
	"errors"
	"io"

	handlershared "github.com/denver-kabob/internal/http/handlers/shared"
	"github.com/denver-kabob/internal/http/response"
	"github.com/denver-kabob/internal/service"

	"github.com/gin-gonic/gin"
)

// StripeWebhook verifies and applies a Stripe event. Anything past the
// signature check is acknowledged so Stripe stops redelivering.
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "Invalid webhook body", nil)
		return
	}

	result, err := h.WebhookService.Handle(c.Request.Context(), handlershared.RequestHeaders(c), body)
	if err != nil {
		if errors.Is(err, service.ErrWebhookNotConfigured) {
			respondError(c, response.CodeInternal, err.Error(), err)
			return
		}
		respondError(c, response.CodeBadRequest, "Webhook Error: "+err.Error(), nil)
		return
	}

	log.Infow("stripe_webhook_accepted",
		"event_type", result.EventType,
		"order_id", result.OrderID,
		"duplicate", result.Duplicate,
		"queued", result.Queued,
	)
	response.SuccessWithMsg(c, "received", gin.H{
		"received":   true,
		"event_type": result.EventType,
		"order_id":   result.OrderID,
		"duplicate":  result.Duplicate,
	})
}
