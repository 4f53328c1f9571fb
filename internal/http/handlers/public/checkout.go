package public

import (
	"errors"
	"strings"

	"github.com/denver-kabob/internal/cart"
	"github.com/denver-kabob/internal/http/response"
	"github.com/denver-kabob/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutSessionRequest carries either the items or a stored cart id
type CheckoutSessionRequest struct {
	CartID       string                `json:"cart_id"`
	Items        []CartItemRequest     `json:"items"`
	CustomerInfo *service.CustomerInfo `json:"customer_info"`
	OrderDetails service.OrderDetails  `json:"order_details"`
}

func toCartItems(reqs []CartItemRequest) []cart.Item {
	if len(reqs) == 0 {
		return nil
	}
	items := make([]cart.Item, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, r.toItem())
	}
	return items
}

// CreateCheckoutSession prices the cart server-side and opens a hosted payment page
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req CheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Invalid checkout request", nil)
		return
	}

	result, err := h.CheckoutService.CreateSession(c.Request.Context(), service.CheckoutInput{
		CartID:   req.CartID,
		Items:    toCartItems(req.Items),
		Customer: req.CustomerInfo,
		Details:  req.OrderDetails,
		Origin:   requestOrigin(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotConfigured):
			respondError(c, response.CodeInternal, err.Error(), err)
		case errors.Is(err, service.ErrCheckoutFailed):
			respondError(c, response.CodeInternal, service.CheckoutMessage(err), err)
		default:
			respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, service.ErrCheckoutFailed.Error())
		}
		return
	}

	requestLog(c).Infow("checkout_session_created",
		"session_id", result.SessionID,
		"total", result.Quote.Total.StringFixed(2),
	)
	response.Success(c, gin.H{
		"session_id": result.SessionID,
		"url":        result.URL,
	})
}

// requestOrigin picks the redirect origin from Origin, then Referer, then the host
func requestOrigin(c *gin.Context) string {
	if origin := strings.TrimSpace(c.GetHeader("Origin")); origin != "" && origin != "null" {
		return strings.TrimRight(origin, "/")
	}
	if origin := service.OriginFromURL(c.GetHeader("Referer")); origin != "" {
		return origin
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
