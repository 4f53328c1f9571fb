package public

import (
	"strings"

	"github.com/denver-kabob/internal/http/response"
	"github.com/denver-kabob/internal/service"

	"github.com/gin-gonic/gin"
)

// EnsureOrderRequest is the confirmation page's fallback payload
type EnsureOrderRequest struct {
	SessionID    string                `json:"session_id"`
	CartID       string                `json:"cart_id"`
	CartItems    []CartItemRequest     `json:"cart_items"`
	CustomerInfo *service.CustomerInfo `json:"customer_info"`
	OrderDetails service.OrderDetails  `json:"order_details"`
}

// EnsureOrder returns the order for a paid session, creating it if the webhook
// has not arrived yet
func (h *Handler) EnsureOrder(c *gin.Context) {
	var req EnsureOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Invalid order request", nil)
		return
	}

	order, created, err := h.OrderMaterializer.EnsureOrder(c.Request.Context(), service.FallbackRequest{
		SessionID: req.SessionID,
		CartID:    req.CartID,
		Items:     toCartItems(req.CartItems),
		Customer:  req.CustomerInfo,
		Details:   req.OrderDetails,
	})
	if err != nil {
		respondWithMappedError(c, err, ensureOrderErrorRules, response.CodeInternal, service.ErrOrderPersistFailed.Error())
		return
	}

	if created {
		requestLog(c).Infow("order_ensure_created", "order_id", order.ID, "session_id", order.StripeSessionID)
		response.SuccessWithMsg(c, "Order created successfully", order)
		return
	}
	response.SuccessWithMsg(c, "Order already exists", order)
}

// LookupOrders finds recent orders by phone digits or exact order id
func (h *Handler) LookupOrders(c *gin.Context) {
	orders, err := h.OrderQueryService.Lookup(c.Query("phone"), c.Query("order_id"))
	if err != nil {
		respondWithMappedError(c, err, lookupErrorRules, response.CodeInternal, "Failed to look up orders")
		return
	}
	response.Success(c, gin.H{"orders": orders})
}

// GetOrderBySession is polled by the confirmation page
func (h *Handler) GetOrderBySession(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("session_id"))
	if sessionID == "" {
		respondError(c, response.CodeBadRequest, service.ErrSessionIDRequired.Error(), nil)
		return
	}
	order, err := h.OrderQueryService.GetBySession(sessionID)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{Target: service.ErrOrderNotFound, Code: response.CodeNotFound},
		}, response.CodeInternal, "Failed to load order")
		return
	}
	response.Success(c, order)
}
