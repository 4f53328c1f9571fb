package admin

import (
	"strconv"
	"strings"

	"github.com/denver-kabob/internal/constants"
	handlershared "github.com/denver-kabob/internal/http/handlers/shared"
	"github.com/denver-kabob/internal/http/response"
	"github.com/denver-kabob/internal/realtime"
	"github.com/denver-kabob/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateOrderStatusRequest moves an order along the kitchen flow
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListOrders lists orders newest first, optionally filtered by status
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderQueryService.ListOrders(service.OrderListInput{
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondWithMappedError(c, err, orderStatusErrorRules, response.CodeInternal, "Failed to fetch orders")
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// GetOrder returns one order with its items
func (h *Handler) GetOrder(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "Order ID is required", nil)
		return
	}
	order, err := h.OrderQueryService.GetOrder(id)
	if err != nil {
		respondWithMappedError(c, err, orderStatusErrorRules, response.CodeInternal, "Failed to fetch order")
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatus advances an order by one step
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, service.ErrStatusInvalid.Error(), nil)
		return
	}
	order, err := h.OrderStatusService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondWithMappedError(c, err, orderStatusErrorRules, response.CodeInternal, "Failed to update order status")
		return
	}
	response.SuccessWithMsg(c, "Order status updated", order)
}

// OrdersSocket streams order events to the kitchen dashboard. Browsers cannot
// set headers on a websocket upgrade, so the token rides in the query.
func (h *Handler) OrdersSocket(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		respondError(c, response.CodeUnauthorized, "Unauthorized", nil)
		return
	}
	if _, err := h.AuthService.Authenticate(c.Request.Context(), token); err != nil {
		respondError(c, response.CodeUnauthorized, service.ErrTokenInvalid.Error(), nil)
		return
	}
	realtime.Serve(h.RealtimeHub, constants.TopicAdminOrders, c.Writer, c.Request)
}
