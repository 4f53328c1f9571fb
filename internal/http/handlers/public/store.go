package public

import (
	"time"

	"github.com/denver-kabob/internal/http/response"
	"github.com/denver-kabob/internal/service"

	"github.com/gin-gonic/gin"
)

// GetConfig returns the storefront settings the browser needs before checkout
func (h *Handler) GetConfig(c *gin.Context) {
	response.Success(c, service.BuildStoreConfig(h.Config, h.StripeClient))
}

// GetTimeSlots lists upcoming pickup and delivery slots
func (h *Handler) GetTimeSlots(c *gin.Context) {
	response.Success(c, gin.H{
		"slots": service.UpcomingTimeSlots(h.Config, time.Now()),
	})
}
