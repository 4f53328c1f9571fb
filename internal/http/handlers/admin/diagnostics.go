package admin

import (
	"github.com/denver-kabob/internal/http/response"

	"github.com/gin-gonic/gin"
)

// Diagnostics reports database, schema and integration health
func (h *Handler) Diagnostics(c *gin.Context) {
	response.Success(c, h.DiagnosticsService.Run(c.Request.Context()))
}
