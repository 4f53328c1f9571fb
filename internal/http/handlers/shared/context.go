package shared

import (
	"github.com/denver-kabob/internal/service"

	"github.com/gin-gonic/gin"
)

// ContextKeyAdminClaims is where the admin middleware stores verified claims
const ContextKeyAdminClaims = "admin_claims"

// AdminClaims reads the claims set by the admin middleware
func AdminClaims(c *gin.Context) (*service.JWTClaims, bool) {
	value, ok := c.Get(ContextKeyAdminClaims)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*service.JWTClaims)
	return claims, ok && claims != nil
}

// RequestHeaders flattens the request headers to their first value
func RequestHeaders(c *gin.Context) map[string]string {
	headers := make(map[string]string, len(c.Request.Header))
	for key, values := range c.Request.Header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}
	return headers
}
