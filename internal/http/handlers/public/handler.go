package public

import "github.com/denver-kabob/internal/provider"

// Handler serves the storefront API: carts, checkout, webhook and order lookup
type Handler struct {
	*provider.Container
}

// New creates the storefront handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
