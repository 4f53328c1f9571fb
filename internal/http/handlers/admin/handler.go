package admin

import "github.com/denver-kabob/internal/provider"

// Handler serves the kitchen dashboard API
type Handler struct {
	*provider.Container
}

// New creates the admin handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
