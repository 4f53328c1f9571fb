package public

import (
	"strings"

	"github.com/denver-kabob/internal/cart"
	"github.com/denver-kabob/internal/constants"
	"github.com/denver-kabob/internal/http/response"
	"github.com/denver-kabob/internal/realtime"
	"github.com/denver-kabob/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CartItemRequest is a menu selection sent by the storefront.
// Older clients send the menu item id as "id".
type CartItemRequest struct {
	MenuItemID      string          `json:"menu_item_id"`
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"` // checkout lines only, adding to a stored cart counts one
	Image           string          `json:"image"`
	SelectedOptions []string        `json:"selected_options"`
	SelectedAddons  []cart.Addon    `json:"selected_addons"`
}

func (r CartItemRequest) toItem() cart.Item {
	menuItemID := strings.TrimSpace(r.MenuItemID)
	if menuItemID == "" {
		menuItemID = strings.TrimSpace(r.ID)
	}
	return cart.Item{
		MenuItemID:      menuItemID,
		Name:            r.Name,
		Price:           r.Price,
		Quantity:        r.Quantity,
		Image:           r.Image,
		SelectedOptions: r.SelectedOptions,
		SelectedAddons:  r.SelectedAddons,
	}
}

// UpdateQuantityRequest sets a line quantity, zero or less removes it
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// ReplaceCartItemRequest swaps a line for an edited selection
type ReplaceCartItemRequest struct {
	Item     CartItemRequest `json:"item" binding:"required"`
	Quantity int             `json:"quantity"`
}

// GetCart returns the cart, quoted at ?tip_percent= when given
func (h *Handler) GetCart(c *gin.Context) {
	tipPercent := decimal.Zero
	if raw := strings.TrimSpace(c.Query("tip_percent")); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "Invalid tip percent", nil)
			return
		}
		tipPercent = parsed
	}
	view, err := h.CartService.Get(c.Param("cart_id"), tipPercent)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "Failed to load cart")
		return
	}
	response.Success(c, view)
}

// AddCartItem merges a selection into the cart. The cart id "new" issues one.
func (h *Handler) AddCartItem(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, cart.ErrItemInvalid.Error(), nil)
		return
	}
	cartID := service.ResolveCartID(c.Param("cart_id"))
	view, err := h.CartService.AddItem(cartID, req.toItem())
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "Failed to update cart")
		return
	}
	response.Success(c, view)
}

// UpdateCartItemQuantity sets one line's quantity
func (h *Handler) UpdateCartItemQuantity(c *gin.Context) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Invalid quantity", nil)
		return
	}
	view, err := h.CartService.UpdateQuantity(c.Param("cart_id"), c.Param("line_id"), req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "Failed to update cart")
		return
	}
	response.Success(c, view)
}

// ReplaceCartItem replaces a line after the customer edits its options
func (h *Handler) ReplaceCartItem(c *gin.Context) {
	var req ReplaceCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, cart.ErrItemInvalid.Error(), nil)
		return
	}
	view, err := h.CartService.ReplaceItem(c.Param("cart_id"), c.Param("line_id"), req.Item.toItem(), req.Quantity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "Failed to update cart")
		return
	}
	response.Success(c, view)
}

// RemoveCartItem drops a line
func (h *Handler) RemoveCartItem(c *gin.Context) {
	view, err := h.CartService.RemoveItem(c.Param("cart_id"), c.Param("line_id"))
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "Failed to update cart")
		return
	}
	response.Success(c, view)
}

// ClearCart empties the cart
func (h *Handler) ClearCart(c *gin.Context) {
	cartID := c.Param("cart_id")
	if err := h.CartService.Clear(cartID); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "Failed to clear cart")
		return
	}
	response.SuccessWithMsg(c, "Cart cleared", gin.H{"cart_id": cartID})
}

// CartSocket streams cart_updated events for one cart
func (h *Handler) CartSocket(c *gin.Context) {
	cartID := c.Param("cart_id")
	if !cart.ValidCartID(cartID) {
		respondError(c, response.CodeBadRequest, cart.ErrCartIDInvalid.Error(), nil)
		return
	}
	realtime.Serve(h.RealtimeHub, constants.CartTopic(cartID), c.Writer, c.Request)
}
