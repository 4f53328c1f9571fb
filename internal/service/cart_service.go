package service

import (
	"strings"
	"time"

	"github.com/denver-kabob/internal/cart"
	"github.com/denver-kabob/internal/config"
	"github.com/denver-kabob/internal/logger"
	"github.com/denver-kabob/internal/pricing"
	"github.com/denver-kabob/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewCartKeyword asks the API to issue a fresh cart id
const NewCartKeyword = "new"

const defaultCartRetention = 7 * 24 * time.Hour

// CartService server-side carts with a live price quote
type CartService struct {
	cfg      *config.Config
	store    *cart.Store
	cartRepo repository.CartRepository
}

// NewCartService builds the cart service
func NewCartService(cfg *config.Config, store *cart.Store, cartRepo repository.CartRepository) *CartService {
	return &CartService{cfg: cfg, store: store, cartRepo: cartRepo}
}

// CartView is a cart plus its current totals
type CartView struct {
	CartID    string            `json:"cart_id"`
	Items     []cart.Item       `json:"items"`
	ItemCount int               `json:"item_count"`
	Quote     pricing.Breakdown `json:"quote"`
}

// ResolveCartID issues a uuid for "new" and passes anything else through
func ResolveCartID(cartID string) string {
	cartID = strings.TrimSpace(cartID)
	if strings.EqualFold(cartID, NewCartKeyword) {
		return uuid.NewString()
	}
	return cartID
}

// Get returns the cart quoted at tipPercent
func (s *CartService) Get(cartID string, tipPercent decimal.Decimal) (*CartView, error) {
	items, err := s.store.Get(cartID)
	if err != nil {
		return nil, err
	}
	return s.view(cartID, items, tipPercent), nil
}

// AddItem merges item into the cart
func (s *CartService) AddItem(cartID string, item cart.Item) (*CartView, error) {
	items, err := s.store.Add(cartID, item)
	if err != nil {
		return nil, err
	}
	return s.view(cartID, items, decimal.Zero), nil
}

// UpdateQuantity sets a line quantity, zero or less removes it
func (s *CartService) UpdateQuantity(cartID, lineID string, quantity int) (*CartView, error) {
	items, err := s.store.UpdateQuantity(cartID, lineID, quantity)
	if err != nil {
		return nil, err
	}
	return s.view(cartID, items, decimal.Zero), nil
}

// ReplaceItem swaps an edited line in
func (s *CartService) ReplaceItem(cartID, lineID string, item cart.Item, quantity int) (*CartView, error) {
	items, err := s.store.Replace(cartID, lineID, item, quantity)
	if err != nil {
		return nil, err
	}
	return s.view(cartID, items, decimal.Zero), nil
}

// RemoveItem drops a line
func (s *CartService) RemoveItem(cartID, lineID string) (*CartView, error) {
	items, err := s.store.Remove(cartID, lineID)
	if err != nil {
		return nil, err
	}
	return s.view(cartID, items, decimal.Zero), nil
}

// Clear empties the cart
func (s *CartService) Clear(cartID string) error {
	return s.store.Clear(cartID)
}

// PurgeStale deletes carts untouched for the retention period
func (s *CartService) PurgeStale(now time.Time) (int64, error) {
	if s.cartRepo == nil {
		return 0, nil
	}
	retention := defaultCartRetention
	if s.cfg != nil && s.cfg.Cart.RetentionDays > 0 {
		retention = time.Duration(s.cfg.Cart.RetentionDays) * 24 * time.Hour
	}
	removed, err := s.cartRepo.DeleteStaleBefore(now.Add(-retention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.Infow("cart_purge_done", "removed", removed)
	}
	return removed, nil
}

func (s *CartService) view(cartID string, items []cart.Item, tipPercent decimal.Decimal) *CartView {
	if items == nil {
		items = []cart.Item{}
	}
	return &CartView{
		CartID:    cartID,
		Items:     items,
		ItemCount: cart.Count(items),
		Quote:     pricing.Quote(cart.PricingLines(items), pricing.TipInput{Percent: tipPercent}, checkoutRules(s.cfg).TaxRate),
	}
}
