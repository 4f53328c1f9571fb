package cart

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/denver-kabob/internal/pricing"

	"github.com/shopspring/decimal"
)

// Addon is a priced extra on a cart line
type Addon struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Item is one cart line
type Item struct {
	ID              string          `json:"id"` // composite identity, see LineID
	MenuItemID      string          `json:"menu_item_id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	Image           string          `json:"image,omitempty"`
	SelectedOptions []string        `json:"selected_options,omitempty"`
	SelectedAddons  []Addon         `json:"selected_addons,omitempty"`
}

// LineID joins the base id with the sorted option labels and sorted addon names.
// Two selections with the same customization in any order share one id.
func LineID(menuItemID string, options []string, addons []Addon) string {
	opts := make([]string, 0, len(options))
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	names := make([]string, 0, len(addons))
	for _, a := range addons {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(opts)
	sort.Strings(names)
	return strings.TrimSpace(menuItemID) + "-" + strings.Join(opts, "|") + "-" + strings.Join(names, "|")
}

// Normalize trims and sorts the selections and recomputes the line id
func (i Item) Normalize() Item {
	i.MenuItemID = strings.TrimSpace(i.MenuItemID)
	i.Name = strings.TrimSpace(i.Name)
	i.Image = strings.TrimSpace(i.Image)

	opts := make([]string, 0, len(i.SelectedOptions))
	for _, o := range i.SelectedOptions {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	sort.Strings(opts)
	i.SelectedOptions = opts

	addons := make([]Addon, 0, len(i.SelectedAddons))
	for _, a := range i.SelectedAddons {
		a.Name = strings.TrimSpace(a.Name)
		if a.Name != "" {
			addons = append(addons, a)
		}
	}
	sort.SliceStable(addons, func(x, y int) bool { return addons[x].Name < addons[y].Name })
	i.SelectedAddons = addons

	i.ID = LineID(i.MenuItemID, i.SelectedOptions, i.SelectedAddons)
	return i
}

// DisplayName appends selected options, e.g. "Kabob Plate (Beef, Spicy)"
func (i Item) DisplayName() string {
	if len(i.SelectedOptions) == 0 {
		return i.Name
	}
	return i.Name + " (" + strings.Join(i.SelectedOptions, ", ") + ")"
}

// PricingLine converts to the pricing view
func (i Item) PricingLine() pricing.Line {
	addons := make([]pricing.Addon, 0, len(i.SelectedAddons))
	for _, a := range i.SelectedAddons {
		addons = append(addons, pricing.Addon{Name: a.Name, Price: a.Price})
	}
	return pricing.Line{Price: i.Price, Quantity: i.Quantity, Addons: addons}
}

// PricingLines converts a whole cart
func PricingLines(items []Item) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, item.PricingLine())
	}
	return lines
}

// Count sums quantities
func Count(items []Item) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// Subtotal prices a cart through the pricing engine
func Subtotal(items []Item) decimal.Decimal {
	return pricing.Subtotal(PricingLines(items))
}

// Encode serializes the collection
func Encode(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

// Decode parses a stored collection. ok is false when the data is corrupt.
func Decode(data []byte) (items []Item, ok bool) {
	if len(data) == 0 {
		return []Item{}, true
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return []Item{}, false
	}
	valid := items[:0]
	for _, item := range items {
		if item.ID == "" || item.Quantity <= 0 {
			continue
		}
		valid = append(valid, item)
	}
	return valid, true
}
