package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/denver-kabob/internal/cart"
	"github.com/denver-kabob/internal/payment/stripe"

	"github.com/shopspring/decimal"
)

// Session metadata keys written at checkout and read back by the webhook
const (
	metaCustomerName      = "customer_name"
	metaCustomerFirstName = "customer_first_name"
	metaCustomerLastName  = "customer_last_name"
	metaCustomerPhone     = "customer_phone"
	metaCustomerEmail     = "customer_email"
	metaOrderType         = "order_type"
	metaTimeChoice        = "time_choice"
	metaScheduledTime     = "scheduled_time"
	metaPaymentMethod     = "payment_method"
	metaTipPercent        = "tip_percent"
	metaTipAmount         = "tip_amount"
	metaComments          = "comments"
	metaSubtotal          = "subtotal"
	metaTax               = "tax"
	metaTotal             = "total"
	metaCartID            = "cart_id"
	metaItems             = "items"
	metaItemsParts        = "items_parts"
	metaItemsPartPrefix   = "items_"
)

// keys left for item chunks after the fixed keys
const maxItemParts = stripe.MetadataKeyLimit - 20

// metadataItem is the compact cart line ferried through the session
type metadataItem struct {
	MenuItemID string          `json:"i"`
	Name       string          `json:"n"`
	Price      decimal.Decimal `json:"p"`
	Quantity   int             `json:"q"`
	Options    []string        `json:"o,omitempty"`
	Addons     []metadataAddon `json:"a,omitempty"`
}

type metadataAddon struct {
	Name  string          `json:"n"`
	Price decimal.Decimal `json:"p"`
}

// sessionMetadata renders a draft into processor metadata
func sessionMetadata(draft *orderDraft) (map[string]string, error) {
	md := map[string]string{
		metaCustomerName:      draft.FullName,
		metaCustomerFirstName: draft.FirstName,
		metaCustomerLastName:  draft.LastName,
		metaCustomerPhone:     draft.Phone,
		metaCustomerEmail:     draft.Email,
		metaOrderType:         draft.OrderType,
		metaTimeChoice:        draft.TimeChoice,
		metaPaymentMethod:     draft.PaymentMethod,
		metaComments:          draft.Comments,
	}
	if draft.ScheduledTime != nil {
		md[metaScheduledTime] = draft.ScheduledTime.UTC().Format(time.RFC3339)
	}
	if draft.CartID != "" {
		md[metaCartID] = draft.CartID
	}
	for k, v := range draft.Quote.Fixed() {
		md[k] = v
	}
	if err := putItems(md, draft.Items); err != nil {
		return nil, err
	}
	return md, nil
}

// putItems stores the cart as one value, or as items_0..n when it exceeds the value limit
func putItems(md map[string]string, items []cart.Item) error {
	compact := make([]metadataItem, 0, len(items))
	for _, item := range items {
		entry := metadataItem{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Price:      item.Price,
			Quantity:   item.Quantity,
			Options:    item.SelectedOptions,
		}
		for _, addon := range item.SelectedAddons {
			entry.Addons = append(entry.Addons, metadataAddon{Name: addon.Name, Price: addon.Price})
		}
		compact = append(compact, entry)
	}
	raw, err := json.Marshal(compact)
	if err != nil {
		return err
	}
	runes := []rune(string(raw))
	if len(runes) <= stripe.MetadataValueLimit {
		md[metaItems] = string(raw)
		return nil
	}
	parts := 0
	for start := 0; start < len(runes); start += stripe.MetadataValueLimit {
		end := start + stripe.MetadataValueLimit
		if end > len(runes) {
			end = len(runes)
		}
		md[metaItemsPartPrefix+strconv.Itoa(parts)] = string(runes[start:end])
		parts++
	}
	if parts > maxItemParts {
		return ErrCartTooLarge
	}
	md[metaItemsParts] = strconv.Itoa(parts)
	return nil
}

// itemsFromMetadata reassembles the cart written by putItems
func itemsFromMetadata(md map[string]string) ([]cart.Item, error) {
	raw := strings.TrimSpace(md[metaItems])
	if partsRaw := strings.TrimSpace(md[metaItemsParts]); partsRaw != "" {
		parts, err := strconv.Atoi(partsRaw)
		if err != nil || parts <= 0 || parts > maxItemParts {
			return nil, ErrMetadataMissing
		}
		var b strings.Builder
		for i := 0; i < parts; i++ {
			chunk, ok := md[metaItemsPartPrefix+strconv.Itoa(i)]
			if !ok {
				return nil, ErrMetadataMissing
			}
			b.WriteString(chunk)
		}
		raw = b.String()
	}
	if raw == "" {
		return nil, ErrMetadataMissing
	}
	var compact []metadataItem
	if err := json.Unmarshal([]byte(raw), &compact); err != nil {
		return nil, fmt.Errorf("%w: items: %v", ErrMetadataMissing, err)
	}
	items := make([]cart.Item, 0, len(compact))
	for _, entry := range compact {
		item := cart.Item{
			MenuItemID:      entry.MenuItemID,
			Name:            entry.Name,
			Price:           entry.Price,
			Quantity:        entry.Quantity,
			SelectedOptions: entry.Options,
		}
		for _, addon := range entry.Addons {
			item.SelectedAddons = append(item.SelectedAddons, cart.Addon{Name: addon.Name, Price: addon.Price})
		}
		items = append(items, item.Normalize())
	}
	if len(items) == 0 {
		return nil, ErrMetadataMissing
	}
	return items, nil
}
