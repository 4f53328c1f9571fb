package service

import (
	"time"

	"github.com/denver-kabob/internal/config"
)

const (
	defaultSlotInterval = 15 * time.Minute
	defaultSlotCount    = 12
)

// TimeSlot is one pickup or delivery time the customer can schedule
type TimeSlot struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// StoreConfig is what the storefront needs before checkout
type StoreConfig struct {
	TaxRate              string `json:"tax_rate"`
	Currency             string `json:"currency"`
	StripePublishableKey string `json:"stripe_publishable_key"`
	PaymentsEnabled      bool   `json:"payments_enabled"`
	CommentsMaxLength    int    `json:"comments_max_length"`
	SlotIntervalMinutes  int    `json:"time_slot_interval_minutes"`
	SlotCount            int    `json:"time_slot_count"`
}

// PublishableGateway exposes the browser-safe processor settings
type PublishableGateway interface {
	Configured() bool
	Currency() string
	PublishableKey() string
}

// BuildStoreConfig assembles the public storefront settings
func BuildStoreConfig(cfg *config.Config, gateway PublishableGateway) StoreConfig {
	interval, count := slotSettings(cfg)
	out := StoreConfig{
		TaxRate:             checkoutRules(cfg).TaxRate.String(),
		Currency:            "usd",
		CommentsMaxLength:   checkoutRules(cfg).CommentsMax,
		SlotIntervalMinutes: int(interval / time.Minute),
		SlotCount:           count,
	}
	if out.CommentsMaxLength <= 0 {
		out.CommentsMaxLength = defaultCommentsMaxChars
	}
	if gateway != nil {
		out.Currency = gateway.Currency()
		out.StripePublishableKey = gateway.PublishableKey()
		out.PaymentsEnabled = gateway.Configured()
	}
	return out
}

// UpcomingTimeSlots lists slots starting at the first interval boundary after now
func UpcomingTimeSlots(cfg *config.Config, now time.Time) []TimeSlot {
	interval, count := slotSettings(cfg)
	return TimeSlots(now, interval, count)
}

// TimeSlots steps from the next boundary of interval, counted from local midnight
func TimeSlots(now time.Time, interval time.Duration, count int) []TimeSlot {
	if interval <= 0 || count <= 0 {
		return []TimeSlot{}
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	elapsed := now.Sub(midnight)
	steps := elapsed/interval + 1
	start := midnight.Add(steps * interval)

	slots := make([]TimeSlot, 0, count)
	for i := 0; i < count; i++ {
		at := start.Add(time.Duration(i) * interval)
		slots = append(slots, TimeSlot{
			Label: at.Format("3:04 PM"),
			Value: at.Format(time.RFC3339),
		})
	}
	return slots
}

func slotSettings(cfg *config.Config) (time.Duration, int) {
	interval, count := defaultSlotInterval, defaultSlotCount
	if cfg == nil {
		return interval, count
	}
	if cfg.Checkout.TimeSlotIntervalMinutes > 0 {
		interval = time.Duration(cfg.Checkout.TimeSlotIntervalMinutes) * time.Minute
	}
	if cfg.Checkout.TimeSlotCount > 0 {
		count = cfg.Checkout.TimeSlotCount
	}
	return interval, count
}
