package service

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/denver-kabob/internal/cart"
	"github.com/denver-kabob/internal/constants"
	"github.com/denver-kabob/internal/pricing"
	"github.com/denver-kabob/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	minPhoneDigits          = 10
	defaultCommentsMaxChars = 400
)

// CustomerInfo is captured at checkout and denormalized onto the order
type CustomerInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// OrderDetails tip, comments and fulfillment choices
type OrderDetails struct {
	TipPercent    decimal.Decimal  `json:"tip_percent"`
	TipAmount     *decimal.Decimal `json:"tip_amount,omitempty"` // wins over TipPercent when positive
	Comments      string           `json:"comments"`
	OrderType     string           `json:"order_type"`
	TimeChoice    string           `json:"time_choice"`
	ScheduledTime string           `json:"scheduled_time"`
	PaymentMethod string           `json:"payment_method"`
}

// orderDraft is a validated, priced order that has not been persisted
type orderDraft struct {
	CartID        string
	Items         []cart.Item
	FirstName     string
	LastName      string
	FullName      string
	Phone         string
	Email         string
	OrderType     string
	TimeChoice    string
	ScheduledTime *time.Time
	PaymentMethod string
	Comments      string
	Quote         pricing.Breakdown
}

type draftRules struct {
	TaxRate     decimal.Decimal
	CommentsMax int
}

// buildDraft validates client input in a fixed order and prices it
func buildDraft(items []cart.Item, customer *CustomerInfo, details OrderDetails, rules draftRules) (*orderDraft, error) {
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}
	if customer == nil {
		return nil, ErrCustomerInfoRequired
	}
	first := strings.TrimSpace(customer.FirstName)
	last := strings.TrimSpace(customer.LastName)
	if first == "" || last == "" {
		return nil, ErrCustomerNameRequired
	}
	phone := strings.TrimSpace(customer.Phone)
	if phone == "" {
		return nil, ErrCustomerPhoneRequired
	}
	if len(repository.DigitsOnly(phone)) < minPhoneDigits {
		return nil, ErrCustomerPhoneInvalid
	}
	email := strings.TrimSpace(customer.Email)
	if email != "" && !validEmail(email) {
		return nil, ErrCustomerEmailInvalid
	}

	lines, err := validateLines(items)
	if err != nil {
		return nil, err
	}

	draft := &orderDraft{
		Items:     lines,
		FirstName: first,
		LastName:  last,
		FullName:  strings.TrimSpace(first + " " + last),
		Phone:     phone,
		Email:     email,
		Comments:  capComments(details.Comments, rules.CommentsMax),
	}
	if err := applyFulfillment(draft, details); err != nil {
		return nil, err
	}

	draft.Quote = pricing.Quote(cart.PricingLines(lines), pricing.TipInput{
		Percent: details.TipPercent,
		Amount:  details.TipAmount,
	}, rules.TaxRate)
	if !draft.Quote.Total.IsPositive() {
		return nil, ErrOrderTotalInvalid
	}
	return draft, nil
}

func validateLines(items []cart.Item) ([]cart.Item, error) {
	lines := make([]cart.Item, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.MenuItemID) == "" {
			item.MenuItemID = item.ID
		}
		if strings.TrimSpace(item.MenuItemID) == "" || strings.TrimSpace(item.Name) == "" || item.Quantity == 0 {
			return nil, ErrItemInvalid
		}
		if item.Price.IsNegative() || item.Quantity < 1 {
			return nil, ErrItemPriceInvalid
		}
		for _, addon := range item.SelectedAddons {
			if strings.TrimSpace(addon.Name) == "" {
				return nil, ErrItemInvalid
			}
			if addon.Price.IsNegative() {
				return nil, ErrItemPriceInvalid
			}
		}
		lines = append(lines, item.Normalize())
	}
	return lines, nil
}

func applyFulfillment(draft *orderDraft, details OrderDetails) error {
	switch orderType := strings.ToLower(strings.TrimSpace(details.OrderType)); orderType {
	case "":
		draft.OrderType = constants.OrderTypePickup
	case constants.OrderTypePickup, constants.OrderTypeDelivery:
		draft.OrderType = orderType
	default:
		return ErrOrderTypeInvalid
	}

	switch choice := strings.ToLower(strings.TrimSpace(details.TimeChoice)); choice {
	case "", constants.TimeChoiceASAP:
		draft.TimeChoice = constants.TimeChoiceASAP
	case constants.TimeChoiceScheduled:
		raw := strings.TrimSpace(details.ScheduledTime)
		if raw == "" {
			return ErrScheduledTimeRequired
		}
		at, ok := parseScheduledTime(raw)
		if !ok {
			return ErrScheduledTimeInvalid
		}
		draft.TimeChoice = choice
		draft.ScheduledTime = &at
	default:
		return ErrTimeChoiceInvalid
	}

	draft.PaymentMethod = strings.ToLower(strings.TrimSpace(details.PaymentMethod))
	if draft.PaymentMethod == "" {
		draft.PaymentMethod = constants.PaymentMethodCard
	}
	return nil
}

var scheduledLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseScheduledTime accepts RFC3339 or a local datetime-local value
func parseScheduledTime(raw string) (time.Time, bool) {
	for _, layout := range scheduledLayouts {
		if at, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return at, true
		}
	}
	return time.Time{}, false
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// capComments trims and keeps at most max characters
func capComments(raw string, max int) string {
	if max <= 0 {
		max = defaultCommentsMaxChars
	}
	comments := strings.TrimSpace(raw)
	if utf8.RuneCountInString(comments) <= max {
		return comments
	}
	return strings.TrimSpace(string([]rune(comments)[:max]))
}
