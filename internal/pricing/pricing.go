package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	// DefaultTaxRate applies when no rate is configured
	DefaultTaxRate = decimal.RequireFromString("0.08")

	hundred = decimal.NewFromInt(100)
)

// Addon is an optional extra on a line, priced per unit of the parent
type Addon struct {
	Name  string
	Price decimal.Decimal
}

// Line is the pricing view of one cart line
type Line struct {
	Price    decimal.Decimal
	Quantity int
	Addons   []Addon
}

// UnitPrice is the line price plus every addon price
func (l Line) UnitPrice() decimal.Decimal {
	unit := l.Price
	for _, a := range l.Addons {
		unit = unit.Add(a.Price)
	}
	return unit
}

// Extended is UnitPrice times quantity
func (l Line) Extended() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// TipInput carries the two ways a customer can tip
type TipInput struct {
	Percent decimal.Decimal
	// Amount, when positive, overrides Percent
	Amount *decimal.Decimal
}

// Breakdown is a fully rounded price quote
type Breakdown struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	TipPercent decimal.Decimal `json:"tip_percent"`
	Tip        decimal.Decimal `json:"tip"`
	Total      decimal.Decimal `json:"total"`
}

// Fixed renders the money fields as 2-decimal strings keyed like checkout metadata
func (b Breakdown) Fixed() map[string]string {
	return map[string]string{
		"subtotal":    b.Subtotal.StringFixed(2),
		"tax":         b.Tax.StringFixed(2),
		"tip_percent": b.TipPercent.StringFixed(2),
		"tip_amount":  b.Tip.StringFixed(2),
		"total":       b.Total.StringFixed(2),
	}
}

// Round2 rounds half away from zero to cents
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Subtotal sums the extended price of each line. Lines with a non-positive
// quantity contribute nothing.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		total = total.Add(l.Extended())
	}
	return Round2(total)
}

// Tax is subtotal * rate rounded to cents
func Tax(subtotal, rate decimal.Decimal) decimal.Decimal {
	return Round2(subtotal.Mul(rate))
}

// ClampTipPercent limits the percent to [0, 100]
func ClampTipPercent(percent decimal.Decimal) decimal.Decimal {
	if percent.IsNegative() {
		return decimal.Zero
	}
	if percent.GreaterThan(hundred) {
		return hundred
	}
	return percent
}

// TipAmount is subtotal * clamp(percent)/100 rounded to cents
func TipAmount(subtotal, percent decimal.Decimal) decimal.Decimal {
	return Round2(subtotal.Mul(ClampTipPercent(percent)).Div(hundred))
}

// ResolveTip returns the tip to charge and the percent to record
func ResolveTip(subtotal decimal.Decimal, in TipInput) (tip, percent decimal.Decimal) {
	percent = ClampTipPercent(in.Percent)
	if in.Amount != nil && in.Amount.IsPositive() {
		return Round2(*in.Amount), percent
	}
	return TipAmount(subtotal, percent), percent
}

// Total sums already rounded components
func Total(subtotal, tax, tip decimal.Decimal) decimal.Decimal {
	return Round2(subtotal.Add(tax).Add(tip))
}

// Quote prices lines end to end. Each component is rounded before the sum so
// the parts always add up to the total.
func Quote(lines []Line, tip TipInput, rate decimal.Decimal) Breakdown {
	subtotal := Subtotal(lines)
	tax := Tax(subtotal, rate)
	tipAmount, percent := ResolveTip(subtotal, tip)
	return Breakdown{
		Subtotal:   subtotal,
		Tax:        tax,
		TipPercent: percent,
		Tip:        tipAmount,
		Total:      Total(subtotal, tax, tipAmount),
	}
}
