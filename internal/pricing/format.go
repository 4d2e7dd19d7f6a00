package pricing

import "github.com/shopspring/decimal"

// CurrencyMark is appended to every formatted amount.
const CurrencyMark = "₴"

// NoDiscount is shown in place of a discount that does not apply or is zero.
const NoDiscount = "-"

// FormatMoney rounds half away from zero to whole units and appends mark.
// This is the only place amounts are rounded.
func FormatMoney(d decimal.Decimal, mark string) string {
	return d.StringFixed(0) + " " + mark
}

// FormatQuantity prints q with two decimals followed by the unit, if any.
func FormatQuantity(q decimal.Decimal, unit string) string {
	if unit == "" {
		return q.StringFixed(2)
	}
	return q.StringFixed(2) + " " + unit
}

// Describe renders the discount as "-X mark/unit" or "X%".
func (d Discount) Describe(mark, unit string) string {
	if d.Kind == DiscountNone || d.Value.IsZero() {
		return NoDiscount
	}
	v := d.Value.Round(2).String()
	if d.Kind == DiscountPercent {
		return v + "%"
	}
	if unit == "" {
		return "-" + v + " " + mark
	}
	return "-" + v + " " + mark + "/" + unit
}
