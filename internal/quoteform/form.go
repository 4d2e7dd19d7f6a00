package quoteform

import (
	"net/url"
	"strings"
)

// Ring prefixes used by the manager form field names.
const (
	PrefixWoman = "w_"
	PrefixMan   = "m_"
)

// Photo upload field names, in document order.
var PhotoFields = []string{PrefixWoman + "photo", PrefixMan + "photo"}

// FromValues reads both rings from submitted form values. Optional
// sections are only read when their checkbox is ticked.
func FromValues(form url.Values) QuoteInput {
	return QuoteInput{
		Woman: ringFromValues(form, PrefixWoman),
		Man:   ringFromValues(form, PrefixMan),
	}
}

func ringFromValues(form url.Values, prefix string) RingInput {
	get := func(name string) string { return strings.TrimSpace(form.Get(prefix + name)) }
	on := func(name string) bool { return checked(form.Get(prefix + name)) }

	in := RingInput{
		Size:                get("size"),
		Width:               get("width"),
		Thickness:           get("thickness"),
		Metal:               get("metal"),
		Weight:              get("weight"),
		MetalDiscount:       get("metal_discount"),
		Workmanship:         get("workmanship"),
		WorkmanshipDiscount: get("workmanship_discount"),
	}
	if on("stones_on") {
		in.Stones = &StoneInput{Type: get("stone_type"), Size: get("stone_size"), Quantity: get("stone_qty")}
	}
	if on("profile_on") {
		in.Profile = &OptionInput{Name: get("profile"), Discount: get("profile_discount")}
	}
	if on("engraving_on") {
		in.Engraving = &OptionInput{Name: get("engraving"), Discount: get("engraving_discount")}
	}
	if on("coating_on") {
		in.Coating = &OptionInput{Name: get("coating")}
	}
	if on("color_on") {
		amount := get("color")
		in.ColorCombination = &amount
	}
	return in
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}
