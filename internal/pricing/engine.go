package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Units used on line items.
const (
	UnitGram   = "g"
	UnitPieces = "pcs"
)

// ColorCombinationLabel is the fixed item label of the color combination surcharge.
const ColorCombinationLabel = "additional service"

// LineKind identifies the priced component a line item stands for.
type LineKind string

const (
	KindMetal            LineKind = "metal"
	KindWorkmanship      LineKind = "workmanship"
	KindStones           LineKind = "stones"
	KindProfile          LineKind = "profile"
	KindEngraving        LineKind = "engraving"
	KindCoating          LineKind = "coating"
	KindColorCombination LineKind = "color_combination"
)

var categories = map[LineKind]string{
	KindMetal:            "Metal",
	KindWorkmanship:      "Workmanship",
	KindStones:           "Stones",
	KindProfile:          "Profile",
	KindEngraving:        "Engraving",
	KindCoating:          "Coating",
	KindColorCombination: "Color combination",
}

// Category returns the display category of the kind.
func (k LineKind) Category() string {
	return categories[k]
}

// Selection is a chosen row of a name-keyed flat price table.
type Selection struct {
	Name            string
	DiscountPercent decimal.Decimal
}

// StoneSelection is the chosen stone cell and how many stones are set.
type StoneSelection struct {
	Type     StoneType
	Size     StoneSize
	Quantity int
}

// RingConfig holds the options chosen for one ring. A nil optional section
// means the section is switched off and produces no line item. Ranges are
// validated by the caller.
type RingConfig struct {
	Size      string
	Width     string
	Thickness string

	Metal                      string
	WeightGrams                decimal.Decimal
	MetalDiscountPerGram       decimal.Decimal
	Workmanship                string
	WorkmanshipDiscountPercent decimal.Decimal

	Stones           *StoneSelection
	Profile          *Selection
	Engraving        *Selection
	Coating          *Selection
	ColorCombination *decimal.Decimal
}

// DiscountKind tells how a discount value is applied.
type DiscountKind int

const (
	DiscountNone DiscountKind = iota
	// DiscountPerUnit subtracts Value from the unit price before multiplying.
	DiscountPerUnit
	// DiscountPercent takes Value percent off the line subtotal.
	DiscountPercent
)

// Discount is the discount applied to one line item.
type Discount struct {
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// LineItem is one priced row of a ring breakdown.
type LineItem struct {
	Kind      LineKind        `json:"kind"`
	Label     string          `json:"label"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit,omitempty"`
	Discount  Discount        `json:"discount"`
	Total     decimal.Decimal `json:"total"`
}

// Title is the item text shown in the first table column.
func (li LineItem) Title() string {
	return fmt.Sprintf("%s (%s)", li.Kind.Category(), li.Label)
}

// RingQuote is the ordered breakdown of one ring and its total.
type RingQuote struct {
	Items []LineItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (q *RingQuote) add(li LineItem) {
	q.Items = append(q.Items, li)
	q.Total = q.Total.Add(li.Total)
}

// PriceRing computes the line items of one ring. Metal and workmanship are
// always present; the optional sections follow in fixed order when enabled.
// A name missing from the catalog is an error, never a zero price.
func PriceRing(cfg RingConfig, cat Catalog) (RingQuote, error) {
	q := RingQuote{Items: make([]LineItem, 0, 7)}

	metal, err := lookup(cat.Metals, cfg.Metal, ErrUnknownMetal)
	if err != nil {
		return RingQuote{}, err
	}
	q.add(perUnitLine(KindMetal, cfg.Metal, metal, cfg.WeightGrams, UnitGram, cfg.MetalDiscountPerGram))

	work, err := lookup(cat.Workmanship, cfg.Workmanship, ErrUnknownWorkmanship)
	if err != nil {
		return RingQuote{}, err
	}
	q.add(percentLine(KindWorkmanship, cfg.Workmanship, work, cfg.WeightGrams, UnitGram, cfg.WorkmanshipDiscountPercent))

	if s := cfg.Stones; s != nil {
		usd, err := cat.stonePrice(s.Size, s.Type)
		if err != nil {
			return RingQuote{}, err
		}
		label := fmt.Sprintf("%s %smm x%d", s.Type, s.Size, s.Quantity)
		q.add(plainLine(KindStones, label, usd.Mul(cat.ExchangeRate), decimal.NewFromInt(int64(s.Quantity)), UnitPieces))
	}

	if p := cfg.Profile; p != nil {
		price, err := lookup(cat.Profiles, p.Name, ErrUnknownProfile)
		if err != nil {
			return RingQuote{}, err
		}
		q.add(percentLine(KindProfile, p.Name, price, decimal.NewFromInt(1), "", p.DiscountPercent))
	}

	if e := cfg.Engraving; e != nil {
		price, err := lookup(cat.Engravings, e.Name, ErrUnknownEngraving)
		if err != nil {
			return RingQuote{}, err
		}
		q.add(percentLine(KindEngraving, e.Name, price, decimal.NewFromInt(1), "", e.DiscountPercent))
	}

	if c := cfg.Coating; c != nil {
		price, err := lookup(cat.Coatings, c.Name, ErrUnknownCoating)
		if err != nil {
			return RingQuote{}, err
		}
		q.add(plainLine(KindCoating, c.Name, price, decimal.NewFromInt(1), ""))
	}

	if cfg.ColorCombination != nil {
		q.add(plainLine(KindColorCombination, ColorCombinationLabel, *cfg.ColorCombination, decimal.NewFromInt(1), ""))
	}

	return q, nil
}

func plainLine(kind LineKind, label string, unit, qty decimal.Decimal, unitLabel string) LineItem {
	return LineItem{
		Kind:      kind,
		Label:     label,
		UnitPrice: unit,
		Quantity:  qty,
		Unit:      unitLabel,
		Discount:  Discount{Kind: DiscountNone},
		Total:     unit.Mul(qty),
	}
}

// perUnitLine floors the discounted unit price at zero.
func perUnitLine(kind LineKind, label string, unit, qty decimal.Decimal, unitLabel string, off decimal.Decimal) LineItem {
	net := decimal.Max(unit.Sub(off), decimal.Zero)
	return LineItem{
		Kind:      kind,
		Label:     label,
		UnitPrice: unit,
		Quantity:  qty,
		Unit:      unitLabel,
		Discount:  Discount{Kind: DiscountPerUnit, Value: off},
		Total:     net.Mul(qty),
	}
}

// percentLine computes base*(100-p)/100 so that p=0 and p=100 are exact.
func percentLine(kind LineKind, label string, unit, qty decimal.Decimal, unitLabel string, percent decimal.Decimal) LineItem {
	base := unit.Mul(qty)
	return LineItem{
		Kind:      kind,
		Label:     label,
		UnitPrice: unit,
		Quantity:  qty,
		Unit:      unitLabel,
		Discount:  Discount{Kind: DiscountPercent, Value: percent},
		Total:     base.Mul(hundred.Sub(percent)).Div(hundred),
	}
}
