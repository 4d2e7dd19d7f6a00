package quoteform

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/koshtorys/internal/pricing"
	"github.com/Simplici0/koshtorys/internal/render"
)

// QuoteInput is the raw description of a ring pair, as submitted by the
// manager form or read from a YAML quote file.
type QuoteInput struct {
	Woman  RingInput `yaml:"woman"`
	Man    RingInput `yaml:"man"`
	Photos []string  `yaml:"photos" validate:"max=2"`
}

// RingInput is the raw state of one ring. Numbers are kept as text until
// validation so they can be parsed exactly.
type RingInput struct {
	Size      string `yaml:"size" validate:"max=32"`
	Width     string `yaml:"width" validate:"max=32"`
	Thickness string `yaml:"thickness" validate:"max=32"`

	Metal               string `yaml:"metal" validate:"required"`
	Weight              string `yaml:"weight" validate:"required,amount"`
	MetalDiscount       string `yaml:"metal_discount" validate:"omitempty,amount"`
	Workmanship         string `yaml:"workmanship" validate:"required"`
	WorkmanshipDiscount string `yaml:"workmanship_discount" validate:"omitempty,percent"`

	Stones           *StoneInput  `yaml:"stones" validate:"omitempty"`
	Profile          *OptionInput `yaml:"profile" validate:"omitempty"`
	Engraving        *OptionInput `yaml:"engraving" validate:"omitempty"`
	Coating          *OptionInput `yaml:"coating" validate:"omitempty"`
	ColorCombination *string      `yaml:"color_combination" validate:"omitempty,amount"`
}

// StoneInput selects a stone matrix cell and a count.
type StoneInput struct {
	Type     string `yaml:"type" validate:"required,stone_type"`
	Size     string `yaml:"size" validate:"required,stone_size"`
	Quantity string `yaml:"quantity" validate:"omitempty,number,max=4"`
}

// OptionInput selects a row of a flat optional table.
type OptionInput struct {
	Name     string `yaml:"name" validate:"required"`
	Discount string `yaml:"discount" validate:"omitempty,percent"`
}

// Config converts validated input into the engine's ring configuration.
func (in RingInput) Config() (pricing.RingConfig, error) {
	cfg := pricing.RingConfig{
		Size:        strings.TrimSpace(in.Size),
		Width:       strings.TrimSpace(in.Width),
		Thickness:   strings.TrimSpace(in.Thickness),
		Metal:       strings.TrimSpace(in.Metal),
		Workmanship: strings.TrimSpace(in.Workmanship),
	}

	var err error
	if cfg.WeightGrams, err = parseAmount(in.Weight, "weight"); err != nil {
		return pricing.RingConfig{}, err
	}
	if cfg.MetalDiscountPerGram, err = parseAmount(in.MetalDiscount, "metal_discount"); err != nil {
		return pricing.RingConfig{}, err
	}
	if cfg.WorkmanshipDiscountPercent, err = parseAmount(in.WorkmanshipDiscount, "workmanship_discount"); err != nil {
		return pricing.RingConfig{}, err
	}

	if s := in.Stones; s != nil {
		typ, err := pricing.ParseStoneType(strings.TrimSpace(s.Type))
		if err != nil {
			return pricing.RingConfig{}, err
		}
		size, err := pricing.ParseStoneSize(strings.TrimSpace(s.Size))
		if err != nil {
			return pricing.RingConfig{}, err
		}
		qty := 0
		if q := strings.TrimSpace(s.Quantity); q != "" {
			if qty, err = strconv.Atoi(q); err != nil || qty < 0 {
				return pricing.RingConfig{}, eris.Errorf("quantity %q is not a whole number", s.Quantity)
			}
		}
		cfg.Stones = &pricing.StoneSelection{Type: typ, Size: size, Quantity: qty}
	}

	if cfg.Profile, err = in.Profile.selection("profile"); err != nil {
		return pricing.RingConfig{}, err
	}
	if cfg.Engraving, err = in.Engraving.selection("engraving"); err != nil {
		return pricing.RingConfig{}, err
	}
	if cfg.Coating, err = in.Coating.selection("coating"); err != nil {
		return pricing.RingConfig{}, err
	}

	if in.ColorCombination != nil {
		amount, err := parseAmount(*in.ColorCombination, "color_combination")
		if err != nil {
			return pricing.RingConfig{}, err
		}
		cfg.ColorCombination = &amount
	}
	return cfg, nil
}

// Measurements returns the free-text dimensions printed on the document.
func (in RingInput) Measurements() render.Measurements {
	return render.Measurements{
		Size:      strings.TrimSpace(in.Size),
		Width:     strings.TrimSpace(in.Width),
		Thickness: strings.TrimSpace(in.Thickness),
	}
}

func (o *OptionInput) selection(field string) (*pricing.Selection, error) {
	if o == nil {
		return nil, nil
	}
	discount, err := parseAmount(o.Discount, field+".discount")
	if err != nil {
		return nil, err
	}
	return &pricing.Selection{Name: strings.TrimSpace(o.Name), DiscountPercent: discount}, nil
}

// ErrNotPlainDecimal rejects anything but digits with an optional fraction.
var ErrNotPlainDecimal = eris.New("not a plain decimal number")

// Exponents are refused: decimal would happily rescale 1e-20000000.
var plainDecimal = regexp.MustCompile(`^\d{1,9}(\.\d{1,4})?$`)

// ParseDecimal parses a non-negative amount typed by a person: up to nine
// integer digits and four decimals, dot or comma separated.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	raw = normalizeNumber(raw)
	if !plainDecimal.MatchString(raw) {
		return decimal.Zero, eris.Wrapf(ErrNotPlainDecimal, "%q", raw)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "parse %q", raw)
	}
	return d, nil
}

// parseAmount treats an empty value as zero.
func parseAmount(raw, field string) (decimal.Decimal, error) {
	if normalizeNumber(raw) == "" {
		return decimal.Zero, nil
	}
	d, err := ParseDecimal(raw)
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "%s is not a number", field)
	}
	return d, nil
}

// normalizeNumber accepts a decimal comma, which is how amounts are typed
// on Ukrainian keyboards.
func normalizeNumber(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
}
