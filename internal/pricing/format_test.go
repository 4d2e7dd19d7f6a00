package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatMoney_RoundsOnceHalfAwayFromZero(t *testing.T) {
	cases := map[string]string{
		"0":       "0 ₴",
		"1350":    "1350 ₴",
		"1000.5":  "1001 ₴",
		"1000.49": "1000 ₴",
		"2.5":     "3 ₴",
	}
	for in, want := range cases {
		if got := FormatMoney(dec(in), CurrencyMark); got != want {
			t.Fatalf("FormatMoney(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatQuantity(t *testing.T) {
	if got := FormatQuantity(dec("5"), UnitGram); got != "5.00 g" {
		t.Fatalf("got %q", got)
	}
	if got := FormatQuantity(decimal.NewFromInt(3), UnitPieces); got != "3.00 pcs" {
		t.Fatalf("got %q", got)
	}
	if got := FormatQuantity(decimal.NewFromInt(1), ""); got != "1.00" {
		t.Fatalf("got %q", got)
	}
}

func TestDiscountDescribe(t *testing.T) {
	cases := []struct {
		name string
		d    Discount
		unit string
		want string
	}{
		{name: "none", d: Discount{Kind: DiscountNone, Value: dec("5")}, want: NoDiscount},
		{name: "zero percent", d: Discount{Kind: DiscountPercent}, want: NoDiscount},
		{name: "percent", d: Discount{Kind: DiscountPercent, Value: dec("10")}, want: "10%"},
		{name: "fractional percent", d: Discount{Kind: DiscountPercent, Value: dec("12.5")}, want: "12.5%"},
		{name: "per gram", d: Discount{Kind: DiscountPerUnit, Value: dec("50")}, unit: UnitGram, want: "-50 ₴/g"},
		{name: "per unit without unit", d: Discount{Kind: DiscountPerUnit, Value: dec("50")}, want: "-50 ₴"},
	}
	for _, tc := range cases {
		if got := tc.d.Describe(CurrencyMark, tc.unit); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseStoneVocabulary(t *testing.T) {
	if len(StoneSizes) != 21 {
		t.Fatalf("expected 21 stone sizes, got %d", len(StoneSizes))
	}
	if StoneSizes[0] != "1.00" || StoneSizes[len(StoneSizes)-1] != "8.00" {
		t.Fatalf("unexpected size bounds %s..%s", StoneSizes[0], StoneSizes[len(StoneSizes)-1])
	}

	size, err := ParseStoneSize("3.80")
	if err != nil || size != "3.80" {
		t.Fatalf("ParseStoneSize(3.80) = %q, %v", size, err)
	}
	if _, err := ParseStoneSize("3.8"); !errors.Is(err, ErrUnknownStoneSize) {
		t.Fatalf("expected ErrUnknownStoneSize, got %v", err)
	}

	typ, err := ParseStoneType("moissanite")
	if err != nil || typ != StoneMoissanite {
		t.Fatalf("ParseStoneType(moissanite) = %q, %v", typ, err)
	}
	if _, err := ParseStoneType("Diamond"); !errors.Is(err, ErrUnknownStoneType) {
		t.Fatalf("expected ErrUnknownStoneType, got %v", err)
	}
}

func TestLineItemTitle(t *testing.T) {
	li := LineItem{Kind: KindMetal, Label: "Gold 585"}
	if got := li.Title(); got != "Metal (Gold 585)" {
		t.Fatalf("Title() = %q", got)
	}
}
