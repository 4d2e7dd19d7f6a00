package pricing

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decEqual(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s = %s, want %s", name, got, want)
	}
}

func fixtureCatalog() Catalog {
	return Catalog{
		Metals:      map[string]decimal.Decimal{"Gold 585": dec("2000"), "Silver 925": dec("60")},
		Workmanship: map[string]decimal.Decimal{"premium": dec("300"), "platinum": dec("450")},
		Stones: map[StoneKey]decimal.Decimal{
			{Size: "1.50", Type: StoneDiamond}: dec("50"),
			{Size: "2.00", Type: StoneZircon}:  dec("1.5"),
		},
		Profiles:     map[string]decimal.Decimal{"Comfort fit": dec("800")},
		Engravings:   map[string]decimal.Decimal{"Simple": dec("500")},
		Coatings:     map[string]decimal.Decimal{"Rhodium": dec("350")},
		ExchangeRate: dec("41"),
	}
}

func baseRing() RingConfig {
	return RingConfig{
		Size:                       "16.5",
		Width:                      "4",
		Thickness:                  "1.8",
		Metal:                      "Gold 585",
		WeightGrams:                dec("5"),
		Workmanship:                "premium",
		WorkmanshipDiscountPercent: dec("10"),
	}
}

func fullRing() RingConfig {
	surcharge := dec("250")
	cfg := baseRing()
	cfg.Stones = &StoneSelection{Type: StoneDiamond, Size: "1.50", Quantity: 3}
	cfg.Profile = &Selection{Name: "Comfort fit", DiscountPercent: dec("25")}
	cfg.Engraving = &Selection{Name: "Simple"}
	cfg.Coating = &Selection{Name: "Rhodium", DiscountPercent: dec("50")}
	cfg.ColorCombination = &surcharge
	return cfg
}

func TestPriceRing_MandatoryLinesOnly(t *testing.T) {
	q, err := PriceRing(baseRing(), fixtureCatalog())
	if err != nil {
		t.Fatalf("PriceRing: %v", err)
	}

	if len(q.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(q.Items))
	}
	if q.Items[0].Kind != KindMetal || q.Items[1].Kind != KindWorkmanship {
		t.Fatalf("unexpected order: %s, %s", q.Items[0].Kind, q.Items[1].Kind)
	}
	decEqual(t, "metal", q.Items[0].Total, dec("10000"))
	decEqual(t, "workmanship", q.Items[1].Total, dec("1350"))
	decEqual(t, "total", q.Total, dec("11350"))
	if q.Items[0].Unit != UnitGram || q.Items[1].Unit != UnitGram {
		t.Fatalf("expected gram units, got %q and %q", q.Items[0].Unit, q.Items[1].Unit)
	}
}

func TestPriceRing_StoneLineUsesExchangeRateWithoutDiscount(t *testing.T) {
	cfg := baseRing()
	cfg.Stones = &StoneSelection{Type: StoneDiamond, Size: "1.50", Quantity: 3}

	q, err := PriceRing(cfg, fixtureCatalog())
	if err != nil {
		t.Fatalf("PriceRing: %v", err)
	}

	stone := q.Items[2]
	if stone.Kind != KindStones {
		t.Fatalf("expected stones line, got %s", stone.Kind)
	}
	decEqual(t, "stone unit", stone.UnitPrice, dec("2050"))
	decEqual(t, "stone total", stone.Total, dec("6150"))
	if stone.Discount.Kind != DiscountNone {
		t.Fatalf("expected no discount on stones, got %v", stone.Discount.Kind)
	}
	if stone.Unit != UnitPieces {
		t.Fatalf("expected pcs unit, got %q", stone.Unit)
	}
	if stone.Label != "diamond 1.50mm x3" {
		t.Fatalf("unexpected stone label %q", stone.Label)
	}
}

func TestPriceRing_ZeroStonesStillEmitted(t *testing.T) {
	cfg := baseRing()
	cfg.Stones = &StoneSelection{Type: StoneZircon, Size: "2.00", Quantity: 0}

	q, err := PriceRing(cfg, fixtureCatalog())
	if err != nil {
		t.Fatalf("PriceRing: %v", err)
	}
	if len(q.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(q.Items))
	}
	decEqual(t, "stone total", q.Items[2].Total, decimal.Zero)
	decEqual(t, "ring total", q.Total, dec("11350"))
}

func TestPriceRing_OptionalOrderAndValues(t *testing.T) {
	q, err := PriceRing(fullRing(), fixtureCatalog())
	if err != nil {
		t.Fatalf("PriceRing: %v", err)
	}

	wantKinds := []LineKind{KindMetal, KindWorkmanship, KindStones, KindProfile, KindEngraving, KindCoating, KindColorCombination}
	if len(q.Items) != len(wantKinds) {
		t.Fatalf("expected %d items, got %d", len(wantKinds), len(q.Items))
	}
	for i, kind := range wantKinds {
		if q.Items[i].Kind != kind {
			t.Fatalf("item %d kind = %s, want %s", i, q.Items[i].Kind, kind)
		}
	}

	decEqual(t, "profile", q.Items[3].Total, dec("600"))
	decEqual(t, "engraving", q.Items[4].Total, dec("500"))
	decEqual(t, "coating ignores discount", q.Items[5].Total, dec("350"))
	decEqual(t, "color combination", q.Items[6].Total, dec("250"))
	if q.Items[6].Label != ColorCombinationLabel {
		t.Fatalf("color combination label = %q", q.Items[6].Label)
	}
	decEqual(t, "total", q.Total, dec("19200"))
}

func TestPriceRing_TotalIsSumOfLines(t *testing.T) {
	q, err := PriceRing(fullRing(), fixtureCatalog())
	if err != nil {
		t.Fatalf("PriceRing: %v", err)
	}
	sum := decimal.Zero
	for _, li := range q.Items {
		sum = sum.Add(li.Total)
	}
	decEqual(t, "sum", q.Total, sum)
}

func TestPriceRing_PerUnitDiscountFloorsAtZeroAndIsMonotonic(t *testing.T) {
	weights := []string{"0", "0.5", "3.25", "12"}
	discounts := []string{"0", "100", "1999.99", "2000", "2500", "10000"}

	for _, w := range weights {
		prev := decimal.NewFromInt(1 << 40)
		for _, d := range discounts {
			cfg := baseRing()
			cfg.WeightGrams = dec(w)
			cfg.MetalDiscountPerGram = dec(d)

			q, err := PriceRing(cfg, fixtureCatalog())
			if err != nil {
				t.Fatalf("PriceRing: %v", err)
			}
			metal := q.Items[0].Total
			want := decimal.Max(dec("2000").Sub(dec(d)), decimal.Zero).Mul(dec(w))

			decEqual(t, "metal w="+w+" d="+d, metal, want)
			if metal.IsNegative() {
				t.Fatalf("metal total negative for w=%s d=%s", w, d)
			}
			if metal.GreaterThan(prev) {
				t.Fatalf("metal total increased with discount: w=%s d=%s", w, d)
			}
			prev = metal
		}
	}
}

func TestPriceRing_PercentDiscountBounds(t *testing.T) {
	cases := []struct {
		percent string
		want    string
	}{
		{percent: "0", want: "1500"},
		{percent: "10", want: "1350"},
		{percent: "33.3", want: "1000.5"},
		{percent: "100", want: "0"},
	}

	for _, tc := range cases {
		cfg := baseRing()
		cfg.WorkmanshipDiscountPercent = dec(tc.percent)

		q, err := PriceRing(cfg, fixtureCatalog())
		if err != nil {
			t.Fatalf("PriceRing: %v", err)
		}
		decEqual(t, "workmanship p="+tc.percent, q.Items[1].Total, dec(tc.want))
	}
}

func TestPriceRing_IsDeterministic(t *testing.T) {
	first, err := PriceRing(fullRing(), fixtureCatalog())
	if err != nil {
		t.Fatalf("PriceRing: %v", err)
	}
	second, err := PriceRing(fullRing(), fixtureCatalog())
	if err != nil {
		t.Fatalf("PriceRing: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated computation differs:\n%+v\n%+v", first, second)
	}
}

func TestPriceRing_TogglingOptionalRemovesExactlyOneLine(t *testing.T) {
	full, err := PriceRing(fullRing(), fixtureCatalog())
	if err != nil {
		t.Fatalf("PriceRing: %v", err)
	}

	cfg := fullRing()
	engraving := cfg.Engraving
	cfg.Engraving = nil
	without, err := PriceRing(cfg, fixtureCatalog())
	if err != nil {
		t.Fatalf("PriceRing: %v", err)
	}

	if len(without.Items) != len(full.Items)-1 {
		t.Fatalf("expected one line fewer, got %d vs %d", len(without.Items), len(full.Items))
	}
	for _, li := range without.Items {
		if li.Kind == KindEngraving {
			t.Fatalf("engraving line still present")
		}
	}
	decEqual(t, "shrink", full.Total.Sub(without.Total), full.Items[4].Total)

	cfg.Engraving = engraving
	restored, err := PriceRing(cfg, fixtureCatalog())
	if err != nil {
		t.Fatalf("PriceRing: %v", err)
	}
	if !reflect.DeepEqual(restored.Items[4], full.Items[4]) {
		t.Fatalf("restored engraving line differs: %+v vs %+v", restored.Items[4], full.Items[4])
	}
}

func TestPriceRing_UnknownNamesFail(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RingConfig)
		want   error
	}{
		{name: "metal", mutate: func(c *RingConfig) { c.Metal = "Gold 999" }, want: ErrUnknownMetal},
		{name: "workmanship", mutate: func(c *RingConfig) { c.Workmanship = "basic" }, want: ErrUnknownWorkmanship},
		{name: "stone", mutate: func(c *RingConfig) { c.Stones = &StoneSelection{Type: StoneCVD, Size: "8.00", Quantity: 1} }, want: ErrUnknownStone},
		{name: "profile", mutate: func(c *RingConfig) { c.Profile = &Selection{Name: "Flat"} }, want: ErrUnknownProfile},
		{name: "engraving", mutate: func(c *RingConfig) { c.Engraving = &Selection{Name: "Laser"} }, want: ErrUnknownEngraving},
		{name: "coating", mutate: func(c *RingConfig) { c.Coating = &Selection{Name: "Gold"} }, want: ErrUnknownCoating},
	}

	for _, tc := range cases {
		cfg := baseRing()
		tc.mutate(&cfg)
		_, err := PriceRing(cfg, fixtureCatalog())
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestBuildQuote_PairTotalIsSumOfRings(t *testing.T) {
	q, err := BuildQuote(fullRing(), baseRing(), fixtureCatalog())
	if err != nil {
		t.Fatalf("BuildQuote: %v", err)
	}
	decEqual(t, "woman", q.Woman.Total, dec("19200"))
	decEqual(t, "man", q.Man.Total, dec("11350"))
	decEqual(t, "pair", q.PairTotal, dec("30550"))
}

func TestBuildQuote_WrapsRingRole(t *testing.T) {
	man := baseRing()
	man.Metal = "Copper"

	_, err := BuildQuote(baseRing(), man, fixtureCatalog())
	if !errors.Is(err, ErrUnknownMetal) {
		t.Fatalf("expected ErrUnknownMetal, got %v", err)
	}
}
