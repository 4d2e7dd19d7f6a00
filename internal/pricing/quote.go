package pricing

import (
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// Role distinguishes the two rings of a pair.
type Role string

const (
	RoleWoman Role = "woman"
	RoleMan   Role = "man"
)

// Quote is the priced pair. It is computed per request and never stored.
type Quote struct {
	Woman     RingQuote       `json:"woman"`
	Man       RingQuote       `json:"man"`
	PairTotal decimal.Decimal `json:"pair_total"`
}

// BuildQuote prices both rings against the same catalog snapshot.
func BuildQuote(woman, man RingConfig, cat Catalog) (Quote, error) {
	w, err := PriceRing(woman, cat)
	if err != nil {
		return Quote{}, eris.Wrapf(err, "price %s ring", RoleWoman)
	}
	m, err := PriceRing(man, cat)
	if err != nil {
		return Quote{}, eris.Wrapf(err, "price %s ring", RoleMan)
	}
	return Quote{Woman: w, Man: m, PairTotal: w.Total.Add(m.Total)}, nil
}
