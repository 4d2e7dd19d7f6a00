package pricing

import (
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownMetal       = eris.New("unknown metal")
	ErrUnknownWorkmanship = eris.New("unknown workmanship tier")
	ErrUnknownStone       = eris.New("unknown stone price")
	ErrUnknownProfile     = eris.New("unknown profile")
	ErrUnknownEngraving   = eris.New("unknown engraving")
	ErrUnknownCoating     = eris.New("unknown coating")
)

// StoneKey addresses one cell of the stone price matrix.
type StoneKey struct {
	Size StoneSize
	Type StoneType
}

// Catalog is a pre-fetched snapshot of every price table used by one quote.
// Metal and workmanship prices are per gram, stone prices are per piece in
// USD, the remaining tables hold flat prices. All local prices are in UAH.
type Catalog struct {
	Metals       map[string]decimal.Decimal
	Workmanship  map[string]decimal.Decimal
	Stones       map[StoneKey]decimal.Decimal
	Profiles     map[string]decimal.Decimal
	Engravings   map[string]decimal.Decimal
	Coatings     map[string]decimal.Decimal
	ExchangeRate decimal.Decimal
}

func lookup(table map[string]decimal.Decimal, name string, miss error) (decimal.Decimal, error) {
	price, ok := table[name]
	if !ok {
		return decimal.Zero, eris.Wrapf(miss, "%q", name)
	}
	return price, nil
}

func (c Catalog) stonePrice(size StoneSize, typ StoneType) (decimal.Decimal, error) {
	price, ok := c.Stones[StoneKey{Size: size, Type: typ}]
	if !ok {
		return decimal.Zero, eris.Wrapf(ErrUnknownStone, "%s %smm", typ, size)
	}
	return price, nil
}
