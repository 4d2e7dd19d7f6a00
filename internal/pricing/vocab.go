package pricing

import "github.com/rotisserie/eris"

// StoneSize is a calibrated stone diameter in millimetres, e.g. "1.50".
type StoneSize string

// StoneType is a gemstone category.
type StoneType string

const (
	StoneDiamond    StoneType = "diamond"
	StoneCVD        StoneType = "cvd"
	StoneMoissanite StoneType = "moissanite"
	StoneZircon     StoneType = "zircon"
)

// StoneSizes lists every size the stone price matrix is keyed by, ascending.
var StoneSizes = []StoneSize{
	"1.00", "1.25", "1.50", "1.75", "2.00", "2.25", "2.50", "2.75",
	"3.00", "3.50", "3.80", "4.00", "4.30", "4.50", "5.00", "5.50",
	"6.00", "6.50", "7.00", "7.50", "8.00",
}

// StoneTypes lists the stone categories in matrix column order.
var StoneTypes = []StoneType{StoneDiamond, StoneCVD, StoneMoissanite, StoneZircon}

var (
	// ErrUnknownStoneSize is returned for a size outside StoneSizes.
	ErrUnknownStoneSize = eris.New("unknown stone size")
	// ErrUnknownStoneType is returned for a type outside StoneTypes.
	ErrUnknownStoneType = eris.New("unknown stone type")
)

// ParseStoneSize matches raw against StoneSizes verbatim.
func ParseStoneSize(raw string) (StoneSize, error) {
	for _, s := range StoneSizes {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", eris.Wrapf(ErrUnknownStoneSize, "size %q", raw)
}

// ParseStoneType matches raw against StoneTypes verbatim.
func ParseStoneType(raw string) (StoneType, error) {
	for _, t := range StoneTypes {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", eris.Wrapf(ErrUnknownStoneType, "type %q", raw)
}
