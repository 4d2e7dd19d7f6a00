package quoteform

import (
	"github.com/rotisserie/eris"

	"github.com/Simplici0/koshtorys/internal/pricing"
	"github.com/Simplici0/koshtorys/internal/render"
)

// Build validates in, prices both rings against cat and assembles the
// document. Photos and background are copied through unchanged.
func (v *Validator) Build(in QuoteInput, cat pricing.Catalog) (render.Document, error) {
	if err := v.Validate(in); err != nil {
		return render.Document{}, err
	}
	woman, err := in.Woman.Config()
	if err != nil {
		return render.Document{}, eris.Wrap(err, "woman ring")
	}
	man, err := in.Man.Config()
	if err != nil {
		return render.Document{}, eris.Wrap(err, "man ring")
	}
	q, err := pricing.BuildQuote(woman, man, cat)
	if err != nil {
		return render.Document{}, err
	}
	return render.Document{
		Quote:  q,
		Woman:  in.Woman.Measurements(),
		Man:    in.Man.Measurements(),
		Photos: in.Photos,
	}, nil
}
