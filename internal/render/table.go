package render

import (
	"github.com/Simplici0/koshtorys/internal/pricing"
)

// Fixed document vocabulary.
const (
	LabelParameters    = "PARAMETERS"
	LabelWomans        = "WOMAN'S"
	LabelMens          = "MEN'S"
	LabelSize          = "Size"
	LabelWidth         = "Width"
	LabelThickness     = "Thickness"
	LabelPricing       = "PRICING"
	LabelItem          = "Item"
	LabelPrice         = "Price"
	LabelQuantity      = "Quantity"
	LabelDiscount      = "Discount"
	LabelAmount        = "Amount"
	LabelWomansRing    = "Woman's ring"
	LabelMensRing      = "Man's ring"
	LabelTotalCost     = "TOTAL COST"
	LabelPairTotal     = "Pair total"
	missingMeasurement = "-"
)

// RowKind tags a table row while it is being assembled.
type RowKind int

const (
	RowHeader RowKind = iota
	RowSectionBand
	RowSubBand
	RowData
	RowTotal
	RowPairTotal
)

// Row is a tagged table row. Band rows only use Cells[0].
type Row struct {
	Kind  RowKind
	Cells [5]string
}

// Measurements are the free-text dimensions of one ring.
type Measurements struct {
	Size      string
	Width     string
	Thickness string
}

// Document is everything one page is rendered from.
type Document struct {
	Quote      pricing.Quote
	Woman      Measurements
	Man        Measurements
	Photos     []string
	Background string
}

// BuildRows assembles the table rows in document order.
func BuildRows(doc Document, mark string) []Row {
	rows := []Row{
		{Kind: RowHeader, Cells: [5]string{LabelParameters, LabelWomans, LabelMens}},
		measurementRow(LabelSize, doc.Woman.Size, doc.Man.Size),
		measurementRow(LabelWidth, doc.Woman.Width, doc.Man.Width),
		measurementRow(LabelThickness, doc.Woman.Thickness, doc.Man.Thickness),
		band(RowSectionBand, LabelPricing),
		{Kind: RowHeader, Cells: [5]string{LabelItem, LabelPrice, LabelQuantity, LabelDiscount, LabelAmount}},
	}

	rows = appendRing(rows, LabelWomansRing, doc.Quote.Woman, mark)
	rows = appendRing(rows, LabelMensRing, doc.Quote.Man, mark)

	rows = append(rows,
		band(RowSectionBand, LabelTotalCost),
		totalRow(RowTotal, LabelWomansRing, pricing.FormatMoney(doc.Quote.Woman.Total, mark)),
		totalRow(RowTotal, LabelMensRing, pricing.FormatMoney(doc.Quote.Man.Total, mark)),
		totalRow(RowPairTotal, LabelPairTotal, pricing.FormatMoney(doc.Quote.PairTotal, mark)),
	)
	return rows
}

func appendRing(rows []Row, title string, q pricing.RingQuote, mark string) []Row {
	rows = append(rows, band(RowSubBand, title))
	for _, li := range q.Items {
		rows = append(rows, Row{Kind: RowData, Cells: [5]string{
			li.Title(),
			pricing.FormatMoney(li.UnitPrice, mark),
			pricing.FormatQuantity(li.Quantity, li.Unit),
			li.Discount.Describe(mark, li.Unit),
			pricing.FormatMoney(li.Total, mark),
		}})
	}
	return rows
}

func band(kind RowKind, label string) Row {
	return Row{Kind: kind, Cells: [5]string{label}}
}

func measurementRow(label, woman, man string) Row {
	return Row{Kind: RowData, Cells: [5]string{label, orDash(woman), orDash(man)}}
}

func totalRow(kind RowKind, label, amount string) Row {
	return Row{Kind: kind, Cells: [5]string{label, "", "", "", amount}}
}

func orDash(s string) string {
	if s == "" {
		return missingMeasurement
	}
	return s
}

// Grid projects tagged rows onto the flat cell grid that is styled and drawn.
// It also reports the index of the pair total row, or -1.
func Grid(rows []Row) ([][5]string, int) {
	cells := make([][5]string, len(rows))
	pair := -1
	for i, r := range rows {
		switch r.Kind {
		case RowSectionBand, RowSubBand:
			cells[i] = [5]string{r.Cells[0]}
		default:
			cells[i] = r.Cells
		}
		if r.Kind == RowPairTotal {
			pair = i
		}
	}
	return cells, pair
}
