package render

// Table fills, matching the dark background templates.
const (
	FillHeader       = "#2b3149"
	FillBand         = "#3b4158"
	FillColumnHeader = "#4d556f"
)

// Horizontal alignments understood by the drawing code.
const (
	AlignCenter = "C"
	AlignRight  = "R"
)

// RowStyle is the resolved styling of one grid row.
type RowStyle struct {
	Span     bool
	Fill     string
	Bold     bool
	FontSize float64
	// Align holds the horizontal alignment per column.
	Align [5]string
}

// Banded reports whether a grid row is a full-width band: every cell after
// the first is empty.
func Banded(row [5]string) bool {
	return row[1] == "" && row[2] == "" && row[3] == "" && row[4] == ""
}

// StyleGrid applies the styling passes to a flat grid in order: defaults,
// the top header, bands, the pricing column header, the pair total and
// finally right alignment of the amount column below the top header.
func StyleGrid(cells [][5]string, pairRow int) []RowStyle {
	styles := make([]RowStyle, len(cells))
	for i := range styles {
		styles[i] = RowStyle{FontSize: 10}
		for c := range styles[i].Align {
			styles[i].Align[c] = AlignCenter
		}
	}
	if len(cells) == 0 {
		return styles
	}

	styles[0].Fill = FillHeader
	styles[0].Bold = true
	styles[0].FontSize = 11

	for i, row := range cells {
		if Banded(row) {
			styles[i].Span = true
			styles[i].Fill = FillBand
			styles[i].Bold = true
			styles[i].FontSize = 11
		}
	}

	for i, row := range cells {
		if row[0] == LabelItem {
			styles[i].Fill = FillColumnHeader
			styles[i].Bold = true
			styles[i].FontSize = 10
			break
		}
	}

	if pairRow >= 0 && pairRow < len(cells) {
		styles[pairRow].Bold = true
		styles[pairRow].FontSize = 12
	}

	for i := 1; i < len(styles); i++ {
		styles[i].Align[4] = AlignRight
	}
	return styles
}
