package render

// Page geometry in millimetres. The page is A4 portrait.
const (
	PageWidth  = 210.0
	PageHeight = 297.0
	Margin     = 20.0

	// LogoSafe keeps photos clear of the logo printed on the background.
	LogoSafe    = 55.0
	PhotoSize   = 50.0
	PhotoGap    = 15.0
	PhotoRadius = 10 * 25.4 / 72 // 10pt

	// TableTop does not depend on how many photos are drawn.
	TableTop  = Margin + 95.0
	RowHeight = 6.0
)

// ColumnWidths are fixed for the whole table and add up to the text width.
var ColumnWidths = [5]float64{48, 30, 28, 28, 36}

// Rect is a placement on the page measured from the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// PhotoSlots returns where n photos go. Only 1 and 2 photos are placed;
// any other count leaves the photo band empty.
func PhotoSlots(n int) []Rect {
	switch n {
	case 1:
		return []Rect{{X: (PageWidth - PhotoSize) / 2, Y: LogoSafe, W: PhotoSize, H: PhotoSize}}
	case 2:
		start := (PageWidth - (2*PhotoSize + PhotoGap)) / 2
		return []Rect{
			{X: start, Y: LogoSafe, W: PhotoSize, H: PhotoSize},
			{X: start + PhotoSize + PhotoGap, Y: LogoSafe, W: PhotoSize, H: PhotoSize},
		}
	default:
		return nil
	}
}

func tableWidth() float64 {
	var w float64
	for _, c := range ColumnWidths {
		w += c
	}
	return w
}
