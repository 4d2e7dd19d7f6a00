package render

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/Simplici0/koshtorys/internal/pricing"
)

const (
	fontFamily      = "Montserrat"
	fontRegularFile = "Montserrat-Regular.ttf"
	fontBoldFile    = "Montserrat-Bold.ttf"

	// Core fonts cannot show the hryvnia sign.
	fallbackFamily = "Helvetica"
	fallbackMark   = "UAH"

	gridLine    = 0.4 * 25.4 / 72
	minFontSize = 6.0
)

var pngOptions = fpdf.ImageOptions{ImageType: "PNG"}

// Config configures a Renderer.
type Config struct {
	// FontDir holds Montserrat-Regular.ttf and Montserrat-Bold.ttf.
	FontDir string
	Logger  zerolog.Logger
}

// Renderer draws quote documents as single-page A4 PDFs.
type Renderer struct {
	fontDir string
	log     zerolog.Logger
}

// New returns a Renderer. It keeps no state between renders.
func New(cfg Config) *Renderer {
	return &Renderer{fontDir: cfg.FontDir, log: cfg.Logger}
}

type face struct {
	family string
	mark   string
	tr     func(string) string
}

// Render writes the PDF for doc to w. doc.Background is expected to be
// resolved already; a background or photo that cannot be loaded is skipped,
// never fatal.
func (r *Renderer) Render(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(false, Margin)
	pdf.SetTitle("Koshtorys", true)
	pdf.SetCreator("koshtorys", true)

	f := r.fonts(pdf)
	pdf.AddPage()

	r.drawBackground(pdf, doc.Background)
	r.drawPhotos(pdf, doc.Photos)

	cells, pair := Grid(BuildRows(doc, f.mark))
	drawTable(pdf, f, cells, StyleGrid(cells, pair))

	if err := pdf.Error(); err != nil {
		return eris.Wrap(err, "render: build pdf")
	}
	if err := pdf.Output(w); err != nil {
		return eris.Wrap(err, "render: write pdf")
	}
	return nil
}

func (r *Renderer) fonts(pdf *fpdf.Fpdf) face {
	regular := filepath.Join(r.fontDir, fontRegularFile)
	bold := filepath.Join(r.fontDir, fontBoldFile)
	if r.fontDir != "" && readable(regular) && readable(bold) {
		pdf.AddUTF8Font(fontFamily, "", regular)
		pdf.AddUTF8Font(fontFamily, "B", bold)
		if pdf.Ok() {
			return face{family: fontFamily, mark: pricing.CurrencyMark, tr: func(s string) string { return s }}
		}
		r.log.Warn().Err(pdf.Error()).Str("dir", r.fontDir).Msg("load fonts failed, using core font")
		pdf.ClearError()
	} else {
		r.log.Warn().Str("dir", r.fontDir).Msg("fonts not found, using core font")
	}
	return face{family: fallbackFamily, mark: fallbackMark, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// drawBackground draws path full-bleed. path comes from ResolveBackground;
// a file that still cannot be loaded leaves the page plain.
func (r *Renderer) drawBackground(pdf *fpdf.Fpdf, path string) {
	if path == "" {
		r.log.Warn().Msg("no background drawn")
		return
	}
	buf, err := loadImage(path)
	if err != nil {
		r.log.Warn().Err(err).Str("path", path).Msg("no background drawn")
		return
	}
	pdf.RegisterImageOptionsReader("background", pngOptions, buf)
	pdf.ImageOptions("background", 0, 0, PageWidth, PageHeight, false, pngOptions, 0, "")
}

func (r *Renderer) drawPhotos(pdf *fpdf.Fpdf, paths []string) {
	names := make([]string, 0, 2)
	for i, p := range paths {
		if p == "" || len(names) == 2 {
			continue
		}
		buf, err := loadImage(p)
		if err != nil {
			r.log.Warn().Err(err).Str("path", p).Msg("photo skipped")
			continue
		}
		name := fmt.Sprintf("photo%d", i)
		pdf.RegisterImageOptionsReader(name, pngOptions, buf)
		names = append(names, name)
	}

	for i, slot := range PhotoSlots(len(names)) {
		pdf.ClipRoundedRect(slot.X, slot.Y, slot.W, slot.H, PhotoRadius, false)
		pdf.ImageOptions(names[i], slot.X, slot.Y, slot.W, slot.H, false, pngOptions, 0, "")
		pdf.ClipEnd()
	}
}

func drawTable(pdf *fpdf.Fpdf, f face, cells [][5]string, styles []RowStyle) {
	pdf.SetDrawColor(255, 255, 255)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetLineWidth(gridLine)

	width := tableWidth()
	x := (PageWidth - width) / 2
	y := TableTop
	for i, row := range cells {
		st := styles[i]
		fontStyle := ""
		if st.Bold {
			fontStyle = "B"
		}
		pdf.SetFont(f.family, fontStyle, st.FontSize)

		fill := st.Fill != ""
		if fill {
			red, green, blue := hexRGB(st.Fill)
			pdf.SetFillColor(red, green, blue)
		}

		pdf.SetXY(x, y)
		if st.Span {
			cell(pdf, f.tr(row[0]), width, st.FontSize, st.Align[0], fill)
		} else {
			for c, text := range row {
				cell(pdf, f.tr(text), ColumnWidths[c], st.FontSize, st.Align[c], fill)
			}
		}
		y += RowHeight
	}
}

// cell shrinks the font until text fits the column, then restores it.
func cell(pdf *fpdf.Fpdf, text string, width, size float64, align string, fill bool) {
	fitted := size
	for fitted > minFontSize && pdf.GetStringWidth(text)+2*pdf.GetCellMargin() > width {
		fitted -= 0.5
		pdf.SetFontSize(fitted)
	}
	pdf.CellFormat(width, RowHeight, text, "1", 0, align+"M", fill, 0, "")
	if fitted != size {
		pdf.SetFontSize(size)
	}
}

func hexRGB(hex string) (int, int, int) {
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
