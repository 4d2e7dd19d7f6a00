package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"

	"github.com/Simplici0/koshtorys/internal/catalog"
	"github.com/Simplici0/koshtorys/internal/pricing"
	"github.com/Simplici0/koshtorys/internal/quoteform"
	"github.com/Simplici0/koshtorys/internal/render"
)

const (
	maxQuoteForm = 32 << 20
	pdfFileName  = "koshtorys.pdf"
)

type homeViewData struct {
	baseViewData
	Metals       []string
	Workmanship  []string
	Profiles     []string
	Engravings   []string
	Coatings     []string
	StoneSizes   []pricing.StoneSize
	StoneTypes   []pricing.StoneType
	ExchangeRate string
}

type previewLine struct {
	Item     string `json:"item"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Discount string `json:"discount"`
	Amount   string `json:"amount"`
}

type previewRing struct {
	Lines []previewLine `json:"lines"`
	Total string        `json:"total"`
}

type previewResponse struct {
	Woman     previewRing `json:"woman"`
	Man       previewRing `json:"man"`
	PairTotal string      `json:"pair_total"`
}

type errorResponse struct {
	Error  string                 `json:"error"`
	Fields []quoteform.FieldError `json:"fields,omitempty"`
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := homeViewData{
		baseViewData: flash(r),
		StoneSizes:   pricing.StoneSizes,
		StoneTypes:   pricing.StoneTypes,
	}
	data.Authenticated = s.auth.isAuthenticated(r)

	targets := map[catalog.Table]*[]string{
		catalog.TableMetals:      &data.Metals,
		catalog.TableWorkmanship: &data.Workmanship,
		catalog.TableProfiles:    &data.Profiles,
		catalog.TableEngravings:  &data.Engravings,
		catalog.TableCoatings:    &data.Coatings,
	}
	for table, dst := range targets {
		rows, err := s.catalog.ListPrices(ctx, table)
		if err != nil {
			s.log.Error().Err(err).Str("table", string(table)).Msg("list prices")
			http.Error(w, "failed to load catalog", http.StatusInternalServerError)
			return
		}
		for _, row := range rows {
			*dst = append(*dst, row.Name)
		}
	}

	settings, err := s.catalog.Settings(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("load settings")
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	data.ExchangeRate = settings.ExchangeRate.String()

	s.renderTemplate(w, "home.html", data)
}

// handleQuotePreview prices the submitted form and answers with the
// formatted breakdown as JSON.
func (s *server) handleQuotePreview(w http.ResponseWriter, r *http.Request) {
	if err := parseQuoteForm(r); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form"})
		return
	}

	doc, err := s.buildDocument(r, quoteform.FromValues(r.Form))
	s.metrics.ObserveQuote("preview", err)
	if err != nil {
		s.writeQuoteError(w, err)
		return
	}

	q := doc.Quote
	writeJSON(w, http.StatusOK, previewResponse{
		Woman:     previewOf(q.Woman),
		Man:       previewOf(q.Man),
		PairTotal: pricing.FormatMoney(q.PairTotal, pricing.CurrencyMark),
	})
}

// handleQuotePDF prices the submitted form, stores the uploaded photos in a
// per-request scratch dir and streams back the rendered page.
func (s *server) handleQuotePDF(w http.ResponseWriter, r *http.Request) {
	if err := parseQuoteForm(r); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	scratch, err := quoteform.NewScratch("")
	if err != nil {
		s.log.Error().Err(err).Msg("create scratch dir")
		http.Error(w, "failed to prepare photos", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := scratch.Close(); err != nil {
			s.log.Warn().Err(err).Str("dir", scratch.Dir()).Msg("remove scratch dir")
		}
	}()

	in := quoteform.FromValues(r.Form)
	in.Photos = s.savePhotos(r, scratch)

	doc, err := s.buildDocument(r, in)
	s.metrics.ObserveQuote("pdf", err)
	if err != nil {
		s.writeQuoteError(w, err)
		return
	}

	settings, err := s.catalog.Settings(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("load settings")
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	doc.Background = render.ResolveBackground(s.assetsDir, settings.Background)

	start := time.Now()
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, doc); err != nil {
		s.log.Error().Err(err).Msg("render pdf")
		http.Error(w, "failed to render pdf", http.StatusInternalServerError)
		return
	}
	elapsed := time.Since(start)
	s.metrics.ObserveRender(elapsed, buf.Len())
	s.log.Info().
		Str("size", humanize.Bytes(uint64(buf.Len()))).
		Dur("took", elapsed).
		Int("photos", len(doc.Photos)).
		Msg("quote rendered")

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+pdfFileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func (s *server) buildDocument(r *http.Request, in quoteform.QuoteInput) (render.Document, error) {
	cat, err := s.catalog.Snapshot(r.Context())
	if err != nil {
		return render.Document{}, eris.Wrap(err, "read catalog snapshot")
	}
	return s.validator.Build(in, cat)
}

// savePhotos stores the first readable upload of each photo field. A photo that cannot be decoded is
// logged and left out of the document.
func (s *server) savePhotos(r *http.Request, scratch *quoteform.Scratch) []string {
	if r.MultipartForm == nil {
		return nil
	}
	var paths []string
	for _, field := range quoteform.PhotoFields {
		files := r.MultipartForm.File[field]
		if len(files) == 0 {
			continue
		}
		path, err := savePhoto(scratch, files[0])
		if err != nil {
			s.log.Warn().Err(err).Str("field", field).Str("file", files[0].Filename).Msg("photo rejected")
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func savePhoto(scratch *quoteform.Scratch, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", eris.Wrap(err, "open upload")
	}
	defer f.Close()
	return scratch.SavePhoto(f)
}

func (s *server) writeQuoteError(w http.ResponseWriter, err error) {
	var verr *quoteform.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid quote input", Fields: verr.Fields})
	case isCatalogMiss(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: eris.Cause(err).Error()})
	default:
		s.log.Error().Err(err).Msg("build quote")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to build quote"})
	}
}

func isCatalogMiss(err error) bool {
	for _, target := range []error{
		pricing.ErrUnknownMetal,
		pricing.ErrUnknownWorkmanship,
		pricing.ErrUnknownStone,
		pricing.ErrUnknownProfile,
		pricing.ErrUnknownEngraving,
		pricing.ErrUnknownCoating,
		pricing.ErrUnknownStoneSize,
		pricing.ErrUnknownStoneType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func previewOf(q pricing.RingQuote) previewRing {
	mark := pricing.CurrencyMark
	out := previewRing{Lines: make([]previewLine, len(q.Items)), Total: pricing.FormatMoney(q.Total, mark)}
	for i, li := range q.Items {
		out.Lines[i] = previewLine{
			Item:     li.Title(),
			Price:    pricing.FormatMoney(li.UnitPrice, mark),
			Quantity: pricing.FormatQuantity(li.Quantity, li.Unit),
			Discount: li.Discount.Describe(mark, li.Unit),
			Amount:   pricing.FormatMoney(li.Total, mark),
		}
	}
	return out
}

// parseQuoteForm accepts both urlencoded and multipart submissions.
func parseQuoteForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxQuoteForm)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
