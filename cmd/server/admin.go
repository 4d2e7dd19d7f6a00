package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/Simplici0/koshtorys/internal/catalog"
	"github.com/Simplici0/koshtorys/internal/pricing"
	"github.com/Simplici0/koshtorys/internal/quoteform"
	"github.com/Simplici0/koshtorys/internal/rates"
	"github.com/Simplici0/koshtorys/internal/render"
)

const (
	adminPath         = "/admin"
	maxBackgroundForm = 20 << 20

	pricePrefix = "price:"
	stonePrefix = "stone:"
)

type priceTableView struct {
	Table      catalog.Table
	Title      string
	Extensible bool
	Rows       []catalog.PriceRow
}

type adminViewData struct {
	baseViewData
	Tables      []priceTableView
	StoneTypes  []pricing.StoneType
	Stones      []catalog.StoneRow
	Settings    catalog.Settings
	Backgrounds []catalog.Background
}

func (s *server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := adminViewData{baseViewData: flash(r), StoneTypes: pricing.StoneTypes}
	data.Authenticated = true

	for _, t := range catalog.Tables {
		rows, err := s.catalog.ListPrices(ctx, t)
		if err != nil {
			s.log.Error().Err(err).Str("table", string(t)).Msg("list prices")
			http.Error(w, "failed to load prices", http.StatusInternalServerError)
			return
		}
		data.Tables = append(data.Tables, priceTableView{Table: t, Title: t.Title(), Extensible: t.Extensible(), Rows: rows})
	}

	var err error
	if data.Stones, err = s.catalog.ListStones(ctx); err != nil {
		s.log.Error().Err(err).Msg("list stones")
		http.Error(w, "failed to load stones", http.StatusInternalServerError)
		return
	}
	if data.Settings, err = s.catalog.Settings(ctx); err != nil {
		s.log.Error().Err(err).Msg("load settings")
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	if data.Backgrounds, err = s.catalog.Backgrounds(ctx); err != nil {
		s.log.Error().Err(err).Msg("list backgrounds")
		http.Error(w, "failed to load backgrounds", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "admin.html", data)
}

// handleAdminPricesUpdate saves every "price:<name>" field of one table.
// Rows are updated one by one; the first bad value stops the batch.
func (s *server) handleAdminPricesUpdate(w http.ResponseWriter, r *http.Request) {
	table, err := catalog.ParseTable(chi.URLParam(r, "table"))
	if err != nil {
		http.Error(w, "unknown price table", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	updated := 0
	for key, values := range r.PostForm {
		name, ok := strings.CutPrefix(key, pricePrefix)
		if !ok || len(values) == 0 {
			continue
		}
		price, err := parseNonNegativeDecimal(values[0], name)
		if err != nil {
			redirectAdmin(w, r, "error", err.Error())
			return
		}
		if err := s.catalog.UpdatePrice(r.Context(), table, name, price); err != nil {
			s.adminStoreError(w, r, err, "update price")
			return
		}
		updated++
	}

	s.log.Info().Str("table", string(table)).Int("rows", updated).Msg("prices updated")
	redirectAdmin(w, r, "success", table.Title()+" saved")
}

func (s *server) handleAdminPricesCreate(w http.ResponseWriter, r *http.Request) {
	table, err := catalog.ParseTable(chi.URLParam(r, "table"))
	if err != nil {
		http.Error(w, "unknown price table", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		redirectAdmin(w, r, "error", "name is required")
		return
	}
	price := decimal.Zero
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		if price, err = parseNonNegativeDecimal(raw, "price"); err != nil {
			redirectAdmin(w, r, "error", err.Error())
			return
		}
	}

	if err := s.catalog.AddItem(r.Context(), table, name); err != nil {
		s.adminStoreError(w, r, err, "add item")
		return
	}
	if !price.IsZero() {
		if err := s.catalog.UpdatePrice(r.Context(), table, name, price); err != nil {
			s.adminStoreError(w, r, err, "set new item price")
			return
		}
	}

	redirectAdmin(w, r, "success", fmt.Sprintf("%s added", name))
}

// handleAdminStonesUpdate saves "stone:<size>:<type>" fields, USD per piece.
func (s *server) handleAdminStonesUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	for key, values := range r.PostForm {
		cellKey, ok := strings.CutPrefix(key, stonePrefix)
		if !ok || len(values) == 0 {
			continue
		}
		rawSize, rawType, ok := strings.Cut(cellKey, ":")
		if !ok {
			redirectAdmin(w, r, "error", "malformed stone field "+key)
			return
		}
		size, err := pricing.ParseStoneSize(rawSize)
		if err != nil {
			redirectAdmin(w, r, "error", eris.Cause(err).Error()+" "+rawSize)
			return
		}
		typ, err := pricing.ParseStoneType(rawType)
		if err != nil {
			redirectAdmin(w, r, "error", eris.Cause(err).Error()+" "+rawType)
			return
		}
		usd, err := parseNonNegativeDecimal(values[0], key)
		if err != nil {
			redirectAdmin(w, r, "error", err.Error())
			return
		}
		if err := s.catalog.UpdateStonePrice(r.Context(), size, typ, usd); err != nil {
			s.adminStoreError(w, r, err, "update stone price")
			return
		}
	}

	redirectAdmin(w, r, "success", "Stone prices saved")
}

func (s *server) handleAdminRateSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	rate, err := parseNonNegativeDecimal(r.FormValue("usd_rate"), "usd_rate")
	if err == nil && !rate.IsPositive() {
		err = errors.New("usd_rate must be greater than 0")
	}
	if err != nil {
		redirectAdmin(w, r, "error", err.Error())
		return
	}

	err = s.catalog.SetExchangeRate(r.Context(), rate)
	s.metrics.ObserveRateRefresh("manual", rate.InexactFloat64(), err)
	if err != nil {
		s.adminStoreError(w, r, err, "set exchange rate")
		return
	}
	redirectAdmin(w, r, "success", "Exchange rate saved")
}

// handleAdminRateRefresh pulls the current USD rate from the bank feed,
// bypassing the cache.
func (s *server) handleAdminRateRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.rates.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("invalidate rate cache")
	}

	rate, err := rates.Refresh(ctx, s.rates, s.catalog)
	s.metrics.ObserveRateRefresh("nbu", rate.Value.InexactFloat64(), err)
	if err != nil {
		s.log.Error().Err(err).Msg("refresh exchange rate")
		redirectAdmin(w, r, "error", "Could not fetch the exchange rate, try again later")
		return
	}

	s.log.Info().Str("rate", rate.Value.String()).Str("date", rate.Date).Msg("exchange rate refreshed")
	redirectAdmin(w, r, "success", "Exchange rate updated to "+rate.Value.String())
}

func (s *server) handleAdminBackgroundSelect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if err := s.catalog.SetBackground(r.Context(), strings.TrimSpace(r.FormValue("file"))); err != nil {
		s.adminStoreError(w, r, err, "select background")
		return
	}
	redirectAdmin(w, r, "success", "Background selected")
}

// handleAdminBackgroundUpload stores an uploaded image as PNG in the assets
// dir, registers it and makes it the active background.
func (s *server) handleAdminBackgroundUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxBackgroundForm); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		redirectAdmin(w, r, "error", "name is required")
		return
	}
	upload, fh, err := r.FormFile("file")
	if err != nil {
		redirectAdmin(w, r, "error", "file is required")
		return
	}
	defer upload.Close()

	file := "bg-" + uuid.NewString() + ".png"
	if err := saveBackground(filepath.Join(s.assetsDir, file), upload); err != nil {
		s.log.Warn().Err(err).Str("file", fh.Filename).Msg("background rejected")
		redirectAdmin(w, r, "error", "Background must be a PNG or JPEG image")
		return
	}

	ctx := r.Context()
	if err := s.catalog.AddBackground(ctx, name, file); err != nil {
		s.adminStoreError(w, r, err, "add background")
		return
	}
	if err := s.catalog.SetBackground(ctx, file); err != nil {
		s.adminStoreError(w, r, err, "select background")
		return
	}
	redirectAdmin(w, r, "success", name+" uploaded")
}

func saveBackground(path string, src io.Reader) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "create assets dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create background file")
	}
	defer func() {
		err = multierr.Append(err, f.Close())
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return render.NormalizeImage(f, src)
}

// adminStoreError turns user-facing catalog errors into a flash message and
// anything else into a 500.
func (s *server) adminStoreError(w http.ResponseWriter, r *http.Request, err error, action string) {
	for _, target := range []error{
		catalog.ErrFixedTable,
		catalog.ErrNotFound,
		catalog.ErrDuplicate,
		catalog.ErrInvalidPrice,
		catalog.ErrInvalidRate,
		catalog.ErrInvalidName,
	} {
		if errors.Is(err, target) {
			redirectAdmin(w, r, "error", eris.Cause(err).Error())
			return
		}
	}
	s.log.Error().Err(err).Msg(action)
	http.Error(w, "failed to "+action, http.StatusInternalServerError)
}

func redirectAdmin(w http.ResponseWriter, r *http.Request, kind, message string) {
	http.Redirect(w, r, adminPath+"?"+kind+"="+url.QueryEscape(message), http.StatusSeeOther)
}

// parseNonNegativeDecimal applies the quote form's number rule to catalog
// prices, so a stored price can never be an exponent bomb.
func parseNonNegativeDecimal(raw, field string) (decimal.Decimal, error) {
	if strings.HasPrefix(strings.TrimSpace(raw), "-") {
		return decimal.Zero, fmt.Errorf("%s must be 0 or greater", field)
	}
	value, err := quoteform.ParseDecimal(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a plain number like 1250 or 12,5", field)
	}
	return value, nil
}
