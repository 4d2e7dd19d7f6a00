package main

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Simplici0/koshtorys/internal/catalog"
	"github.com/Simplici0/koshtorys/internal/logging"
	"github.com/Simplici0/koshtorys/internal/obs"
	"github.com/Simplici0/koshtorys/internal/pricing"
	"github.com/Simplici0/koshtorys/internal/quoteform"
	"github.com/Simplici0/koshtorys/internal/rates"
	"github.com/Simplici0/koshtorys/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"priceKey": func(name string) string { return pricePrefix + name },
	"stoneKey": func(size pricing.StoneSize, typ pricing.StoneType) string {
		return stonePrefix + string(size) + ":" + string(typ)
	},
	"dict": func(kv ...any) (map[string]any, error) {
		if len(kv)%2 != 0 {
			return nil, errors.New("dict needs key value pairs")
		}
		m := make(map[string]any, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				return nil, errors.New("dict keys must be strings")
			}
			m[key] = kv[i+1]
		}
		return m, nil
	},
	"since": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return humanize.Time(t)
	},
}

// rateSource is the exchange rate feed, with a way to skip its cache.
type rateSource interface {
	rates.Fetcher
	Invalidate(ctx context.Context) error
}

type server struct {
	auth      *authService
	catalog   *catalog.Store
	rates     rateSource
	validator *quoteform.Validator
	renderer  *render.Renderer
	metrics   *obs.Metrics
	log       zerolog.Logger
	assetsDir string
}

type baseViewData struct {
	ErrorMessage   string
	SuccessMessage string
	Authenticated  bool
}

type loginViewData struct {
	baseViewData
}

func flash(r *http.Request) baseViewData {
	return baseViewData{
		ErrorMessage:   r.URL.Query().Get("error"),
		SuccessMessage: r.URL.Query().Get("success"),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger{Logger: s.log}.Middleware)
	r.Use(s.metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Get("/", s.handleHome)
	r.Post("/quote/preview", s.handleQuotePreview)
	r.Post("/quote/pdf", s.handleQuotePDF)

	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLoginSubmit)
	r.Post("/logout", s.handleLogout)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.auth.requireAdmin)
		r.Get("/", s.handleAdmin)
		r.Post("/prices/{table}", s.handleAdminPricesUpdate)
		r.Post("/prices/{table}/new", s.handleAdminPricesCreate)
		r.Post("/stones", s.handleAdminStonesUpdate)
		r.Post("/rate", s.handleAdminRateSubmit)
		r.Post("/rate/refresh", s.handleAdminRateRefresh)
		r.Post("/background", s.handleAdminBackgroundSelect)
		r.Post("/background/upload", s.handleAdminBackgroundUpload)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.catalog.Settings(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("health check failed")
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if s.auth.isAuthenticated(r) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	s.renderTemplate(w, "login.html", loginViewData{})
}

func (s *server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	valid, err := s.auth.validateCredentials(r.Context(), email, password)
	if err != nil {
		s.log.Error().Err(err).Msg("validate credentials")
		http.Error(w, "authentication error", http.StatusInternalServerError)
		return
	}
	if !valid {
		w.WriteHeader(http.StatusUnauthorized)
		s.renderTemplate(w, "login.html", loginViewData{baseViewData: baseViewData{ErrorMessage: "Invalid credentials. Try again."}})
		return
	}

	s.auth.setSessionCookie(w, email)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *server) renderTemplate(w http.ResponseWriter, page string, data any) {
	templates, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS,
		"templates/layout.html",
		"templates/"+page,
	)
	if err != nil {
		s.log.Error().Err(err).Str("page", page).Msg("parse template")
		http.Error(w, "failed to parse template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "layout.html", data); err != nil {
		s.log.Error().Err(err).Str("page", page).Msg("render template")
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}
}
