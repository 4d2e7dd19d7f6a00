package obs

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus collectors of the service.
type Metrics struct {
	ReqTotal      *prometheus.CounterVec
	ReqDur        *prometheus.HistogramVec
	QuotesTotal   *prometheus.CounterVec
	RenderDur     prometheus.Histogram
	RenderBytes   prometheus.Histogram
	RateRefreshes *prometheus.CounterVec
	ExchangeRate  prometheus.Gauge
	registry      prometheus.Gatherer
}

// NewMetrics registers the collectors on reg, or on the default registry
// when reg is nil. Collectors that are already registered are reused.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	m := &Metrics{
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method", "route"}),
		QuotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Quotes computed by output kind and result.",
		}, []string{"kind", "result"}),
		RenderDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pdf_render_duration_ms",
			Help:      "Time spent rendering one quote document in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		RenderBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pdf_size_bytes",
			Help:      "Size of rendered quote documents.",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 2, 10),
		}),
		RateRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_refresh_total",
			Help:      "Exchange rate refresh attempts by source and result.",
		}, []string{"source", "result"}),
		ExchangeRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "usd_exchange_rate",
			Help:      "Current UAH per USD rate used for stone prices.",
		}),
		registry: gatherer,
	}

	m.ReqTotal = mustRegister(registerer, m.ReqTotal)
	m.ReqDur = mustRegister(registerer, m.ReqDur)
	m.QuotesTotal = mustRegister(registerer, m.QuotesTotal)
	m.RenderDur = mustRegister(registerer, m.RenderDur)
	m.RenderBytes = mustRegister(registerer, m.RenderBytes)
	m.RateRefreshes = mustRegister(registerer, m.RateRefreshes)
	m.ExchangeRate = mustRegister(registerer, m.ExchangeRate)
	return m
}

func mustRegister[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
			return c
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
	return c
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests by method, matched route and status.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.ReqTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.ReqDur.WithLabelValues(r.Method, route).Observe(DurationMillis(time.Since(start)))
	})
}

// ObserveQuote records one quote outcome. kind is "preview", "pdf" or "cli".
func (m *Metrics) ObserveQuote(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.QuotesTotal.WithLabelValues(kind, result).Inc()
}

// ObserveRender records the duration and size of a rendered document.
func (m *Metrics) ObserveRender(d time.Duration, size int) {
	if m == nil {
		return
	}
	m.RenderDur.Observe(DurationMillis(d))
	m.RenderBytes.Observe(float64(size))
}

// ObserveRateRefresh records a refresh attempt and, on success, the new rate.
func (m *Metrics) ObserveRateRefresh(source string, rate float64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.RateRefreshes.WithLabelValues(source, "error").Inc()
		return
	}
	m.RateRefreshes.WithLabelValues(source, "ok").Inc()
	m.ExchangeRate.Set(rate)
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
