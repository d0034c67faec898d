package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics for the service.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	movesTotal      *prometheus.CounterVec
	versionConflict prometheus.Counter
	reportBuilds    prometheus.Histogram
}

// NewMetrics initialises the registry and the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "liftplan_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "liftplan_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	moves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "liftplan_plan_moves_total",
		Help: "Completed plan moves by action and quarter crossing.",
	}, []string{"action", "cross_quarter"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "liftplan_version_conflicts_total",
		Help: "Mutations rejected on a stale version.",
	})
	reports := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "liftplan_report_build_duration_seconds",
		Help:    "Weekly comparison report build duration.",
		Buckets: prometheus.DefBuckets,
	})
	registry.MustRegister(requests, duration, moves, conflicts, reports)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		movesTotal:      moves,
		versionConflict: conflicts,
		reportBuilds:    reports,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// RecordMove counts one completed plan move.
func (m *Metrics) RecordMove(action string, crossQuarter bool) {
	if m == nil {
		return
	}
	m.movesTotal.WithLabelValues(action, strconv.FormatBool(crossQuarter)).Inc()
}

// RecordVersionConflict counts one stale-version rejection.
func (m *Metrics) RecordVersionConflict() {
	if m == nil {
		return
	}
	m.versionConflict.Inc()
}

// ObserveReportBuild records one report build duration.
func (m *Metrics) ObserveReportBuild(d time.Duration) {
	if m == nil {
		return
	}
	m.reportBuilds.Observe(d.Seconds())
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
