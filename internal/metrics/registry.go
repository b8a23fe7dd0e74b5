package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry holds the Prometheus collectors for factor computation and the HTTP API
type Registry struct {
	reg *prometheus.Registry

	// Per-factor computation metrics
	FactorDuration *prometheus.HistogramVec
	FactorMissing  *prometheus.GaugeVec
	FactorErrors   *prometheus.CounterVec

	// Whole-run metrics
	Runs        *prometheus.CounterVec
	RunDuration prometheus.Histogram
	ActiveRuns  prometheus.Gauge

	// HTTP API metrics
	HTTPRequests *prometheus.CounterVec
}

// NewRegistry creates a registry with all cfactor collectors registered on a private prometheus.Registry
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		FactorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cfactor_factor_duration_seconds",
				Help:    "Duration of each factor computation in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"factor", "result"},
		),

		FactorMissing: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cfactor_factor_missing_ratio",
				Help: "Share of missing cells in the latest output of each factor (0.0 to 1.0)",
			},
			[]string{"factor"},
		),

		FactorErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfactor_factor_errors_total",
				Help: "Total number of factor computation errors",
			},
			[]string{"factor"},
		),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfactor_runs_total",
				Help: "Total number of calculator runs by result",
			},
			[]string{"result"},
		),

		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cfactor_run_duration_seconds",
				Help:    "Duration of a full ten-factor calculator run in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
		),

		ActiveRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cfactor_active_runs",
				Help: "Number of calculator runs in flight",
			},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfactor_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}

	r.reg.MustRegister(
		r.FactorDuration,
		r.FactorMissing,
		r.FactorErrors,
		r.Runs,
		r.RunDuration,
		r.ActiveRuns,
		r.HTTPRequests,
	)

	return r
}

// Gatherer exposes the underlying registry, mostly for tests
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler returns an HTTP handler serving this registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// FactorTimer tracks execution time for one factor
type FactorTimer struct {
	metrics *Registry
	factor  string
	start   time.Time
}

// StartFactorTimer begins timing a factor computation
func (r *Registry) StartFactorTimer(factor string) *FactorTimer {
	return &FactorTimer{metrics: r, factor: factor, start: time.Now()}
}

// Stop records the duration under result ("ok" or "error")
func (ft *FactorTimer) Stop(result string) time.Duration {
	duration := time.Since(ft.start)
	ft.metrics.FactorDuration.WithLabelValues(ft.factor, result).Observe(duration.Seconds())
	if result != "ok" {
		ft.metrics.FactorErrors.WithLabelValues(ft.factor).Inc()
	}
	return duration
}

// RecordMissing sets the missing-cell ratio of a factor output
func (r *Registry) RecordMissing(factor string, missing, total int) {
	if total <= 0 {
		return
	}
	r.FactorMissing.WithLabelValues(factor).Set(float64(missing) / float64(total))
}

// RunStarted marks a calculator run as in flight and returns a func that completes it
func (r *Registry) RunStarted() func(err error) {
	start := time.Now()
	r.ActiveRuns.Inc()
	return func(err error) {
		r.ActiveRuns.Dec()
		r.RunDuration.Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
			log.Warn().Err(err).Msg("Calculator run failed")
		}
		r.Runs.WithLabelValues(result).Inc()
	}
}

// RecordHTTPRequest counts an HTTP request
func (r *Registry) RecordHTTPRequest(route string, code int) {
	r.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
