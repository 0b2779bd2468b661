// Package metrics provides the Prometheus metrics of the label and fulfillment services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "labtrack"

// Metrics owns a private registry so tests and multiple servers never clash
// on the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	statusChanges *prometheus.CounterVec
	sweepUnits    *prometheus.CounterVec
	escalations   *prometheus.CounterVec
	sweepDuration *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates and registers all collectors, Go runtime and process included
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		statusChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "labels",
				Name:      "status_changes_total",
				Help:      "Label status change attempts by target status and per-item result",
			},
			[]string{"target", "result"},
		),
		sweepUnits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_units_total",
				Help:      "Orders and delivery notes processed by sweeps, by outcome",
			},
			[]string{"sweep", "outcome"},
		),
		escalations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "escalations_total",
				Help:      "Operator escalations by kind",
			},
			[]string{"kind"},
		),
		sweepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sweep_duration_seconds",
				Help:      "Duration of sweep runs in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"sweep", "status"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status_code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.statusChanges,
		m.sweepUnits,
		m.escalations,
		m.sweepDuration,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// ObserveStatusChange counts one label item of a status change batch
func (m *Metrics) ObserveStatusChange(target labeling.LabelStatus, result string) {
	m.statusChanges.WithLabelValues(string(target), result).Inc()
}

// ObserveSweepUnit counts one order or note handled by a sweep
func (m *Metrics) ObserveSweepUnit(sweep, outcome string) {
	m.sweepUnits.WithLabelValues(sweep, outcome).Inc()
}

// ObserveEscalation counts one operator escalation
func (m *Metrics) ObserveEscalation(kind string) {
	m.escalations.WithLabelValues(kind).Inc()
}

// ObserveSweepRun records the duration of one sweep run
func (m *Metrics) ObserveSweepRun(sweep, status string, d time.Duration) {
	m.sweepDuration.WithLabelValues(sweep, status).Observe(d.Seconds())
}

// ObserveHTTPRequest records one served request. route is the matched route
// template, never the raw path.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
