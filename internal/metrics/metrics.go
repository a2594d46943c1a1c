package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gestionale"

// Metrics groups the application collectors. Every method is a no-op on a
// nil receiver so that components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	importsTotal   *prometheus.CounterVec
	rowsTotal      *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
	jobsQueued     prometheus.Gauge
	jobsRunning    prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		importsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Total number of imports by record type and final status.",
		}, []string{"record_type", "status", "dry_run"}),
		rowsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Imported rows by record type and outcome.",
		}, []string{"record_type", "outcome"}),
		importDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Wall time of an import run.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"record_type"}),
		jobsQueued: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "jobs_queued",
			Help:      "Import jobs waiting for the worker.",
		}),
		jobsRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "jobs_running",
			Help:      "Import jobs currently running (0 or 1).",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ImportRows records the outcome counters of one import.
type ImportRows struct {
	Created, Updated, Skipped, Failed int
}

func (m *Metrics) ObserveImport(recordType, status string, dryRun bool, rows ImportRows, took time.Duration) {
	if m == nil {
		return
	}
	m.importsTotal.WithLabelValues(recordType, status, strconv.FormatBool(dryRun)).Inc()
	m.importDuration.WithLabelValues(recordType).Observe(took.Seconds())
	if dryRun {
		return
	}
	m.rowsTotal.WithLabelValues(recordType, "created").Add(float64(rows.Created))
	m.rowsTotal.WithLabelValues(recordType, "updated").Add(float64(rows.Updated))
	m.rowsTotal.WithLabelValues(recordType, "skipped").Add(float64(rows.Skipped))
	m.rowsTotal.WithLabelValues(recordType, "failed").Add(float64(rows.Failed))
}

func (m *Metrics) JobQueued() {
	if m != nil {
		m.jobsQueued.Inc()
	}
}

func (m *Metrics) JobStarted() {
	if m != nil {
		m.jobsQueued.Dec()
		m.jobsRunning.Inc()
	}
}

func (m *Metrics) JobFinished() {
	if m != nil {
		m.jobsRunning.Dec()
	}
}

func (m *Metrics) ObserveHTTP(route, method string, status int, took time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(route, method).Observe(took.Seconds())
}
