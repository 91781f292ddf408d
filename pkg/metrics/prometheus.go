// Package metrics provides Prometheus metrics for the racerank rating engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Drop reasons used as label values on events_dropped_total.
const (
	DropBeforeMinDate = "before_min_date"
	DropDuplicateDate = "duplicate_date"
	DropDuplicateCode = "duplicate_codex"
	DropEmpty         = "empty"
	DropDegenerate    = "degenerate"
)

// Manager manages all Prometheus metrics for the rating engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Ingestion
	filesRead    prometheus.Counter
	rowsRejected prometheus.Counter

	// Aggregation
	eventsRecorded *prometheus.CounterVec
	eventsDropped  *prometheus.CounterVec
	pairsGenerated prometheus.Counter

	// Temporal pass
	datesProcessed     *prometheus.CounterVec
	outOfOrderWarnings prometheus.Counter
	dateLatency        prometheus.Histogram
	runDuration        *prometheus.HistogramVec
	runsTotal          *prometheus.CounterVec

	// Result shape
	competitorsTotal      prometheus.Gauge
	competitorsQualifying prometheus.Gauge
	datesTotal            prometheus.Gauge
	nameGaps              prometheus.Gauge

	// HTTP read API
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByComponent   *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "racerank",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every series
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.filesRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "files_read_total",
		Help: "Total number of result files read by the loader",
	})
	m.rowsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "rows_rejected_total",
		Help: "Result rows dropped by validation",
	})

	m.eventsRecorded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "events_recorded_total",
		Help: "Events accepted by the aggregator, by derived shape",
	}, []string{"shape"})
	m.eventsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "events_dropped_total",
		Help: "Events dropped before or during rating, by reason",
	}, []string{"reason"})
	m.pairsGenerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "pairs_generated_total",
		Help: "Winner/loser pairs expanded from events (quadratic in field size)",
	})

	m.datesProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "dates_processed_total",
		Help: "Dates processed by the temporal driver, by rule",
	}, []string{"rule"})
	m.outOfOrderWarnings = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "out_of_order_dates_total",
		Help: "Dates delivered earlier than the last processed date",
	})
	m.dateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    "date_processing_milliseconds",
		Help:    "Time spent rating and forward-filling one date",
		Buckets: m.histogramBuckets,
	})
	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    "run_duration_seconds",
		Help:    "Duration of a full rating run, by rule",
		Buckets: m.histogramBuckets,
	}, []string{"rule"})
	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "runs_total",
		Help: "Rating runs, by rule and outcome",
	}, []string{"rule", "outcome"})

	m.competitorsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "competitors",
		Help: "Competitors known to the last run",
	})
	m.competitorsQualifying = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "competitors_qualifying",
		Help: "Competitors meeting the minimum race threshold in the last report",
	})
	m.datesTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "dates",
		Help: "Rating matrix columns in the last run",
	})
	m.nameGaps = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "report_name_gaps",
		Help: "Reported competitors written with a placeholder name",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: "errors_total",
		Help: "Errors by component and type",
	}, []string{"component", "type"})
}

// Enabled reports whether recording is on.
func (m *Manager) Enabled() bool { return m.enabled }

// Global helper functions. Each is a no-op when the global manager is disabled.

func RecordFileRead() {
	if globalManager.enabled {
		globalManager.filesRead.Inc()
	}
}

func RecordRowsRejected(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.rowsRejected.Add(float64(n))
	}
}

func RecordEventRecorded(shape string) {
	if globalManager.enabled {
		globalManager.eventsRecorded.WithLabelValues(shape).Inc()
	}
}

func RecordEventDropped(reason string) {
	if globalManager.enabled {
		globalManager.eventsDropped.WithLabelValues(reason).Inc()
	}
}

func RecordPairsGenerated(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.pairsGenerated.Add(float64(n))
	}
}

func RecordDateProcessed(rule string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.datesProcessed.WithLabelValues(rule).Inc()
		globalManager.dateLatency.Observe(latencyMs)
	}
}

func RecordOutOfOrderDate() {
	if globalManager.enabled {
		globalManager.outOfOrderWarnings.Inc()
	}
}

func RecordRun(rule, outcome string, seconds float64) {
	if globalManager.enabled {
		globalManager.runsTotal.WithLabelValues(rule, outcome).Inc()
		globalManager.runDuration.WithLabelValues(rule).Observe(seconds)
	}
}

func UpdateRunShape(competitors, dates int) {
	if globalManager.enabled {
		globalManager.competitorsTotal.Set(float64(competitors))
		globalManager.datesTotal.Set(float64(dates))
	}
}

func UpdateReportShape(qualifying, gaps int) {
	if globalManager.enabled {
		globalManager.competitorsQualifying.Set(float64(qualifying))
		globalManager.nameGaps.Set(float64(gaps))
	}
}

func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) { globalManager.enabled = enabled }

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the custom registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
