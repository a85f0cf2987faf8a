// Package metrics provides Prometheus metrics for the kart tournament engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared with callers.
const (
	AdvancementApplied = "applied"
	AdvancementSkipped = "skipped"
	AdvancementNoop    = "noop"

	WriteOK       = "ok"
	WriteConflict = "conflict"
	WriteError    = "error"
)

// Manager owns every metric the engine exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Match writes and optimistic locking
	matchWrites      *prometheus.CounterVec
	versionConflicts prometheus.Counter
	lockExhausted    prometheus.Counter

	// Bracket progression
	advancements     *prometheus.CounterVec
	champions        *prometheus.CounterVec
	grandFinalResets prometheus.Counter
	bracketsCreated  *prometheus.CounterVec

	// Qualification stats
	recalculations       prometheus.Counter
	recalculationLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "kart",
		subsystem:        "bracket",
		histogramBuckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.matchWrites = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_writes_total",
		Help:      "Conditional match writes by stage and result",
	}, []string{"stage", "result"})

	m.versionConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "version_conflicts_total",
		Help:      "Conditional writes rejected because another writer bumped the version",
	})

	m.lockExhausted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lock_exhausted_total",
		Help:      "Updates that gave up after the retry budget was spent",
	})

	m.advancements = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "advancements_total",
		Help:      "Bracket advancement steps by result",
	}, []string{"result"})

	m.champions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "champions_total",
		Help:      "Finals brackets that declared a champion",
	}, []string{"mode"})

	m.grandFinalResets = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "grand_final_resets_total",
		Help:      "Grand finals won from the losers bracket",
	})

	m.bracketsCreated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "brackets_generated_total",
		Help:      "Finals brackets generated",
	}, []string{"mode"})

	m.recalculations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stat_recalculations_total",
		Help:      "Qualification stat recalculations",
	})

	m.recalculationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stat_recalculation_duration_milliseconds",
		Help:      "Time spent recomputing one player's qualification stats",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordMatchWrite counts a conditional match write.
func RecordMatchWrite(stage, result string) {
	globalManager.matchWrites.WithLabelValues(stage, result).Inc()
}

// RecordVersionConflict counts a rejected conditional write.
func RecordVersionConflict() {
	globalManager.versionConflicts.Inc()
}

// RecordLockExhausted counts an update that ran out of attempts.
func RecordLockExhausted() {
	globalManager.lockExhausted.Inc()
}

// RecordAdvancement counts one advancement step.
func RecordAdvancement(result string) {
	globalManager.advancements.WithLabelValues(result).Inc()
}

// RecordChampion counts a completed finals bracket.
func RecordChampion(mode string) {
	globalManager.champions.WithLabelValues(mode).Inc()
}

// RecordGrandFinalReset counts a grand final that forced the reset match.
func RecordGrandFinalReset() {
	globalManager.grandFinalResets.Inc()
}

// RecordBracketGenerated counts a generated finals bracket.
func RecordBracketGenerated(mode string) {
	globalManager.bracketsCreated.WithLabelValues(mode).Inc()
}

// RecordStatRecalculation records one recalculation and its latency.
func RecordStatRecalculation(latencyMs float64) {
	globalManager.recalculations.Inc()
	globalManager.recalculationLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the registry the engine's metrics live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
