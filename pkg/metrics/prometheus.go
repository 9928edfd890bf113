// Package metrics provides Prometheus metrics for the matchday service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace       string
	subsystem       string
	latencyBuckets  []float64
	goalBuckets     []float64
	enabled         bool
	refreshInterval time.Duration
	constLabels     map[string]string
	registry        prometheus.Registerer

	// Simulation
	matchesSimulated    *prometheus.CounterVec
	simulationFailures  *prometheus.CounterVec
	simulationLatency   prometheus.Histogram
	goalsPerMatch       prometheus.Histogram
	managerSkillChanges *prometheus.CounterVec

	// Matchmaking
	queueLength     prometheus.Gauge
	stagedMatches   prometheus.Gauge
	pairings        prometheus.Counter
	sweptEntries    *prometheus.CounterVec
	stagedDelivered prometheus.Counter

	// Live sessions
	liveSessions      prometheus.Gauge
	pauseRequests     *prometheus.CounterVec
	halftimeReleases  prometheus.Counter
	liveSessionEvents *prometheus.CounterVec

	// Batch pipeline
	jobQueueSize     prometheus.Gauge
	jobQueueCapacity prometheus.Gauge
	jobsEnqueued     prometheus.Counter
	jobsRejected     prometheus.Counter
	workerActive     prometheus.Gauge
	workerLatency    prometheus.Histogram
	workerErrors     prometheus.Counter

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "matchday",
		subsystem:       "engine",
		latencyBuckets:  []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		goalBuckets:     []float64{0, 1, 2, 3, 4, 5, 6, 8, 10, 15},
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		constLabels:     make(map[string]string),
		registry:        prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval returns how often gauge updaters should sample.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.latencyBuckets
	}
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.matchesSimulated = auto.NewCounterVec(m.counterOpts("matches_simulated_total", "Matches simulated by mode"), []string{"mode"})
	m.simulationFailures = auto.NewCounterVec(m.counterOpts("simulation_failures_total", "Simulation requests rejected by reason"), []string{"reason"})
	m.simulationLatency = auto.NewHistogram(m.histogramOpts("simulation_latency_milliseconds", "Time to generate and persist one match", nil))
	m.goalsPerMatch = auto.NewHistogram(m.histogramOpts("goals_per_match", "Total goals per simulated match", m.goalBuckets))
	m.managerSkillChanges = auto.NewCounterVec(m.counterOpts("manager_skill_changes_total", "Manager skill adjustments by direction"), []string{"direction"})

	m.queueLength = auto.NewGauge(m.gaugeOpts("matchmaking_queue_length", "Participants waiting for an opponent"))
	m.stagedMatches = auto.NewGauge(m.gaugeOpts("matchmaking_staged_matches", "Outcomes waiting to be picked up"))
	m.pairings = auto.NewCounter(m.counterOpts("matchmaking_pairings_total", "Successful queue pairings"))
	m.sweptEntries = auto.NewCounterVec(m.counterOpts("matchmaking_swept_total", "Expired entries removed by the sweeper"), []string{"kind"})
	m.stagedDelivered = auto.NewCounter(m.counterOpts("matchmaking_staged_delivered_total", "Staged outcomes returned to a polling participant"))

	m.liveSessions = auto.NewGauge(m.gaugeOpts("live_sessions", "Registered live sessions"))
	m.pauseRequests = auto.NewCounterVec(m.counterOpts("live_pause_requests_total", "Pause and resume requests by action and result"), []string{"action", "result"})
	m.halftimeReleases = auto.NewCounter(m.counterOpts("live_halftime_releases_total", "Half-time barriers released by both participants"))
	m.liveSessionEvents = auto.NewCounterVec(m.counterOpts("live_session_events_total", "Live session lifecycle events"), []string{"event"})

	m.jobQueueSize = auto.NewGauge(m.gaugeOpts("job_queue_size", "Simulation jobs waiting in the batch queue"))
	m.jobQueueCapacity = auto.NewGauge(m.gaugeOpts("job_queue_capacity", "Capacity of the batch queue"))
	m.jobsEnqueued = auto.NewCounter(m.counterOpts("jobs_enqueued_total", "Simulation jobs accepted by the batch queue"))
	m.jobsRejected = auto.NewCounter(m.counterOpts("jobs_rejected_total", "Simulation jobs rejected by the batch queue"))
	m.workerActive = auto.NewGauge(m.gaugeOpts("workers_active", "Running batch workers"))
	m.workerLatency = auto.NewHistogram(m.histogramOpts("worker_job_latency_milliseconds", "Time a worker spends on one job", nil))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Jobs that finished with an error"))

	m.storeLatency = auto.NewHistogramVec(m.histogramOpts("store_latency_milliseconds", "Store call latency by driver and operation", nil), []string{"driver", "operation"})
	m.storeErrors = auto.NewCounterVec(m.counterOpts("store_errors_total", "Store call failures by driver and operation"), []string{"driver", "operation"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", nil), []string{"endpoint", "method", "status_code"})
	m.httpErrors = auto.NewCounterVec(m.counterOpts("http_errors_total", "HTTP error responses by endpoint and kind"), []string{"endpoint", "kind"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Most recent GC pause", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

func on() bool { return globalManager != nil && globalManager.enabled }

// RecordMatchSimulated counts a simulated match and observes its goals and latency.
func RecordMatchSimulated(mode string, goals int, latencyMs float64) {
	if !on() {
		return
	}
	globalManager.matchesSimulated.WithLabelValues(mode).Inc()
	globalManager.goalsPerMatch.Observe(float64(goals))
	globalManager.simulationLatency.Observe(latencyMs)
}

// RecordSimulationFailure counts a rejected simulation request.
func RecordSimulationFailure(reason string) {
	if on() {
		globalManager.simulationFailures.WithLabelValues(reason).Inc()
	}
}

// RecordSkillChange counts a manager skill adjustment ("up" or "down").
func RecordSkillChange(direction string) {
	if on() {
		globalManager.managerSkillChanges.WithLabelValues(direction).Inc()
	}
}

// UpdateQueueLength sets the matchmaking queue length.
func UpdateQueueLength(n int) {
	if on() {
		globalManager.queueLength.Set(float64(n))
	}
}

// UpdateStagedMatches sets the number of staged outcomes.
func UpdateStagedMatches(n int) {
	if on() {
		globalManager.stagedMatches.Set(float64(n))
	}
}

// RecordPairing counts a successful pairing.
func RecordPairing() {
	if on() {
		globalManager.pairings.Inc()
	}
}

// RecordSwept counts expired entries of the given kind ("queue" or "staged").
func RecordSwept(kind string, n int) {
	if on() && n > 0 {
		globalManager.sweptEntries.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordStagedDelivered counts a staged outcome handed to a poller.
func RecordStagedDelivered() {
	if on() {
		globalManager.stagedDelivered.Inc()
	}
}

// UpdateLiveSessions sets the number of registered live sessions.
func UpdateLiveSessions(n int) {
	if on() {
		globalManager.liveSessions.Set(float64(n))
	}
}

// RecordPauseRequest counts a pause or resume attempt.
func RecordPauseRequest(action string, success bool) {
	if !on() {
		return
	}
	result := "rejected"
	if success {
		result = "accepted"
	}
	globalManager.pauseRequests.WithLabelValues(action, result).Inc()
}

// RecordHalftimeRelease counts a released half-time barrier.
func RecordHalftimeRelease() {
	if on() {
		globalManager.halftimeReleases.Inc()
	}
}

// RecordLiveSessionEvent counts a lifecycle event ("registered", "removed", "halftime").
func RecordLiveSessionEvent(event string) {
	if on() {
		globalManager.liveSessionEvents.WithLabelValues(event).Inc()
	}
}

// UpdateJobQueue sets the batch queue size and capacity.
func UpdateJobQueue(size, capacity int) {
	if !on() {
		return
	}
	globalManager.jobQueueSize.Set(float64(size))
	globalManager.jobQueueCapacity.Set(float64(capacity))
}

// RecordJobEnqueued counts an accepted batch job.
func RecordJobEnqueued() {
	if on() {
		globalManager.jobsEnqueued.Inc()
	}
}

// RecordJobRejected counts a rejected batch job.
func RecordJobRejected() {
	if on() {
		globalManager.jobsRejected.Inc()
	}
}

// UpdateWorkersActive sets the running worker count.
func UpdateWorkersActive(n int) {
	if on() {
		globalManager.workerActive.Set(float64(n))
	}
}

// RecordWorkerJob observes one processed job.
func RecordWorkerJob(latencyMs float64, err error) {
	if !on() {
		return
	}
	globalManager.workerLatency.Observe(latencyMs)
	if err != nil {
		globalManager.workerErrors.Inc()
	}
}

// RecordStoreCall observes one store call.
func RecordStoreCall(driver, operation string, latencyMs float64, err error) {
	if !on() {
		return
	}
	globalManager.storeLatency.WithLabelValues(driver, operation).Observe(latencyMs)
	if err != nil {
		globalManager.storeErrors.WithLabelValues(driver, operation).Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, kind string) {
	if on() {
		globalManager.httpErrors.WithLabelValues(endpoint, kind).Inc()
	}
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if on() {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// Global returns the process-wide manager.
func Global() *Manager { return globalManager }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
