// Package metrics provides Prometheus metrics for the placement scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Assessment outcomes
	assessments    *prometheus.CounterVec
	ineligible     *prometheus.CounterVec
	clampWarnings  *prometheus.CounterVec
	configErrors   *prometheus.CounterVec
	scoringLatency prometheus.Histogram

	// Application intake
	applicationsAccepted  prometheus.Counter
	applicationsDuplicate prometheus.Counter
	applicationsScreened  prometheus.Counter
	screeningErrors       prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Shortlists
	shortlistUpdates       prometheus.Counter
	shortlistEntries       prometheus.Gauge
	shortlistJobs          prometheus.Gauge
	shortlistUpdateLatency prometheus.Histogram
	shortlistQueryLatency  prometheus.Histogram

	// Record store
	records *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // shared metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "placement",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all collectors
	auto := promauto.With(m.registry)

	m.assessments = m.counterVec("assessments_total", "Assessments produced by criteria and verdict", "criteria", "verdict")
	m.ineligible = m.counterVec("ineligible_total", "Assessments that failed at least one threshold", "criteria")
	m.clampWarnings = m.counterVec("clamp_warnings_total", "Raw inputs clamped during normalization", "field")
	m.configErrors = m.counterVec("configuration_errors_total", "Rejected criteria or normalizer configuration", "kind")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Normalize, score and explain latency", m.histogramBuckets)

	m.applicationsAccepted = m.counter("applications_accepted_total", "Applications accepted for screening")
	m.applicationsDuplicate = m.counter("applications_duplicate_total", "Applications rejected as duplicates")
	m.applicationsScreened = m.counter("applications_screened_total", "Applications screened by workers")
	m.screeningErrors = m.counter("screening_errors_total", "Applications that failed screening")

	m.queueSize = m.gauge("queue_size", "Applications waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Applications enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Applications dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Enqueue attempts rejected by backpressure")

	m.workerCount = m.gauge("worker_count", "Configured screening workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently screening an application")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-application screening latency", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Worker processing errors")

	m.shortlistUpdates = m.counter("shortlist_updates_total", "Shortlist upserts")
	m.shortlistEntries = m.gauge("shortlist_entries", "Screened candidates across all shortlists")
	m.shortlistJobs = m.gauge("shortlist_jobs", "Jobs with at least one screened candidate")
	m.shortlistUpdateLatency = m.histogram("shortlist_update_latency_milliseconds", "Shortlist upsert latency", m.histogramBuckets)
	m.shortlistQueryLatency = m.histogram("shortlist_query_latency_milliseconds", "Shortlist read latency", m.histogramBuckets)

	m.records = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "records", Help: "Stored records by kind",
		ConstLabels: m.constLabels,
	}, []string{"kind"})

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "http_request_duration_milliseconds",
		Help: "HTTP request duration in milliseconds", ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")
	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordAssessment counts an assessment outcome.
func RecordAssessment(criteria, verdict string, eligible bool) {
	globalManager.assessments.WithLabelValues(criteria, verdict).Inc()
	if !eligible {
		globalManager.ineligible.WithLabelValues(criteria).Inc()
	}
}

// RecordClampWarning counts a clamped input field.
func RecordClampWarning(field string) {
	globalManager.clampWarnings.WithLabelValues(field).Inc()
}

// RecordConfigurationError counts rejected criteria or configuration by kind.
func RecordConfigurationError(kind string) {
	globalManager.configErrors.WithLabelValues(kind).Inc()
}

// RecordScoringLatency records assessment latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordApplicationAccepted counts an application accepted for screening.
func RecordApplicationAccepted() {
	globalManager.applicationsAccepted.Inc()
}

// RecordApplicationDuplicate counts a duplicate application.
func RecordApplicationDuplicate() {
	globalManager.applicationsDuplicate.Inc()
}

// RecordApplicationScreened counts a screened application.
func RecordApplicationScreened() {
	globalManager.applicationsScreened.Inc()
}

// RecordScreeningError counts a failed screening.
func RecordScreeningError() {
	globalManager.screeningErrors.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordShortlistUpdate counts a shortlist upsert.
func RecordShortlistUpdate() {
	globalManager.shortlistUpdates.Inc()
}

// UpdateShortlistTotals sets the entry and job gauges.
func UpdateShortlistTotals(entries, jobs int) {
	globalManager.shortlistEntries.Set(float64(entries))
	globalManager.shortlistJobs.Set(float64(jobs))
}

// RecordShortlistUpdateLatency records shortlist upsert latency.
func RecordShortlistUpdateLatency(latencyMs float64) {
	globalManager.shortlistUpdateLatency.Observe(latencyMs)
}

// RecordShortlistQueryLatency records shortlist read latency.
func RecordShortlistQueryLatency(latencyMs float64) {
	globalManager.shortlistQueryLatency.Observe(latencyMs)
}

// UpdateRecords sets the stored record count for a kind such as "candidates".
func UpdateRecords(kind string, count int) {
	globalManager.records.WithLabelValues(kind).Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory in use in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
