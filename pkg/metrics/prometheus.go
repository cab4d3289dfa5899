// Package metrics provides Prometheus metrics for the zodiac HR service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Zodiac core
	classifications          *prometheus.CounterVec
	classificationFailures   prometheus.Counter
	compatibilityEvaluations *prometheus.CounterVec
	balanceAnalyses          prometheus.Counter

	// Directory
	membersTotal       prometheus.Gauge
	membersActive      prometheus.Gauge
	repositoryLatency  *prometheus.HistogramVec
	idempotentReplays  prometheus.Counter
	birthdaysToday     prometheus.Gauge
	birthdayDigestRuns prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Import pipeline
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueued           prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerCount             prometheus.Gauge
	workerRows              *prometheus.CounterVec
	workerProcessingLatency prometheus.Histogram

	// Auth
	loginAttempts  *prometheus.CounterVec
	activeSessions prometheus.Gauge

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton behind the Record*/Update* helpers

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals

func init() { //nolint:gochecknoinits
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates and registers a full metric set.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "zodiac",
		subsystem:        "hr",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
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

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	msBuckets := []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}

	m.classifications = m.counterVec("classifications_total", "Successful birth date classifications by sign", "sign")
	m.classificationFailures = m.counter("classification_failures_total", "Birth dates rejected as invalid input")
	m.compatibilityEvaluations = m.counterVec("compatibility_evaluations_total", "Compatibility evaluations by kind (pair, group)", "kind")
	m.balanceAnalyses = m.counter("balance_analyses_total", "Element balance analyses")

	m.membersTotal = m.gauge("members_total", "Members in the directory, excluding soft-deleted")
	m.membersActive = m.gauge("members_active", "Members with Active status")
	m.repositoryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "repository_operation_latency_milliseconds",
		Help:    "Member store operation latency in milliseconds",
		Buckets: msBuckets,
	}, []string{"store", "operation"})
	m.idempotentReplays = m.counter("idempotent_replays_total", "Creates answered from an earlier Idempotency-Key")
	m.birthdaysToday = m.gauge("birthdays_today", "Members whose birthday is today, as of the last digest")
	m.birthdayDigestRuns = m.counter("birthday_digest_runs_total", "Birthday digest job executions")

	m.httpRequests = m.counterVec("http_requests_total", "Total HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.queueSize = m.gauge("import_queue_size", "Import rows waiting in the queue")
	m.queueCapacity = m.gauge("import_queue_capacity", "Import queue capacity")
	m.queueEnqueued = m.counter("import_queue_enqueued_total", "Import rows enqueued")
	m.queueEnqueueErrors = m.counter("import_queue_enqueue_errors_total", "Import rows rejected by backpressure or a closed queue")
	m.workerCount = m.gauge("import_worker_count", "Running import workers")
	m.workerRows = m.counterVec("import_rows_total", "Import rows processed by result", "result")
	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "import_row_latency_milliseconds",
		Help:    "Time to classify and store one import row",
		Buckets: msBuckets,
	})

	m.loginAttempts = m.counterVec("login_attempts_total", "Login attempts by result", "result")
	m.activeSessions = m.gauge("active_sessions", "Live session tokens")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
}

// RecordClassification counts a successful classification.
func RecordClassification(sign string) {
	globalManager.classifications.WithLabelValues(sign).Inc()
}

// RecordClassificationFailure counts a rejected birth date.
func RecordClassificationFailure() {
	globalManager.classificationFailures.Inc()
}

// RecordCompatibilityEvaluation counts a pair or group evaluation.
func RecordCompatibilityEvaluation(kind string) {
	globalManager.compatibilityEvaluations.WithLabelValues(kind).Inc()
}

func RecordBalanceAnalysis() {
	globalManager.balanceAnalyses.Inc()
}

// UpdateMembersTotal sets the non-deleted member count.
func UpdateMembersTotal(count int) {
	globalManager.membersTotal.Set(float64(count))
}

func UpdateMembersActive(count int) {
	globalManager.membersActive.Set(float64(count))
}

// RecordRepositoryLatency observes one store operation.
func RecordRepositoryLatency(store, operation string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(store, operation).Observe(latencyMs)
}

func RecordIdempotentReplay() {
	globalManager.idempotentReplays.Inc()
}

func UpdateBirthdaysToday(count int) {
	globalManager.birthdaysToday.Set(float64(count))
}

func RecordBirthdayDigestRun() {
	globalManager.birthdayDigestRuns.Inc()
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerRow counts one processed import row; result is "ok" or "failed".
func RecordWorkerRow(result string) {
	globalManager.workerRows.WithLabelValues(result).Inc()
}

func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordLoginAttempt counts a login by result (ok, invalid, throttled, error).
func RecordLoginAttempt(result string) {
	globalManager.loginAttempts.WithLabelValues(result).Inc()
}

func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordErrorByComponent counts an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
