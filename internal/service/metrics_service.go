package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	cacheLatency        prometheus.Observer
	cacheWrite          prometheus.Observer
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	snapshotDuration    prometheus.Observer
	computationDuration *prometheus.HistogramVec
	violations          prometheus.Counter
	rosterJobs          *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	snapshotDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gradebook_snapshot_load_seconds",
		Help:    "Time spent reading a gradebook snapshot",
		Buckets: prometheus.DefBuckets,
	})

	computationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grade_computation_seconds",
		Help:    "Time spent computing grades from a snapshot",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	violations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grade_configuration_violations_total",
		Help: "Inconsistent gradebook snapshots rejected by the grading engine",
	})

	rosterJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_refresh_jobs_total",
		Help: "Roster refresh jobs by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		snapshotDuration, computationDuration, violations, rosterJobs, goroutines)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		cacheLatency:        cacheLatency,
		cacheWrite:          cacheWrite,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
		snapshotDuration:    snapshotDuration,
		computationDuration: computationDuration,
		violations:          violations,
		rosterJobs:          rosterJobs,
	}
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveSnapshotLoad records how long a snapshot transaction took.
func (m *MetricsService) ObserveSnapshotLoad(duration time.Duration) {
	if m == nil {
		return
	}
	m.snapshotDuration.Observe(duration.Seconds())
}

// ObserveComputation records a grade computation and counts configuration violations.
func (m *MetricsService) ObserveComputation(operation string, duration time.Duration, violation bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if violation {
		outcome = "violation"
		m.violations.Inc()
	}
	m.computationDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// RecordRosterJob counts a roster refresh outcome.
func (m *MetricsService) RecordRosterJob(outcome string) {
	if m == nil {
		return
	}
	m.rosterJobs.WithLabelValues(outcome).Inc()
}

// TrackQueue exports the number of jobs waiting in a worker queue.
func (m *MetricsService) TrackQueue(name string, pending func() int) error {
	if m == nil || pending == nil {
		return nil
	}
	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "job_queue_pending",
		Help:        "Jobs waiting to be picked up by a worker",
		ConstLabels: prometheus.Labels{"queue": name},
	}, func() float64 {
		return float64(pending())
	}))
}
