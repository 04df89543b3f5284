package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/timetable-core/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
// All recording methods are safe on a nil receiver.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheWrite         prometheus.Observer
	cacheHitRatio      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	storageDuration    *prometheus.HistogramVec
	aggregationLatency *prometheus.HistogramVec
	conflictsReported  *prometheus.CounterVec
	ingestionRecords   *prometheus.CounterVec
	assignmentsGauge   prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	storageOpCount       uint64
	storageDurationTotal uint64
	ingestionSkipped     uint64
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

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	storageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assignment_storage_duration_seconds",
		Help:    "Duration of persistence collaborator calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	aggregationLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_aggregation_seconds",
		Help:    "Duration of projection and statistics passes",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	conflictsReported := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_conflicts_reported_total",
		Help: "Conflicts reported for proposed or committed assignments",
	}, []string{"axis"})

	ingestionRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_ingestion_records_total",
		Help: "Raw assignment records processed by bulk ingestion",
	}, []string{"result"})

	assignmentsGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_assignments",
		Help: "Assignments currently held in the store",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		storageDuration, aggregationLatency, conflictsReported, ingestionRecords, assignmentsGauge, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		storageDuration:    storageDuration,
		aggregationLatency: aggregationLatency,
		conflictsReported:  conflictsReported,
		ingestionRecords:   ingestionRecords,
		assignmentsGauge:   assignmentsGauge,
	}
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveStorage records the timing of a persistence collaborator call.
func (m *MetricsService) ObserveStorage(op string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storageDuration.WithLabelValues(op).Observe(duration.Seconds())
	atomic.AddUint64(&m.storageOpCount, 1)
	atomic.AddUint64(&m.storageDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveAggregation records the duration of a projection or statistics pass.
func (m *MetricsService) ObserveAggregation(kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.aggregationLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordConflicts counts reported conflicts per axis.
func (m *MetricsService) RecordConflicts(conflicts []models.Conflict) {
	if m == nil {
		return
	}
	for _, c := range conflicts {
		m.conflictsReported.WithLabelValues(string(c.Axis)).Inc()
	}
}

// RecordIngestion counts loaded and skipped raw records.
func (m *MetricsService) RecordIngestion(loaded, skipped int) {
	if m == nil {
		return
	}
	m.ingestionRecords.WithLabelValues("loaded").Add(float64(loaded))
	m.ingestionRecords.WithLabelValues("skipped").Add(float64(skipped))
	atomic.AddUint64(&m.ingestionSkipped, uint64(skipped))
}

// SetAssignments publishes the current store size.
func (m *MetricsService) SetAssignments(n int) {
	if m == nil {
		return
	}
	m.assignmentsGauge.Set(float64(n))
}

// Snapshot returns aggregated metrics suitable for API consumption.
func (m *MetricsService) Snapshot() models.ServiceMetricsSnapshot {
	if m == nil {
		return models.ServiceMetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	storageCount := atomic.LoadUint64(&m.storageOpCount)
	storageDuration := atomic.LoadUint64(&m.storageDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgStorageMs float64
	if storageCount > 0 {
		avgStorageMs = float64(storageDuration) / float64(storageCount) / float64(time.Millisecond)
	}

	return models.ServiceMetricsSnapshot{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		StorageOpsCount:          storageCount,
		AverageStorageOpMs:       avgStorageMs,
		IngestionSkipped:         atomic.LoadUint64(&m.ingestionSkipped),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
