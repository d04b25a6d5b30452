package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// MetricsService owns the Prometheus registry and the collectors the API updates.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	syncTotal       *prometheus.CounterVec
	syncDuration    *prometheus.HistogramVec
	syncQueued      prometheus.Gauge
	storeRecords    *prometheus.GaugeVec
}

// NewMetricsService registers the gradebook collectors on a private registry.
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

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradebook_cache_lookups_total",
		Help: "Recap cache lookups by result",
	}, []string{"result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gradebook_cache_latency_seconds",
		Help:    "Latency of recap cache operations",
		Buckets: prometheus.DefBuckets,
	})

	syncTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradebook_sync_total",
		Help: "Mutations pushed to the remote store by action and outcome",
	}, []string{"action", "status"})

	syncDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gradebook_sync_duration_seconds",
		Help:    "Duration of remote store pushes",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"action"})

	syncQueued := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gradebook_sync_queued",
		Help: "Mutations waiting in the retry queue",
	})

	storeRecords := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gradebook_store_records",
		Help: "Records held in memory by kind",
	}, []string{"kind"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheLatency, syncTotal, syncDuration, syncQueued, storeRecords, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLookups:    cacheLookups,
		cacheLatency:    cacheLatency,
		syncTotal:       syncTotal,
		syncDuration:    syncDuration,
		syncQueued:      syncQueued,
		storeRecords:    storeRecords,
	}
}

// Registry exposes the underlying registry, mainly for tests.
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
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation counts a hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheLatency.Observe(duration.Seconds())
}

// RecordSync counts a sync outcome.
func (m *MetricsService) RecordSync(result models.SyncResult) {
	if m == nil {
		return
	}
	m.syncTotal.WithLabelValues(string(result.Action), string(result.Status)).Inc()
	if result.Duration > 0 {
		m.syncDuration.WithLabelValues(string(result.Action)).Observe(result.Duration.Seconds())
	}
}

// AddQueued adjusts the retry queue gauge.
func (m *MetricsService) AddQueued(delta float64) {
	if m == nil {
		return
	}
	m.syncQueued.Add(delta)
}

// SetStoreSize publishes the number of records per kind.
func (m *MetricsService) SetStoreSize(students, teachers, sessions int) {
	if m == nil {
		return
	}
	m.storeRecords.WithLabelValues("students").Set(float64(students))
	m.storeRecords.WithLabelValues("teachers").Set(float64(teachers))
	m.storeRecords.WithLabelValues("sessions").Set(float64(sessions))
}
