package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/class-series-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP host and the engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheLookups    *prometheus.CounterVec
	refreshDuration prometheus.Observer
	refreshTotal    *prometheus.CounterVec
	snapshotSize    prometheus.Gauge
	seriesGrouped   prometheus.Gauge
	proposals       prometheus.Counter
	bulkPlans       *prometheus.CounterVec
	enrollActions   *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
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
		Name:    "snapshot_cache_latency_seconds",
		Help:    "Latency for snapshot cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_cache_lookups_total",
		Help: "Snapshot cache lookups by result",
	}, []string{"result"})

	refreshDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "snapshot_refresh_duration_seconds",
		Help:    "Duration of snapshot refreshes including the collaborator fetch",
		Buckets: prometheus.DefBuckets,
	})

	refreshTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_refresh_total",
		Help: "Snapshot refreshes by outcome (committed, superseded, failed)",
	}, []string{"outcome"})

	snapshotSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapshot_instances",
		Help: "Class instances held by the current snapshot",
	})

	seriesGrouped := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "series_grouped",
		Help: "Recurring series derived by the last grouping pass",
	})

	proposals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "series_extension_proposals_total",
		Help: "Extension proposals emitted by the expiration detector",
	})

	bulkPlans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_plans_total",
		Help: "Bulk operations planned by kind and outcome",
	}, []string{"kind", "outcome"})

	enrollActions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_actions_total",
		Help: "Enrollment actions by action and outcome",
	}, []string{"action", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheLookups, refreshDuration, refreshTotal,
		snapshotSize, seriesGrouped, proposals, bulkPlans, enrollActions, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheLookups:    cacheLookups,
		refreshDuration: refreshDuration,
		refreshTotal:    refreshTotal,
		snapshotSize:    snapshotSize,
		seriesGrouped:   seriesGrouped,
		proposals:       proposals,
		bulkPlans:       bulkPlans,
		enrollActions:   enrollActions,
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

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// RecordCacheOperation records a snapshot cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveRefresh records a snapshot refresh outcome.
func (m *MetricsService) ObserveRefresh(outcome string, duration time.Duration, instances int) {
	if m == nil {
		return
	}
	m.refreshDuration.Observe(duration.Seconds())
	m.refreshTotal.WithLabelValues(outcome).Inc()
	if outcome == RefreshCommitted {
		m.snapshotSize.Set(float64(instances))
	}
}

// ObserveGrouping records how many series the last grouping pass produced.
func (m *MetricsService) ObserveGrouping(series int) {
	if m == nil {
		return
	}
	m.seriesGrouped.Set(float64(series))
}

// IncProposals counts an emitted extension proposal.
func (m *MetricsService) IncProposals() {
	if m == nil {
		return
	}
	m.proposals.Inc()
}

// ObserveBulk counts a bulk plan outcome.
func (m *MetricsService) ObserveBulk(kind models.BulkKind, outcome string) {
	if m == nil {
		return
	}
	m.bulkPlans.WithLabelValues(string(kind), outcome).Inc()
}

// ObserveEnrollment counts an enrollment action outcome.
func (m *MetricsService) ObserveEnrollment(action models.Action, outcome string) {
	if m == nil {
		return
	}
	m.enrollActions.WithLabelValues(string(action), outcome).Inc()
}
