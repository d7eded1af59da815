package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/ethixlearn/ethixlearn-backend/internal/platform/envutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

const namespace = "ethixlearn"

// Metrics owns a private Prometheus registry. Every method is nil-safe so
// callers can hold a nil *Metrics when metrics are disabled.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	aggregateOps       *prometheus.CounterVec
	aggregateLatency   *prometheus.HistogramVec
	aggregateConflicts *prometheus.CounterVec
	aggregateTransient *prometheus.CounterVec

	statements     *prometheus.CounterVec
	analyticsCache *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once. db may be nil; when set its
// connection pool stats are exported.
func Init(log *logger.Logger, db *gorm.DB) *Metrics {
	initOnce.Do(func() {
		instance = New(db)
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// New builds an independent metrics set on a fresh registry.
func New(db *gorm.DB) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "api_requests_total", Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "api_request_duration_seconds", Help: "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "api_inflight_requests", Help: "HTTP requests in flight.",
		}),
		aggregateOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "aggregate_operations_total", Help: "Aggregate writes by operation and status.",
		}, []string{"op", "status"}),
		aggregateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "aggregate_operation_duration_seconds", Help: "Aggregate write latency.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"op"}),
		aggregateConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "aggregate_conflicts_total", Help: "Aggregate writes that hit a uniqueness or concurrency conflict.",
		}, []string{"op"}),
		aggregateTransient: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "aggregate_transient_failures_total", Help: "Aggregate writes that failed on a lock, deadlock or timeout.",
		}, []string{"op"}),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "xapi_statements_total", Help: "Ingested xAPI statements by outcome.",
		}, []string{"outcome"}),
		analyticsCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "analytics_cache_total", Help: "Analytics cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateTransient,
		m.statements, m.analyticsCache,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			reg.MustRegister(collectors.NewDBStatsCollector(sqlDB, namespace))
		}
	}
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	op = labelOr(op, "unknown")
	m.aggregateOps.WithLabelValues(op, labelOr(status, "unknown")).Inc()
	m.aggregateLatency.WithLabelValues(op).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.WithLabelValues(labelOr(op, "unknown")).Inc()
}

func (m *Metrics) IncAggregateTransient(op string) {
	if m == nil {
		return
	}
	m.aggregateTransient.WithLabelValues(labelOr(op, "unknown")).Inc()
}

// IncStatement counts an ingestion outcome: "recorded" or an error code.
func (m *Metrics) IncStatement(outcome string) {
	if m == nil {
		return
	}
	m.statements.WithLabelValues(labelOr(outcome, "unknown")).Inc()
}

// StatementCounter exposes the counter for one outcome, mainly for tests.
func (m *Metrics) StatementCounter(outcome string) prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.statements.WithLabelValues(labelOr(outcome, "unknown"))
}

// IncAnalyticsCache counts "hit", "miss" or "error".
func (m *Metrics) IncAnalyticsCache(result string) {
	if m == nil {
		return
	}
	m.analyticsCache.WithLabelValues(labelOr(result, "unknown")).Inc()
}

func labelOr(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
