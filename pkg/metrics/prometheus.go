package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every Prometheus collector of the service. A nil *Manager is
// valid and records nothing.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// Learner metrics
	abilityUpdates      *prometheus.CounterVec
	abilityLevelChanges prometheus.Counter
	abilityResets       prometheus.Counter
	trendAnalyses       *prometheus.CounterVec
	trendDuration       prometheus.Histogram
	exports             prometheus.Counter

	// Cache metrics
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	// Event metrics
	eventsPublished *prometheus.CounterVec
	eventsFailed    *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a metrics manager on its own registry unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "najah",
		subsystem:        "learner",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.abilityUpdates = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ability_updates_total",
		Help:      "Total number of ability updates by response correctness",
	}, []string{"correct"})

	m.abilityLevelChanges = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ability_level_changes_total",
		Help:      "Total number of ability updates that moved a learner to another level",
	})

	m.abilityResets = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ability_resets_total",
		Help:      "Total number of ability estimates reset by staff",
	})

	m.trendAnalyses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trend_analyses_total",
		Help:      "Total number of trend analyses by resulting trend",
	}, []string{"trend"})

	m.trendDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trend_analysis_duration_seconds",
		Help:      "Time spent loading and analysing a student's results",
		Buckets:   m.histogramBuckets,
	})

	m.exports = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trend_exports_total",
		Help:      "Total number of progress spreadsheets generated",
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Total number of trend reports served from cache",
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Total number of trend reports computed because the cache had none",
	})

	m.eventsPublished = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_published_total",
		Help:      "Total number of learner events published by type",
	}, []string{"event_type"})

	m.eventsFailed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_failed_total",
		Help:      "Total number of learner events that could not be published",
	}, []string{"event_type"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})
}

func (m *Manager) active() bool {
	return m != nil && m.enabled
}

func (m *Manager) RecordAbilityUpdate(correct bool) {
	if m.active() {
		m.abilityUpdates.WithLabelValues(strconv.FormatBool(correct)).Inc()
	}
}

func (m *Manager) RecordLevelChange() {
	if m.active() {
		m.abilityLevelChanges.Inc()
	}
}

func (m *Manager) RecordAbilityReset() {
	if m.active() {
		m.abilityResets.Inc()
	}
}

func (m *Manager) RecordTrendAnalysis(trend string, duration time.Duration) {
	if m.active() {
		m.trendAnalyses.WithLabelValues(trend).Inc()
		m.trendDuration.Observe(duration.Seconds())
	}
}

func (m *Manager) RecordExport() {
	if m.active() {
		m.exports.Inc()
	}
}

func (m *Manager) RecordCacheHit() {
	if m.active() {
		m.cacheHits.Inc()
	}
}

func (m *Manager) RecordCacheMiss() {
	if m.active() {
		m.cacheMisses.Inc()
	}
}

func (m *Manager) RecordEventPublished(eventType string) {
	if m.active() {
		m.eventsPublished.WithLabelValues(eventType).Inc()
	}
}

func (m *Manager) RecordEventFailed(eventType string) {
	if m.active() {
		m.eventsFailed.WithLabelValues(eventType).Inc()
	}
}

func (m *Manager) RecordHTTPRequest(route, method string, statusCode int, duration time.Duration) {
	if m.active() {
		m.httpRequests.WithLabelValues(route, method, strconv.Itoa(statusCode)).Inc()
		m.httpRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
	}
}

// GetRegistry returns the registry the metrics live on.
func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records every request against its route template so that path
// parameters do not explode label cardinality.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
