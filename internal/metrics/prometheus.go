package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saturnino-fabrica-de-software/facegate/internal/service"
)

// latency buckets span a cached mock call up to a cold model load.
var defaultLatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Manager owns the service's Prometheus collectors. It implements
// service.Recorder.
type Manager struct {
	namespace      string
	latencyBuckets []float64
	registry       *prometheus.Registry
	runtime        bool

	stageDuration *prometheus.HistogramVec
	outcomes      *prometheus.CounterVec
	quality       prometheus.Histogram
	distance      prometheus.Histogram

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var _ service.Recorder = (*Manager)(nil)

// NewManager creates a metrics manager. Without WithRegistry it registers on
// a fresh registry so tests and multiple servers never collide.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "facegate",
		latencyBuckets: defaultLatencyBuckets,
		runtime:        true,
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	if m.runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.stageDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage. Stage done is the whole call.",
			Buckets:   m.latencyBuckets,
		},
		[]string{"operation", "stage"},
	)

	m.outcomes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "pipeline",
			Name:      "outcomes_total",
			Help:      "Pipeline results by operation and outcome or error code",
		},
		[]string{"operation", "code"},
	)

	m.quality = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "quality_score",
		Help:      "Quality score of located faces (0-100)",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	})

	m.distance = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "verification_distance",
		Help:      "Cosine distance of completed verifications (0-2)",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 20),
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route, method and status",
		},
		[]string{"method", "route", "status"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route and method",
			Buckets:   m.latencyBuckets,
		},
		[]string{"method", "route"},
	)
}

func (m *Manager) ObserveStage(operation string, stage service.Stage, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(operation, string(stage)).Observe(elapsed.Seconds())
}

func (m *Manager) ObserveOutcome(operation, code string) {
	m.outcomes.WithLabelValues(operation, code).Inc()
}

func (m *Manager) ObserveQuality(score float64) {
	m.quality.Observe(score)
}

func (m *Manager) ObserveDistance(distance float64) {
	m.distance.Observe(distance)
}

// ObserveHTTPRequest records one served request. route is the matched route
// pattern, not the raw path.
func (m *Manager) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry returns the registry backing this manager.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
