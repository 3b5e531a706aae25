// Package metrics holds the Prometheus instruments of the service.
//
// A nil *Metrics is valid and records nothing, so services can be built
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "engineeye"

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry prometheus.Gatherer

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	VehicleEvents    *prometheus.CounterVec
	ForumEvents      *prometheus.CounterVec
	ChatRequests     *prometheus.CounterVec
	ChatFallbacks    prometheus.Counter
	FeedSubscribers  prometheus.Gauge
	FeedPublishes    prometheus.Counter
	AuthFailures     *prometheus.CounterVec
	RateLimitedTotal prometheus.Counter
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the metrics on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: g,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		VehicleEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vehicle_events_total",
			Help:      "Vehicle record changes by kind",
		}, []string{"event"}),
		ForumEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forum_events_total",
			Help:      "Forum changes by kind",
		}, []string{"event"}),
		ChatRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Assistant requests by model and outcome",
		}, []string{"model", "outcome"}),
		ChatFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_fallbacks_total",
			Help:      "Assistant requests retried on the fallback model",
		}),
		FeedSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_subscribers",
			Help:      "Current number of forum feed subscribers",
		}),
		FeedPublishes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_publishes_total",
			Help:      "Forum snapshots published to subscribers",
		}),
		AuthFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Failed authentication attempts by reason",
		}, []string{"reason"}),
		RateLimitedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// Handler serves the registered metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) VehicleEvent(event string) {
	if m == nil {
		return
	}
	m.VehicleEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) ForumEvent(event string) {
	if m == nil {
		return
	}
	m.ForumEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) ChatRequest(model, outcome string) {
	if m == nil {
		return
	}
	m.ChatRequests.WithLabelValues(model, outcome).Inc()
}

func (m *Metrics) IncrementChatFallbacks() {
	if m == nil {
		return
	}
	m.ChatFallbacks.Inc()
}

func (m *Metrics) SetFeedSubscribers(n int) {
	if m == nil {
		return
	}
	m.FeedSubscribers.Set(float64(n))
}

func (m *Metrics) IncrementFeedPublishes() {
	if m == nil {
		return
	}
	m.FeedPublishes.Inc()
}

func (m *Metrics) AuthFailure(reason string) {
	if m == nil {
		return
	}
	m.AuthFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}
