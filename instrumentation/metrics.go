package instrumentation

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/go-oauth20-server/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "oauth20"

var _ auth.Recorder = (*Metrics)(nil)

// Config configures the metrics registry.
type Config struct {
	// ServiceName is attached to every metric as a constant "service" label.
	ServiceName string

	// IncludeRuntimeMetrics registers the Go runtime and process collectors.
	IncludeRuntimeMetrics bool
}

// Metrics holds all metric instruments of the server
type Metrics struct {
	registry *prometheus.Registry

	// OAuth flow metrics
	TokensIssued    *prometheus.CounterVec
	AuthCodesIssued prometheus.Counter
	TokensRevoked   *prometheus.CounterVec
	RequestFailures *prometheus.CounterVec

	// HTTP layer metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func New(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()
	var constLabels prometheus.Labels
	if cfg.ServiceName != "" {
		constLabels = prometheus.Labels{"service": cfg.ServiceName}
	}

	m := &Metrics{
		registry: registry,
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "tokens_issued_total",
			Help:        "Number of access tokens issued, by grant type.",
			ConstLabels: constLabels,
		}, []string{"grant_type"}),
		AuthCodesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "auth_codes_issued_total",
			Help:        "Number of authorization codes issued.",
			ConstLabels: constLabels,
		}),
		TokensRevoked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "revocations_total",
			Help:        "Number of revocation requests, by whether a token was revoked.",
			ConstLabels: constLabels,
		}, []string{"revoked"}),
		RequestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "request_failures_total",
			Help:        "Number of failed requests, by operation and OAuth2 error code.",
			ConstLabels: constLabels,
		}, []string{"operation", "code"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.TokensIssued,
		m.AuthCodesIssued,
		m.TokensRevoked,
		m.RequestFailures,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	if cfg.IncludeRuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry returns the registry every instrument is registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) TokenIssued(grantType string) {
	m.TokensIssued.WithLabelValues(grantType).Inc()
}

func (m *Metrics) AuthCodeIssued() {
	m.AuthCodesIssued.Inc()
}

func (m *Metrics) TokenRevoked(revoked bool) {
	m.TokensRevoked.WithLabelValues(strconv.FormatBool(revoked)).Inc()
}

func (m *Metrics) RequestFailed(operation, code string) {
	m.RequestFailures.WithLabelValues(operation, code).Inc()
}

// ObserveHTTPRequest records one served request. route is the matched ServeMux pattern, never
// the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
