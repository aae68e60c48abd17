// Package metrics provides Prometheus metrics for the gateway.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for request latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds all Prometheus metric collectors for the gateway.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	UpstreamDuration  *prometheus.HistogramVec
	UpstreamResponses *prometheus.CounterVec

	RelaySessionsOpen  prometheus.Gauge
	RelaySessionsTotal *prometheus.CounterVec
	RelayMessages      *prometheus.CounterVec
	RelayBytes         *prometheus.CounterVec
}

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fetch_gateway_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "route"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fetch_gateway_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "route"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fetch_gateway_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fetch_gateway_upstream_request_duration_seconds",
			Help:    "Upstream call latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method"}),

		UpstreamResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fetch_gateway_upstream_responses_total",
			Help: "Total upstream responses by method and status code.",
		}, []string{"method", "status_code"}),

		RelaySessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fetch_gateway_relay_sessions_open",
			Help: "WebSocket relay sessions currently open.",
		}),

		RelaySessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fetch_gateway_relay_sessions_total",
			Help: "Total WebSocket relay sessions by outcome.",
		}, []string{"outcome"}),

		RelayMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fetch_gateway_relay_messages_total",
			Help: "Total WebSocket messages relayed by direction.",
		}, []string{"direction"}),

		RelayBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fetch_gateway_relay_bytes_total",
			Help: "Total WebSocket payload bytes relayed by direction.",
		}, []string{"direction"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.UpstreamDuration,
		m.UpstreamResponses,
		m.RelaySessionsOpen,
		m.RelaySessionsTotal,
		m.RelayMessages,
		m.RelayBytes,
	)

	return m
}

// Relay session outcomes.
const (
	RelayOutcomeCompleted  = "completed"
	RelayOutcomeDialFailed = "dial_failed"
	RelayOutcomeNotWS      = "not_websocket"
)

// Relay directions.
const (
	DirClientToUpstream = "client_to_upstream"
	DirUpstreamToClient = "upstream_to_client"
)

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// RouteNormalizer returns a bounded route label for Prometheus metrics. Paths
// that are neither the forward path, the relay prefix, nor a service endpoint
// collapse into "static": the gated file tree is unbounded.
func RouteNormalizer(forwardPath, relayPrefix string) func(path string) string {
	service := []string{"/healthz", "/status", "/metrics"}
	return func(path string) string {
		if path == forwardPath {
			return forwardPath
		}
		if path == relayPrefix || strings.HasPrefix(path, relayPrefix+"/") {
			return relayPrefix
		}
		for _, p := range service {
			if path == p {
				return p
			}
		}
		return "static"
	}
}
