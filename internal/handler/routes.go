package handler

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fetch-gateway-go/internal/config"
	"fetch-gateway-go/internal/metrics"
)

// Matcher decides which gateway endpoint a request path targets.
type Matcher struct {
	forwardPath string
	relayPrefix string
}

// NewMatcher creates a Matcher from the configured routes.
func NewMatcher(cfg *config.Config) *Matcher {
	return &Matcher{
		forwardPath: cfg.Gateway.ForwardPath,
		relayPrefix: cfg.Gateway.RelayPrefix,
	}
}

// IsForwardPath reports whether path targets the HTTP forward endpoint.
// Exact match only; sub-paths of the forward path are not forward requests.
func (m *Matcher) IsForwardPath(path string) bool {
	return path == m.forwardPath
}

// IsRelayPath reports whether path targets the WebSocket relay endpoint.
// Prefix match; sub-paths are included.
func (m *Matcher) IsRelayPath(path string) bool {
	return strings.HasPrefix(path, m.relayPrefix)
}

// GatewayHandler dispatches requests to the forward, relay or gated static
// handlers. Forward is checked first, then relay, then everything else falls
// through to the static tree.
type GatewayHandler struct {
	matcher *Matcher
	forward *ForwardHandler
	relay   *RelayHandler
	gate    *GateHandler
}

// NewGatewayHandler creates a GatewayHandler.
func NewGatewayHandler(m *Matcher, forward *ForwardHandler, relay *RelayHandler, gate *GateHandler) *GatewayHandler {
	return &GatewayHandler{
		matcher: m,
		forward: forward,
		relay:   relay,
		gate:    gate,
	}
}

// Dispatch routes a request to the matching handler.
func (h *GatewayHandler) Dispatch(c echo.Context) error {
	path := c.Request().URL.Path
	switch {
	case h.matcher.IsForwardPath(path):
		return h.forward.Handle(c)
	case h.matcher.IsRelayPath(path):
		return h.relay.Handle(c)
	default:
		return h.gate.Serve(c)
	}
}

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, gateway *GatewayHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/status", health.Status)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(
			promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	e.Any("/*", gateway.Dispatch)
}
