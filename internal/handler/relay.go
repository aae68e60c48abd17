package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"fetch-gateway-go/internal/metrics"
	"fetch-gateway-go/internal/service"
)

// notWSBody is returned when the relay endpoint receives a plain HTTP
// request instead of a WebSocket upgrade.
const notWSBody = "Not a WS connection"

// RelayHandler upgrades inbound WebSocket requests and relays frames to the
// upstream named in the url query parameter.
type RelayHandler struct {
	service  *service.RelayService
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewRelayHandler creates a RelayHandler. The metrics parameter is optional;
// pass nil to disable relay metrics recording.
func NewRelayHandler(svc *service.RelayService, logger *slog.Logger, m *metrics.Metrics) *RelayHandler {
	return &RelayHandler{
		service: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			// The gateway relays for arbitrary pages served from its own
			// static tree; origin checking is the unlock gate's job.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger.With("component", "relay_handler"),
		metrics: m,
	}
}

// Handle upgrades the inbound connection, dials the upstream WebSocket named
// in the url query parameter with the same subprotocol, and bridges the two
// until either side closes. A request that is not a WebSocket upgrade gets a
// plain text fallback response; that is policy, not an error.
func (h *RelayHandler) Handle(c echo.Context) error {
	req := c.Request()

	if !websocket.IsWebSocketUpgrade(req) {
		if h.metrics != nil {
			h.metrics.RelaySessionsTotal.WithLabelValues(metrics.RelayOutcomeNotWS).Inc()
		}
		return c.String(http.StatusOK, notWSBody)
	}

	upgrader := h.upgrader
	upgrader.Subprotocols = websocket.Subprotocols(req)

	clientConn, err := upgrader.Upgrade(c.Response(), req, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		h.logger.Error("websocket upgrade failed",
			"err", err,
			"remote_ip", c.RealIP(),
		)
		return nil
	}

	targetURL := c.QueryParam("url")
	subprotocol := clientConn.Subprotocol()

	h.logger.Debug("relay session starting",
		"target", targetURL,
		"subprotocol", subprotocol,
	)

	upstreamConn, err := h.service.Dial(req.Context(), targetURL, subprotocol)
	if err != nil {
		h.logger.Error("relay dial failed",
			"err", err,
			"target", targetURL,
		)
		if h.metrics != nil {
			h.metrics.RelaySessionsTotal.WithLabelValues(metrics.RelayOutcomeDialFailed).Inc()
		}
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "upstream connection failed")
		_ = clientConn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(5*time.Second))
		_ = clientConn.Close()
		return nil
	}

	if err := h.service.Bridge(clientConn, upstreamConn); err != nil {
		h.logger.Debug("relay session ended with error",
			"err", err,
			"target", targetURL,
		)
	}

	if h.metrics != nil {
		h.metrics.RelaySessionsTotal.WithLabelValues(metrics.RelayOutcomeCompleted).Inc()
	}

	return nil
}
