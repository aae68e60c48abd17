package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"fetch-gateway-go/internal/metrics"
)

// controlWriteTimeout bounds forwarded ping/pong control writes.
const controlWriteTimeout = 20 * time.Second

// RelayService bridges a client WebSocket and an upstream WebSocket,
// relaying frames verbatim in both directions until either side closes.
type RelayService struct {
	dialer  *websocket.Dialer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRelayService creates a RelayService. The metrics parameter is optional;
// pass nil to disable relay metrics recording.
func NewRelayService(logger *slog.Logger, m *metrics.Metrics) *RelayService {
	return &RelayService{
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: 45 * time.Second,
		},
		logger:  logger.With("component", "relay_service"),
		metrics: m,
	}
}

// Dial opens the upstream WebSocket with the given subprotocol. An empty
// subprotocol dials without one.
func (s *RelayService) Dial(ctx context.Context, targetURL, subprotocol string) (*websocket.Conn, error) {
	d := *s.dialer
	if subprotocol != "" {
		d.Subprotocols = []string{subprotocol}
	}

	conn, resp, err := d.DialContext(ctx, targetURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial upstream %s: %w (status %d)", targetURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial upstream %s: %w", targetURL, err)
	}
	return conn, nil
}

// Bridge relays messages between the client and upstream connections until
// one side closes, then closes the other. Frame types are preserved: text
// frames arrive as text, binary frames as binary. Ping and pong control
// frames are forwarded to the peer. Bridge blocks until both directions have
// finished and always leaves both connections closed.
func (s *RelayService) Bridge(clientConn, upstreamConn *websocket.Conn) error {
	if s.metrics != nil {
		s.metrics.RelaySessionsOpen.Inc()
		defer s.metrics.RelaySessionsOpen.Dec()
	}

	clientConn.SetPingHandler(forwardControl(websocket.PingMessage, upstreamConn))
	upstreamConn.SetPingHandler(forwardControl(websocket.PingMessage, clientConn))

	clientConn.SetPongHandler(forwardControl(websocket.PongMessage, upstreamConn))
	upstreamConn.SetPongHandler(forwardControl(websocket.PongMessage, clientConn))

	// Default close handlers echo the close frame back to the sender; the
	// mirrored Close below is what propagates closure to the peer.
	clientConn.SetCloseHandler(func(code int, text string) error { return nil })
	upstreamConn.SetCloseHandler(func(code int, text string) error { return nil })

	// Either direction ending tears down both sockets, which unblocks the
	// other direction's pending read.
	defer func() {
		_ = clientConn.Close()
		_ = upstreamConn.Close()
	}()

	kill := make(chan struct{})
	var once sync.Once
	done := func() { once.Do(func() { close(kill) }) }
	var clientErr, upstreamErr atomic.Value

	// Store the error before signaling: Bridge reads the error slots as
	// soon as kill closes.
	go func() {
		if err := s.pump(upstreamConn, clientConn, metrics.DirClientToUpstream, kill); err != nil {
			clientErr.Store(err)
		}
		done()
	}()
	go func() {
		if err := s.pump(clientConn, upstreamConn, metrics.DirUpstreamToClient, kill); err != nil {
			upstreamErr.Store(err)
		}
		done()
	}()

	<-kill
	if err, ok := clientErr.Load().(error); ok && err != nil {
		return err
	}
	if err, ok := upstreamErr.Load().(error); ok && err != nil {
		return err
	}
	return nil
}

// pump copies messages from src to dest until src closes or errors. Normal
// and going-away closures are not errors.
func (s *RelayService) pump(dest, src *websocket.Conn, direction string, kill <-chan struct{}) error {
	for {
		mtype, reader, err := src.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				return err
			}
			return nil
		}
		writer, err := dest.NextWriter(mtype)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				return err
			}
			return nil
		}
		n, err := io.Copy(writer, reader)
		_ = writer.Close()
		if err != nil {
			return err
		}

		if s.metrics != nil {
			s.metrics.RelayMessages.WithLabelValues(direction).Inc()
			s.metrics.RelayBytes.WithLabelValues(direction).Add(float64(n))
		}

		select {
		case <-kill:
			return nil
		default:
		}
	}
}

func forwardControl(messageType int, dest *websocket.Conn) func(string) error {
	return func(appData string) error {
		return dest.WriteControl(messageType, []byte(appData), time.Now().Add(controlWriteTimeout))
	}
}
