// Package handler contains the Echo handlers for the gateway endpoints.
package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"fetch-gateway-go/internal/model"
	"fetch-gateway-go/internal/service"
)

// Custom request headers carrying the forward metadata.
const (
	HeaderTargetURL = "x-url"
	HeaderTargetSet = "x-headers"
)

// ForwardHandler forwards a request to the URL named in its x-url header and
// streams the response back.
type ForwardHandler struct {
	service *service.ForwardService
	logger  *slog.Logger
}

// NewForwardHandler creates a ForwardHandler.
func NewForwardHandler(svc *service.ForwardService, logger *slog.Logger) *ForwardHandler {
	return &ForwardHandler{
		service: svc,
		logger:  logger.With("component", "forward_handler"),
	}
}

// Handle reads the target URL from x-url and the outbound header set from
// x-headers (a JSON object, required), issues the upstream request with the
// inbound method, and streams the response back with caching headers
// stripped. Every failure — missing or malformed metadata, DNS, connection
// refused — collapses into a single 500 whose body is the error message.
func (h *ForwardHandler) Handle(c echo.Context) error {
	fr, err := h.buildForwardRequest(c)
	if err != nil {
		return h.fail(c, err)
	}

	resp, err := h.service.Forward(fr)
	if err != nil {
		return h.fail(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)

	// Stream the upstream body directly to the client. If io.Copy fails
	// mid-stream (e.g. client disconnect, network error), the HTTP status
	// code has already been sent, so the client receives a truncated
	// response with the original status. We log the error for observability.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"target", fr.TargetURL,
		)
	}

	return nil
}

// buildForwardRequest extracts the forward metadata from the inbound request.
// Only POST bodies are read; they are buffered whole before dispatch.
func (h *ForwardHandler) buildForwardRequest(c echo.Context) (*model.ForwardRequest, error) {
	req := c.Request()

	targetURL := req.Header.Get(HeaderTargetURL)
	header, err := model.ParseHeaderJSON(req.Header.Get(HeaderTargetSet))
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Method == http.MethodPost {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		body = strings.NewReader(string(data))

		h.logger.Info("forwarding POST",
			"method", req.Method,
			"target", targetURL,
		)
	}

	return &model.ForwardRequest{
		Ctx:       req.Context(),
		Method:    req.Method,
		TargetURL: targetURL,
		Header:    header,
		Body:      body,
	}, nil
}

// fail is the sole error path: a 500 whose body is the error message.
func (h *ForwardHandler) fail(c echo.Context, err error) error {
	h.logger.Error("forward error",
		"err", err,
		"method", c.Request().Method,
	)
	return c.String(http.StatusInternalServerError, err.Error())
}
