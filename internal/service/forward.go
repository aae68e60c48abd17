// Package service implements the core forwarding and relay logic.
package service

import (
	"fmt"
	"log/slog"
	"net/http"

	"fetch-gateway-go/internal/client"
	"fetch-gateway-go/internal/model"
)

// strippedResponseHeaders are removed from every upstream response before it
// is returned to the client. http.Header.Del canonicalizes the key, so Age,
// age and AGE variants are all caught.
var strippedResponseHeaders = []string{
	"Age",
	"Cache-Control",
	"Expires",
}

// ForwardService handles one-shot HTTP forwarding to caller-specified URLs.
type ForwardService struct {
	client *client.UpstreamClient
	logger *slog.Logger
}

// NewForwardService creates a ForwardService.
func NewForwardService(c *client.UpstreamClient, logger *slog.Logger) *ForwardService {
	return &ForwardService{
		client: c,
		logger: logger.With("component", "forward_service"),
	}
}

// Forward sends a ForwardRequest to its target URL and returns the response
// with caching headers stripped. The caller is responsible for closing the
// response body. Any failure — malformed URL, DNS, connection refused — is
// returned as a single error; no partial response is emitted.
func (s *ForwardService) Forward(fr *model.ForwardRequest) (*model.ForwardResponse, error) {
	if err := model.ValidateTargetURL(fr.TargetURL); err != nil {
		return nil, err
	}

	resp, err := s.client.DoStream(fr.Ctx, fr.Method, fr.TargetURL, fr.Header, fr.Body)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}

	resp.Header = sanitizeResponseHeaders(resp.Header)
	return resp, nil
}

// sanitizeResponseHeaders copies the upstream headers, removes caching
// headers and forces Cache-Control: no-cache.
func sanitizeResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		dst[http.CanonicalHeaderKey(key)] = vals
	}
	for _, key := range strippedResponseHeaders {
		dst.Del(key)
	}
	dst.Set("Cache-Control", "no-cache")
	return dst
}
