// Package model defines shared types for the gateway.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ForwardRequest represents a client request to be forwarded to a
// caller-specified upstream URL.
type ForwardRequest struct {
	Ctx       context.Context
	Method    string
	TargetURL string
	Header    http.Header
	Body      io.Reader // nil unless the inbound method is POST
}

// ForwardResponse represents the upstream response to be streamed back.
type ForwardResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// ParseHeaderJSON decodes a JSON object of string→string pairs into an
// http.Header. The input must be a JSON object; arrays, strings, numbers and
// other JSON values are rejected so that malformed forward metadata surfaces
// as an error instead of being silently tolerated.
func ParseHeaderJSON(raw string) (http.Header, error) {
	var pairs map[string]string
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, fmt.Errorf("parse x-headers: %w", err)
	}
	// json.Unmarshal accepts "null" into a map without error, leaving it nil.
	if pairs == nil {
		return nil, fmt.Errorf("parse x-headers: expected a JSON object, got null")
	}
	h := make(http.Header, len(pairs))
	for k, v := range pairs {
		h.Set(k, v)
	}
	return h, nil
}

// ValidateTargetURL checks that raw is a syntactically valid absolute URL.
func ValidateTargetURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("target URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse target URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("target URL %q is not absolute", raw)
	}
	return nil
}
