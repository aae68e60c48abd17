package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"fetch-gateway-go/internal/config"
)

func TestHealthz(t *testing.T) {
	cfg := &config.Config{}
	h := NewHealthHandler(cfg, Version("test"))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Healthz(c); err != nil {
		t.Fatalf("Healthz() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want %q", body["status"], "ok")
	}
}

func TestStatus(t *testing.T) {
	cfg := &config.Config{
		Gateway: config.GatewayConfig{
			ForwardPath: "/fetch",
			RelayPrefix: "/fetchWs",
		},
	}
	h := NewHealthHandler(cfg, Version("1.2.3"))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/status", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Status(c); err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["version"] != "1.2.3" {
		t.Errorf("version = %q, want %q", body["version"], "1.2.3")
	}
	if body["forward_path"] != "/fetch" {
		t.Errorf("forward_path = %q, want %q", body["forward_path"], "/fetch")
	}
	if body["relay_prefix"] != "/fetchWs" {
		t.Errorf("relay_prefix = %q, want %q", body["relay_prefix"], "/fetchWs")
	}
}
