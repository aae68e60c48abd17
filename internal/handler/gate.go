package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"fetch-gateway-go/internal/config"
)

// unlockParam is the query parameter that sets the unlock cookie.
const unlockParam = "unlock"

// GateHandler serves the static file tree behind a shared-secret cookie
// check. With no secret configured the gate is open.
type GateHandler struct {
	staticDir    string
	cookieName   string
	unlockSecret string
	logger       *slog.Logger
}

// NewGateHandler creates a GateHandler.
func NewGateHandler(cfg *config.Config, logger *slog.Logger) *GateHandler {
	return &GateHandler{
		staticDir:    cfg.Gateway.StaticDir,
		cookieName:   cfg.Gateway.UnlockCookie,
		unlockSecret: cfg.Gateway.UnlockSecret,
		logger:       logger.With("component", "gate_handler"),
	}
}

// Serve serves a file from the static tree if the request carries a valid
// unlock cookie. A request with ?unlock=<secret> receives the cookie and a
// redirect back to the same path; anything else without the cookie gets 403.
func (h *GateHandler) Serve(c echo.Context) error {
	if h.unlockSecret != "" {
		if key := c.QueryParam(unlockParam); key != "" {
			return h.unlock(c, key)
		}
		cookie, err := c.Cookie(h.cookieName)
		if err != nil || cookie.Value != h.unlockSecret {
			return c.String(http.StatusForbidden, "Locked")
		}
	}

	return h.serveFile(c)
}

// unlock sets the cookie when the supplied key matches and redirects back to
// the same path without the unlock parameter.
func (h *GateHandler) unlock(c echo.Context, key string) error {
	if key != h.unlockSecret {
		return c.String(http.StatusForbidden, "Locked")
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    h.unlockSecret,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	u := *c.Request().URL
	q := u.Query()
	q.Del(unlockParam)
	u.RawQuery = q.Encode()

	h.logger.Info("static tree unlocked", "remote_ip", c.RealIP())
	return c.Redirect(http.StatusFound, u.String())
}

// serveFile maps the request path into the static tree. Directory requests
// fall back to index.html via echo's File helper.
func (h *GateHandler) serveFile(c echo.Context) error {
	p, err := url.PathUnescape(c.Request().URL.Path)
	if err != nil {
		return echo.ErrBadRequest
	}
	// Clean against path traversal before joining with the root.
	name := filepath.Join(h.staticDir, filepath.Clean("/"+p))
	return c.File(name)
}
