package middleware

import (
	"github.com/labstack/echo/v4"
)

// hopByHopHeaders are headers that should not be forwarded by proxies.
// Upgrade and Connection are deliberately absent: the relay endpoint needs
// them intact to negotiate WebSocket upgrades.
var hopByHopHeaders = []string{
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
}

// SecurityHeaders returns an Echo middleware that adds security headers to
// responses and strips hop-by-hop headers from incoming requests.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, h := range hopByHopHeaders {
				c.Request().Header.Del(h)
			}

			// Set before calling the handler: the forward handler streams
			// and commits the response, after which header writes are no-ops.
			c.Response().Header().Set("X-Content-Type-Options", "nosniff")

			return next(c)
		}
	}
}
