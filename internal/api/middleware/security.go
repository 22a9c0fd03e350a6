// Package middleware holds echo middleware shared by the API routes.
package middleware

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets the response headers every API reply carries.
// Responses under apiPrefix are never cached.
func SecurityHeaders(apiPrefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

			if strings.HasPrefix(c.Request().URL.Path, apiPrefix) {
				h.Set("Cache-Control", "no-store")
			}

			return next(c)
		}
	}
}

// SameOriginCORS answers cross-origin requests only when the Origin host
// matches the request host. Requests without an Origin header pass through.
func SameOriginCORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			origin := req.Header.Get(echo.HeaderOrigin)
			if origin == "" {
				return next(c)
			}

			if !sameHost(origin, req.Host) {
				if req.Method == http.MethodOptions {
					return c.NoContent(http.StatusForbidden)
				}
				return echo.NewHTTPError(http.StatusForbidden, "cross-origin request rejected")
			}

			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			h.Set(echo.HeaderAccessControlAllowOrigin, origin)

			if req.Method == http.MethodOptions {
				h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")
				h.Set(echo.HeaderAccessControlAllowHeaders, "Authorization, Content-Type")
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}

// ProxyRequestBlock rejects absolute-URI requests such as
// "GET http://example.com/" sent by open-proxy scanners.
func ProxyRequestBlock() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().URL.IsAbs() {
				return echo.NewHTTPError(http.StatusBadRequest, "absolute request URIs are not accepted")
			}
			return next(c)
		}
	}
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(hostname(u.Host), hostname(host))
}

func hostname(hostport string) string {
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	return hostport
}
