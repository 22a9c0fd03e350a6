package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func ok(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	handler := SecurityHeaders("/api")(ok)

	tests := []struct {
		path      string
		wantCache string
	}{
		{"/api/shows", "no-store"},
		{"/ws", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, tt.path, nil), rec)
			if err := handler(c); err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Errorf("X-Content-Type-Options = %q", got)
			}
			if got := rec.Header().Get("Cache-Control"); got != tt.wantCache {
				t.Errorf("Cache-Control = %q, want %q", got, tt.wantCache)
			}
		})
	}
}

func TestSameOriginCORS(t *testing.T) {
	e := echo.New()
	handler := SameOriginCORS()(ok)

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantErr    bool
	}{
		{"no origin", http.MethodGet, "", http.StatusOK, false},
		{"same origin", http.MethodPost, "http://tracker.local:3000", http.StatusOK, false},
		{"preflight", http.MethodOptions, "http://tracker.local", http.StatusNoContent, false},
		{"foreign origin", http.MethodPost, "http://evil.example", 0, true},
		{"foreign preflight", http.MethodOptions, "http://evil.example", http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/shows", nil)
			req.Host = "tracker.local:3000"
			if tt.origin != "" {
				req.Header.Set(echo.HeaderOrigin, tt.origin)
			}
			rec := httptest.NewRecorder()

			err := handler(e.NewContext(req, rec))
			if tt.wantErr {
				var he *echo.HTTPError
				if !errors.As(err, &he) || he.Code != http.StatusForbidden {
					t.Errorf("error = %v, want 403", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestProxyRequestBlock(t *testing.T) {
	e := echo.New()
	handler := ProxyRequestBlock()(ok)

	req := httptest.NewRequest(http.MethodGet, "http://www.example.com/", nil)
	var he *echo.HTTPError
	if err := handler(e.NewContext(req, httptest.NewRecorder())); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("absolute URI error = %v, want 400", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	if err := handler(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Errorf("relative URI error = %v", err)
	}
}
