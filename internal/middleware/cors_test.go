package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/ginx"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupCORSRouter(opts ...ginx.Option[ginx.CORSConfig]) *gin.Engine {
	r := gin.New()
	api := r.Group("/api/v1", CORS(opts...))
	api.GET("/reviews", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	api.OPTIONS("/reviews", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		wantCode   int
		wantOrigin string
	}{
		{"no origin header", []string{"http://a.example"}, http.MethodGet, "", http.StatusOK, ""},
		{"wildcard", []string{"*"}, http.MethodGet, "http://a.example", http.StatusOK, "*"},
		{"listed origin echoed", []string{"http://a.example"}, http.MethodGet, "http://a.example", http.StatusOK, "http://a.example"},
		{"unlisted origin", []string{"http://a.example"}, http.MethodGet, "http://b.example", http.StatusOK, ""},
		{"empty allowlist", []string{}, http.MethodGet, "http://a.example", http.StatusOK, ""},
		{"preflight allowed", []string{"http://a.example"}, http.MethodOptions, "http://a.example", http.StatusNoContent, "http://a.example"},
		{"preflight refused", []string{"http://a.example"}, http.MethodOptions, "http://b.example", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupCORSRouter(ginx.WithAllowOrigins(tt.origins...), ginx.WithMaxAge(time.Hour))
			req := httptest.NewRequest(tt.method, "/api/v1/reviews", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d; want %d", w.Code, tt.wantCode)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q; want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestCORS_PreflightAdvertisesReadOnlyAPI(t *testing.T) {
	r := setupCORSRouter(
		ginx.WithAllowOrigins("*"),
		ginx.WithAllowMethods(http.MethodGet, http.MethodHead, http.MethodOptions),
		ginx.WithMaxAge(10*time.Minute),
	)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/reviews", nil)
	req.Header.Set("Origin", "http://a.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, HEAD, OPTIONS" {
		t.Errorf("Allow-Methods = %q", got)
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("Max-Age = %q; want 600", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/reviews", nil)
	req.Header.Set("Origin", "http://a.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("DELETE preflight status = %d; want 403", w.Code)
	}
}

func TestCORS_ExposesRequestID(t *testing.T) {
	r := setupCORSRouter(ginx.WithAllowOrigins("http://a.example"), ginx.WithExposeHeaders(RequestIDHeader))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil)
	req.Header.Set("Origin", "http://a.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Expose-Headers"); got != RequestIDHeader {
		t.Errorf("Expose-Headers = %q; want %q", got, RequestIDHeader)
	}
	if got := w.Body.String(); got != "ok" {
		t.Errorf("body = %q; the request must reach the handler", got)
	}
}
