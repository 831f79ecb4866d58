package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

const testCSRFSecret = "test-secret-key-for-csrf"

func setupCSRFRouter() *gin.Engine {
	r := gin.New()
	r.Use(CSRF(testCSRFSecret))
	r.GET("/reviews", func(c *gin.Context) {
		c.String(http.StatusOK, GetCSRFToken(c))
	})
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.POST("/reviews", ok)
	r.PUT("/reviews/:id", ok)
	r.DELETE("/reviews/:id", ok)
	return r
}

// fetchToken performs a GET and returns the token rendered for templates and
// the cookie value.
func fetchToken(t *testing.T, r *gin.Engine) (token, cookie string) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reviews", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /reviews: expected 200, got %d", w.Code)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookieName {
			cookie = c.Value
			if c.HttpOnly || c.Path != "/" || c.SameSite != http.SameSiteStrictMode {
				t.Errorf("unexpected cookie attributes %+v", c)
			}
		}
	}
	if cookie == "" {
		t.Fatal("expected _csrf_token cookie to be set")
	}
	return w.Body.String(), cookie
}

func TestCSRF_GET_IssuesSignedToken(t *testing.T) {
	r := setupCSRFRouter()
	token, cookie := fetchToken(t, r)

	if token != cookie {
		t.Errorf("cookie %q != context token %q", cookie, token)
	}
	if !validToken(token, testCSRFSecret) {
		t.Error("generated token has invalid HMAC signature")
	}
	if validToken(token, "other-secret") {
		t.Error("token must not validate under another secret")
	}
}

func TestCSRF_GET_ReusesValidCookie(t *testing.T) {
	r := setupCSRFRouter()
	_, cookie := fetchToken(t, r)

	req := httptest.NewRequest(http.MethodGet, "/reviews", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: cookie})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != cookie {
		t.Errorf("expected same token %q, got %q", cookie, w.Body.String())
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("expected no new cookie when the existing one is valid")
	}
}

func TestCSRF_GET_ReplacesInvalidCookie(t *testing.T) {
	r := setupCSRFRouter()
	req := httptest.NewRequest(http.MethodGet, "/reviews", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "garbage"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if !validToken(w.Body.String(), testCSRFSecret) {
		t.Errorf("expected a fresh valid token, got %q", w.Body.String())
	}
}

func TestCSRF_UnsafeMethods(t *testing.T) {
	r := setupCSRFRouter()
	_, cookie := fetchToken(t, r)
	_, otherCookie := fetchToken(t, r)

	tests := []struct {
		name     string
		method   string
		path     string
		cookie   string
		header   string
		form     string
		htmx     bool
		wantCode int
	}{
		{"header token", http.MethodPost, "/reviews", cookie, cookie, "", false, http.StatusOK},
		{"form token", http.MethodPost, "/reviews", cookie, "", cookie, false, http.StatusOK},
		{"put with header", http.MethodPut, "/reviews/v1", cookie, cookie, "", true, http.StatusOK},
		{"delete with header", http.MethodDelete, "/reviews/v1", cookie, cookie, "", true, http.StatusOK},
		{"missing cookie", http.MethodPost, "/reviews", "", cookie, "", false, http.StatusForbidden},
		{"missing token", http.MethodPost, "/reviews", cookie, "", "", false, http.StatusForbidden},
		{"mismatched tokens", http.MethodDelete, "/reviews/v1", cookie, otherCookie, "", false, http.StatusForbidden},
		{"forged cookie", http.MethodPost, "/reviews", "abc.def", "abc.def", "", false, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.form != "" {
				body = strings.NewReader(url.Values{csrfFormField: {tt.form}}.Encode())
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(csrfHeaderName, tt.header)
			}
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d; body: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestCSRF_HTMXRejectionShowsToast(t *testing.T) {
	r := setupCSRFRouter()
	req := httptest.NewRequest(http.MethodDelete, "/reviews/v1", nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if w.Header().Get("HX-Reswap") != "none" || !strings.Contains(w.Header().Get("HX-Trigger"), "showToast") {
		t.Errorf("expected toast without swap, got headers %v", w.Header())
	}
}

func TestCSRF_EmptySecret(t *testing.T) {
	r := gin.New()
	r.Use(CSRF("  "))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestGetCSRFToken_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := GetCSRFToken(c); got != "" {
		t.Errorf("GetCSRFToken() = %q; want empty", got)
	}
}
