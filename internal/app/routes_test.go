package app

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/ginx"

	"github.com/simp-lee/ruelucas/internal/middleware"
	"github.com/simp-lee/ruelucas/internal/session"
)

// --- test helpers ---

// routeTestFS returns a minimal template filesystem for route handler tests.
func routeTestFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/layouts/base.html": &fstest.MapFile{
			Data: []byte(`{{ define "base" }}{{ block "content" . }}{{ end }}{{ end }}`),
		},
		"templates/partials/nav.html": &fstest.MapFile{
			Data: []byte(`{{ define "nav" }}{{ end }}`),
		},
		"templates/home.html": &fstest.MapFile{
			Data: []byte(`{{ template "base" . }}{{ define "content" }}home:{{ .CSRFToken }}{{ end }}`),
		},
		"templates/errors/404.html": &fstest.MapFile{
			Data: []byte(`{{ template "base" . }}{{ define "content" }}404{{ end }}`),
		},
		"templates/errors/500.html": &fstest.MapFile{
			Data: []byte(`{{ template "base" . }}{{ define "content" }}500{{ end }}`),
		},
	}
}

// setupTestRouter creates a gin.Engine with the route-test template renderer.
func setupTestRouter() *gin.Engine {
	r := gin.New()
	renderer, err := NewTemplateRenderer(routeTestFS(), true)
	if err != nil {
		panic("setup renderer: " + err.Error())
	}
	r.HTMLRender = renderer
	return r
}

func newTestSessions(t *testing.T) *session.Store {
	t.Helper()
	st := session.NewStore(time.Minute, time.Minute, func(id string) *session.Session {
		return &session.Session{ID: id}
	})
	t.Cleanup(st.Close)
	return st
}

type fakePinger struct {
	err      error
	deadline bool
}

func (p *fakePinger) Ping(ctx context.Context) error {
	_, p.deadline = ctx.Deadline()
	return p.err
}

// sessionEchoModule registers one API and one page route that report the session.
type sessionEchoModule struct {
	called bool
}

func (m *sessionEchoModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	m.called = true
	report := func(c *gin.Context) {
		s := middleware.GetSession(c)
		if s == nil {
			c.String(http.StatusInternalServerError, "no session")
			return
		}
		c.String(http.StatusOK, "session:"+s.ID)
	}
	api.GET("/whoami", report)
	pages.GET("/whoami", report)
	pages.POST("/whoami", report)
}

func newRoutedEngine(t *testing.T, deps *RouteDeps) *gin.Engine {
	t.Helper()
	r := setupTestRouter()
	if deps.Sessions == nil {
		deps.Sessions = newTestSessions(t)
	}
	if deps.CSRFSecret == "" {
		deps.CSRFSecret = "test-secret"
	}
	if deps.Mode == "" {
		deps.Mode = gin.TestMode
	}
	if err := RegisterRoutes(r, deps); err != nil {
		t.Fatalf("RegisterRoutes error: %v", err)
	}
	return r
}

// --- Health check tests ---

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		pinger     Pinger
		wantCode   int
		wantStatus string
		wantAPI    string
	}{
		{"reachable", &fakePinger{}, http.StatusOK, "ok", "ok"},
		{"unreachable", &fakePinger{err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, "degraded", "error"},
		{"no pinger", nil, http.StatusServiceUnavailable, "degraded", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", healthHandler(tt.pinger))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			var body struct {
				Status     string            `json:"status"`
				Components map[string]string `json:"components"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Status != tt.wantStatus || body.Components["remote_api"] != tt.wantAPI {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestHealthHandler_PingHasDeadline(t *testing.T) {
	p := &fakePinger{}
	r := gin.New()
	r.GET("/health", healthHandler(p))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if !p.deadline {
		t.Error("ping context should carry a deadline")
	}
}

// --- NoRoute tests ---

func TestNoRouteHandler(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		accept   string
		wantJSON bool
	}{
		{"api path", "/api/v1/missing", "*/*", true},
		{"explicit json", "/missing", "application/json", true},
		{"browser", "/missing", "text/html", false},
		{"wildcard", "/missing", "*/*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupTestRouter()
			r.NoRoute(noRouteHandler())

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept", tt.accept)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", w.Code)
			}
			isJSON := strings.HasPrefix(w.Header().Get("Content-Type"), "application/json")
			if isJSON != tt.wantJSON {
				t.Errorf("json = %v, want %v (body %q)", isJSON, tt.wantJSON, w.Body.String())
			}
			if !tt.wantJSON && !strings.Contains(w.Body.String(), "404") {
				t.Errorf("body = %q, want the 404 page", w.Body.String())
			}
		})
	}
}

// --- Static routes ---

// registerStaticRoutes is a test helper that wraps registerStaticRoutesWithError,
// discarding the error for convenience in test setup.
func registerStaticRoutes(r *gin.Engine, mode string) {
	_ = registerStaticRoutesWithError(r, mode)
}

func TestRegisterStaticRoutes(t *testing.T) {
	for _, mode := range []string{gin.DebugMode, gin.ReleaseMode} {
		t.Run(mode, func(t *testing.T) {
			r := gin.New()
			registerStaticRoutes(r, mode)

			found := false
			for _, route := range r.Routes() {
				if route.Method == http.MethodGet && route.Path == "/static/*filepath" {
					found = true
				}
			}
			if !found {
				t.Errorf("expected /static/*filepath route in %s mode", mode)
			}
		})
	}
}

func TestCacheStaticHandler_SetsCacheControl(t *testing.T) {
	memFS := fstest.MapFS{
		"app.css": &fstest.MapFile{Data: []byte("body{}")},
	}

	r := gin.New()
	r.GET("/static/*filepath", cacheStaticHandler(http.FS(memFS)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("expected Cache-Control 'public, max-age=86400', got %q", cc)
	}
}

func TestStaticFS_SubWorks(t *testing.T) {
	_, err := fs.Sub(fstest.MapFS{
		"static/app.css": &fstest.MapFile{Data: []byte("body{}")},
	}, "static")
	if err != nil {
		t.Fatalf("fs.Sub should not error: %v", err)
	}
}

// --- RegisterRoutes ---

func TestRegisterRoutes_Validation(t *testing.T) {
	st := newTestSessions(t)
	tests := []struct {
		name    string
		router  *gin.Engine
		deps    *RouteDeps
		wantErr string
	}{
		{"nil router", nil, &RouteDeps{}, "router is nil"},
		{"nil deps", gin.New(), nil, "route dependencies are nil"},
		{"no modules", gin.New(), &RouteDeps{CSRFSecret: "s", Sessions: st}, "at least one module"},
		{"empty csrf", gin.New(), &RouteDeps{Modules: []Module{&sessionEchoModule{}}, CSRFSecret: " ", Sessions: st}, "csrf secret"},
		{"no sessions", gin.New(), &RouteDeps{Modules: []Module{&sessionEchoModule{}}, CSRFSecret: "s"}, "session store"},
		{"nil module", gin.New(), &RouteDeps{Modules: []Module{&sessionEchoModule{}, nil}, CSRFSecret: "s", Sessions: st, Mode: gin.TestMode}, "index 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RegisterRoutes(tt.router, tt.deps)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterRoutes_ModulesGetSessions(t *testing.T) {
	m := &sessionEchoModule{}
	r := newRoutedEngine(t, &RouteDeps{Modules: []Module{m}, SessionCookie: "dash"})
	if !m.called {
		t.Fatal("module RegisterRoutes was not called")
	}

	for _, path := range []string{"/api/v1/whoami", "/whoami"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "session:") {
			t.Errorf("%s: status %d body %q", path, w.Code, w.Body.String())
		}
		cookie := false
		for _, c := range w.Result().Cookies() {
			if c.Name == "dash" {
				cookie = true
			}
		}
		if !cookie {
			t.Errorf("%s: session cookie not set", path)
		}
	}
}

func TestRegisterRoutes_PagesRequireCSRF(t *testing.T) {
	r := newRoutedEngine(t, &RouteDeps{Modules: []Module{&sessionEchoModule{}}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/whoami", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("POST without token: status = %d, want 403", w.Code)
	}
}

func TestRegisterRoutes_APIPreflight(t *testing.T) {
	r := newRoutedEngine(t, &RouteDeps{
		Modules: []Module{&sessionEchoModule{}},
		CORS:    []ginx.Option[ginx.CORSConfig]{ginx.WithAllowOrigins("https://admin.example.com")},
	})

	tests := []struct {
		origin   string
		wantCode int
	}{
		{"https://admin.example.com", http.StatusNoContent},
		{"https://evil.example.com", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/whoami", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestRegisterRoutes_HealthReportsRemoteAPI(t *testing.T) {
	r := newRoutedEngine(t, &RouteDeps{Modules: []Module{&sessionEchoModule{}}, Pinger: &fakePinger{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"remote_api":"ok"`) {
		t.Errorf("status %d body %q", w.Code, w.Body.String())
	}
}

func TestHomeTemplate(t *testing.T) {
	r := setupTestRouter()
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "home.html", gin.H{"CSRFToken": "test-token"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "home:test-token") {
		t.Errorf("status %d body %q", w.Code, w.Body.String())
	}
}
