package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/ginx"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/ruelucas/internal/capability"
	"github.com/simp-lee/ruelucas/internal/collection"
	"github.com/simp-lee/ruelucas/internal/config"
	"github.com/simp-lee/ruelucas/internal/domain"
	"github.com/simp-lee/ruelucas/internal/editor"
	"github.com/simp-lee/ruelucas/internal/middleware"
	"github.com/simp-lee/ruelucas/internal/module/dashboard"
	"github.com/simp-lee/ruelucas/internal/module/reservation"
	"github.com/simp-lee/ruelucas/internal/module/review"
	"github.com/simp-lee/ruelucas/internal/pkg"
	"github.com/simp-lee/ruelucas/internal/remote"
	"github.com/simp-lee/ruelucas/internal/session"
	"github.com/simp-lee/ruelucas/web"
)

const defaultWriteTimeout = 60 * time.Second

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine   *gin.Engine
	sessions *session.Store
	logger   *logger.Logger
	cfg      *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler, writeTimeout time.Duration) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the remote API client, the capability registry,
// services, the session store, middleware, template rendering, and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}

	success := false

	// 1. Setup logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}

	// 2. Remote API client and what it is known to support.
	client := newRemoteClient(&cfg.API)
	overrides, err := cfg.API.CapabilityOverrides()
	if err != nil {
		return nil, fmt.Errorf("capabilities: %w", err)
	}
	caps := capability.NewRegistry(overrides)

	// 3. Manual dependency injection: repository → service → handler.
	reservations := reservation.NewService(remote.NewReservationRepository(client), caps)
	reviews := review.NewService(remote.NewReviewRepository(client), caps)

	// 4. One screen state and one editor per collection for every browser.
	sessions := session.NewStore(
		cfg.Session.TTLDuration(),
		cfg.Session.CleanupDuration(),
		newSessionFactory(reservations, reviews, cfg.Dashboard.PageSize),
	)
	defer func() {
		if !success {
			sessions.Close()
		}
	}()

	debounce := cfg.Dashboard.DebounceDuration()
	modules := []Module{
		dashboard.NewModule(caps),
		reservation.NewModule(reservation.NewHandler(), reservation.NewPageHandler(reservations, caps, debounce)),
		review.NewModule(review.NewHandler(), review.NewPageHandler(reviews, caps, debounce)),
	}

	// 5. Create Gin engine with custom middleware (not gin.Default()).
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log.Logger, "/static/", "/health"),
	)

	// 6. Determine filesystem mode and set up template renderer.
	var fsys fs.FS
	if cfg.Server.Mode == gin.DebugMode {
		fsys, err = resolveDebugWebFS()
		if err != nil {
			return nil, fmt.Errorf("resolve debug template fs: %w", err)
		}
	} else {
		fsys = web.EmbeddedFS
	}

	renderer, err := NewTemplateRenderer(fsys, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	// 7. Resolve CSRF secret.
	csrfSecret, err := resolveCSRFSecret(cfg.Server.Mode, cfg.Server.CSRFSecret)
	if err != nil {
		return nil, err
	}
	if csrfSecret != cfg.Server.CSRFSecret {
		log.Warn("no csrf_secret configured, using random secret in non-release mode (will change on restart)")
	}

	// 8. Register all routes.
	if err := RegisterRoutes(engine, &RouteDeps{
		Modules:       modules,
		Pinger:        client,
		Mode:          cfg.Server.Mode,
		CSRFSecret:    csrfSecret,
		CORS:          resolveCORSOptions(cfg.Server.Mode, cfg.Server.CORS),
		Sessions:      sessions,
		SessionCookie: cfg.Session.CookieName,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	log.Info("remote api configured",
		slog.String("base_url", cfg.API.BaseURL),
		slog.Bool("rate_limit", cfg.API.RateLimit.Enabled),
		slog.Bool("breaker", cfg.API.Breaker.Enabled),
	)

	success = true
	return &App{
		engine:   engine,
		sessions: sessions,
		logger:   log,
		cfg:      cfg,
	}, nil
}

func newRemoteClient(cfg *config.APIConfig) *remote.Client {
	opts := remote.Options{
		BaseURL:    cfg.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.TimeoutDuration()},
	}
	if cfg.RateLimit.Enabled {
		opts.Limiter = remote.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	if cfg.Breaker.Enabled {
		opts.Breaker = remote.NewBreaker("rue-lucas-api", cfg.Breaker.MaxFailures, cfg.Breaker.OpenTimeoutDuration())
	}
	return remote.NewClient(opts)
}

func newSessionFactory(reservations *reservation.Service, reviews *review.Service, pageSize int) session.Factory {
	v := pkg.NewValidator()
	return func(id string) *session.Session {
		return &session.Session{
			ID:                id,
			Reservations:      collection.New(reservations.List, pageSize),
			Reviews:           collection.New(reviews.List, pageSize),
			ReservationEditor: editor.New[domain.ReservationDraft](v),
			ReviewEditor:      editor.New[domain.ReviewDraft](v),
		}
	}
}

const minReleaseCSRFSecretLen = 32

// resolveCSRFSecret returns secret, or a random one outside release mode when
// secret is empty or a known placeholder. Release mode also requires a long
// secret mixing at least 3 character classes.
func resolveCSRFSecret(mode, secret string) (string, error) {
	if !isPlaceholderCSRFSecret(secret) {
		if mode != gin.ReleaseMode {
			return secret, nil
		}
		if len(secret) < minReleaseCSRFSecretLen {
			return "", fmt.Errorf("csrf_secret must be at least %d characters in release mode", minReleaseCSRFSecretLen)
		}
		if countSecretClasses(secret) < 3 {
			return "", errors.New("csrf_secret must include at least 3 character classes (lower, upper, digit, symbol) in release mode")
		}
		return secret, nil
	}
	if mode == gin.ReleaseMode {
		return "", errors.New("csrf_secret must be a non-placeholder value in release mode")
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// countSecretClasses counts which of lower case, upper case, digits and
// other characters appear in s.
func countSecretClasses(s string) int {
	var lower, upper, digit, other int
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = 1
		case unicode.IsUpper(r):
			upper = 1
		case unicode.IsDigit(r):
			digit = 1
		default:
			other = 1
		}
	}
	return lower + upper + digit + other
}

func isPlaceholderCSRFSecret(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return true
	}

	switch strings.ToLower(trimmed) {
	case "change-me-to-a-random-secret", "change-me-in-env":
		return true
	default:
		return false
	}
}

// resolveCORSOptions builds the JSON API CORS options. Without an allowlist,
// debug mode allows any origin and every other mode denies cross-origin reads.
// The API is read-only and cookie-less across origins.
func resolveCORSOptions(mode string, cfg config.CORSConfig) []ginx.Option[ginx.CORSConfig] {
	origins := []string{}
	switch {
	case len(cfg.AllowOrigins) > 0:
		origins = cfg.AllowOrigins
	case mode == gin.DebugMode:
		origins = []string{"*"}
	}

	opts := []ginx.Option[ginx.CORSConfig]{
		ginx.WithAllowOrigins(origins...),
		ginx.WithAllowMethods(http.MethodGet, http.MethodHead, http.MethodOptions),
		ginx.WithAllowHeaders("Accept", "Content-Type", middleware.RequestIDHeader),
		ginx.WithExposeHeaders(middleware.RequestIDHeader),
		ginx.WithAllowCredentials(false),
	}
	if d := cfg.MaxAgeDuration(); d > 0 {
		opts = append(opts, ginx.WithMaxAge(d))
	}
	return opts
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

func resolveDebugWebFS() (fs.FS, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	return nil, errors.New("debug web directory not found")
}

// Handler exposes the configured engine.
func (a *App) Handler() http.Handler {
	return a.engine
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It performs graceful shutdown with a 5-second timeout, then closes every
// browser session and cancels their pending loads.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	writeTimeout := a.cfg.Server.TimeoutDuration()
	if writeTimeout == 0 {
		writeTimeout = defaultWriteTimeout
	}
	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine, writeTimeout)

	// Listen for SIGINT / SIGTERM.
	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	if a.sessions != nil {
		log.Info("closing sessions", slog.Int("count", a.sessions.Len()))
		a.sessions.Close()
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}
