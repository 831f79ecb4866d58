package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/simp-lee/ruelucas/internal/capability"
	"github.com/simp-lee/ruelucas/internal/pkg"
)

// Defaults applied by Validate to optional settings left empty.
const (
	DefaultAPIBaseURL      = "https://api-rue-lucas.vercel.app"
	DefaultAPITimeout      = 10 * time.Second
	DefaultSessionTTL      = 30 * time.Minute
	DefaultSessionCleanup  = 5 * time.Minute
	DefaultSessionCookie   = "ruelucas_session"
	DefaultSearchDebounce  = 300 * time.Millisecond
	DefaultBreakerTimeout  = 30 * time.Second
	defaultBreakerFailures = 5
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Session   SessionConfig   `koanf:"session"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Log       LogConfig       `koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host       string     `koanf:"host"`
	Port       int        `koanf:"port"`
	Mode       string     `koanf:"mode"`
	CSRFSecret string     `koanf:"csrf_secret"`
	Timeout    string     `koanf:"timeout"`
	CORS       CORSConfig `koanf:"cors"`
}

// CORSConfig holds the CORS settings of the JSON API.
type CORSConfig struct {
	AllowOrigins []string `koanf:"allow_origins"`
	MaxAge       string   `koanf:"max_age"`
}

// APIConfig describes the remote Rue Lucas API.
type APIConfig struct {
	BaseURL   string          `koanf:"base_url"`
	Timeout   string          `koanf:"timeout"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	// Capabilities overrides what is known about remote actions at startup.
	Capabilities map[string]map[string]string `koanf:"capabilities"`
}

// RateLimitConfig throttles calls to the remote API.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// BreakerConfig configures the circuit breaker in front of the remote API.
type BreakerConfig struct {
	Enabled     bool   `koanf:"enabled"`
	MaxFailures uint32 `koanf:"max_failures"`
	OpenTimeout string `koanf:"open_timeout"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	TTL             string `koanf:"ttl"`
	CleanupInterval string `koanf:"cleanup_interval"`
	CookieName      string `koanf:"cookie_name"`
}

// DashboardConfig holds list screen settings.
type DashboardConfig struct {
	PageSize       int    `koanf:"page_size"`
	SearchDebounce string `koanf:"search_debounce"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator, so APP__API__BASE_URL overrides api.base_url.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks supported values, normalizes strings and fills defaults.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateDashboard(); err != nil {
		return err
	}
	return c.validateLog()
}

func (c *Config) validateServer() error {
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	if err := optionalDuration("server.timeout", &c.Server.Timeout); err != nil {
		return err
	}
	if err := optionalDuration("server.cors.max_age", &c.Server.CORS.MaxAge); err != nil {
		return err
	}

	origins := c.Server.CORS.AllowOrigins[:0]
	for i, o := range c.Server.CORS.AllowOrigins {
		o = strings.TrimSpace(o)
		if o == "" {
			return fmt.Errorf("server.cors.allow_origins[%d] cannot be empty", i)
		}
		origins = append(origins, o)
	}
	c.Server.CORS.AllowOrigins = origins
	return nil
}

func (c *Config) validateAPI() error {
	base := strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if base == "" {
		base = DefaultAPIBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q: must be an absolute http(s) URL", c.API.BaseURL)
	}
	c.API.BaseURL = base

	if err := optionalDuration("api.timeout", &c.API.Timeout); err != nil {
		return err
	}

	if c.API.RateLimit.Enabled {
		if c.API.RateLimit.RPS <= 0 {
			return fmt.Errorf("invalid api.rate_limit.rps %v: must be positive when rate limiting is enabled", c.API.RateLimit.RPS)
		}
		if c.API.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid api.rate_limit.burst %d: must be positive when rate limiting is enabled", c.API.RateLimit.Burst)
		}
	}

	if err := optionalDuration("api.breaker.open_timeout", &c.API.Breaker.OpenTimeout); err != nil {
		return err
	}
	if c.API.Breaker.Enabled && c.API.Breaker.MaxFailures == 0 {
		c.API.Breaker.MaxFailures = defaultBreakerFailures
	}

	_, err = c.API.CapabilityOverrides()
	return err
}

func (c *Config) validateSession() error {
	if err := optionalDuration("session.ttl", &c.Session.TTL); err != nil {
		return err
	}
	if err := optionalDuration("session.cleanup_interval", &c.Session.CleanupInterval); err != nil {
		return err
	}
	name := strings.TrimSpace(c.Session.CookieName)
	if name == "" {
		name = DefaultSessionCookie
	}
	if strings.ContainsAny(name, " ;,=\t") {
		return fmt.Errorf("invalid session.cookie_name %q", c.Session.CookieName)
	}
	c.Session.CookieName = name
	return nil
}

func (c *Config) validateDashboard() error {
	if c.Dashboard.PageSize == 0 {
		c.Dashboard.PageSize = pkg.DefaultPageSize
	}
	if c.Dashboard.PageSize < 1 || c.Dashboard.PageSize > pkg.MaxPageSize {
		return fmt.Errorf("invalid dashboard.page_size %d: must be between 1 and %d", c.Dashboard.PageSize, pkg.MaxPageSize)
	}
	return optionalDuration("dashboard.search_debounce", &c.Dashboard.SearchDebounce)
}

func (c *Config) validateLog() error {
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json", "custom":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q, %q", c.Log.Format, "text", "json", "custom")
	}
	return nil
}

// optionalDuration trims *v and, when set, requires a positive Go duration.
func optionalDuration(name string, v *string) error {
	*v = strings.TrimSpace(*v)
	if *v == "" {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, *v, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", name, *v)
	}
	return nil
}

// durationOr parses a validated duration, returning def when unset.
func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// TimeoutDuration is the per-request timeout of the remote client.
func (a APIConfig) TimeoutDuration() time.Duration {
	return durationOr(a.Timeout, DefaultAPITimeout)
}

// OpenTimeoutDuration is how long the breaker stays open.
func (b BreakerConfig) OpenTimeoutDuration() time.Duration {
	return durationOr(b.OpenTimeout, DefaultBreakerTimeout)
}

// CapabilityOverrides parses the capabilities section, which is keyed by
// collection then operation ("reviews" -> "delete" -> "unavailable").
func (a APIConfig) CapabilityOverrides() (map[capability.Action]capability.Availability, error) {
	out := make(map[capability.Action]capability.Availability)
	for family, ops := range a.Capabilities {
		for op, value := range ops {
			name := strings.ToLower(strings.TrimSpace(family) + "." + strings.TrimSpace(op))
			action := capability.Action(name)
			if !slices.Contains(capability.Actions, action) {
				return nil, fmt.Errorf("unknown api.capabilities action %q", name)
			}
			v, err := capability.ParseAvailability(value)
			if err != nil {
				return nil, fmt.Errorf("api.capabilities.%s: %w", name, err)
			}
			out[action] = v
		}
	}
	return out, nil
}

// TTLDuration is the inactivity lifetime of a session.
func (s SessionConfig) TTLDuration() time.Duration {
	return durationOr(s.TTL, DefaultSessionTTL)
}

// CleanupDuration is the sweep interval of expired sessions.
func (s SessionConfig) CleanupDuration() time.Duration {
	return durationOr(s.CleanupInterval, DefaultSessionCleanup)
}

// DebounceDuration is the delay before a search box change is sent.
func (d DashboardConfig) DebounceDuration() time.Duration {
	return durationOr(d.SearchDebounce, DefaultSearchDebounce)
}

// MaxAgeDuration is the preflight cache lifetime, zero when unset.
func (c CORSConfig) MaxAgeDuration() time.Duration {
	return durationOr(c.MaxAge, 0)
}

// TimeoutDuration is the server's per-request handler timeout, zero when unset.
func (s ServerConfig) TimeoutDuration() time.Duration {
	return durationOr(s.Timeout, 0)
}
