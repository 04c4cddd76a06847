package goAdmin

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goAdmin/jwt"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the engine and the CLI.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Store   StoreConfig   `yaml:"store"`
	Session SessionConfig `yaml:"session"`
	JWT     JWTConfig     `yaml:"jwt"`
	UI      UIConfig      `yaml:"ui"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the backend. AuthPath and AdminPath are joined to BaseURL
// to form the two pipeline bases.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	AuthPath  string        `yaml:"auth_path"`
	AdminPath string        `yaml:"admin_path"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreBackend selects the credential store implementation.
type StoreBackend string

const (
	StoreMemory StoreBackend = "memory"
	StoreFile   StoreBackend = "file"
	StoreRedis  StoreBackend = "redis"
)

type StoreConfig struct {
	Backend StoreBackend `yaml:"backend"`
	// Path is the credential document for the file backend.
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

/*
====================================
SESSION CONFIG
====================================
*/

type SessionConfig struct {
	// CoalesceRefresh shares one in-flight refresh between concurrent callers.
	CoalesceRefresh bool `yaml:"coalesce_refresh"`
	// RefreshWindow renews the access token before admin calls when it
	// expires within the window. Zero disables proactive refresh.
	RefreshWindow time.Duration `yaml:"refresh_window"`
}

/*
====================================
JWT CONFIG
====================================
*/

type JWTConfig struct {
	SigningMethod string        `yaml:"signing_method"` // "" (decode only), "hs256", "ed25519"
	VerifyKey     string        `yaml:"verify_key"`
	Leeway        time.Duration `yaml:"leeway"`
}

/*
====================================
UI CONFIG
====================================
*/

// UIConfig controls the navigation surface served by "goadmin serve".
type UIConfig struct {
	BasePath   string `yaml:"base_path"`
	ListenAddr string `yaml:"listen_addr"`
}

/*
====================================
AUDIT / METRICS / LOGGING
====================================
*/

// AuditSinkKind selects where audit events go when no sink is supplied to
// the Builder.
type AuditSinkKind string

const (
	AuditSinkNone  AuditSinkKind = ""
	AuditSinkLog   AuditSinkKind = "log"
	AuditSinkRedis AuditSinkKind = "redis"
)

type AuditConfig struct {
	Enabled    bool          `yaml:"enabled"`
	BufferSize int           `yaml:"buffer_size"`
	DropIfFull bool          `yaml:"drop_if_full"`
	Sink       AuditSinkKind `yaml:"sink"`
	// Stream and StreamMaxLen apply to the redis sink, which shares the
	// store's Redis connection settings.
	Stream       string `yaml:"stream"`
	StreamMaxLen int64  `yaml:"stream_max_len"`
}

type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"` // "json" or "console"
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8080",
			AuthPath:  "/auth/api/v1",
			AdminPath: "/admin/api/v1",
			Timeout:   10 * time.Second,
			UserAgent: "goadmin",
		},
		Store: StoreConfig{
			Backend:     StoreMemory,
			RedisPrefix: "goadmin",
		},
		Session: SessionConfig{
			CoalesceRefresh: true,
			RefreshWindow:   0,
		},
		UI: UIConfig{
			BasePath:   "/admin-ui/",
			ListenAddr: "127.0.0.1:8787",
		},
		Audit: AuditConfig{
			Enabled:      false,
			BufferSize:   256,
			DropIfFull:   true,
			Stream:       "goadmin:audit",
			StreamMaxLen: 10000,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// LoadConfig reads a YAML file on top of the defaults, then applies GOADMIN_*
// environment overrides and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// ConfigFromEnv returns the defaults with GOADMIN_* overrides applied.
func ConfigFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := applyEnvOverrides(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("GOADMIN_API_BASE_URL", &cfg.API.BaseURL)
	str("GOADMIN_API_USER_AGENT", &cfg.API.UserAgent)
	if v, ok := lookup("GOADMIN_API_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GOADMIN_API_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = d
	}

	if v, ok := lookup("GOADMIN_STORE_BACKEND"); ok && v != "" {
		cfg.Store.Backend = StoreBackend(strings.ToLower(v))
	}
	str("GOADMIN_STORE_PATH", &cfg.Store.Path)
	str("GOADMIN_REDIS_ADDR", &cfg.Store.RedisAddr)
	str("GOADMIN_REDIS_PASSWORD", &cfg.Store.RedisPassword)
	if v, ok := lookup("GOADMIN_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GOADMIN_REDIS_DB: %w", err)
		}
		cfg.Store.RedisDB = n
	}

	if v, ok := lookup("GOADMIN_REFRESH_WINDOW"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GOADMIN_REFRESH_WINDOW: %w", err)
		}
		cfg.Session.RefreshWindow = d
	}

	str("GOADMIN_JWT_VERIFY_KEY", &cfg.JWT.VerifyKey)
	str("GOADMIN_UI_LISTEN_ADDR", &cfg.UI.ListenAddr)
	if v, ok := lookup("GOADMIN_AUDIT_SINK"); ok && v != "" {
		cfg.Audit.Enabled = true
		cfg.Audit.Sink = AuditSinkKind(strings.ToLower(v))
	}
	str("GOADMIN_LOG_LEVEL", &cfg.Logging.Level)
	return nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting, wrapped with ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	// API
	u, err := url.Parse(strings.TrimSpace(c.API.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("API BaseURL must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("API BaseURL scheme must be http or https")
	}
	if !strings.HasPrefix(c.API.AuthPath, "/") || !strings.HasPrefix(c.API.AdminPath, "/") {
		return invalid("API AuthPath and AdminPath must start with /")
	}
	if c.API.Timeout <= 0 {
		return invalid("API Timeout must be > 0")
	}
	if c.API.Timeout > 5*time.Minute {
		return invalid("API Timeout must be <= 5m")
	}

	// Store
	switch c.Store.Backend {
	case StoreMemory:
	case StoreFile:
		if strings.TrimSpace(c.Store.Path) == "" {
			return invalid("Store Path is required for the file backend")
		}
	case StoreRedis:
		if strings.TrimSpace(c.Store.RedisAddr) == "" {
			return invalid("Store RedisAddr is required for the redis backend")
		}
		if c.Store.RedisDB < 0 {
			return invalid("Store RedisDB must be >= 0")
		}
	default:
		return invalid("Store Backend must be memory, file or redis")
	}

	// Session
	if c.Session.RefreshWindow < 0 {
		return invalid("Session RefreshWindow must be >= 0")
	}

	// JWT
	switch jwt.SigningMethod(strings.ToLower(c.JWT.SigningMethod)) {
	case jwt.MethodNone:
	case jwt.MethodHS256, jwt.MethodEd25519:
		if c.JWT.VerifyKey == "" {
			return invalid("JWT VerifyKey is required when SigningMethod is set")
		}
	default:
		return invalid("JWT SigningMethod must be empty, hs256 or ed25519")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return invalid("JWT Leeway must be between 0 and 2m")
	}

	// UI
	if !strings.HasPrefix(c.UI.BasePath, "/") || !strings.HasSuffix(c.UI.BasePath, "/") {
		return invalid("UI BasePath must start and end with /")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return invalid("Audit BufferSize must be > 0 when enabled")
	}
	switch c.Audit.Sink {
	case AuditSinkNone, AuditSinkLog:
	case AuditSinkRedis:
		if strings.TrimSpace(c.Store.RedisAddr) == "" {
			return invalid("Store RedisAddr is required for the redis audit sink")
		}
		if c.Audit.Stream == "" {
			return invalid("Audit Stream is required for the redis audit sink")
		}
	default:
		return invalid("Audit Sink must be empty, log or redis")
	}

	// Logging
	switch strings.ToLower(c.Logging.Encoding) {
	case "", "json", "console":
	default:
		return invalid("Logging Encoding must be json or console")
	}

	return nil
}

func (c *Config) authBaseURL() string {
	return strings.TrimRight(c.API.BaseURL, "/") + c.API.AuthPath
}

func (c *Config) adminBaseURL() string {
	return strings.TrimRight(c.API.BaseURL, "/") + c.API.AdminPath
}
