package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSessionSecret is only acceptable outside production.
const DefaultSessionSecret = "resumeiq-dev-session-secret"

// DashboardConfig holds runtime configuration for the web dashboard.
type DashboardConfig struct {
	Environment          string        `yaml:"environment"`
	Addr                 string        `yaml:"addr"`
	APIBaseURL           string        `yaml:"api_base_url"`
	SessionSecret        string        `yaml:"session_secret"`
	CookieName           string        `yaml:"cookie_name"`
	CookieSecure         bool          `yaml:"cookie_secure"`
	RequestTimeout       time.Duration `yaml:"request_timeout"`
	APITimeout           time.Duration `yaml:"api_timeout"`
	RedirectOnAnyFailure bool          `yaml:"redirect_on_any_failure"`
	AnalysisConcurrency  int           `yaml:"analysis_concurrency"`
	RateLimitRedisAddr   string        `yaml:"rate_limit_redis_addr"`
	RateLimitRedisPass   string        `yaml:"rate_limit_redis_password"`
	RateLimitRedisDB     int           `yaml:"rate_limit_redis_db"`
	AuthRateLimit        int           `yaml:"auth_rate_limit"`
	AuthRateWindow       time.Duration `yaml:"auth_rate_window"`
	TrustProxy           bool          `yaml:"trust_proxy"`
	LogLevel             string        `yaml:"log_level"`
}

// DefaultDashboardConfig returns the built-in defaults.
func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		Environment:         "development",
		Addr:                ":3000",
		APIBaseURL:          "http://localhost:8000/api/v1",
		SessionSecret:       DefaultSessionSecret,
		CookieName:          "resumeiq_session",
		RequestTimeout:      10 * time.Second,
		APITimeout:          15 * time.Second,
		AnalysisConcurrency: 4,
		AuthRateLimit:       10,
		AuthRateWindow:      time.Minute,
		LogLevel:            "info",
	}
}

// LoadDashboardConfig builds the dashboard configuration from defaults, the
// optional YAML file named by DASHBOARD_CONFIG and environment variables, in
// increasing order of precedence.
func LoadDashboardConfig() (DashboardConfig, error) {
	cfg := DefaultDashboardConfig()
	if path := strings.TrimSpace(os.Getenv("DASHBOARD_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return DashboardConfig{}, err
		}
	}

	cfg.Environment = GetString("APP_ENV", cfg.Environment)
	cfg.Addr = GetString("DASHBOARD_ADDR", cfg.Addr)
	cfg.APIBaseURL = GetString("API_BASE_URL", cfg.APIBaseURL)
	cfg.SessionSecret = GetString("SESSION_SECRET", cfg.SessionSecret)
	cfg.CookieName = GetString("SESSION_COOKIE_NAME", cfg.CookieName)
	cfg.CookieSecure = GetBool("SESSION_COOKIE_SECURE", cfg.CookieSecure)
	cfg.RequestTimeout = GetDuration("DASHBOARD_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.APITimeout = GetDuration("API_TIMEOUT", cfg.APITimeout)
	cfg.RedirectOnAnyFailure = GetBool("DASHBOARD_REDIRECT_ON_ANY_FAILURE", cfg.RedirectOnAnyFailure)
	cfg.AnalysisConcurrency = GetInt("DASHBOARD_ANALYSIS_CONCURRENCY", cfg.AnalysisConcurrency)
	cfg.RateLimitRedisAddr = GetString("RATE_LIMIT_REDIS_ADDR", cfg.RateLimitRedisAddr)
	cfg.RateLimitRedisPass = GetString("RATE_LIMIT_REDIS_PASSWORD", cfg.RateLimitRedisPass)
	cfg.RateLimitRedisDB = GetInt("RATE_LIMIT_REDIS_DB", cfg.RateLimitRedisDB)
	cfg.AuthRateLimit = GetInt("AUTH_RATE_LIMIT", cfg.AuthRateLimit)
	cfg.AuthRateWindow = GetDuration("AUTH_RATE_WINDOW", cfg.AuthRateWindow)
	cfg.TrustProxy = GetBool("DASHBOARD_TRUST_PROXY", cfg.TrustProxy)
	cfg.LogLevel = GetString("LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return DashboardConfig{}, err
	}
	return cfg, nil
}

func (c *DashboardConfig) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read dashboard config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse dashboard config %s: %w", path, err)
	}
	return nil
}

// Validate reports configuration that cannot be served.
func (c DashboardConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SessionSecret) == "" {
		errs = append(errs, errors.New("SESSION_SECRET must not be empty"))
	}
	if c.Environment == "production" && c.SessionSecret == DefaultSessionSecret {
		errs = append(errs, errors.New("SESSION_SECRET must be set in production"))
	}
	if strings.TrimSpace(c.CookieName) == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME must not be empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("DASHBOARD_REQUEST_TIMEOUT must be positive"))
	}
	if c.AnalysisConcurrency < 1 {
		errs = append(errs, errors.New("DASHBOARD_ANALYSIS_CONCURRENCY must be at least 1"))
	}
	return errors.Join(errs...)
}

// CLIConfig holds configuration for the resumeiq command line client.
type CLIConfig struct {
	APIBaseURL string
	TokenFile  string
	APITimeout time.Duration
}

// LoadCLIConfig constructs a CLIConfig from environment variables. An empty
// TokenFile selects the per-user default location.
func LoadCLIConfig() CLIConfig {
	return CLIConfig{
		APIBaseURL: GetString("RESUMEIQ_API_URL", GetString("API_BASE_URL", "http://localhost:8000/api/v1")),
		TokenFile:  GetString("RESUMEIQ_CONFIG", ""),
		APITimeout: GetDuration("API_TIMEOUT", 15*time.Second),
	}
}
