package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Upstream  UpstreamConfig
	UserCache UserCacheConfig
	Logger    LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// UpstreamConfig describes the to-do/user API the service proxies.
type UpstreamConfig struct {
	BaseURL        string
	TimeoutSeconds int
	MaxConns       int
	MaxIdleConns   int
}

// UserCacheConfig sizes the assignee resolution cache.
type UserCacheConfig struct {
	Size int
	// WarmupUsers preloads this many users at startup; 0 disables warm-up.
	WarmupUsers int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where
// possible. Flags in args override the environment.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "tickethub-api"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "0.1.0"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Upstream: UpstreamConfig{
			BaseURL:        getEnv("UPSTREAM_BASE_URL", "https://dummyjson.com"),
			TimeoutSeconds: getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 10),
			MaxConns:       getEnvAsInt("UPSTREAM_MAX_CONNS", 10),
			MaxIdleConns:   getEnvAsInt("UPSTREAM_MAX_IDLE_CONNS", 5),
		},
		UserCache: UserCacheConfig{
			Size:        getEnvAsInt("USER_CACHE_SIZE", 1024),
			WarmupUsers: getEnvAsInt("USER_CACHE_WARMUP", 0),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	fs := pflag.NewFlagSet("tickethub", pflag.ContinueOnError)
	fs.StringVar(&cfg.App.Host, "host", cfg.App.Host, "HTTP bind host")
	fs.StringVar(&cfg.App.Port, "port", cfg.App.Port, "HTTP bind port")
	fs.StringVar(&cfg.Upstream.BaseURL, "upstream-url", cfg.Upstream.BaseURL, "base URL of the to-do/user API")
	fs.StringVar(&cfg.Logger.Level, "log-level", cfg.Logger.Level, "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if cfg.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("upstream base URL must not be empty")
	}
	if cfg.UserCache.Size <= 0 {
		return nil, fmt.Errorf("invalid USER_CACHE_SIZE: %d", cfg.UserCache.Size)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-call upstream timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
