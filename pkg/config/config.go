// Package config loads application configuration from environment
// variables and validates it at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ccoapp/cco-api/pkg/observability"
)

// DefaultExemptRoutes is the deployment's authentication exemption set:
// the documentation endpoints plus the pre-authentication user flows.
// Order matters; the auth gate checks prefixes in this order.
var DefaultExemptRoutes = []string{
	"/docs",
	"/openapi.json",
	"/api/v1/user/create-account",
	"/api/v1/user/auth-token",
	"/api/v1/user/accept-invitation",
	"/api/v1/user/token-signup",
}

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Storage       StorageConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Scheduler     SchedulerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for probes)
	HealthPort string
}

// StorageConfig holds user store configuration
type StorageConfig struct {
	// Type selects the store backend: "memory" or "postgres".
	Type        string
	PostgresURL string

	// Redis read-through cache; disabled when RedisAddr is empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// TokenSecret verifies HS256 access tokens.
	TokenSecret string

	// ExemptRoutes are path prefixes that bypass authentication, in
	// check order.
	ExemptRoutes []string

	// InvitationTTL bounds how long an invitation stays redeemable.
	InvitationTTL time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	// InvitationCleanupSchedule is a cron expression for the expired
	// invitation purge.
	InvitationCleanupSchedule string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("CCO_HOST", "0.0.0.0"),
			Port:            getEnv("CCO_PORT", "8080"),
			ReadTimeout:     getEnvDuration("CCO_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("CCO_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("CCO_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("CCO_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("CCO_HEALTH_PORT", "9090"),
		},
		Storage: StorageConfig{
			Type:          getEnv("CCO_STORAGE_TYPE", "memory"),
			PostgresURL:   getEnv("CCO_POSTGRES_URL", ""),
			RedisAddr:     getEnv("CCO_REDIS_ADDR", ""),
			RedisPassword: getEnv("CCO_REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("CCO_REDIS_DB", 0),
			CacheTTL:      getEnvDuration("CCO_CACHE_TTL", 15*time.Minute),
		},
		Auth: AuthConfig{
			TokenSecret:   getEnv("CCO_TOKEN_SECRET", ""),
			ExemptRoutes:  getEnvList("CCO_EXEMPT_ROUTES", DefaultExemptRoutes),
			InvitationTTL: getEnvDuration("CCO_INVITATION_TTL", 7*24*time.Hour),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("CCO_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("CCO_METRICS_ENABLED", true),
		},
		Scheduler: SchedulerConfig{
			InvitationCleanupSchedule: getEnv("CCO_INVITATION_CLEANUP_SCHEDULE", "@hourly"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Storage.Type {
	case "memory":
		// no further configuration needed
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory or postgres)", c.Storage.Type)
	}

	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("token secret is required")
	}
	if len(c.Auth.ExemptRoutes) == 0 {
		return fmt.Errorf("exempt route list must not be empty")
	}

	return nil
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the environment variable as an int or a default
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns the environment variable as a bool or a default
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return strings.ToLower(val) == "true"
	}
	return defaultVal
}

// getEnvDuration returns the environment variable as a duration or a default
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvList returns the environment variable as a comma-separated list
// or a default
func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
