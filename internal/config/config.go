// Package config loads the API server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds every runtime setting of the API server.
type Config struct {
	// AppEnv "development" allows running without JWT_SECRET.
	AppEnv   string
	Port     int
	LogLevel log.Level
	// json or text
	LogFormat string

	MongoURI      string
	MongoDatabase string
	EnsureIndexes bool

	JWTSecret string
	JWTExpiry time.Duration

	// MQTTBroker empty disables event publishing.
	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string

	// Location is used to clamp calendar days in reports and history filters.
	Location *time.Location

	RateLimitRequests int
	RateLimitWindow   time.Duration
	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool

	CatalogCacheTTL time.Duration
	ShutdownTimeout time.Duration

	// AdminUsername and AdminPassword seed the first administrator when both are set.
	AdminUsername string
	AdminPassword string
	AdminEmail    string
}

const (
	defaultJWTSecret = "default-secret-key-change-in-production"
	envDevelopment   = "development"
)

// Load reads a .env file when present and then the process environment.
// Malformed values are reported instead of silently replaced by defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	cfg.AppEnv = strings.ToLower(getEnvDefault("APP_ENV", "production"))

	cfg.Port, err = getEnvInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT: out of range: %d", cfg.Port)
	}

	cfg.LogLevel, err = log.ParseLevel(getEnvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = strings.ToLower(getEnvDefault("LOG_FORMAT", "text"))
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LOG_FORMAT: unsupported format %q, expected json or text", cfg.LogFormat)
	}

	cfg.MongoURI = getEnvDefault("MONGO_URI", "mongodb://localhost:27017")
	cfg.MongoDatabase = getEnvDefault("MONGO_DB", "fleet_maintenance")
	cfg.EnsureIndexes, err = getEnvBool("MONGO_ENSURE_INDEXES", true)
	if err != nil {
		return nil, fmt.Errorf("MONGO_ENSURE_INDEXES: %w", err)
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if cfg.AppEnv != envDevelopment {
			return nil, fmt.Errorf("JWT_SECRET: required unless APP_ENV=%s", envDevelopment)
		}
		cfg.JWTSecret = defaultJWTSecret
	}
	cfg.JWTExpiry, err = getEnvDuration("JWT_EXPIRY", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRY: %w", err)
	}

	cfg.MQTTBroker = os.Getenv("MQTT_BROKER")
	cfg.MQTTClientID = getEnvDefault("MQTT_CLIENT_ID", "fleet-maintenance-api")
	cfg.MQTTTopicPrefix = strings.TrimSuffix(getEnvDefault("MQTT_TOPIC_PREFIX", "fleet/maintenance"), "/")

	cfg.Location, err = time.LoadLocation(getEnvDefault("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}

	cfg.RateLimitRequests, err = getEnvInt("RATE_LIMIT_REQUESTS", 100)
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS: %w", err)
	}
	windowSeconds, err := getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS: %w", err)
	}
	if windowSeconds <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS: must be > 0")
	}
	cfg.RateLimitWindow = time.Duration(windowSeconds) * time.Second
	cfg.TrustProxyHeaders, err = getEnvBool("TRUST_PROXY_HEADERS", false)
	if err != nil {
		return nil, fmt.Errorf("TRUST_PROXY_HEADERS: %w", err)
	}

	cfg.CatalogCacheTTL, err = getEnvDuration("CATALOG_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("CATALOG_CACHE_TTL: %w", err)
	}

	cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}

	cfg.AdminUsername = os.Getenv("ADMIN_USERNAME")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.AdminEmail = getEnvDefault("ADMIN_EMAIL", "admin@localhost.local")

	return cfg, nil
}

// UsesDefaultSecret reports whether the development JWT secret is in use.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

// SetupLogger applies level and format to the standard logrus logger.
func SetupLogger(cfg *Config) *log.Logger {
	logger := log.StandardLogger()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(cfg.LogLevel)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %q", val)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q (use Go format: 30s, 1h, 15m)", val)
	}
	return d, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid boolean: %q (use true, false, 1, 0)", val)
	}
	return b, nil
}
