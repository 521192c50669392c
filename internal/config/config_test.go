package config

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "LOG_LEVEL", "LOG_FORMAT", "MONGO_URI", "MONGO_DB", "MONGO_ENSURE_INDEXES",
	"JWT_SECRET", "JWT_EXPIRY", "MQTT_BROKER", "MQTT_CLIENT_ID", "MQTT_TOPIC_PREFIX",
	"TIMEZONE", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW_SECONDS", "CATALOG_CACHE_TTL",
	"SHUTDOWN_TIMEOUT", "ADMIN_USERNAME", "ADMIN_PASSWORD", "ADMIN_EMAIL",
	"APP_ENV", "TRUST_PROXY_HEADERS",
}

// setEnvs clears every known key and then applies envs for the duration of the test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnvs(t, map[string]string{"APP_ENV": "development"})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "fleet_maintenance", cfg.MongoDatabase)
	assert.True(t, cfg.EnsureIndexes)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.True(t, cfg.UsesDefaultSecret())
	assert.Empty(t, cfg.MQTTBroker)
	assert.Equal(t, "fleet/maintenance", cfg.MQTTTopicPrefix)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.False(t, cfg.TrustProxyHeaders)
	assert.Equal(t, time.Hour, cfg.CatalogCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.NotNil(t, cfg.Location)
	assert.Empty(t, cfg.AdminUsername)
	assert.Equal(t, "admin@localhost.local", cfg.AdminEmail)
}

func TestLoad_Overrides(t *testing.T) {
	setEnvs(t, map[string]string{
		"PORT":                      "9090",
		"LOG_LEVEL":                 "debug",
		"LOG_FORMAT":                "JSON",
		"MONGO_DB":                  "flota",
		"MONGO_ENSURE_INDEXES":      "false",
		"JWT_SECRET":                "s3cret",
		"JWT_EXPIRY":                "2h",
		"MQTT_BROKER":               "tcp://localhost:1883",
		"MQTT_TOPIC_PREFIX":         "alito/flota/",
		"TIMEZONE":                  "America/Santo_Domingo",
		"RATE_LIMIT_REQUESTS":       "5",
		"RATE_LIMIT_WINDOW_SECONDS": "30",
		"TRUST_PROXY_HEADERS":       "true",
		"CATALOG_CACHE_TTL":         "15m",
		"SHUTDOWN_TIMEOUT":          "3s",
		"ADMIN_USERNAME":            "admin",
		"ADMIN_PASSWORD":            "changeme123",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "flota", cfg.MongoDatabase)
	assert.False(t, cfg.EnsureIndexes)
	assert.False(t, cfg.UsesDefaultSecret())
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "alito/flota", cfg.MQTTTopicPrefix)
	assert.Equal(t, "America/Santo_Domingo", cfg.Location.String())
	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.True(t, cfg.TrustProxyHeaders)
	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, 15*time.Minute, cfg.CatalogCacheTTL)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "changeme123", cfg.AdminPassword)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		envs map[string]string
		want string
	}{
		{"port not a number", map[string]string{"PORT": "abc"}, "PORT"},
		{"port out of range", map[string]string{"PORT": "70000"}, "PORT"},
		{"unknown log level", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"unknown log format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
		{"bad bool", map[string]string{"MONGO_ENSURE_INDEXES": "maybe"}, "MONGO_ENSURE_INDEXES"},
		{"bad jwt expiry", map[string]string{"JWT_EXPIRY": "tomorrow"}, "JWT_EXPIRY"},
		{"unknown timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}, "TIMEZONE"},
		{"bad rate limit", map[string]string{"RATE_LIMIT_REQUESTS": "many"}, "RATE_LIMIT_REQUESTS"},
		{"zero window", map[string]string{"RATE_LIMIT_WINDOW_SECONDS": "0"}, "RATE_LIMIT_WINDOW_SECONDS"},
		{"bad cache ttl", map[string]string{"CATALOG_CACHE_TTL": "1x"}, "CATALOG_CACHE_TTL"},
		{"bad shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "soon"}, "SHUTDOWN_TIMEOUT"},
		{"bad trust proxy flag", map[string]string{"TRUST_PROXY_HEADERS": "sometimes"}, "TRUST_PROXY_HEADERS"},
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"missing jwt secret in staging", map[string]string{"JWT_SECRET": "", "APP_ENV": "staging"}, "JWT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := map[string]string{"JWT_SECRET": "test-secret"}
			for k, v := range tt.envs {
				envs[k] = v
			}
			setEnvs(t, envs)
			cfg, err := Load()
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSetupLogger(t *testing.T) {
	original := log.StandardLogger().Formatter
	originalLevel := log.GetLevel()
	t.Cleanup(func() {
		log.SetFormatter(original)
		log.SetLevel(originalLevel)
	})

	logger := SetupLogger(&Config{LogLevel: log.WarnLevel, LogFormat: "json"})
	assert.Equal(t, log.WarnLevel, logger.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)

	logger = SetupLogger(&Config{LogLevel: log.DebugLevel, LogFormat: "text"})
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, logger.Formatter)
}
