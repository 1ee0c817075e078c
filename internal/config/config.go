// Package config centralises configuration parsing for the exercise tracker.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Error rendering modes understood by the API layer.
const (
	ErrorModeStructured = "structured"
	ErrorModeLegacy     = "legacy"
)

// Config captures runtime configuration values for the exercise tracker.
type Config struct {
	HTTPAddress        string
	DatabaseURL        string
	MongoDatabase      string
	ErrorMode          string
	DefaultLogLimit    int
	StoreTimeout       time.Duration
	ShutdownTimeout    time.Duration
	KafkaBrokers       []string
	EventsTopic        string
	PublishTimeout     time.Duration
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	LogLevel           string
	LogFormat          string
}

// Load reads environment variables into Config, applying defaults for local dev.
func Load() Config {
	cfg := Config{
		HTTPAddress:        getEnv("HTTP_ADDRESS", ":"+getEnv("PORT", "3000")),
		DatabaseURL:        firstEnv("DATABASE_URL", "MONGO_URI", "MONG_URI"),
		MongoDatabase:      getEnv("MONGO_DATABASE", "exercise_tracker"),
		ErrorMode:          getEnv("ERROR_MODE", ErrorModeStructured),
		DefaultLogLimit:    getIntEnv("DEFAULT_LOG_LIMIT", 500),
		StoreTimeout:       getDurationEnv("STORE_TIMEOUT", 5*time.Second),
		ShutdownTimeout:    getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
		KafkaBrokers:       splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		EventsTopic:        getEnv("EVENTS_TOPIC", "exercise_tracker_events"),
		PublishTimeout:     getDurationEnv("EVENTS_PUBLISH_TIMEOUT", 2*time.Second),
		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitRequests:  getIntEnv("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindow:    getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
	}

	cfg.ErrorMode = strings.ToLower(strings.TrimSpace(cfg.ErrorMode))
	if cfg.ErrorMode != ErrorModeLegacy {
		cfg.ErrorMode = ErrorModeStructured
	}
	if cfg.DefaultLogLimit <= 0 {
		cfg.DefaultLogLimit = 500
	}
	return cfg
}

// EventsEnabled reports whether a Kafka broker list was configured.
func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := getEnv(key, ""); value != "" {
			return value
		}
	}
	return ""
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
