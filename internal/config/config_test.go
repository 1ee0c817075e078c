package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDRESS", "PORT", "DATABASE_URL", "MONGO_URI", "MONG_URI", "ERROR_MODE", "KAFKA_BROKERS", "DEFAULT_LOG_LIMIT", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW", "STORE_TIMEOUT", "CORS_ALLOWED_ORIGINS", "EVENTS_PUBLISH_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	require.Equal(t, ":3000", cfg.HTTPAddress)
	require.Empty(t, cfg.DatabaseURL)
	require.Equal(t, ErrorModeStructured, cfg.ErrorMode)
	require.Equal(t, 500, cfg.DefaultLogLimit)
	require.Equal(t, 5*time.Second, cfg.StoreTimeout)
	require.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.EventsEnabled())
	require.Zero(t, cfg.RateLimitRequests)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
	require.Equal(t, 2*time.Second, cfg.PublishTimeout)
}

func TestLoadHonoursPortAndLegacyMongoVariable(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", "")
	t.Setenv("PORT", "8088")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONG_URI", "mongodb://localhost:27017/tracker")
	t.Setenv("ERROR_MODE", " Legacy ")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg := Load()

	require.Equal(t, ":8088", cfg.HTTPAddress)
	require.Equal(t, "mongodb://localhost:27017/tracker", cfg.DatabaseURL)
	require.Equal(t, ErrorModeLegacy, cfg.ErrorMode)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	require.True(t, cfg.EventsEnabled())
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("ERROR_MODE", "verbose")
	t.Setenv("DEFAULT_LOG_LIMIT", "-3")
	t.Setenv("STORE_TIMEOUT", "soon")

	cfg := Load()

	require.Equal(t, ErrorModeStructured, cfg.ErrorMode)
	require.Equal(t, 500, cfg.DefaultLogLimit)
	require.Equal(t, 5*time.Second, cfg.StoreTimeout)
}
