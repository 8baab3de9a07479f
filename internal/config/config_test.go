package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
)

const testAPIKey = "AIza-test-key"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 2*time.Minute, cfg.IngestTimeout)
	assert.Equal(t, "mr-crossroads-bucket", cfg.S3Bucket)
	assert.Equal(t, "metadata/", cfg.S3Prefix)
	assert.Equal(t, "metadata-1759267238657.csv", cfg.DefaultFileName)
	assert.False(t, cfg.GeocodeEnabled)
	assert.Equal(t, 5*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, 10, cfg.GeocodeBatchSize)
	assert.Equal(t, 40.0, cfg.GeocodeRate)
	assert.True(t, cfg.GeocodeOnIngest)
	assert.Equal(t, BackendFile, cfg.GeocacheBackend)
	assert.Equal(t, "geocoding-cache.json", cfg.GeocacheFile)
	assert.Equal(t, 5*time.Minute, cfg.ViewportCacheTTL)
	assert.Equal(t, 256, cfg.ViewportCacheSize)
	assert.Equal(t, domain.MissouriRegion().Bounds, cfg.Bounds)
	assert.Equal(t, domain.DefaultRankPolicy(), cfg.RankPolicy())
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "crossroads-locations", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("INGEST_TIMEOUT", "45s")
	t.Setenv("S3_BUCKET", "other-bucket")
	t.Setenv("GOOGLE_MAPS_API_KEY", testAPIKey)
	t.Setenv("GEOCODE_BATCH_SIZE", "4")
	t.Setenv("GEOCODE_RATE", "2.5")
	t.Setenv("GEOCODE_ON_INGEST", "false")
	t.Setenv("GEOCACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("VIEWPORT_LIMIT", "50")
	t.Setenv("REGIONAL_RADIUS_MILES", "75")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 45*time.Second, cfg.IngestTimeout)
	assert.Equal(t, "other-bucket", cfg.S3Bucket)
	assert.True(t, cfg.GeocodeEnabled)
	assert.Equal(t, testAPIKey, cfg.GoogleMapsAPIKey)
	assert.Equal(t, 4, cfg.GeocodeBatchSize)
	assert.Equal(t, 2.5, cfg.GeocodeRate)
	assert.False(t, cfg.GeocodeOnIngest)
	assert.Equal(t, BackendRedis, cfg.GeocacheBackend)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 50, cfg.RankPolicy().ViewportLimit)
	assert.Equal(t, 75.0, cfg.RankPolicy().RegionalRadiusMiles)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Bounds(t *testing.T) {
	t.Setenv("BOUNDS_MIN_LAT", "36")
	t.Setenv("BOUNDS_MAX_LAT", "41")
	t.Setenv("BOUNDS_MIN_LNG", "-103")
	t.Setenv("BOUNDS_MAX_LNG", "-94")

	cfg, err := Load()
	require.NoError(t, err)

	region := cfg.Region()
	assert.Equal(t, domain.BoundingBox{MinLat: 36, MaxLat: 41, MinLng: -103, MaxLng: -94}, region.Bounds)
	assert.Equal(t, "MO", region.StateCode)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "not-a-duration"}, "SHUTDOWN_TIMEOUT"},
		{"negative shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "-1s"}, "SHUTDOWN_TIMEOUT"},
		{"ingest timeout", map[string]string{"INGEST_TIMEOUT": "0s"}, "INGEST_TIMEOUT"},
		{"geocode timeout", map[string]string{"GEOCODE_TIMEOUT": "soon"}, "GEOCODE_TIMEOUT"},
		{"batch size", map[string]string{"GEOCODE_BATCH_SIZE": "0"}, "GEOCODE_BATCH_SIZE"},
		{"rate", map[string]string{"GEOCODE_RATE": "-1"}, "GEOCODE_RATE"},
		{"bool", map[string]string{"GEOCODE_ON_INGEST": "maybe"}, "GEOCODE_ON_INGEST"},
		{"enabled without key", map[string]string{"GEOCODE_ENABLED": "true"}, "GOOGLE_MAPS_API_KEY"},
		{"unknown backend", map[string]string{"GEOCACHE_BACKEND": "memcached"}, "GEOCACHE_BACKEND"},
		{"redis without addr", map[string]string{"GEOCACHE_BACKEND": "redis"}, "REDIS_ADDR"},
		{"inverted bounds", map[string]string{"BOUNDS_MIN_LAT": "42"}, "BOUNDS_"},
		{"viewport cache size", map[string]string{"VIEWPORT_CACHE_SIZE": "-3"}, "VIEWPORT_CACHE_SIZE"},
		{"kafka without brokers", map[string]string{"KAFKA_ENABLED": "true", "KAFKA_BROKERS": " , "}, "KAFKA_BROKERS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_GeocodingCanBeDisabledWithKey(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", testAPIKey)
	t.Setenv("GEOCODE_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.GeocodeEnabled)
}
