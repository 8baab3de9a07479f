package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Geocode cache backends.
const (
	BackendNone     = "none"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	IngestTimeout   time.Duration
	AdminToken      string

	// Source spreadsheet location. SourceDir, when set, replaces S3.
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SourceDir       string
	DefaultFileName string

	// Google geocoding configuration.
	GoogleMapsAPIKey string
	GeocodeEnabled   bool
	GeocodeTimeout   time.Duration
	GeocodeBatchSize int
	GeocodeRate      float64
	GeocodeOnIngest  bool

	// Durable geocode cache.
	GeocacheBackend string
	GeocacheFile    string
	GeocacheTable   string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	ViewportCacheTTL  time.Duration
	ViewportCacheSize int

	Bounds              domain.BoundingBox
	ViewportLimit       int
	GeneralLimit        int
	RegionalRadiusMiles float64

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	ingestTimeout, err := parsePositiveDuration("INGEST_TIMEOUT", "2m")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parsePositiveDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	batchSize, err := parsePositiveInt("GEOCODE_BATCH_SIZE", 10)
	if err != nil {
		return nil, err
	}
	rate, err := parseFloat("GEOCODE_RATE", 40)
	if err != nil || rate <= 0 {
		return nil, errors.New("invalid GEOCODE_RATE")
	}
	onIngest, err := parseBool("GEOCODE_ON_INGEST", true)
	if err != nil {
		return nil, err
	}
	redisDB, err := parseNonNegativeInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	viewportTTL, err := parsePositiveDuration("VIEWPORT_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	viewportSize, err := parsePositiveInt("VIEWPORT_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	bounds, err := parseBounds()
	if err != nil {
		return nil, err
	}
	policy := domain.DefaultRankPolicy()
	viewportLimit, err := parsePositiveInt("VIEWPORT_LIMIT", policy.ViewportLimit)
	if err != nil {
		return nil, err
	}
	generalLimit, err := parsePositiveInt("GENERAL_LIMIT", policy.GeneralLimit)
	if err != nil {
		return nil, err
	}
	radius, err := parseFloat("REGIONAL_RADIUS_MILES", policy.RegionalRadiusMiles)
	if err != nil || radius <= 0 {
		return nil, errors.New("invalid REGIONAL_RADIUS_MILES")
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	apiKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	geocodeEnabled, err := parseBool("GEOCODE_ENABLED", apiKey != "")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		IngestTimeout:   ingestTimeout,
		AdminToken:      os.Getenv("ADMIN_TOKEN"),

		AWSRegion:       sharedcfg.EnvOrDefault("AWS_REGION", "us-east-1"),
		S3Bucket:        sharedcfg.EnvOrDefault("S3_BUCKET", "mr-crossroads-bucket"),
		S3Prefix:        sharedcfg.EnvOrDefault("S3_PREFIX", "metadata/"),
		SourceDir:       os.Getenv("SOURCE_DIR"),
		DefaultFileName: sharedcfg.EnvOrDefault("DEFAULT_FILE_NAME", "metadata-1759267238657.csv"),

		GoogleMapsAPIKey: apiKey,
		GeocodeEnabled:   geocodeEnabled,
		GeocodeTimeout:   geocodeTimeout,
		GeocodeBatchSize: batchSize,
		GeocodeRate:      rate,
		GeocodeOnIngest:  onIngest,

		GeocacheBackend: sharedcfg.EnvOrDefault("GEOCACHE_BACKEND", BackendFile),
		GeocacheFile:    sharedcfg.EnvOrDefault("GEOCACHE_FILE", "geocoding-cache.json"),
		GeocacheTable:   sharedcfg.EnvOrDefault("GEOCACHE_TABLE", "crossroads-geocode-cache"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         redisDB,

		ViewportCacheTTL:  viewportTTL,
		ViewportCacheSize: viewportSize,

		Bounds:              bounds,
		ViewportLimit:       viewportLimit,
		GeneralLimit:        generalLimit,
		RegionalRadiusMiles: radius,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "crossroads-locations"),
	}

	if cfg.GeocodeEnabled && cfg.GoogleMapsAPIKey == "" {
		return nil, errors.New("GEOCODE_ENABLED is true but GOOGLE_MAPS_API_KEY is not set")
	}
	switch cfg.GeocacheBackend {
	case BackendNone, BackendFile:
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("GEOCACHE_BACKEND is redis but REDIS_ADDR is not set")
		}
	case BackendDynamoDB:
		if cfg.GeocacheTable == "" {
			return nil, errors.New("GEOCACHE_TABLE is required for the dynamodb backend")
		}
	default:
		return nil, fmt.Errorf("invalid GEOCACHE_BACKEND %q", cfg.GeocacheBackend)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.SourceDir == "" && cfg.S3Bucket == "" {
		return nil, errors.New("one of S3_BUCKET or SOURCE_DIR is required")
	}

	return cfg, nil
}

// Region returns the geographic region used for validation and geocoding.
func (c *Config) Region() domain.Region {
	r := domain.MissouriRegion()
	r.Bounds = c.Bounds
	return r
}

// RankPolicy returns the proximity ranking policy.
func (c *Config) RankPolicy() domain.RankPolicy {
	p := domain.DefaultRankPolicy()
	p.ViewportLimit = c.ViewportLimit
	p.GeneralLimit = c.GeneralLimit
	p.RegionalRadiusMiles = c.RegionalRadiusMiles
	return p
}

func parseBounds() (domain.BoundingBox, error) {
	def := domain.MissouriRegion().Bounds
	var b domain.BoundingBox
	var err error
	if b.MinLat, err = parseFloat("BOUNDS_MIN_LAT", def.MinLat); err != nil {
		return b, err
	}
	if b.MaxLat, err = parseFloat("BOUNDS_MAX_LAT", def.MaxLat); err != nil {
		return b, err
	}
	if b.MinLng, err = parseFloat("BOUNDS_MIN_LNG", def.MinLng); err != nil {
		return b, err
	}
	if b.MaxLng, err = parseFloat("BOUNDS_MAX_LNG", def.MaxLng); err != nil {
		return b, err
	}
	if b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng {
		return b, errors.New("invalid BOUNDS_*: minimum must be below maximum")
	}
	return b, nil
}
