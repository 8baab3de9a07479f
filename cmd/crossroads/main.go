package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/crossroads-etl-service/internal/adapter/geocache"
	"github.com/couchcryptid/crossroads-etl-service/internal/adapter/googlemaps"
	httpadapter "github.com/couchcryptid/crossroads-etl-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/crossroads-etl-service/internal/adapter/kafka"
	"github.com/couchcryptid/crossroads-etl-service/internal/adapter/localfs"
	s3adapter "github.com/couchcryptid/crossroads-etl-service/internal/adapter/s3"
	"github.com/couchcryptid/crossroads-etl-service/internal/config"
	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
	"github.com/couchcryptid/crossroads-etl-service/internal/geocode"
	"github.com/couchcryptid/crossroads-etl-service/internal/observability"
	"github.com/couchcryptid/crossroads-etl-service/internal/pipeline"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer

	// Source files: a local directory in development, S3 otherwise.
	var (
		source    pipeline.ObjectSource
		uploader  httpadapter.Uploader
		presigner httpadapter.Presigner
	)
	if cfg.SourceDir != "" {
		dir := localfs.NewDirSource(cfg.SourceDir)
		source, uploader = dir, dir
		logger.Info("reading source files from directory", "dir", cfg.SourceDir)
	} else {
		store, err := s3adapter.NewFromEnv(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.AWSRegion)
		if err != nil {
			logger.Error("failed to create s3 client", "error", err)
			os.Exit(1)
		}
		source, uploader, presigner = store, store, store
		logger.Info("reading source files from s3", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
	}

	// Geocoding (feature-flagged via GEOCODE_ENABLED / GOOGLE_MAPS_API_KEY).
	var geocoder domain.Geocoder
	if cfg.GeocodeEnabled {
		geocoder = googlemaps.NewClient(cfg.GoogleMapsAPIKey, cfg.GeocodeTimeout, logger)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("google geocoding enabled", "rate", cfg.GeocodeRate, "batch_size", cfg.GeocodeBatchSize)
	} else {
		logger.Info("google geocoding disabled")
	}

	store, closer, err := newGeocacheStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to create geocode cache store", "backend", cfg.GeocacheBackend, "error", err)
		os.Exit(1)
	}
	if closer != nil {
		closers = append(closers, closer)
	}
	cache := geocode.NewCache(store, clock, metrics, logger)
	go func() {
		if err := cache.Load(ctx); err != nil {
			logger.Warn("geocode cache load failed, starting empty", "backend", cfg.GeocacheBackend, "error", err)
		}
	}()

	resolver := geocode.NewResolver(geocoder, cache, cfg.Region(), metrics, logger,
		geocode.WithRateLimit(cfg.GeocodeRate, cfg.GeocodeBatchSize),
		geocode.WithTimeout(cfg.GeocodeTimeout),
	)
	batcher := geocode.NewBatcher(resolver, cfg.GeocodeBatchSize, logger)

	var publisher pipeline.Publisher
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publisher = writer
		closers = append(closers, writer)
		logger.Info("publishing locations to kafka", "topic", cfg.KafkaTopic)
	}

	svc := pipeline.New(pipeline.Deps{
		Source:       source,
		Resolver:     batcher,
		Publisher:    publisher,
		GeocodeCache: cache,
		Clock:        clock,
		Metrics:      metrics,
		Logger:       logger,
	}, pipeline.Options{
		Region:          cfg.Region(),
		Policy:          cfg.RankPolicy(),
		CacheTTL:        cfg.ViewportCacheTTL,
		CacheSize:       cfg.ViewportCacheSize,
		GeocodeOnIngest: cfg.GeocodeOnIngest,
	})

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:            cfg.HTTPAddr,
		DefaultFileName: cfg.DefaultFileName,
		AdminToken:      cfg.AdminToken,
		IngestTimeout:   cfg.IngestTimeout,
	}, httpadapter.Deps{
		Locations: svc,
		Ready:     svc,
		Uploader:  uploader,
		Presigner: presigner,
		Clock:     clock,
		Metrics:   metrics,
		Logger:    logger,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := cache.Close(shutdownCtx); err != nil {
		logger.Error("geocode cache flush error", "error", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// newGeocacheStore builds the durable geocode cache selected by
// GEOCACHE_BACKEND. The closer, when non-nil, releases its connection.
func newGeocacheStore(ctx context.Context, cfg *config.Config) (geocode.Store, io.Closer, error) {
	switch cfg.GeocacheBackend {
	case config.BackendFile:
		return geocache.NewFileStore(cfg.GeocacheFile), nil, nil
	case config.BackendRedis:
		client := geocache.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		return geocache.NewRedisStore(client, geocache.DefaultRedisKey), client, nil
	case config.BackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, nil, fmt.Errorf("load AWS config: %w", err)
		}
		return geocache.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.GeocacheTable), nil, nil
	default:
		return nil, nil, nil
	}
}
