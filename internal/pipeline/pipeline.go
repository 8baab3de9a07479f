// Package pipeline turns a source spreadsheet into a ranked, cached list of
// map locations.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
	"github.com/couchcryptid/crossroads-etl-service/internal/geocode"
	"github.com/couchcryptid/crossroads-etl-service/internal/observability"
)

// Source names where a result came from.
type Source string

const (
	SourceCache   Source = "cache"
	SourceStorage Source = "s3"
	SourceSample  Source = "sample"
)

// ObjectSource fetches a source file by name.
type ObjectSource interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// BatchResolver geocodes many addresses at once.
type BatchResolver interface {
	ResolveAll(ctx context.Context, addresses []string) ([]geocode.Result, geocode.Stats)
}

// Publisher receives every freshly ingested record set.
type Publisher interface {
	Publish(ctx context.Context, runID, fileName string, records []domain.LocationRecord, at time.Time) error
}

// Loader reports whether a dependency has finished its startup load.
type Loader interface {
	Loaded() bool
}

// Request selects a file and an optional reference point.
type Request struct {
	FileName string
	Center   *domain.Point
	Viewport bool
	// Geocode overrides Options.GeocodeOnIngest when set. A forced geocode
	// skips the cache read.
	Geocode *bool
}

// Result is one answer to a Request.
type Result struct {
	FileName  string
	Locations []domain.LocationRecord
	Total     int
	Source    Source
	Timestamp time.Time
}

// Options tunes a Service.
type Options struct {
	Region          domain.Region
	Policy          domain.RankPolicy
	CacheTTL        time.Duration
	CacheSize       int
	GeocodeOnIngest bool
}

// Deps are the collaborators of a Service. Resolver, Publisher and
// GeocodeCache may be nil.
type Deps struct {
	Source       ObjectSource
	Resolver     BatchResolver
	Publisher    Publisher
	GeocodeCache Loader
	Clock        clockwork.Clock
	Metrics      *observability.Metrics
	Logger       *slog.Logger
}

// Service runs ingestions and caches their results per viewport.
type Service struct {
	source      ObjectSource
	resolver    BatchResolver
	publisher   Publisher
	geocache    Loader
	transformer *Transformer
	cache       *viewportCache
	clock       clockwork.Clock
	metrics     *observability.Metrics
	logger      *slog.Logger
	opts        Options

	mu       sync.Mutex
	inflight map[string]*call
}

type call struct {
	done chan struct{}
	res  Result
	err  error
}

// New creates a Service.
func New(deps Deps, opts Options) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		source:      deps.Source,
		resolver:    deps.Resolver,
		publisher:   deps.Publisher,
		geocache:    deps.GeocodeCache,
		transformer: NewTransformer(opts.Region, deps.Metrics, deps.Logger),
		cache:       newViewportCache(opts.CacheSize, opts.CacheTTL, clock),
		clock:       clock,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		opts:        opts,
		inflight:    make(map[string]*call),
	}
}

// CheckReadiness returns nil once the geocode cache has been loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.geocache != nil && !s.geocache.Loaded() {
		return errors.New("geocode cache not loaded yet")
	}
	return nil
}

// Locations answers a request from the viewport cache, or runs an ingestion.
// Source failures and empty files fall back to the built-in sample set, so the
// only errors returned are context errors.
func (s *Service) Locations(ctx context.Context, req Request) (Result, error) {
	key := ViewportKey(req.FileName, req.Center, req.Viewport)
	geocodeNow := s.opts.GeocodeOnIngest
	if req.Geocode != nil {
		geocodeNow = *req.Geocode
	}

	if req.Geocode == nil || !*req.Geocode {
		v, result := s.cache.get(key)
		s.metrics.ViewportCache.WithLabelValues(result).Inc()
		if result == "hit" {
			s.logger.Debug("viewport cache hit", "key", key, "count", len(v.locations))
			return s.result(req.FileName, v.locations, SourceCache), nil
		}
	}

	flightKey := key
	if geocodeNow {
		flightKey += "#geocode"
	}
	return s.do(ctx, flightKey, func() (Result, error) {
		return s.ingest(ctx, req, key, geocodeNow)
	})
}

// do runs fn once per key among concurrent callers; later callers wait for
// and share the first caller's result.
func (s *Service) do(ctx context.Context, key string, fn func() (Result, error)) (Result, error) {
	s.mu.Lock()
	if c, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		select {
		case <-c.done:
			return c.res, c.err
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	s.inflight[key] = c
	s.mu.Unlock()

	c.res, c.err = fn()

	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
	close(c.done)
	return c.res, c.err
}

func (s *Service) ingest(ctx context.Context, req Request, key string, geocodeNow bool) (Result, error) {
	start := s.clock.Now()
	records, err := s.load(ctx, req.FileName)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}
	if err != nil {
		s.logger.Warn("source unavailable, serving sample data", "file", req.FileName, "error", err)
		return s.fallback(req.FileName, key), nil
	}

	if geocodeNow {
		records = s.geocodePending(ctx, records)
	}

	ranked, mode := domain.Rank(records, req.Center, req.Viewport, s.opts.Policy)
	if len(ranked) == 0 {
		s.logger.Warn("no usable locations after ranking, serving sample data", "file", req.FileName, "mode", mode)
		return s.fallback(req.FileName, key), nil
	}

	locations := make([]domain.LocationRecord, len(ranked))
	for i := range ranked {
		locations[i] = ranked[i].Flatten()
	}
	s.cache.put(key, cached{locations: locations, source: SourceStorage, storedAt: s.clock.Now()})
	s.metrics.IngestRuns.WithLabelValues(string(SourceStorage)).Inc()
	s.metrics.IngestDuration.Observe(s.clock.Since(start).Seconds())

	runID := uuid.NewString()
	s.logger.Info("ingestion complete",
		"run_id", runID,
		"file", req.FileName,
		"mode", mode,
		"count", len(locations),
		"duration", s.clock.Since(start),
	)
	s.publish(ctx, runID, req.FileName, locations)

	return s.result(req.FileName, locations, SourceStorage), nil
}

// load fetches, decodes and assembles a file. A file without usable rows is an
// error so the caller can fall back.
func (s *Service) load(ctx context.Context, fileName string) ([]domain.Record, error) {
	data, err := s.source.Fetch(ctx, fileName)
	if err != nil {
		return nil, err
	}
	rows, err := Decode(fileName, data)
	if err != nil {
		return nil, err
	}
	parsed := s.transformer.Transform(rows)
	s.logger.Info("file parsed",
		"file", fileName,
		"bytes", len(data),
		"rows", parsed.Stats.Rows,
		"records", len(parsed.Records),
		"pending", parsed.Stats.Pending,
		"short_rows", parsed.Stats.ShortRows,
		"unplaceable", parsed.Stats.Unplaceable,
		"decimal", parsed.Stats.Methods[domain.MethodDecimal],
		"pair", parsed.Stats.Methods[domain.MethodPair],
		"dms", parsed.Stats.Methods[domain.MethodDMS],
	)
	if len(parsed.Records) == 0 {
		return nil, errors.New("no valid locations in file")
	}
	return parsed.Records, nil
}

// geocodePending resolves every PendingGeocode record in place. Failures leave
// the record pending.
func (s *Service) geocodePending(ctx context.Context, records []domain.Record) []domain.Record {
	if s.resolver == nil {
		return records
	}
	var (
		idx   []int
		addrs []string
	)
	for i, r := range records {
		if r.Placement.Kind() == domain.PendingGeocode {
			idx = append(idx, i)
			addrs = append(addrs, r.Placement.FullAddress())
		}
	}
	if len(addrs) == 0 {
		return records
	}

	results, stats := s.resolver.ResolveAll(ctx, addrs)
	for j, res := range results {
		if res.Err == nil {
			records[idx[j]] = records[idx[j]].Resolve(res.Point)
		}
	}
	s.logger.Info("pending addresses geocoded", "total", len(addrs), "resolved", stats.Resolved, "failed", stats.Failed)
	return records
}

func (s *Service) fallback(fileName, key string) Result {
	locations := domain.FlattenAll(domain.SampleRecords())
	s.cache.put(key, cached{locations: locations, source: SourceSample, storedAt: s.clock.Now()})
	s.metrics.IngestRuns.WithLabelValues(string(SourceSample)).Inc()
	return s.result(fileName, locations, SourceSample)
}

func (s *Service) publish(ctx context.Context, runID, fileName string, locations []domain.LocationRecord) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, runID, fileName, locations, s.clock.Now()); err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Error("publish failed", "run_id", runID, "file", fileName, "error", err)
	}
}

func (s *Service) result(fileName string, locations []domain.LocationRecord, source Source) Result {
	return Result{
		FileName:  fileName,
		Locations: locations,
		Total:     len(locations),
		Source:    source,
		Timestamp: s.clock.Now(),
	}
}
