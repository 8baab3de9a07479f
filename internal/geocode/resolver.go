package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
	"github.com/couchcryptid/crossroads-etl-service/internal/observability"
)

// Outcome labels for the geocode_requests_total metric.
const (
	OutcomeSuccess     = "success"
	OutcomeCached      = "cached"
	OutcomeNoResults   = "no_results"
	OutcomeOutOfBounds = "out_of_bounds"
	OutcomeInvalid     = "invalid"
	OutcomeDisabled    = "disabled"
	OutcomeError       = "error"
)

// Resolver turns addresses into coordinates: sanitize, check the cache, call
// the geocoder, and retry once with the full state name when the first query
// finds nothing inside the region.
type Resolver struct {
	geocoder domain.Geocoder
	cache    *Cache
	region   domain.Region
	limiter  *rate.Limiter
	timeout  time.Duration
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRateLimit caps outbound geocoder calls to rps requests per second.
// Cache hits are not limited.
func WithRateLimit(rps float64, burst int) Option {
	return func(r *Resolver) {
		if rps > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// WithTimeout bounds each geocoder call.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// NewResolver creates a Resolver. A nil geocoder disables network lookups;
// cached addresses still resolve.
func NewResolver(geocoder domain.Geocoder, cache *Cache, region domain.Region, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		geocoder: geocoder,
		cache:    cache,
		region:   region,
		metrics:  metrics,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the coordinates of address. Failures are never cached, so a
// later run can retry once the spreadsheet is corrected.
func (r *Resolver) Resolve(ctx context.Context, address string) (domain.Point, error) {
	query, err := domain.SanitizeAddress(address, r.region)
	if err != nil {
		r.record(OutcomeInvalid)
		return domain.Point{}, err
	}
	if p, ok := r.lookup(query); ok {
		r.record(OutcomeCached)
		return p, nil
	}
	if r.geocoder == nil {
		r.record(OutcomeDisabled)
		return domain.Point{}, domain.ErrGeocodingDisabled
	}

	p, err := r.call(ctx, query)
	if retryable(err) {
		p, err = r.retryWithStateName(ctx, query, err)
	}
	if err != nil {
		r.record(outcomeOf(err))
		r.logger.Debug("geocoding failed", "address", query, "error", err)
		return domain.Point{}, err
	}

	r.cache.Put(query, p)
	r.cache.FlushAsync()
	r.record(OutcomeSuccess)
	return p, nil
}

func (r *Resolver) retryWithStateName(ctx context.Context, query string, firstErr error) (domain.Point, error) {
	variant := domain.StateNameVariant(query, r.region)
	if variant == query {
		return domain.Point{}, firstErr
	}
	if p, ok := r.lookup(variant); ok {
		return p, nil
	}
	p, err := r.call(ctx, variant)
	if err != nil {
		return domain.Point{}, err
	}
	r.cache.Put(variant, p)
	return p, nil
}

// lookup reads the cache. Entries outside the region count as misses so a
// stale or hand-edited cache cannot place a site out of bounds.
func (r *Resolver) lookup(query string) (domain.Point, bool) {
	p, ok := r.cache.Get(query)
	if ok && !r.region.Bounds.Contains(p) {
		r.logger.Debug("ignoring out-of-bounds cache entry", "address", query, "lat", p.Lat, "lng", p.Lng)
		p, ok = domain.Point{}, false
	}
	if ok {
		r.metrics.GeocodeCache.WithLabelValues("hit").Inc()
	} else {
		r.metrics.GeocodeCache.WithLabelValues("miss").Inc()
	}
	return p, ok
}

func (r *Resolver) call(ctx context.Context, query string) (domain.Point, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return domain.Point{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	p, err := r.geocoder.Geocode(ctx, query)
	r.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Point{}, err
	}
	if !r.region.Bounds.Contains(p) {
		return domain.Point{}, fmt.Errorf("%w: %q resolved to %.5f,%.5f", domain.ErrOutOfBounds, query, p.Lat, p.Lng)
	}
	return p, nil
}

func (r *Resolver) record(outcome string) {
	r.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrNoResults) || errors.Is(err, domain.ErrOutOfBounds)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoResults):
		return OutcomeNoResults
	case errors.Is(err, domain.ErrOutOfBounds):
		return OutcomeOutOfBounds
	case errors.Is(err, domain.ErrInvalidAddress):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}
