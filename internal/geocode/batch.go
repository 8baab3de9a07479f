package geocode

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
)

// DefaultBatchSize is the number of concurrent resolutions.
const DefaultBatchSize = 10

// AddressResolver resolves one address.
type AddressResolver interface {
	Resolve(ctx context.Context, address string) (domain.Point, error)
}

// Result is the outcome for one address, at the same index as its input.
type Result struct {
	Point domain.Point
	Err   error
}

// Stats summarizes a ResolveAll call.
type Stats struct {
	Resolved int
	Failed   int
}

// Batcher resolves many addresses with bounded concurrency.
type Batcher struct {
	resolver    AddressResolver
	concurrency int
	logger      *slog.Logger
}

// NewBatcher creates a Batcher. Non-positive concurrency uses DefaultBatchSize.
func NewBatcher(resolver AddressResolver, concurrency int, logger *slog.Logger) *Batcher {
	if concurrency <= 0 {
		concurrency = DefaultBatchSize
	}
	return &Batcher{resolver: resolver, concurrency: concurrency, logger: logger}
}

// ResolveAll resolves every address. Individual failures are reported in the
// results and never stop the batch. When ctx is cancelled, addresses not yet
// started fail with the context error.
func (b *Batcher) ResolveAll(ctx context.Context, addresses []string) ([]Result, Stats) {
	results := make([]Result, len(addresses))
	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for i, addr := range addresses {
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		select {
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()
			defer func() { <-sem }()
			p, err := b.resolver.Resolve(ctx, addr)
			results[i] = Result{Point: p, Err: err}
		}(i, addr)
	}
	wg.Wait()

	var stats Stats
	for _, r := range results {
		if r.Err != nil {
			stats.Failed++
		} else {
			stats.Resolved++
		}
	}
	b.logger.Info("geocoding batch complete",
		"addresses", len(addresses),
		"resolved", stats.Resolved,
		"failed", stats.Failed,
	)
	return results, stats
}
