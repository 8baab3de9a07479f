// Package geocode resolves free-text addresses to coordinates through a
// persistent, address-keyed cache in front of an external geocoder.
package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
	"github.com/couchcryptid/crossroads-etl-service/internal/observability"
)

const flushTimeout = 30 * time.Second

// Entry is one cached resolution. Timestamp is Unix milliseconds.
type Entry struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
}

// Store is the durable side of the cache.
type Store interface {
	// Load returns every persisted entry keyed by normalized address.
	Load(ctx context.Context) (map[string]Entry, error)
	// Save upserts entries. Keys not in entries are left untouched.
	Save(ctx context.Context, entries map[string]Entry) error
}

// Cache is the in-memory geocode cache. Entries are never aged out, only
// overwritten. New entries are written through to the Store in the
// background; flushes are serialized and coalesced.
type Cache struct {
	store   Store
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger

	mu      sync.RWMutex
	entries map[string]Entry
	dirty   map[string]Entry

	flushMu  sync.Mutex
	flushing atomic.Bool
	pending  atomic.Bool
	wg       sync.WaitGroup
	loaded   atomic.Bool
}

// NewCache creates an empty cache. store may be nil for a memory-only cache.
func NewCache(store Store, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Cache {
	return &Cache{
		store:   store,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
		entries: make(map[string]Entry),
		dirty:   make(map[string]Entry),
	}
}

// Load merges the durable store into memory. The cache counts as loaded even
// when the store fails, so a broken store degrades to an empty cache.
func (c *Cache) Load(ctx context.Context) error {
	defer c.loaded.Store(true)
	if c.store == nil {
		return nil
	}
	stored, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load geocode cache: %w", err)
	}

	c.mu.Lock()
	for k, v := range stored {
		if _, ok := c.entries[k]; !ok {
			c.entries[k] = v
		}
	}
	n := len(c.entries)
	c.mu.Unlock()

	c.metrics.GeocodeCacheEntries.Set(float64(n))
	c.logger.Info("geocode cache loaded", "entries", n)
	return nil
}

// Loaded reports whether Load has run.
func (c *Cache) Loaded() bool {
	return c.loaded.Load()
}

// Get looks up an address after normalizing it.
func (c *Cache) Get(address string) (domain.Point, bool) {
	c.mu.RLock()
	e, ok := c.entries[domain.NormalizeAddressKey(address)]
	c.mu.RUnlock()
	if !ok {
		return domain.Point{}, false
	}
	return domain.Point{Lat: e.Lat, Lng: e.Lng}, true
}

// Put records a resolution and marks it for the next flush.
func (c *Cache) Put(address string, p domain.Point) {
	key := domain.NormalizeAddressKey(address)
	e := Entry{Lat: p.Lat, Lng: p.Lng, Timestamp: c.clock.Now().UnixMilli()}

	c.mu.Lock()
	c.entries[key] = e
	c.dirty[key] = e
	n := len(c.entries)
	c.mu.Unlock()

	c.metrics.GeocodeCacheEntries.Set(float64(n))
}

// Len returns the number of cached addresses.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a copy of all entries.
func (c *Cache) Snapshot() map[string]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Entry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Flush writes entries added since the last successful flush. On failure the
// batch is kept for the next attempt.
func (c *Cache) Flush(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	batch := c.dirty
	c.dirty = make(map[string]Entry)
	c.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := c.store.Save(ctx, batch); err != nil {
		c.mu.Lock()
		for k, v := range batch {
			if _, newer := c.dirty[k]; !newer {
				c.dirty[k] = v
			}
		}
		c.mu.Unlock()
		return fmt.Errorf("save geocode cache: %w", err)
	}
	c.logger.Debug("geocode cache flushed", "entries", len(batch))
	return nil
}

// FlushAsync schedules a background flush. Calls made while a flush is
// running collapse into one follow-up flush.
func (c *Cache) FlushAsync() {
	if c.store == nil {
		return
	}
	c.pending.Store(true)
	if !c.flushing.CompareAndSwap(false, true) {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			for c.pending.Swap(false) {
				ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
				if err := c.Flush(ctx); err != nil {
					c.logger.Warn("geocode cache flush failed", "error", err)
				}
				cancel()
			}
			c.flushing.Store(false)
			// A FlushAsync may have set pending between the loop and the
			// store above without starting a goroutine.
			if !c.pending.Load() || !c.flushing.CompareAndSwap(false, true) {
				return
			}
		}
	}()
}

// Wait blocks until background flushes finish.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// Close waits for background flushes and performs a final synchronous flush.
func (c *Cache) Close(ctx context.Context) error {
	c.Wait()
	return c.Flush(ctx)
}
