package geocode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
	"github.com/couchcryptid/crossroads-etl-service/internal/observability"
)

var (
	capitol  = domain.Point{Lat: 38.5791, Lng: -92.1729}
	testTime = time.Date(2025, 9, 30, 12, 0, 0, 0, time.UTC)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockGeocoder answers from a function and counts calls.
type mockGeocoder struct {
	mu      sync.Mutex
	queries []string
	answer  func(query string) (domain.Point, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (domain.Point, error) {
	m.mu.Lock()
	m.queries = append(m.queries, address)
	m.mu.Unlock()
	return m.answer(address)
}

func (m *mockGeocoder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// memStore is an in-memory Store.
type memStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	saves   int
	loadErr error
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]Entry)}
}

func (s *memStore) Load(context.Context) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) Save(_ context.Context, entries map[string]Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	for k, v := range entries {
		s.entries[k] = v
	}
	return nil
}

func (s *memStore) snapshot() map[string]Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

func newTestCache(store Store) *Cache {
	return NewCache(store, clockwork.NewFakeClockAt(testTime), observability.NewMetricsForTesting(), discardLogger())
}

func newTestResolver(g domain.Geocoder, cache *Cache, opts ...Option) *Resolver {
	return NewResolver(g, cache, domain.MissouriRegion(), observability.NewMetricsForTesting(), discardLogger(), opts...)
}

func alwaysAt(p domain.Point) func(string) (domain.Point, error) {
	return func(string) (domain.Point, error) { return p, nil }
}

func TestResolve_CacheIdempotence(t *testing.T) {
	g := &mockGeocoder{answer: alwaysAt(capitol)}
	r := newTestResolver(g, newTestCache(nil))

	p1, err := r.Resolve(context.Background(), "201 W Capitol Ave, Jefferson City")
	require.NoError(t, err)
	p2, err := r.Resolve(context.Background(), "201 w  capitol ave,, Jefferson City")
	require.NoError(t, err)

	assert.Equal(t, capitol, p1)
	assert.Equal(t, p1, p2)
	assert.Equal(t, 1, g.calls())
	assert.Equal(t, []string{"201 W Capitol Ave, Jefferson City, MO"}, g.queries)
}

func TestResolve_RetriesWithStateName(t *testing.T) {
	g := &mockGeocoder{answer: func(q string) (domain.Point, error) {
		if strings.Contains(q, "Missouri") {
			return capitol, nil
		}
		return domain.Point{}, domain.ErrNoResults
	}}
	cache := newTestCache(nil)
	r := newTestResolver(g, cache)

	p, err := r.Resolve(context.Background(), "201 W Capitol Ave, Jefferson City, MO 65101")
	require.NoError(t, err)
	assert.Equal(t, capitol, p)
	assert.Equal(t, []string{
		"201 W Capitol Ave, Jefferson City, MO 65101",
		"201 W Capitol Ave, Jefferson City, Missouri 65101",
	}, g.queries)

	_, ok := cache.Get("201 W Capitol Ave, Jefferson City, MO 65101")
	assert.True(t, ok)
	_, ok = cache.Get("201 W Capitol Ave, Jefferson City, Missouri 65101")
	assert.True(t, ok)

	_, err = r.Resolve(context.Background(), "201 W Capitol Ave, Jefferson City, MO 65101")
	require.NoError(t, err)
	assert.Equal(t, 2, g.calls())
}

func TestResolve_RetryUsesCachedVariant(t *testing.T) {
	g := &mockGeocoder{answer: func(string) (domain.Point, error) { return domain.Point{}, domain.ErrNoResults }}
	cache := newTestCache(nil)
	cache.Put("Jefferson City, Missouri", capitol)
	r := newTestResolver(g, cache)

	p, err := r.Resolve(context.Background(), "Jefferson City, MO")
	require.NoError(t, err)
	assert.Equal(t, capitol, p)
	assert.Equal(t, 1, g.calls())
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name      string
		answer    func(string) (domain.Point, error)
		address   string
		wantErr   error
		wantCalls int
	}{
		{
			name:      "zero results retried once",
			answer:    func(string) (domain.Point, error) { return domain.Point{}, domain.ErrNoResults },
			address:   "201 W Capitol Ave, Jefferson City",
			wantErr:   domain.ErrNoResults,
			wantCalls: 2,
		},
		{
			name:      "outside bounding box",
			answer:    alwaysAt(domain.Point{Lat: 45, Lng: -120}),
			address:   "201 W Capitol Ave, Jefferson City",
			wantErr:   domain.ErrOutOfBounds,
			wantCalls: 2,
		},
		{
			name:      "transport error not retried",
			answer:    func(string) (domain.Point, error) { return domain.Point{}, errors.New("connection reset") },
			address:   "201 W Capitol Ave, Jefferson City",
			wantCalls: 1,
		},
		{
			name:      "placeholder address",
			answer:    alwaysAt(capitol),
			address:   "FILL",
			wantErr:   domain.ErrInvalidAddress,
			wantCalls: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &mockGeocoder{answer: tt.answer}
			cache := newTestCache(nil)
			r := newTestResolver(g, cache)

			_, err := r.Resolve(context.Background(), tt.address)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantCalls, g.calls())
			assert.Zero(t, cache.Len(), "failures are never cached")
		})
	}
}

func TestResolve_Disabled(t *testing.T) {
	cache := newTestCache(nil)
	cache.Put("Jefferson City, MO", capitol)
	r := newTestResolver(nil, cache)

	_, err := r.Resolve(context.Background(), "201 W Capitol Ave, Jefferson City")
	assert.ErrorIs(t, err, domain.ErrGeocodingDisabled)

	p, err := r.Resolve(context.Background(), "Jefferson City")
	require.NoError(t, err)
	assert.Equal(t, capitol, p)
}

func TestResolve_IgnoresOutOfBoundsCacheEntry(t *testing.T) {
	wichita := domain.Point{Lat: 37.6872, Lng: -97.3301}
	store := newMemStore()
	store.entries["100 main st, wichita, mo"] = Entry{Lat: wichita.Lat, Lng: wichita.Lng}
	cache := newTestCache(store)
	require.NoError(t, cache.Load(context.Background()))

	r := newTestResolver(nil, cache)
	p, err := r.Resolve(context.Background(), "100 Main St, Wichita")
	require.ErrorIs(t, err, domain.ErrGeocodingDisabled)
	assert.Equal(t, domain.Point{}, p)

	g := &mockGeocoder{answer: alwaysAt(capitol)}
	r = newTestResolver(g, cache)
	p, err = r.Resolve(context.Background(), "100 Main St, Wichita")
	require.NoError(t, err)
	assert.Equal(t, capitol, p)
	assert.Equal(t, 1, g.calls())
}

func TestResolve_Timeout(t *testing.T) {
	blocking := geocoderFunc(func(ctx context.Context, q string) (domain.Point, error) {
		<-ctx.Done()
		return domain.Point{}, ctx.Err()
	})
	r := newTestResolver(blocking, newTestCache(nil), WithTimeout(10*time.Millisecond), WithRateLimit(100, 1))

	_, err := r.Resolve(context.Background(), "201 W Capitol Ave, Jefferson City")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type geocoderFunc func(ctx context.Context, address string) (domain.Point, error)

func (f geocoderFunc) Geocode(ctx context.Context, address string) (domain.Point, error) {
	return f(ctx, address)
}

func TestResolve_WritesThroughToStore(t *testing.T) {
	store := newMemStore()
	cache := newTestCache(store)
	require.NoError(t, cache.Load(context.Background()))
	r := newTestResolver(&mockGeocoder{answer: alwaysAt(capitol)}, cache)

	_, err := r.Resolve(context.Background(), "201 W Capitol Ave, Jefferson City")
	require.NoError(t, err)
	cache.Wait()

	saved := store.snapshot()
	require.Contains(t, saved, "201 w capitol ave, jefferson city, mo")
	assert.Equal(t, Entry{Lat: capitol.Lat, Lng: capitol.Lng, Timestamp: testTime.UnixMilli()}, saved["201 w capitol ave, jefferson city, mo"])
}
