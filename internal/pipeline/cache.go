package pipeline

import (
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
)

// DefaultCacheTTL is how long a computed result is served before recompute.
const DefaultCacheTTL = 5 * time.Minute

// ViewportKey builds the cache key for a request, e.g.
// "sites.csv_38.627_-90.1994_viewport" or "sites.csv_all_all_normal".
func ViewportKey(fileName string, center *domain.Point, viewport bool) string {
	lat, lng := "all", "all"
	if center != nil {
		lat = strconv.FormatFloat(center.Lat, 'f', -1, 64)
		lng = strconv.FormatFloat(center.Lng, 'f', -1, 64)
	}
	mode := "normal"
	if viewport {
		mode = "viewport"
	}
	return fileName + "_" + lat + "_" + lng + "_" + mode
}

type cached struct {
	locations []domain.LocationRecord
	source    Source
	storedAt  time.Time
}

// viewportCache is a thread-safe LRU of computed results whose entries go
// stale after ttl. Stale entries are dropped on read.
type viewportCache struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key   string
	value cached
	prev  *entry
	next  *entry
}

func newViewportCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *viewportCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &viewportCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

// get returns a fresh entry. The second result is "hit", "miss" or "stale".
func (c *viewportCache) get(key string) (cached, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return cached{}, "miss"
	}
	if c.clock.Since(e.value.storedAt) >= c.ttl {
		delete(c.entries, key)
		c.remove(e)
		return cached{}, "stale"
	}
	c.moveToFront(e)
	return e.value, "hit"
}

func (c *viewportCache) put(key string, value cached) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *viewportCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *viewportCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *viewportCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *viewportCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *viewportCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
