package geocache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/crossroads-etl-service/internal/geocode"
)

// DefaultRedisKey is the hash holding all cached addresses.
const DefaultRedisKey = "crossroads:geocode"

// RedisStore keeps the cache in one Redis hash: field = normalized address,
// value = JSON entry.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// OpenRedis connects to addr.
func OpenRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// Load reads the whole hash. Fields that fail to decode are skipped.
func (s *RedisStore) Load(ctx context.Context) (map[string]geocode.Entry, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", s.key, err)
	}
	entries := make(map[string]geocode.Entry, len(raw))
	for addr, v := range raw {
		var e geocode.Entry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			continue
		}
		entries[addr] = e
	}
	return entries, nil
}

// Save writes entries in a single HSET.
func (s *RedisStore) Save(ctx context.Context, entries map[string]geocode.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	values := make(map[string]any, len(entries))
	for addr, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode entry %q: %w", addr, err)
		}
		values[addr] = string(b)
	}
	if err := s.client.HSet(ctx, s.key, values).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", s.key, err)
	}
	return nil
}
