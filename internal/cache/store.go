package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

// scanBatch bounds how many keys one SCAN iteration asks for.
const scanBatch = 200

// StoreStats is a snapshot of persistent-tier counters.
type StoreStats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Errors   int64 `json:"errors"`
	Disabled bool  `json:"disabled"`
}

// Store is the durable key/value tier on Redis. Payloads are msgpack encoded.
// When Redis is unreachable at construction time the store degrades to a
// permanently disabled state: every operation no-ops instead of failing the
// process.
type Store struct {
	client   *redis.Redis
	prefix   string
	strategy *Strategy
	disabled bool

	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// NewStore connects the persistent tier. A blank host or a failed ping yields
// a disabled store, never an error.
func NewStore(conf redis.RedisConf, prefix string, strategy *Strategy) *Store {
	store := &Store{prefix: prefix, strategy: strategy}
	if store.prefix == "" {
		store.prefix = DefaultNamespace
	}
	if conf.Host == "" {
		logx.Info("cache store: no redis host configured, persistent tier disabled")
		store.disabled = true
		return store
	}
	client, err := redis.NewRedis(conf)
	if err != nil {
		logx.Errorf("cache store: redis init failed, persistent tier disabled: %v", err)
		store.disabled = true
		return store
	}
	if !client.Ping() {
		logx.Errorf("cache store: redis ping failed for %s, persistent tier disabled", conf.Host)
		store.disabled = true
		return store
	}
	store.client = client
	return store
}

// NewStoreWithClient wraps an existing Redis client, mainly for tests and
// callers that manage their own connections.
func NewStoreWithClient(client *redis.Redis, prefix string, strategy *Strategy) *Store {
	store := &Store{client: client, prefix: prefix, strategy: strategy}
	if store.prefix == "" {
		store.prefix = DefaultNamespace
	}
	if client == nil {
		store.disabled = true
	}
	return store
}

// Enabled reports whether the persistent tier is reachable.
func (s *Store) Enabled() bool {
	return s != nil && !s.disabled
}

func (s *Store) fullKey(key string) string {
	return s.prefix + ":" + key
}

// Get decodes the cached payload into dest. A corrupt or incompatible payload
// is treated as a miss and only distinguishable from absence via logs.
func (s *Store) Get(ctx context.Context, key string, dest any) bool {
	if !s.Enabled() {
		return false
	}
	raw, err := s.client.GetCtx(ctx, s.fullKey(key))
	if err != nil {
		s.errors.Add(1)
		logx.WithContext(ctx).Errorf("cache store: get %s: %v", key, err)
		return false
	}
	if raw == "" {
		s.misses.Add(1)
		return false
	}
	if err := msgpack.Unmarshal([]byte(raw), dest); err != nil {
		s.errors.Add(1)
		logx.WithContext(ctx).Errorf("cache store: corrupt payload at %s, treating as miss: %v", key, err)
		return false
	}
	s.hits.Add(1)
	return true
}

// Set writes a value with the supplied TTL. Values rejected by the strategy
// are not written and the call reports false.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !s.Enabled() || ttl <= 0 {
		return false
	}
	if s.strategy != nil && !s.strategy.ShouldCache(value) {
		return false
	}
	data, err := msgpack.Marshal(value)
	if err != nil {
		s.errors.Add(1)
		logx.WithContext(ctx).Errorf("cache store: encode %s: %v", key, err)
		return false
	}
	seconds := int(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	if err := s.client.SetexCtx(ctx, s.fullKey(key), string(data), seconds); err != nil {
		s.errors.Add(1)
		logx.WithContext(ctx).Errorf("cache store: set %s: %v", key, err)
		return false
	}
	return true
}

// Delete removes keys, reporting whether at least one existed.
func (s *Store) Delete(ctx context.Context, keys ...string) bool {
	if !s.Enabled() || len(keys) == 0 {
		return false
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = s.fullKey(key)
	}
	n, err := s.client.DelCtx(ctx, full...)
	if err != nil {
		s.errors.Add(1)
		logx.WithContext(ctx).Errorf("cache store: delete %v: %v", keys, err)
		return false
	}
	return n > 0
}

// Exists reports the presence of a key.
func (s *Store) Exists(ctx context.Context, key string) bool {
	if !s.Enabled() {
		return false
	}
	ok, err := s.client.ExistsCtx(ctx, s.fullKey(key))
	if err != nil {
		s.errors.Add(1)
		logx.WithContext(ctx).Errorf("cache store: exists %s: %v", key, err)
		return false
	}
	return ok
}

// RemainingTTL returns the time left before a key expires. The second return
// is false when the key is absent or has no expiry.
func (s *Store) RemainingTTL(ctx context.Context, key string) (time.Duration, bool) {
	if !s.Enabled() {
		return 0, false
	}
	seconds, err := s.client.TtlCtx(ctx, s.fullKey(key))
	if err != nil {
		s.errors.Add(1)
		logx.WithContext(ctx).Errorf("cache store: ttl %s: %v", key, err)
		return 0, false
	}
	if seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// DeleteByPattern scans for keys matching the pattern inside the configured
// namespace and deletes them, returning the count removed.
func (s *Store) DeleteByPattern(ctx context.Context, pattern string) int {
	if !s.Enabled() {
		return 0
	}
	match := s.fullKey(pattern)
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := s.client.ScanCtx(ctx, cursor, match, scanBatch)
		if err != nil {
			s.errors.Add(1)
			logx.WithContext(ctx).Errorf("cache store: scan %s: %v", pattern, err)
			return removed
		}
		if len(keys) > 0 {
			n, err := s.client.DelCtx(ctx, keys...)
			if err != nil {
				s.errors.Add(1)
				logx.WithContext(ctx).Errorf("cache store: delete batch for %s: %v", pattern, err)
			} else {
				removed += n
			}
		}
		if next == 0 {
			return removed
		}
		cursor = next
	}
}

// Stats snapshots the tier counters.
func (s *Store) Stats() StoreStats {
	if s == nil {
		return StoreStats{Disabled: true}
	}
	return StoreStats{
		Hits:     s.hits.Load(),
		Misses:   s.misses.Load(),
		Errors:   s.errors.Load(),
		Disabled: s.disabled,
	}
}
