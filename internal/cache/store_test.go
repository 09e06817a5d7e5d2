package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/redis/redistest"

	"quotevault-api/pkg/timeline"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStoreWithClient(redistest.CreateRedis(t), "quotevault-test", NewStrategy(defaultCacheConf()))
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	point, err := timeline.NewPoint(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), 10, 12, 9, 11, 11, 100, timeline.Interval1d, timeline.SourceYahoo)
	require.NoError(t, err)
	written := []timeline.Point{point}

	require.True(t, store.Set(ctx, TimelineKey("AAPL"), written, time.Minute))
	assert.True(t, store.Exists(ctx, TimelineKey("AAPL")))

	var loaded []timeline.Point
	require.True(t, store.Get(ctx, TimelineKey("AAPL"), &loaded))
	require.Len(t, loaded, 1)
	assert.Equal(t, written[0].Close, loaded[0].Close)
	assert.True(t, written[0].Timestamp.Equal(loaded[0].Timestamp))
}

func TestStoreMiss(t *testing.T) {
	store := newTestStore(t)

	var out []timeline.Point
	assert.False(t, store.Get(context.Background(), TimelineKey("NOPE"), &out))
	assert.Equal(t, int64(1), store.Stats().Misses)
}

func TestStoreSetRejectsEmptyValues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.False(t, store.Set(ctx, "k1", nil, time.Minute))
	assert.False(t, store.Set(ctx, "k2", []timeline.Point{}, time.Minute))
	assert.False(t, store.Exists(ctx, "k1"))
	assert.False(t, store.Exists(ctx, "k2"))

	// Zero scalars are legitimate cacheable values.
	assert.True(t, store.Set(ctx, "k3", 0, time.Minute))
}

func TestStoreCorruptPayloadIsMiss(t *testing.T) {
	client := redistest.CreateRedis(t)
	store := NewStoreWithClient(client, "quotevault-test", NewStrategy(defaultCacheConf()))
	ctx := context.Background()

	require.NoError(t, client.SetexCtx(ctx, "quotevault-test:timeline:AAPL", "not msgpack", 60))

	var out []timeline.Point
	assert.False(t, store.Get(ctx, TimelineKey("AAPL"), &out))
	assert.Equal(t, int64(1), store.Stats().Errors)
}

func TestStoreDeleteAndTTL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.Set(ctx, "gone", 1, time.Minute))
	remaining, ok := store.RemainingTTL(ctx, "gone")
	require.True(t, ok)
	assert.Greater(t, remaining, time.Duration(0))

	assert.True(t, store.Delete(ctx, "gone"))
	assert.False(t, store.Exists(ctx, "gone"))
	_, ok = store.RemainingTTL(ctx, "gone")
	assert.False(t, ok)
}

func TestStoreDeleteByPattern(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.Set(ctx, TimelineKey("AAPL"), 1, time.Minute))
	require.True(t, store.Set(ctx, PointsKey("AAPL", "1d"), 2, time.Minute))
	require.True(t, store.Set(ctx, TimelineKey("MSFT"), 3, time.Minute))

	removed := store.DeleteByPattern(ctx, SymbolPattern("AAPL"))
	assert.Equal(t, 2, removed)
	assert.False(t, store.Exists(ctx, TimelineKey("AAPL")))
	assert.True(t, store.Exists(ctx, TimelineKey("MSFT")))
}

func TestDisabledStoreNoOps(t *testing.T) {
	store := NewStore(redis.RedisConf{}, "quotevault-test", NewStrategy(defaultCacheConf()))
	ctx := context.Background()

	assert.False(t, store.Enabled())
	assert.False(t, store.Set(ctx, "k", 1, time.Minute))
	assert.False(t, store.Get(ctx, "k", new(int)))
	assert.False(t, store.Delete(ctx, "k"))
	assert.False(t, store.Exists(ctx, "k"))
	assert.Equal(t, 0, store.DeleteByPattern(ctx, AllPattern()))
	assert.True(t, store.Stats().Disabled)
}
