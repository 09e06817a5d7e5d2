package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/syncx"

	"quotevault-api/internal/cache"
	"quotevault-api/pkg/timeline"
)

// BulkRefreshSymbols fans a refresh check out across symbols under a
// concurrency cap. The result map holds one entry per input symbol; a
// per-symbol failure of any kind records false without aborting the batch.
func (o *Orchestrator) BulkRefreshSymbols(ctx context.Context, symbols []string, interval timeline.Interval, maxConcurrent int) map[string]bool {
	if interval == "" {
		interval = timeline.Interval1d
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	results := make(map[string]bool, len(symbols))
	var (
		resultsMu sync.Mutex
		wg        sync.WaitGroup
	)
	limit := syncx.NewLimit(maxConcurrent)

	for _, raw := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		resultsMu.Lock()
		results[symbol] = false
		resultsMu.Unlock()

		limit.Borrow()
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer limit.Return()
			defer func() {
				if r := recover(); r != nil {
					logx.WithContext(ctx).Errorf("bulk refresh: panic for %s: %v", symbol, r)
				}
			}()

			ok := o.refreshSymbol(ctx, symbol, interval)
			resultsMu.Lock()
			results[symbol] = ok
			resultsMu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return results
}

// refreshSymbol fetches fresh data for one symbol when its newest bar exceeds
// the strategy TTL. An already-fresh timeline counts as success.
func (o *Orchestrator) refreshSymbol(ctx context.Context, symbol string, interval timeline.Interval) bool {
	if ctx.Err() != nil {
		return false
	}
	now := time.Now().UTC()
	tl := o.GetTimeline(ctx, symbol, false)

	o.mu.RLock()
	latest, ok := tl.LatestPoint(interval)
	before := tl.Len()
	o.mu.RUnlock()

	if ok && latest.Age(now) <= o.ttlFor(interval) {
		return true
	}

	o.refreshTimeline(ctx, tl, Query{
		Symbol:   symbol,
		Start:    now.Add(-defaultLookback),
		End:      now,
		Interval: interval,
	})

	o.mu.RLock()
	latest, ok = tl.LatestPoint(interval)
	after := tl.Len()
	o.mu.RUnlock()

	// Success means the timeline ended up with usable data, fresh or not:
	// a provider outage with cached history is a degraded hit, not a failure.
	return ok && (after > before || latest.Age(now) <= o.ttlFor(interval) || before > 0)
}

// CleanupOldData asks the repository to delete persisted points older than
// the cutoff for every timeline currently in memory. Without a repository it
// is a no-op returning an empty map. Per-symbol failures record 0.
func (o *Orchestrator) CleanupOldData(ctx context.Context, olderThanDays int) map[string]int {
	results := make(map[string]int)
	if o.repo == nil {
		return results
	}
	if olderThanDays < 1 {
		olderThanDays = 1
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)

	o.mu.RLock()
	symbols := make([]string, 0, len(o.timelines))
	for symbol := range o.timelines {
		symbols = append(symbols, symbol)
	}
	o.mu.RUnlock()

	for _, symbol := range symbols {
		deleted, err := o.repo.DeleteOldPoints(ctx, symbol, cutoff)
		if err != nil {
			logx.WithContext(ctx).Errorf("cleanup: %s: %v", symbol, err)
			results[symbol] = 0
			continue
		}
		results[symbol] = deleted
	}
	return results
}

// CacheStatsSnapshot combines orchestrator counters with the persistent
// tier's own counters and the in-memory table size.
type CacheStatsSnapshot struct {
	Service         StatsSnapshot    `json:"service"`
	Store           cache.StoreStats `json:"store"`
	TimelinesInMem  int              `json:"timelines_in_memory"`
	PointsInMemory  int              `json:"points_in_memory"`
}

// CacheStats snapshots every tier's counters.
func (o *Orchestrator) CacheStats() CacheStatsSnapshot {
	o.mu.RLock()
	timelines := len(o.timelines)
	points := 0
	for _, tl := range o.timelines {
		points += tl.Len()
	}
	o.mu.RUnlock()

	return CacheStatsSnapshot{
		Service:        o.stats.Snapshot(),
		Store:          o.store.Stats(),
		TimelinesInMem: timelines,
		PointsInMemory: points,
	}
}

// ClearCache evicts one symbol from memory and the Redis tier, or flushes
// everything when symbol is blank.
func (o *Orchestrator) ClearCache(ctx context.Context, symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol != "" {
		o.mu.Lock()
		delete(o.timelines, symbol)
		o.mu.Unlock()
		if o.store.Enabled() {
			o.store.DeleteByPattern(ctx, cache.SymbolPattern(symbol))
		}
		return
	}

	o.mu.Lock()
	o.timelines = make(map[string]*timeline.Timeline)
	o.mu.Unlock()
	if o.store.Enabled() {
		o.store.DeleteByPattern(ctx, cache.AllPattern())
	}
}
