package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/syncx"

	"quotevault-api/internal/cache"
	"quotevault-api/pkg/market"
	"quotevault-api/pkg/timeline"
)

const (
	defaultMaxAge       = time.Hour
	defaultFetchTimeout = 10 * time.Second
	defaultLookback     = 30 * 24 * time.Hour
)

// Repository is the durable tier consumed by the orchestrator.
type Repository interface {
	GetTimeline(ctx context.Context, symbol string) (*timeline.Timeline, error)
	BulkSavePoints(ctx context.Context, symbol string, points []timeline.Point) (int, error)
	UpsertPoint(ctx context.Context, symbol string, p timeline.Point) error
	DeleteOldPoints(ctx context.Context, symbol string, olderThan time.Time) (int, error)
	PointsInRange(ctx context.Context, symbol string, start, end time.Time, interval timeline.Interval) ([]timeline.Point, error)
}

// Orchestrator coordinates the in-memory timeline table, the Redis tier, the
// repository and the external provider. Collaborators are injected; a nil
// collaborator degrades the corresponding tier instead of failing calls.
type Orchestrator struct {
	mu        sync.RWMutex
	timelines map[string]*timeline.Timeline

	stats    Stats
	store    *cache.Store
	repo     Repository
	provider market.Provider
	strategy *cache.Strategy

	// loadGroup collapses concurrent load-or-fetch calls for the same symbol
	// so a burst of misses triggers one repository load or provider fetch.
	loadGroup syncx.SingleFlight

	fetchTimeout time.Duration
	currency     string
}

// Config enumerates orchestrator dependencies.
type Config struct {
	Repository   Repository
	Store        *cache.Store
	Provider     market.Provider
	Strategy     *cache.Strategy
	FetchTimeout time.Duration
	Currency     string
}

// NewOrchestrator wires the cache service.
func NewOrchestrator(cfg Config) *Orchestrator {
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "USD"
	}
	return &Orchestrator{
		timelines:    make(map[string]*timeline.Timeline),
		store:        cfg.Store,
		repo:         cfg.Repository,
		provider:     cfg.Provider,
		strategy:     cfg.Strategy,
		loadGroup:    syncx.NewSingleFlight(),
		fetchTimeout: fetchTimeout,
		currency:     currency,
	}
}

// GetTimeline resolves the timeline for a symbol: memory first, then the
// Redis tier, then the repository, finally an empty timeline. It never
// returns an error; repository failures are logged and treated as absence.
func (o *Orchestrator) GetTimeline(ctx context.Context, symbol string, forceRefresh bool) *timeline.Timeline {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if !forceRefresh {
		o.mu.RLock()
		tl, ok := o.timelines[symbol]
		o.mu.RUnlock()
		if ok {
			return tl
		}
	}

	// Forced reloads get their own flight key so they never coalesce with a
	// plain load that may serve the in-memory instance.
	key := "load:" + symbol
	if forceRefresh {
		key = "reload:" + symbol
	}
	loaded, err := o.loadGroup.Do(key, func() (any, error) {
		return o.loadTimeline(ctx, symbol, forceRefresh), nil
	})
	if err != nil {
		// Unreachable: loadTimeline never errors. Kept for interface shape.
		logx.WithContext(ctx).Errorf("cache service: load %s: %v", symbol, err)
		return o.storeTimeline(symbol, timeline.New(symbol, o.currency), false)
	}
	return loaded.(*timeline.Timeline)
}

// loadTimeline performs the repository load path and registers the result in
// memory. Always yields a usable timeline.
func (o *Orchestrator) loadTimeline(ctx context.Context, symbol string, replace bool) *timeline.Timeline {
	known := o.hasTimeline(symbol)

	var points []timeline.Point
	if o.store.Enabled() && o.store.Get(ctx, cache.TimelineKey(symbol), &points) && len(points) > 0 {
		tl := timeline.New(symbol, o.currency)
		tl.AddPoints(points)
		tl.MarkClean()
		if !known {
			o.stats.timelinesLoaded.Add(1)
		}
		return o.storeTimeline(symbol, tl, replace)
	}

	if o.repo != nil {
		tl, err := o.repo.GetTimeline(ctx, symbol)
		if err == nil {
			o.stats.dbReads.Add(1)
			if !known {
				o.stats.timelinesLoaded.Add(1)
			}
			o.cacheTimelineSnapshot(ctx, tl)
			return o.storeTimeline(symbol, tl, replace)
		}
		// Absence and failure look identical to callers; the distinction
		// lives in the logs for operators.
		logx.WithContext(ctx).Infof("cache service: repository has no timeline for %s: %v", symbol, err)
	}

	if !known {
		o.stats.timelinesLoaded.Add(1)
	}
	return o.storeTimeline(symbol, timeline.New(symbol, o.currency), false)
}

func (o *Orchestrator) hasTimeline(symbol string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.timelines[symbol]
	return ok
}

// storeTimeline registers a timeline in memory. Concurrent loaders converge
// on the already-present instance; a replace load merges the reloaded points
// into that instance so every holder observes the refresh.
func (o *Orchestrator) storeTimeline(symbol string, tl *timeline.Timeline, replace bool) *timeline.Timeline {
	o.mu.Lock()
	defer o.mu.Unlock()
	existing, ok := o.timelines[symbol]
	if !ok {
		o.timelines[symbol] = tl
		return tl
	}
	if !replace {
		return existing
	}
	wasDirty := existing.Dirty()
	existing.AddPoints(tl.AllPoints())
	if !wasDirty {
		// Reloaded points come from the durable tiers; they do not create
		// unpersisted state.
		existing.MarkClean()
	}
	return existing
}

// Query describes a market data request.
type Query struct {
	Symbol       string
	Start        time.Time
	End          time.Time
	Interval     timeline.Interval
	MaxAge       time.Duration
	ForceRefresh bool
}

func (q *Query) normalise(now time.Time) {
	q.Symbol = strings.ToUpper(strings.TrimSpace(q.Symbol))
	if q.Interval == "" {
		q.Interval = timeline.Interval1d
	}
	if q.MaxAge <= 0 {
		q.MaxAge = defaultMaxAge
	}
	if q.End.IsZero() {
		q.End = now
	}
	if q.Start.IsZero() {
		q.Start = q.End.Add(-defaultLookback)
	}
}

// GetMarketData serves OHLCV points for a range, fetching from the provider
// when the cached range is missing or stale. Provider failures never surface:
// the caller gets whatever the timeline already holds.
func (o *Orchestrator) GetMarketData(ctx context.Context, query Query) []timeline.Point {
	now := time.Now().UTC()
	query.normalise(now)

	tl := o.GetTimeline(ctx, query.Symbol, false)

	o.mu.RLock()
	points := tl.PointsInRange(query.Start, query.End)
	o.mu.RUnlock()

	if !query.ForceRefresh && o.rangeIsFresh(points, query, now) {
		o.stats.hits.Add(1)
		return points
	}

	o.stats.misses.Add(1)
	o.refreshTimeline(ctx, tl, query)

	o.mu.RLock()
	defer o.mu.RUnlock()
	return tl.PointsInRange(query.Start, query.End)
}

// rangeIsFresh decides whether cached points satisfy the query without a
// provider round trip. Historical ranges that are already covered never go
// stale; ranges extending to the present are bounded by MaxAge.
func (o *Orchestrator) rangeIsFresh(points []timeline.Point, query Query, now time.Time) bool {
	if len(points) == 0 {
		return false
	}
	newest := points[len(points)-1]
	if newest.Timestamp.Add(query.Interval.Duration()).After(query.End) {
		// The range is covered up to its final bar.
		if query.End.Add(query.MaxAge).Before(now) {
			return true
		}
		return newest.Age(now) <= query.MaxAge+query.Interval.Duration()
	}
	return false
}

// refreshTimeline fetches from the provider under single flight, merges into
// the timeline and opportunistically persists dirty points.
func (o *Orchestrator) refreshTimeline(ctx context.Context, tl *timeline.Timeline, query Query) {
	if o.provider == nil {
		return
	}
	key := fmt.Sprintf("fetch:%s:%s", query.Symbol, query.Interval)
	_, _ = o.loadGroup.Do(key, func() (any, error) {
		o.stats.externalFetches.Add(1)

		fetchCtx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
		defer cancel()

		period := periodForSpan(time.Since(query.Start))
		fetched, err := o.provider.HistoricalData(fetchCtx, query.Symbol, period, query.Interval)
		if err != nil {
			// Treated exactly like an empty result; the caller is served
			// from whatever the timeline already holds.
			logx.WithContext(ctx).Errorf("cache service: fetch %s %s: %v", query.Symbol, query.Interval, err)
			return nil, nil
		}
		if len(fetched) == 0 {
			return nil, nil
		}

		o.mu.Lock()
		tl.AddPoints(fetched)
		dirty := tl.Dirty()
		snapshot := tl.AllPoints()
		o.mu.Unlock()

		if dirty {
			o.persistTimeline(ctx, query.Symbol, tl, snapshot)
		}
		return nil, nil
	})
}

// persistTimeline flushes dirty points to the repository and refreshes the
// Redis snapshot. Failures are logged and leave the timeline dirty for the
// next opportunity.
func (o *Orchestrator) persistTimeline(ctx context.Context, symbol string, tl *timeline.Timeline, snapshot []timeline.Point) {
	if o.repo != nil {
		saved, err := o.repo.BulkSavePoints(ctx, symbol, snapshot)
		if err != nil {
			logx.WithContext(ctx).Errorf("cache service: persist %s: %v", symbol, err)
		} else {
			// The newest bar keeps changing while its session is open, and
			// insert-only persistence never revises it. Replace it in place.
			if len(snapshot) > 0 {
				newest := snapshot[len(snapshot)-1]
				if upErr := o.repo.UpsertPoint(ctx, symbol, newest); upErr != nil {
					logx.WithContext(ctx).Errorf("cache service: revise %s: %v", symbol, upErr)
				}
			}
			o.stats.dbWrites.Add(1)
			o.mu.Lock()
			tl.MarkClean()
			o.mu.Unlock()
			if saved > 0 {
				logx.WithContext(ctx).Infof("cache service: persisted %d new points for %s", saved, symbol)
			}
		}
	}
	if o.store.Enabled() && len(snapshot) > 0 {
		ttl := o.ttlFor(snapshot[len(snapshot)-1].Interval)
		o.store.Set(ctx, cache.TimelineKey(symbol), snapshot, ttl)
	}
}

// ttlFor maps bar spacing to a strategy TTL, with a safe default when no
// strategy is configured.
func (o *Orchestrator) ttlFor(iv timeline.Interval) time.Duration {
	if o.strategy == nil {
		return defaultMaxAge
	}
	return o.strategy.TTLForInterval(iv, time.Now())
}

func (o *Orchestrator) cacheTimelineSnapshot(ctx context.Context, tl *timeline.Timeline) {
	if !o.store.Enabled() || tl.Len() == 0 {
		return
	}
	points := tl.AllPoints()
	ttl := o.ttlFor(points[len(points)-1].Interval)
	o.store.Set(ctx, cache.TimelineKey(tl.Symbol), points, ttl)
}

// GetLatestPrice returns the most recent close for a symbol, falling back to
// a live provider quote when the cached one is older than an hour.
func (o *Orchestrator) GetLatestPrice(ctx context.Context, symbol string) (float64, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	now := time.Now().UTC()

	tl := o.GetTimeline(ctx, symbol, false)
	o.mu.RLock()
	latest, ok := tl.LatestPoint("")
	o.mu.RUnlock()
	if ok && latest.Age(now) <= defaultMaxAge {
		o.stats.hits.Add(1)
		return latest.Close, true
	}

	var cached float64
	if o.store.Enabled() && o.store.Get(ctx, cache.LatestPriceKey(symbol), &cached) && cached > 0 {
		o.stats.hits.Add(1)
		return cached, true
	}

	o.stats.misses.Add(1)
	if o.provider == nil {
		if ok {
			return latest.Close, true
		}
		return 0, false
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()
	o.stats.externalFetches.Add(1)
	price, err := o.provider.LatestPrice(fetchCtx, symbol)
	if err != nil {
		logx.WithContext(ctx).Errorf("cache service: latest price %s: %v", symbol, err)
		if ok {
			return latest.Close, true
		}
		return 0, false
	}
	if o.store.Enabled() {
		o.store.Set(ctx, cache.LatestPriceKey(symbol), price, o.ttlFor(timeline.Interval1m))
	}
	return price, true
}

func periodForSpan(span time.Duration) market.Period {
	switch {
	case span <= 24*time.Hour:
		return market.Period1d
	case span <= 5*24*time.Hour:
		return market.Period5d
	case span <= 31*24*time.Hour:
		return market.Period1mo
	case span <= 92*24*time.Hour:
		return market.Period3mo
	case span <= 183*24*time.Hour:
		return market.Period6mo
	case span <= 366*24*time.Hour:
		return market.Period1y
	case span <= 2*366*24*time.Hour:
		return market.Period2y
	case span <= 5*366*24*time.Hour:
		return market.Period5y
	default:
		return market.PeriodMax
	}
}
