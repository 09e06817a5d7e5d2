package service

import "sync/atomic"

// Stats tracks orchestrator counters. Increments happen from many goroutines
// during bulk refreshes, so every field is atomic. Counters are never reset.
type Stats struct {
	hits            atomic.Int64
	misses          atomic.Int64
	dbReads         atomic.Int64
	dbWrites        atomic.Int64
	externalFetches atomic.Int64
	timelinesLoaded atomic.Int64
}

// StatsSnapshot is a read-only copy of the counters.
type StatsSnapshot struct {
	CacheHits             int64   `json:"cache_hits"`
	CacheMisses           int64   `json:"cache_misses"`
	DBReads               int64   `json:"db_reads"`
	DBWrites              int64   `json:"db_writes"`
	ExternalFetchRequests int64   `json:"external_fetch_requests"`
	TimelinesLoaded       int64   `json:"timelines_loaded"`
	CacheHitRate          float64 `json:"cache_hit_rate"`
}

// Snapshot copies the counters. The hit rate is 0 when no requests were seen.
func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		CacheHits:             s.hits.Load(),
		CacheMisses:           s.misses.Load(),
		DBReads:               s.dbReads.Load(),
		DBWrites:              s.dbWrites.Load(),
		ExternalFetchRequests: s.externalFetches.Load(),
		TimelinesLoaded:       s.timelinesLoaded.Load(),
	}
	if total := snap.CacheHits + snap.CacheMisses; total > 0 {
		snap.CacheHitRate = float64(snap.CacheHits) / float64(total)
	}
	return snap
}
