package timeline

import (
	"sort"
	"time"
)

// Timeline is the per-symbol collection of OHLCV points held by the cache.
// Points are keyed by timestamp; insertion order is irrelevant and queries
// re-sort on every read. Not safe for concurrent use; the owning service
// serializes access.
type Timeline struct {
	Symbol   string
	Currency string

	points map[int64]Point
	dirty  bool
}

// New creates an empty timeline for a symbol.
func New(symbol, currency string) *Timeline {
	if currency == "" {
		currency = "USD"
	}
	return &Timeline{
		Symbol:   symbol,
		Currency: currency,
		points:   make(map[int64]Point),
	}
}

// AddPoints upserts points by timestamp; a later call wins over an earlier
// one at the same instant. The dirty flag is raised only when a point was
// actually inserted or changed.
func (t *Timeline) AddPoints(points []Point) int {
	changed := 0
	for _, p := range points {
		if p.Timestamp.IsZero() {
			continue
		}
		key := p.Timestamp.UnixNano()
		prev, ok := t.points[key]
		if ok && samePoint(prev, p) {
			continue
		}
		t.points[key] = p
		changed++
	}
	if changed > 0 {
		t.dirty = true
	}
	return changed
}

func samePoint(a, b Point) bool {
	return a.Open == b.Open &&
		a.High == b.High &&
		a.Low == b.Low &&
		a.Close == b.Close &&
		a.AdjClose == b.AdjClose &&
		a.Volume == b.Volume &&
		a.Interval == b.Interval &&
		a.Source == b.Source
}

// PointsInRange returns points with start <= ts <= end in ascending order.
// Both bounds are inclusive; an empty slice means no data, never an error.
func (t *Timeline) PointsInRange(start, end time.Time) []Point {
	out := make([]Point, 0, len(t.points))
	for _, p := range t.points {
		if p.Timestamp.Before(start) || p.Timestamp.After(end) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// AllPoints returns every point in ascending order.
func (t *Timeline) AllPoints() []Point {
	out := make([]Point, 0, len(t.points))
	for _, p := range t.points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// LatestPoint returns the highest-timestamp point matching the interval, or
// false when the timeline holds none.
func (t *Timeline) LatestPoint(iv Interval) (Point, bool) {
	var (
		best  Point
		found bool
	)
	for _, p := range t.points {
		if iv != "" && p.Interval != iv {
			continue
		}
		if !found || p.Timestamp.After(best.Timestamp) {
			best = p
			found = true
		}
	}
	return best, found
}

// Len reports the number of stored points.
func (t *Timeline) Len() int {
	return len(t.points)
}

// Dirty reports whether in-memory mutations have not yet been flushed to
// durable storage.
func (t *Timeline) Dirty() bool {
	return t.dirty
}

// MarkClean clears the dirty flag after a successful persist.
func (t *Timeline) MarkClean() {
	t.dirty = false
}
