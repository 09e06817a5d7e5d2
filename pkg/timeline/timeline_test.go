package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPoint(t *testing.T, ts time.Time, closePx float64) Point {
	t.Helper()
	point, err := NewPoint(ts, closePx, closePx+1, closePx-1, closePx, closePx, 100, Interval1d, SourceYahoo)
	require.NoError(t, err)
	return point
}

func TestAddPointsUpsertIsIdempotent(t *testing.T) {
	tl := New("AAPL", "USD")
	ts := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	point := mustPoint(t, ts, 100)

	assert.Equal(t, 1, tl.AddPoints([]Point{point}))
	assert.Equal(t, 0, tl.AddPoints([]Point{point}), "same value twice must not count as a change")
	assert.Equal(t, 1, tl.Len())
}

func TestAddPointsLaterCallWins(t *testing.T) {
	tl := New("AAPL", "USD")
	ts := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	tl.AddPoints([]Point{mustPoint(t, ts, 100)})
	tl.AddPoints([]Point{mustPoint(t, ts, 105)})

	require.Equal(t, 1, tl.Len())
	latest, ok := tl.LatestPoint(Interval1d)
	require.True(t, ok)
	assert.Equal(t, 105.0, latest.Close)
}

func TestDirtyTracking(t *testing.T) {
	tl := New("AAPL", "USD")
	ts := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	assert.False(t, tl.Dirty())
	tl.AddPoints([]Point{mustPoint(t, ts, 100)})
	assert.True(t, tl.Dirty())

	tl.MarkClean()
	assert.False(t, tl.Dirty())

	// Re-adding an identical point leaves the timeline clean.
	tl.AddPoints([]Point{mustPoint(t, ts, 100)})
	assert.False(t, tl.Dirty())

	tl.AddPoints([]Point{mustPoint(t, ts, 101)})
	assert.True(t, tl.Dirty())
}

func TestPointsInRangeInclusiveAndSorted(t *testing.T) {
	tl := New("AAPL", "USD")
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Insert out of order on purpose; reads must re-sort.
	for _, day := range []int{4, 0, 2, 1, 3} {
		tl.AddPoints([]Point{mustPoint(t, base.AddDate(0, 0, day), 100+float64(day))})
	}

	got := tl.PointsInRange(base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	require.Len(t, got, 3)
	assert.Equal(t, 101.0, got[0].Close)
	assert.Equal(t, 102.0, got[1].Close)
	assert.Equal(t, 103.0, got[2].Close)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Timestamp.Before(got[i].Timestamp))
	}
}

func TestPointsInRangeEmptyResult(t *testing.T) {
	tl := New("AAPL", "USD")
	got := tl.PointsInRange(time.Now().Add(-time.Hour), time.Now())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLatestPointByInterval(t *testing.T) {
	tl := New("AAPL", "USD")
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	daily := mustPoint(t, base, 100)
	hourly, err := NewPoint(base.Add(6*time.Hour), 101, 102, 100, 101, 101, 10, Interval1h, SourceYahoo)
	require.NoError(t, err)
	tl.AddPoints([]Point{daily, hourly})

	latestDaily, ok := tl.LatestPoint(Interval1d)
	require.True(t, ok)
	assert.Equal(t, 100.0, latestDaily.Close)

	latestAny, ok := tl.LatestPoint("")
	require.True(t, ok)
	assert.Equal(t, 101.0, latestAny.Close)

	_, ok = tl.LatestPoint(Interval1wk)
	assert.False(t, ok)
}

func TestNewDefaultsCurrency(t *testing.T) {
	tl := New("AAPL", "")
	assert.Equal(t, "USD", tl.Currency)
}
