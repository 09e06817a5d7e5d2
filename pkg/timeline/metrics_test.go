package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The gap thresholds are part of the metrics contract: spacing beyond 1.5x
// the dominant interval counts as a gap, beyond 3x as a significant gap.
func TestMetricsGapThresholds(t *testing.T) {
	tl := New("AAPL", "USD")
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base.AddDate(0, 0, 30)

	// Days 0,1,3,10: one 2-day spacing (plain gap, 1.5x < 2x <= 3x) and one
	// 7-day spacing (significant, > 3x).
	for _, day := range []int{0, 1, 3, 10} {
		tl.AddPoints([]Point{mustPoint(t, base.AddDate(0, 0, day), 100)})
	}

	m := tl.Metrics(now)
	assert.Equal(t, 4, m.TotalPoints)
	assert.Equal(t, 2, m.GapsCount)
	assert.Equal(t, 1, m.SignificantGapsCount)
	assert.Equal(t, base, m.Oldest)
	assert.Equal(t, base.AddDate(0, 0, 10), m.Newest)
}

func TestMetricsContiguousSeries(t *testing.T) {
	tl := New("AAPL", "USD")
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for day := 0; day < 10; day++ {
		tl.AddPoints([]Point{mustPoint(t, base.AddDate(0, 0, day), 100)})
	}

	m := tl.Metrics(base.AddDate(0, 0, 10))
	assert.Equal(t, 0, m.GapsCount)
	assert.Equal(t, 0, m.SignificantGapsCount)
	assert.InDelta(t, 100.0, m.CoveragePercent, 0.01)
	assert.InDelta(t, 100.0, m.QualityScore, 0.01)
}

func TestMetricsEmptyTimeline(t *testing.T) {
	tl := New("AAPL", "USD")
	m := tl.Metrics(time.Now())
	assert.Equal(t, 0, m.TotalPoints)
	assert.True(t, m.Oldest.IsZero())
	assert.Empty(t, m.PrecisionDistribution)
}

func TestMetricsPrecisionDistribution(t *testing.T) {
	tl := New("AAPL", "USD")
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	tl.AddPoints([]Point{
		mustPoint(t, now.Add(-12*time.Hour), 100),
		mustPoint(t, now.Add(-3*24*time.Hour), 100),
		mustPoint(t, now.Add(-20*24*time.Hour), 100),
		mustPoint(t, now.Add(-200*24*time.Hour), 100),
		mustPoint(t, now.Add(-400*24*time.Hour), 100),
	})

	m := tl.Metrics(now)
	require.Equal(t, 5, m.TotalPoints)
	assert.Equal(t, 1, m.PrecisionDistribution[PrecisionUltraHigh])
	assert.Equal(t, 1, m.PrecisionDistribution[PrecisionHigh])
	assert.Equal(t, 1, m.PrecisionDistribution[PrecisionMedium])
	assert.Equal(t, 1, m.PrecisionDistribution[PrecisionLow])
	assert.Equal(t, 1, m.PrecisionDistribution[PrecisionVeryLow])
}

func TestMetricsSignificantGapPenalty(t *testing.T) {
	tl := New("AAPL", "USD")
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tl.AddPoints([]Point{
		mustPoint(t, base, 100),
		mustPoint(t, base.AddDate(0, 0, 10), 100),
	})

	m := tl.Metrics(base.AddDate(0, 0, 11))
	require.Equal(t, 1, m.SignificantGapsCount)
	assert.Less(t, m.QualityScore, m.CoveragePercent)
}
