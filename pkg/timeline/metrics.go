package timeline

import "time"

// Gap thresholds, expressed as multiples of the dominant interval's nominal
// spacing. A spacing beyond gapFactor counts as a gap; beyond
// significantGapFactor it counts as a significant one.
const (
	gapFactor            = 1.5
	significantGapFactor = 3.0
)

// Metrics summarises timeline completeness and quality. Computed on demand
// from the current points, never cached on the entity.
type Metrics struct {
	TotalPoints           int
	Oldest                time.Time
	Newest                time.Time
	CoveragePercent       float64
	GapsCount             int
	SignificantGapsCount  int
	QualityScore          float64
	PrecisionDistribution map[PrecisionLevel]int
}

// Metrics computes coverage and gap statistics relative to now.
func (t *Timeline) Metrics(now time.Time) Metrics {
	points := t.AllPoints()
	m := Metrics{
		TotalPoints:           len(points),
		PrecisionDistribution: make(map[PrecisionLevel]int),
	}
	if len(points) == 0 {
		return m
	}

	m.Oldest = points[0].Timestamp
	m.Newest = points[len(points)-1].Timestamp
	for _, p := range points {
		m.PrecisionDistribution[ClassifyPrecision(p.Timestamp, now)]++
	}

	nominal := t.dominantInterval(points).Duration()
	expected := 1
	if span := m.Newest.Sub(m.Oldest); span > 0 && nominal > 0 {
		expected = int(span/nominal) + 1
	}
	if expected > 0 {
		m.CoveragePercent = 100 * float64(len(points)) / float64(expected)
		if m.CoveragePercent > 100 {
			m.CoveragePercent = 100
		}
	}

	for i := 1; i < len(points); i++ {
		spacing := points[i].Timestamp.Sub(points[i-1].Timestamp)
		if float64(spacing) > significantGapFactor*float64(nominal) {
			m.GapsCount++
			m.SignificantGapsCount++
		} else if float64(spacing) > gapFactor*float64(nominal) {
			m.GapsCount++
		}
	}

	// Coverage dominates quality; each significant gap costs a flat penalty.
	m.QualityScore = m.CoveragePercent - 5*float64(m.SignificantGapsCount)
	if m.QualityScore < 0 {
		m.QualityScore = 0
	}
	return m
}

// dominantInterval picks the most frequent interval among the points.
func (t *Timeline) dominantInterval(points []Point) Interval {
	counts := make(map[Interval]int)
	for _, p := range points {
		counts[p.Interval]++
	}
	best := Interval1d
	bestCount := 0
	for iv, n := range counts {
		if n > bestCount {
			best, bestCount = iv, n
		}
	}
	return best
}
