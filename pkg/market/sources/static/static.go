// Package static provides a deterministic in-process market data source for
// development environments and tests, where hitting a real provider is
// undesirable.
package static

import (
	"context"
	"fmt"
	"math"
	"time"

	"quotevault-api/pkg/market"
	"quotevault-api/pkg/timeline"
)

func init() {
	market.RegisterProvider("static", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		seed := cfg.Seed
		if seed == 0 {
			seed = 42
		}
		return NewSource(seed), nil
	})
}

// Source generates a reproducible synthetic price walk per symbol.
type Source struct {
	seed int64
}

// NewSource constructs a static source with the given seed.
func NewSource(seed int64) *Source {
	return &Source{seed: seed}
}

var _ market.Provider = (*Source)(nil)

// HistoricalData generates bars ending at the current instant, spaced by the
// requested interval and covering the requested period.
func (s *Source) HistoricalData(_ context.Context, symbol string, period market.Period, interval timeline.Interval) ([]timeline.Point, error) {
	if symbol == "" {
		return nil, fmt.Errorf("static: empty symbol")
	}
	spacing := interval.Duration()
	count := int(periodSpan(period) / spacing)
	if count < 1 {
		count = 1
	}
	if count > 5000 {
		count = 5000
	}

	now := time.Now().UTC().Truncate(spacing)
	base := s.basePrice(symbol)
	points := make([]timeline.Point, 0, count)
	for i := 0; i < count; i++ {
		ts := now.Add(-time.Duration(count-1-i) * spacing)
		wave := math.Sin(float64(i)/9.0 + float64(s.seed))
		open := base * (1 + 0.01*wave)
		closePx := base * (1 + 0.01*math.Sin(float64(i+1)/9.0+float64(s.seed)))
		high := math.Max(open, closePx) * 1.005
		low := math.Min(open, closePx) * 0.995
		volume := int64(1000 + 37*i%500)

		point, err := timeline.NewPoint(ts, open, high, low, closePx, closePx, volume, interval, timeline.SourceStatic)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, nil
}

// LatestPrice returns the close of a single freshly generated daily bar.
func (s *Source) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	points, err := s.HistoricalData(ctx, symbol, market.Period1d, timeline.Interval1d)
	if err != nil {
		return 0, err
	}
	return points[len(points)-1].Close, nil
}

func (s *Source) basePrice(symbol string) float64 {
	var h int64
	for _, r := range symbol {
		h = h*31 + int64(r)
	}
	h = (h + s.seed) % 991
	if h < 0 {
		h = -h
	}
	return 20 + float64(h)
}

func periodSpan(period market.Period) time.Duration {
	switch period {
	case market.Period1d:
		return 24 * time.Hour
	case market.Period5d:
		return 5 * 24 * time.Hour
	case market.Period1mo:
		return 30 * 24 * time.Hour
	case market.Period3mo:
		return 90 * 24 * time.Hour
	case market.Period6mo:
		return 182 * 24 * time.Hour
	case market.Period1y:
		return 365 * 24 * time.Hour
	case market.Period2y:
		return 2 * 365 * 24 * time.Hour
	case market.Period5y:
		return 5 * 365 * 24 * time.Hour
	case market.PeriodMax:
		return 10 * 365 * 24 * time.Hour
	default:
		return 365 * 24 * time.Hour
	}
}
