package timeline

import (
	"fmt"
	"strings"
	"time"
)

// Interval identifies the bar spacing of an OHLCV point.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
	Interval1wk Interval = "1wk"
	Interval1mo Interval = "1mo"
	Interval3mo Interval = "3mo"
)

// ParseInterval validates a raw interval string.
func ParseInterval(raw string) (Interval, error) {
	iv := Interval(strings.ToLower(strings.TrimSpace(raw)))
	switch iv {
	case Interval1m, Interval5m, Interval15m, Interval30m, Interval1h,
		Interval1d, Interval1wk, Interval1mo, Interval3mo:
		return iv, nil
	}
	return "", fmt.Errorf("unknown interval %q", raw)
}

// Duration returns the nominal spacing between consecutive bars.
// Calendar intervals use fixed approximations (7d, 30d, 90d).
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval30m:
		return 30 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval1d:
		return 24 * time.Hour
	case Interval1wk:
		return 7 * 24 * time.Hour
	case Interval1mo:
		return 30 * 24 * time.Hour
	case Interval3mo:
		return 90 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Source identifies where a point came from.
type Source string

const (
	SourceYahoo   Source = "yahoo"
	SourceStatic  Source = "static"
	SourceUnknown Source = "unknown"
)

// Point is a single immutable OHLCV bar. All monetary fields are expressed in
// the currency of the owning Timeline.
type Point struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	AdjClose  float64
	Volume    int64
	Interval  Interval
	Source    Source
	CreatedAt time.Time
}

// NewPoint validates and builds a Point. Validation failures reject the single
// point; callers merging batches skip the bad point and keep going.
func NewPoint(ts time.Time, open, high, low, closePx, adjClose float64, volume int64, interval Interval, source Source) (Point, error) {
	if ts.IsZero() {
		return Point{}, fmt.Errorf("point: zero timestamp")
	}
	if volume < 0 {
		return Point{}, fmt.Errorf("point %s: negative volume %d", ts.Format(time.RFC3339), volume)
	}
	if low > high {
		return Point{}, fmt.Errorf("point %s: low %.6f above high %.6f", ts.Format(time.RFC3339), low, high)
	}
	if open < low || open > high {
		return Point{}, fmt.Errorf("point %s: open %.6f outside [%.6f, %.6f]", ts.Format(time.RFC3339), open, low, high)
	}
	if closePx < low || closePx > high {
		return Point{}, fmt.Errorf("point %s: close %.6f outside [%.6f, %.6f]", ts.Format(time.RFC3339), closePx, low, high)
	}
	if source == "" {
		source = SourceUnknown
	}
	return Point{
		Timestamp: ts.UTC(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePx,
		AdjClose:  adjClose,
		Volume:    volume,
		Interval:  interval,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Age reports how old the bar is relative to now.
func (p Point) Age(now time.Time) time.Duration {
	return now.Sub(p.Timestamp)
}
