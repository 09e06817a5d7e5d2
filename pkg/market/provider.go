package market

import (
	"context"
	"fmt"
	"strings"

	"quotevault-api/pkg/timeline"
)

// Period bounds a historical data request.
type Period string

const (
	Period1d  Period = "1d"
	Period5d  Period = "5d"
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period5y  Period = "5y"
	PeriodMax Period = "max"
)

// ParsePeriod validates a raw period string.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case Period1d, Period5d, Period1mo, Period3mo, Period6mo, Period1y, Period2y, Period5y, PeriodMax:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", raw)
}

// Provider exposes an external market data source. Implementations bound
// every call with their own per-request timeout; a timed-out call surfaces as
// an ordinary error.
type Provider interface {
	// HistoricalData returns chronologically ordered OHLCV points covering
	// the requested period at the requested bar spacing.
	HistoricalData(ctx context.Context, symbol string, period Period, interval timeline.Interval) ([]timeline.Point, error)
	// LatestPrice returns the most recent trade or close price.
	LatestPrice(ctx context.Context, symbol string) (float64, error)
}
