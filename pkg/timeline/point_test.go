package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPointValidation(t *testing.T) {
	ts := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		open    float64
		high    float64
		low     float64
		close   float64
		volume  int64
		wantErr bool
	}{
		{name: "valid bar", open: 10, high: 12, low: 9, close: 11, volume: 100},
		{name: "flat bar", open: 10, high: 10, low: 10, close: 10, volume: 0},
		{name: "low above high", open: 10, high: 9, low: 11, close: 10, volume: 1, wantErr: true},
		{name: "open above high", open: 13, high: 12, low: 9, close: 11, volume: 1, wantErr: true},
		{name: "close below low", open: 10, high: 12, low: 9, close: 8, volume: 1, wantErr: true},
		{name: "negative volume", open: 10, high: 12, low: 9, close: 11, volume: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPoint(ts, tt.open, tt.high, tt.low, tt.close, tt.close, tt.volume, Interval1d, SourceYahoo)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPointRejectsZeroTimestamp(t *testing.T) {
	_, err := NewPoint(time.Time{}, 10, 12, 9, 11, 11, 1, Interval1d, SourceYahoo)
	require.Error(t, err)
}

func TestNewPointNormalisesToUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	ts := time.Date(2025, 6, 2, 9, 30, 0, 0, loc)
	point, err := NewPoint(ts, 10, 12, 9, 11, 11, 1, Interval1d, SourceYahoo)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, point.Timestamp.Location())
	assert.True(t, point.Timestamp.Equal(ts))
}

func TestParseInterval(t *testing.T) {
	iv, err := ParseInterval(" 1D ")
	require.NoError(t, err)
	assert.Equal(t, Interval1d, iv)

	_, err = ParseInterval("2h")
	assert.Error(t, err)
}

func TestClassifyPrecisionBoundaries(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		age  time.Duration
		want PrecisionLevel
	}{
		{12 * time.Hour, PrecisionUltraHigh},
		{3 * 24 * time.Hour, PrecisionHigh},
		{20 * 24 * time.Hour, PrecisionMedium},
		{200 * 24 * time.Hour, PrecisionLow},
		{400 * 24 * time.Hour, PrecisionVeryLow},
		// Exact boundaries fall into the older bucket.
		{24 * time.Hour, PrecisionHigh},
		{7 * 24 * time.Hour, PrecisionMedium},
		{30 * 24 * time.Hour, PrecisionLow},
		{365 * 24 * time.Hour, PrecisionVeryLow},
	}
	for _, tt := range tests {
		got := ClassifyPrecision(now.Add(-tt.age), now)
		assert.Equal(t, tt.want, got, "age %s", tt.age)
	}
}

func TestFrequencyForInterval(t *testing.T) {
	assert.Equal(t, FrequencyRealTime, FrequencyForInterval(Interval1m))
	assert.Equal(t, FrequencyIntraday, FrequencyForInterval(Interval1h))
	assert.Equal(t, FrequencyDaily, FrequencyForInterval(Interval1d))
	assert.Equal(t, FrequencyWeekly, FrequencyForInterval(Interval1wk))
	assert.Equal(t, FrequencyMonthly, FrequencyForInterval(Interval3mo))
}

func TestParseFrequency(t *testing.T) {
	f, ok := ParseFrequency("Real_Time")
	assert.True(t, ok)
	assert.Equal(t, FrequencyRealTime, f)

	_, ok = ParseFrequency("hourly")
	assert.False(t, ok)
}
