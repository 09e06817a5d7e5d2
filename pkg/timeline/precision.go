package timeline

import (
	"strings"
	"time"
)

// PrecisionLevel classifies how old a stored point is. It drives retention
// decisions and is recomputed whenever it is needed, never stored.
type PrecisionLevel string

const (
	PrecisionUltraHigh PrecisionLevel = "ultra_high" // < 24h
	PrecisionHigh      PrecisionLevel = "high"       // < 7d
	PrecisionMedium    PrecisionLevel = "medium"     // < 30d
	PrecisionLow       PrecisionLevel = "low"        // < 365d
	PrecisionVeryLow   PrecisionLevel = "very_low"   // >= 365d
)

// ClassifyPrecision maps a point timestamp onto a precision level given the
// current instant. Pure and total: any pair of instants yields a level.
func ClassifyPrecision(ts, now time.Time) PrecisionLevel {
	age := now.Sub(ts)
	switch {
	case age < 24*time.Hour:
		return PrecisionUltraHigh
	case age < 7*24*time.Hour:
		return PrecisionHigh
	case age < 30*24*time.Hour:
		return PrecisionMedium
	case age < 365*24*time.Hour:
		return PrecisionLow
	default:
		return PrecisionVeryLow
	}
}

// DataFrequency classifies how often a logical dataset changes. Distinct from
// PrecisionLevel, which classifies how old an individual point is.
type DataFrequency string

const (
	FrequencyRealTime DataFrequency = "real_time"
	FrequencyIntraday DataFrequency = "intraday"
	FrequencyDaily    DataFrequency = "daily"
	FrequencyWeekly   DataFrequency = "weekly"
	FrequencyMonthly  DataFrequency = "monthly"
)

// Frequencies lists every known frequency class.
func Frequencies() []DataFrequency {
	return []DataFrequency{
		FrequencyRealTime,
		FrequencyIntraday,
		FrequencyDaily,
		FrequencyWeekly,
		FrequencyMonthly,
	}
}

// ParseFrequency validates a raw frequency string.
func ParseFrequency(raw string) (DataFrequency, bool) {
	f := DataFrequency(strings.ToLower(strings.TrimSpace(raw)))
	switch f {
	case FrequencyRealTime, FrequencyIntraday, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return f, true
	}
	return "", false
}

// FrequencyForInterval maps bar spacing onto the frequency class used for TTL
// selection.
func FrequencyForInterval(iv Interval) DataFrequency {
	switch iv {
	case Interval1m:
		return FrequencyRealTime
	case Interval5m, Interval15m, Interval30m, Interval1h:
		return FrequencyIntraday
	case Interval1d:
		return FrequencyDaily
	case Interval1wk:
		return FrequencyWeekly
	case Interval1mo, Interval3mo:
		return FrequencyMonthly
	default:
		return FrequencyDaily
	}
}
