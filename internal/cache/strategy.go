package cache

import (
	"reflect"
	"time"

	"quotevault-api/internal/config"
	"quotevault-api/pkg/timeline"
)

// Strategy computes adaptive cache TTLs. Base TTLs come from configuration
// per data frequency; during market hours the TTL is scaled down so quotes
// turn over faster while prices actually move.
type Strategy struct {
	ttl        map[timeline.DataFrequency]time.Duration
	multiplier float64
}

// NewStrategy builds a strategy from validated configuration.
func NewStrategy(cfg config.CacheConf) *Strategy {
	return &Strategy{
		ttl: map[timeline.DataFrequency]time.Duration{
			timeline.FrequencyRealTime: time.Duration(cfg.TTL.RealTime) * time.Second,
			timeline.FrequencyIntraday: time.Duration(cfg.TTL.Intraday) * time.Second,
			timeline.FrequencyDaily:    time.Duration(cfg.TTL.Daily) * time.Second,
			timeline.FrequencyWeekly:   time.Duration(cfg.TTL.Weekly) * time.Second,
			timeline.FrequencyMonthly:  time.Duration(cfg.TTL.Monthly) * time.Second,
		},
		multiplier: cfg.MarketHoursMultiplier,
	}
}

// TTL returns the cache lifetime for a frequency class at the given instant.
func (s *Strategy) TTL(freq timeline.DataFrequency, now time.Time) time.Duration {
	base, ok := s.ttl[freq]
	if !ok {
		base = s.ttl[timeline.FrequencyDaily]
	}
	if IsMarketHours(now) {
		return time.Duration(float64(base) * s.multiplier)
	}
	return base
}

// TTLForInterval is a convenience mapping bar spacing straight to a TTL.
func (s *Strategy) TTLForInterval(iv timeline.Interval, now time.Time) time.Duration {
	return s.TTL(timeline.FrequencyForInterval(iv), now)
}

// IsMarketHours reports whether the instant falls on a weekday with the hour
// in [9, 16], inclusive on both ends, in the instant's own location.
func IsMarketHours(now time.Time) bool {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hour := now.Hour()
	return hour >= 9 && hour <= 16
}

// ShouldCache rejects values that carry no information: nils, empty slices,
// maps and strings. Zero scalars and false are valid cacheable values.
func (s *Strategy) ShouldCache(value any) bool {
	if value == nil {
		return false
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array:
		return rv.Len() > 0
	}
	return true
}
