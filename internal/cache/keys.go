package cache

import "strings"

// DefaultNamespace is the Redis key prefix used when no KeyPrefix is
// configured.
const DefaultNamespace = "quotevault"

// formatKey joins non-empty parts with the cache separator. The store prefix
// is applied separately so the same keys work under any configured namespace.
func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// TimelineKey holds the serialized point set for one symbol.
func TimelineKey(symbol string) string {
	return formatKey("timeline", strings.ToUpper(symbol))
}

// PointsKey holds a per-interval slice of points for one symbol.
func PointsKey(symbol, interval string) string {
	return formatKey("points", strings.ToUpper(symbol), interval)
}

// LatestPriceKey holds the most recent price for one symbol.
func LatestPriceKey(symbol string) string {
	return formatKey("price", "latest", strings.ToUpper(symbol))
}

// SymbolPattern matches every key belonging to one symbol.
func SymbolPattern(symbol string) string {
	return formatKey("*", strings.ToUpper(symbol)) + "*"
}

// AllPattern matches every key in the namespace.
func AllPattern() string {
	return "*"
}
