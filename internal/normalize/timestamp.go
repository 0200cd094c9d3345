package normalize

import (
	"strconv"
	"strings"
	"time"
)

// Garbage sensor clocks are common; anything before 2000 or more than a year
// in the future is treated as absent rather than trusted.
var minValidMs = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

const maxFutureDrift = 365 * 24 * time.Hour

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp resolves an epoch-seconds, epoch-milliseconds, or
// date-string value to epoch milliseconds. Epoch values in [1e9,1e11) are
// assumed to be seconds and scaled up.
func parseTimestamp(v any, now time.Time) (int64, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return validateEpoch(n, now)
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return validateMs(parsed.UnixMilli(), now)
			}
		}
		return 0, false
	default:
		if n, ok := asFloat(v); ok {
			return validateEpoch(n, now)
		}
		return 0, false
	}
}

func validateEpoch(n float64, now time.Time) (int64, bool) {
	if n >= 1e9 && n < 1e11 {
		n *= 1000
	}
	return validateMs(int64(n), now)
}

func validateMs(ms int64, now time.Time) (int64, bool) {
	if ms < minValidMs {
		return 0, false
	}
	if ms > now.Add(maxFutureDrift).UnixMilli() {
		return 0, false
	}
	return ms, true
}
