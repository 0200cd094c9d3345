package normalize

import (
	"sort"

	"github.com/floorwatch/floorwatch/internal/domain"
)

const (
	minFeedEvents = 1
	maxFeedEvents = 1000
)

// FeedOptions tunes a feed normalization pass.
type FeedOptions struct {
	MaxEvents       int
	FallbackStoreID string
	DefaultSource   domain.EventSource
}

// NormalizeFeed normalizes every record, drops failures, deduplicates by id
// keeping the newest by (detectedAt, ingestedAt), sorts newest-first with a
// lexicographic id tiebreak, and truncates to MaxEvents (clamped 1..1000).
func (a *Adapter) NormalizeFeed(records []any, opts FeedOptions) []*domain.Event {
	max := opts.MaxEvents
	if max < minFeedEvents {
		max = minFeedEvents
	}
	if max > maxFeedEvents {
		max = maxFeedEvents
	}

	adaptOpts := Options{
		FallbackStoreID: opts.FallbackStoreID,
		DefaultSource:   opts.DefaultSource,
	}

	byID := make(map[string]*domain.Event, len(records))
	for _, raw := range records {
		ev, ok := a.AdaptRaw(raw, adaptOpts)
		if !ok {
			continue
		}
		if prev, exists := byID[ev.ID]; exists && !ev.NewerThan(prev) {
			continue
		}
		byID[ev.ID] = ev
	}

	out := make([]*domain.Event, 0, len(byID))
	for _, ev := range byID {
		out = append(out, ev)
	}
	SortEvents(out)

	if len(out) > max {
		out = out[:max]
	}
	return out
}

// SortEvents orders events newest-first by (detectedAt, ingestedAt) with a
// lexicographic id tiebreak for stable output.
func SortEvents(events []*domain.Event) {
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.DetectedAt != b.DetectedAt {
			return a.DetectedAt > b.DetectedAt
		}
		if a.IngestedAt != b.IngestedAt {
			return a.IngestedAt > b.IngestedAt
		}
		return a.ID < b.ID
	})
}
