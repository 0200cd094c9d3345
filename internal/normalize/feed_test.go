package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorwatch/floorwatch/internal/domain"
)

// eventToRecord round-trips a canonical event through JSON, yielding the
// keyed record shape the adapter consumes.
func eventToRecord(ev *domain.Event) map[string]any {
	data, err := json.Marshal(ev)
	if err != nil {
		panic(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		panic(err)
	}
	return rec
}

func TestNormalizeFeedDedupe(t *testing.T) {
	a := newTestAdapter(t)

	records := []any{
		map[string]any{
			"camera_id": "cam1", "track_id": 7,
			"detected_at": int64(1717200000100), "x": 0.3, "y": 0.3,
		},
		map[string]any{
			"camera_id": "cam1", "track_id": 7,
			"detected_at": int64(1717200000200), "x": 0.6, "y": 0.6,
		},
	}

	out := a.NormalizeFeed(records, FeedOptions{MaxEvents: 100})
	require.Len(t, out, 1)
	assert.Equal(t, "cam1:track-7", out[0].ID)
	assert.Equal(t, int64(1717200000200), out[0].DetectedAt)
	assert.InDelta(t, 0.6, out[0].X, 1e-9)
}

func TestNormalizeFeedDedupeIngestedTiebreak(t *testing.T) {
	a := newTestAdapter(t)

	records := []any{
		map[string]any{
			"id": "e1", "detected_at": int64(1717200000000),
			"ingested_at": int64(1717200000500), "x": 0.3, "y": 0.3,
		},
		map[string]any{
			"id": "e1", "detected_at": int64(1717200000000),
			"ingested_at": int64(1717200000100), "x": 0.6, "y": 0.6,
		},
	}

	out := a.NormalizeFeed(records, FeedOptions{MaxEvents: 100})
	require.Len(t, out, 1)
	assert.Equal(t, int64(1717200000500), out[0].IngestedAt)
	assert.InDelta(t, 0.3, out[0].X, 1e-9)
}

func TestNormalizeFeedDropsNoiseAndSorts(t *testing.T) {
	a := newTestAdapter(t)

	records := []any{
		"not an object",
		map[string]any{"id": "old", "detected_at": int64(1717100000000), "x": 0.2, "y": 0.2},
		map[string]any{"no": "identity"},
		map[string]any{"id": "new", "detected_at": int64(1717200000000), "x": 0.4, "y": 0.4},
	}

	out := a.NormalizeFeed(records, FeedOptions{MaxEvents: 100})
	require.Len(t, out, 2)
	assert.Equal(t, "new", out[0].ID)
	assert.Equal(t, "old", out[1].ID)
}

func TestNormalizeFeedTruncation(t *testing.T) {
	a := newTestAdapter(t)

	var records []any
	for i := 0; i < 5; i++ {
		records = append(records, map[string]any{
			"id":          string(rune('a' + i)),
			"detected_at": int64(1717200000000 + i),
			"x":           0.5, "y": 0.5,
		})
	}

	out := a.NormalizeFeed(records, FeedOptions{MaxEvents: 2})
	require.Len(t, out, 2)
	assert.Equal(t, "e", out[0].ID)

	// MaxEvents clamps to at least 1.
	out = a.NormalizeFeed(records, FeedOptions{MaxEvents: -5})
	assert.Len(t, out, 1)
}

func TestNormalizeFeedIdempotent(t *testing.T) {
	a := newTestAdapter(t)

	records := []any{
		map[string]any{
			"id": "e1", "ts": "2024-01-01T00:00:00Z",
			"type": "fall_down", "severity": "high", "x": 0.5, "y": 0.5,
		},
		map[string]any{
			"camera_id": "cam1", "track_id": 3,
			"ts": "2024-02-01T09:30:00Z", "type": "queue", "x": 0.25, "y": 0.75,
		},
	}

	first := a.NormalizeFeed(records, FeedOptions{MaxEvents: 100})
	require.Len(t, first, 2)

	// Re-normalizing the normalizer's own output changes nothing.
	var asRaw []any
	for _, ev := range first {
		asRaw = append(asRaw, eventToRecord(ev))
	}
	second := a.NormalizeFeed(asRaw, FeedOptions{MaxEvents: 100})
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}
