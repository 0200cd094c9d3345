package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/world"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()

	zm := &world.ZoneMapFile{
		MapWidthPx:       1000,
		MapHeightPx:      1000,
		WorldWidthMeters: 40,
		WorldDepthMeters: 40,
		Zones: []world.ZoneDef{
			{
				ZoneID:  "sales-floor",
				Name:    "Sales Floor",
				Polygon: [][]float64{{0, 0}, {1000, 0}, {1000, 1000}, {0, 1000}},
				Holes: [][][]float64{
					{{100, 100}, {200, 100}, {200, 200}, {100, 200}},
				},
			},
		},
	}
	cal := &world.CalibrationFile{
		Cameras: []world.CameraDef{
			{
				CameraID:      "cam1",
				ImagePoints:   [][]float64{{0, 0}, {200, 0}, {200, 200}, {0, 200}},
				MapNormPoints: [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
				Frame:         &world.FrameSize{Width: 200, Height: 200},
			},
		},
	}

	w, err := world.New(zm, cal, world.Options{})
	require.NoError(t, err)
	return NewAdapterWithClock(w, func() time.Time { return testNow })
}

func TestAdaptRawScenarioFall(t *testing.T) {
	a := newTestAdapter(t)

	ev, ok := a.AdaptRaw(map[string]any{
		"id":       "e1",
		"ts":       "2024-01-01T00:00:00Z",
		"x":        0.5,
		"y":        0.5,
		"type":     "fall_down",
		"severity": "high",
	}, Options{})

	require.True(t, ok)
	assert.Equal(t, "e1", ev.ID)
	assert.Equal(t, domain.EventFall, ev.Type)
	assert.Equal(t, 3, ev.Severity)
	assert.Equal(t, 0.5, ev.X)
	assert.Equal(t, 0.5, ev.Y)
	assert.Equal(t, "sales-floor", ev.ZoneID)
	assert.Equal(t, domain.StatusNew, ev.Status)
}

func TestAdaptRawRejections(t *testing.T) {
	a := newTestAdapter(t)

	tests := []struct {
		name string
		raw  any
	}{
		{"not an object", "garbage"},
		{"no identity", map[string]any{"ts": "2024-01-01T00:00:00Z", "x": 0.5, "y": 0.5}},
		{"no timestamp", map[string]any{"id": "e1", "x": 0.5, "y": 0.5}},
		{"ancient timestamp", map[string]any{"id": "e1", "ts": "1999-06-01T00:00:00Z", "x": 0.5, "y": 0.5}},
		{"far-future timestamp", map[string]any{"id": "e1", "ts": "2031-01-01T00:00:00Z", "x": 0.5, "y": 0.5}},
		{"no coordinates", map[string]any{"id": "e1", "ts": "2024-01-01T00:00:00Z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := a.AdaptRaw(tt.raw, Options{})
			assert.False(t, ok)
		})
	}
}

func TestAdaptRawSynthesizedIdentity(t *testing.T) {
	a := newTestAdapter(t)

	ev, ok := a.AdaptRaw(map[string]any{
		"camera_id": "cam1",
		"track_id":  7,
		"ts":        float64(1717200000), // epoch seconds, scaled x1000
		"x":         0.4,
		"y":         0.6,
	}, Options{})
	require.True(t, ok)
	assert.Equal(t, "cam1:track-7", ev.ID)
	assert.Equal(t, int64(1717200000000), ev.DetectedAt)

	// No camera: synthesized with the placeholder.
	ev, ok = a.AdaptRaw(map[string]any{
		"track_id": "9",
		"ts":       "2024-01-01T00:00:00Z",
		"x":        0.4,
		"y":        0.6,
	}, Options{})
	require.True(t, ok)
	assert.Equal(t, "cam-unknown:track-9", ev.ID)
}

func TestAdaptRawPercentCoordinates(t *testing.T) {
	a := newTestAdapter(t)

	ev, ok := a.AdaptRaw(map[string]any{
		"id": "e1", "ts": "2024-01-01T00:00:00Z",
		"x": 50.0, "y": 75.0,
	}, Options{})
	require.True(t, ok)
	assert.InDelta(t, 0.5, ev.X, 1e-9)
	assert.InDelta(t, 0.75, ev.Y, 1e-9)
}

func TestAdaptRawWorldMeters(t *testing.T) {
	a := newTestAdapter(t)

	ev, ok := a.AdaptRaw(map[string]any{
		"id": "e1", "ts": "2024-01-01T00:00:00Z",
		"world_x_meters": 20.0, "world_z_meters": 30.0,
	}, Options{})
	require.True(t, ok)
	// Square map, square world: map-normalized equals world-normalized.
	assert.InDelta(t, 0.5, ev.X, 1e-9)
	assert.InDelta(t, 0.75, ev.Y, 1e-9)
	require.NotNil(t, ev.WorldXMeters)
	assert.Equal(t, 20.0, *ev.WorldXMeters)

	// Both values in [0,1] are treated as already world-normalized.
	ev, ok = a.AdaptRaw(map[string]any{
		"id": "e2", "ts": "2024-01-01T00:00:00Z",
		"world_x": 0.5, "world_z": 0.5,
	}, Options{})
	require.True(t, ok)
	assert.InDelta(t, 0.5, ev.X, 1e-9)
	assert.Nil(t, ev.WorldXMeters)
}

func TestAdaptRawBBoxFrameRelative(t *testing.T) {
	a := newTestAdapter(t)

	// No calibration for this camera: bottom-center over the declared frame.
	ev, ok := a.AdaptRaw(map[string]any{
		"id": "e1", "ts": "2024-01-01T00:00:00Z",
		"camera_id":   "cam-uncalibrated",
		"bbox":        []any{10.0, 20.0, 30.0, 80.0},
		"frame_width": 100.0, "frame_height": 100.0,
	}, Options{})
	require.True(t, ok)
	assert.InDelta(t, 0.2, ev.X, 1e-9)
	assert.InDelta(t, 0.8, ev.Y, 1e-9)
}

func TestAdaptRawBBoxHomography(t *testing.T) {
	a := newTestAdapter(t)

	// cam1 maps its 200x200 frame onto the whole floor plan.
	ev, ok := a.AdaptRaw(map[string]any{
		"id": "e1", "ts": "2024-01-01T00:00:00Z",
		"camera_id": "CAM1",
		"bbox":      []any{90.0, 80.0, 110.0, 120.0},
	}, Options{})
	require.True(t, ok)
	assert.InDelta(t, 0.5, ev.X, 1e-6)
	assert.InDelta(t, 0.6, ev.Y, 1e-6)
}

func TestAdaptRawBBoxHomographyFrameRescale(t *testing.T) {
	a := newTestAdapter(t)

	// Declared 400x400 frame, calibration authored at 200x200: halved first.
	ev, ok := a.AdaptRaw(map[string]any{
		"id": "e1", "ts": "2024-01-01T00:00:00Z",
		"camera_id":   "cam1",
		"bbox":        []any{180.0, 160.0, 220.0, 240.0},
		"frame_width": 400.0, "frame_height": 400.0,
	}, Options{})
	require.True(t, ok)
	assert.InDelta(t, 0.5, ev.X, 1e-6)
	assert.InDelta(t, 0.6, ev.Y, 1e-6)
}

func TestAdaptRawPositionArray(t *testing.T) {
	a := newTestAdapter(t)

	ev, ok := a.AdaptRaw(map[string]any{
		"id": "e1", "ts": "2024-01-01T00:00:00Z",
		"position": []any{0.3, 0.7},
	}, Options{})
	require.True(t, ok)
	assert.InDelta(t, 0.3, ev.X, 1e-9)
	assert.InDelta(t, 0.7, ev.Y, 1e-9)
}

func TestAdaptRawZoneCentroidFallback(t *testing.T) {
	a := newTestAdapter(t)

	ev, ok := a.AdaptRaw(map[string]any{
		"id": "e1", "ts": "2024-01-01T00:00:00Z",
		"zone_id": "sales-floor",
	}, Options{})
	require.True(t, ok)
	assert.Equal(t, "sales-floor", ev.ZoneID)
	assert.InDelta(t, 0.5, ev.X, 1e-9)
	assert.InDelta(t, 0.5, ev.Y, 1e-9)
}

func TestAdaptRawUnknownZoneTrusted(t *testing.T) {
	a := newTestAdapter(t)

	ev, ok := a.AdaptRaw(map[string]any{
		"id": "e1", "ts": "2024-01-01T00:00:00Z",
		"zone_id": "mezzanine-3", "x": 0.5, "y": 0.5,
	}, Options{})
	require.True(t, ok)
	assert.Equal(t, "mezzanine-3", ev.ZoneID)

	// Placeholder tokens are not trusted; geometry wins.
	ev, ok = a.AdaptRaw(map[string]any{
		"id": "e2", "ts": "2024-01-01T00:00:00Z",
		"zone_id": "global", "x": 0.5, "y": 0.5,
	}, Options{})
	require.True(t, ok)
	assert.Equal(t, "sales-floor", ev.ZoneID)
}

func TestAdaptRawSnapsHolePoint(t *testing.T) {
	a := newTestAdapter(t)

	// (0.15, 0.15) is inside the shelf hole; the event must land on floor.
	ev, ok := a.AdaptRaw(map[string]any{
		"id": "e1", "ts": "2024-01-01T00:00:00Z",
		"x": 0.15, "y": 0.15,
	}, Options{})
	require.True(t, ok)
	z := a.world.Zone("sales-floor")
	walkable := a.world.Walkable(z, ev.Position())
	isCentroid := ev.X == z.Centroid.X && ev.Y == z.Centroid.Y
	assert.True(t, walkable || isCentroid)
	assert.GreaterOrEqual(t, ev.X, 0.0)
	assert.LessOrEqual(t, ev.X, 1.0)
}

func TestAdaptRawClassification(t *testing.T) {
	a := newTestAdapter(t)

	tests := []struct {
		name     string
		raw      map[string]any
		wantType domain.EventType
		wantSev  int
		wantConf float64
	}{
		{
			"synonyms", map[string]any{"type": "aggressive_behavior", "severity": "critical"},
			domain.EventFight, 3, 0.92,
		},
		{
			"queue to crowd", map[string]any{"type": "queue", "confidence": 88.0},
			domain.EventCrowd, 2, 0.88,
		},
		{
			"numeric severity clamps", map[string]any{"type": "loiter", "severity": 9.0},
			domain.EventLoitering, 3, 0.92,
		},
		{
			"unknown type low default", map[string]any{"type": "mystery"},
			domain.EventUnknown, 1, 0.78,
		},
		{
			"type via status field", map[string]any{"status": "falldown"},
			domain.EventFall, 3, 0.92,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := map[string]any{"id": "e", "ts": "2024-01-01T00:00:00Z", "x": 0.5, "y": 0.5}
			for k, v := range tt.raw {
				rec[k] = v
			}
			ev, ok := a.AdaptRaw(rec, Options{})
			require.True(t, ok)
			assert.Equal(t, tt.wantType, ev.Type)
			assert.Equal(t, tt.wantSev, ev.Severity)
			assert.InDelta(t, tt.wantConf, ev.Confidence, 1e-9)
		})
	}
}

func TestAdaptRawSource(t *testing.T) {
	a := newTestAdapter(t)

	tests := []struct {
		raw      string
		fallback domain.EventSource
		want     domain.EventSource
	}{
		{"camera", "", domain.SourceCamera},
		{"ip-camera-3", "", domain.SourceCamera},
		{"demo-generator", "", domain.SourceDemo},
		{"partner-feed", "", domain.SourceAPI},
		{"", domain.SourceDemo, domain.SourceDemo},
		{"", "", domain.SourceUnknown},
	}
	for _, tt := range tests {
		rec := map[string]any{"id": "e", "ts": "2024-01-01T00:00:00Z", "x": 0.5, "y": 0.5}
		if tt.raw != "" {
			rec["source"] = tt.raw
		}
		ev, ok := a.AdaptRaw(rec, Options{DefaultSource: tt.fallback})
		require.True(t, ok)
		assert.Equal(t, tt.want, ev.Source, "source %q", tt.raw)
	}
}

func TestAdaptRawLatency(t *testing.T) {
	a := newTestAdapter(t)

	ev, ok := a.AdaptRaw(map[string]any{
		"id": "e1", "detected_at": int64(1717200000000),
		"ingested_at": int64(1717200000250),
		"x":           0.5, "y": 0.5,
	}, Options{})
	require.True(t, ok)
	assert.Equal(t, int64(250), ev.LatencyMs)

	// Clock skew never yields negative latency.
	ev, ok = a.AdaptRaw(map[string]any{
		"id": "e2", "detected_at": int64(1717200000000),
		"ingested_at": int64(1717199999000),
		"x":           0.5, "y": 0.5,
	}, Options{})
	require.True(t, ok)
	assert.Equal(t, int64(0), ev.LatencyMs)
}
