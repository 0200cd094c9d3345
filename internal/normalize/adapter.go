// Package normalize converts arbitrary keyed detection records into canonical
// events anchored to the floor plan. Feeds are expected to contain noise:
// every failure mode drops the record or falls back to a safe default, and
// nothing in this package panics or returns an error for malformed input.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/geo"
	"github.com/floorwatch/floorwatch/internal/world"
)

// Generic zone placeholders that external producers send when they mean
// "the whole store". Never trusted as real zone identifiers.
var placeholderZones = map[string]bool{
	"store": true, "site": true, "shop": true, "global": true, "all": true,
}

// Options tunes per-call normalization defaults.
type Options struct {
	FallbackStoreID string
	DefaultSource   domain.EventSource
}

// Adapter normalizes raw records against a static world configuration. It is
// a pure function of its inputs plus the injected clock; safe for concurrent
// use.
type Adapter struct {
	world *world.World
	now   func() time.Time
}

// NewAdapter builds an adapter over the given world.
func NewAdapter(w *world.World) *Adapter {
	return &Adapter{world: w, now: time.Now}
}

// NewAdapterWithClock builds an adapter with a fixed clock, for tests.
func NewAdapterWithClock(w *world.World, now func() time.Time) *Adapter {
	return &Adapter{world: w, now: now}
}

// AdaptRaw converts one raw record into a canonical event. Returns false
// when no identity, timestamp, or coordinate can be resolved; such records
// are dropped silently by callers.
func (a *Adapter) AdaptRaw(raw any, opts Options) (*domain.Event, bool) {
	record, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	now := a.now()

	cameraID, _ := stringField(record, cameraKeys)
	trackID, _ := stringField(record, trackKeys)

	id, ok := a.resolveIdentity(record, cameraID, trackID)
	if !ok {
		return nil, false
	}

	detectedAt, ingestedAt, latencyMs, ok := a.resolveTimes(record, now)
	if !ok {
		return nil, false
	}

	explicitZone, _ := stringField(record, zoneKeys)

	pos, worldX, worldZ, ok := a.resolvePosition(record, cameraID, explicitZone)
	if !ok {
		return nil, false
	}

	zone, zoneID := a.resolveZone(explicitZone, pos)
	pos = a.world.SnapToWalkable(zone, pos).Clamp()

	eventType := a.resolveType(record)
	rawSeverity, _ := lookup(record, severityKeys)
	severity := classifySeverity(rawSeverity, eventType)
	rawConfidence, _ := lookup(record, confidenceKeys)
	confidence := classifyConfidence(rawConfidence, severity)

	rawSource, _ := stringField(record, sourceKeys)
	statusToken, _ := stringField(record, statusKeys)
	rawStatus, _ := stringField(record, rawStatusKeys)

	storeID, _ := stringField(record, storeKeys)
	if storeID == "" {
		storeID = opts.FallbackStoreID
	}

	ev := &domain.Event{
		ID:         id,
		StoreID:    storeID,
		DetectedAt: detectedAt,
		IngestedAt: ingestedAt,
		LatencyMs:  latencyMs,
		Type:       eventType,
		Severity:   severity,
		Confidence: confidence,
		Source:     classifySource(rawSource, opts.DefaultSource),
		Status:     classifyStatus(statusToken),
		ZoneID:     zoneID,
		CameraID:   cameraID,
		TrackID:    trackID,
		RawStatus:  rawStatus,
		X:          pos.X,
		Y:          pos.Y,
	}

	ev.ObjectLabel, _ = stringField(record, objectLabelKeys)
	ev.ModelVersion, _ = stringField(record, modelVersionKeys)
	ev.Note, _ = stringField(record, noteKeys)
	ev.WorldXMeters = worldX
	ev.WorldZMeters = worldZ

	return ev, true
}

func (a *Adapter) resolveIdentity(record map[string]any, cameraID, trackID string) (string, bool) {
	if id, ok := stringField(record, idKeys); ok {
		return id, true
	}
	if trackID == "" {
		return "", false
	}
	cam := cameraID
	if cam == "" {
		cam = "cam-unknown"
	}
	return fmt.Sprintf("%s:track-%s", cam, trackID), true
}

func (a *Adapter) resolveTimes(record map[string]any, now time.Time) (detectedAt, ingestedAt, latencyMs int64, ok bool) {
	if v, found := lookup(record, detectedAtKeys); found {
		detectedAt, ok = parseTimestamp(v, now)
	}
	if !ok {
		return 0, 0, 0, false
	}

	ingestedAt = detectedAt
	if v, found := lookup(record, ingestedAtKeys); found {
		if ms, valid := parseTimestamp(v, now); valid {
			ingestedAt = ms
		}
	}

	if v, found := floatField(record, latencyKeys); found && v >= 0 {
		latencyMs = int64(v + 0.5)
	} else {
		latencyMs = ingestedAt - detectedAt
		if latencyMs < 0 {
			latencyMs = 0
		}
	}
	return detectedAt, ingestedAt, latencyMs, true
}

// resolveType tries the type fields first and retries against status/state
// fields, where some producers bury the classification.
func (a *Adapter) resolveType(record map[string]any) domain.EventType {
	if raw, ok := stringField(record, typeKeys); ok {
		if t, matched := classifyType(raw); matched {
			return t
		}
	}
	if raw, ok := stringField(record, rawStatusKeys); ok {
		if t, matched := classifyType(raw); matched {
			return t
		}
	}
	return domain.EventUnknown
}

// resolvePosition runs the prioritized coordinate cascade; the first method
// that yields a point wins.
func (a *Adapter) resolvePosition(record map[string]any, cameraID, explicitZone string) (pos geo.Point, worldX, worldZ *float64, ok bool) {
	// 1. Explicit normalized (or percentage) x/y pair.
	if p, ok := a.explicitPair(record); ok {
		return p, nil, nil, true
	}

	// 2. World meters, with the already-normalized heuristic for ambiguous
	// producers that emit 0..1 values under meter keys.
	if p, wx, wz, ok := a.worldCoords(record); ok {
		return p, wx, wz, true
	}

	// 3. Bounding box through the camera homography.
	// 4. Frame-relative bounding box when no homography is registered.
	if p, ok := a.bboxPosition(record, cameraID); ok {
		return p, nil, nil, true
	}

	// 5. Two-element position/location array.
	if v, found := lookup(record, positionKeys); found {
		if x, y, valid := asPair(v); valid {
			if p, scaled := scalePair(x, y); scaled {
				return p, nil, nil, true
			}
		}
	}

	// 6. Named zone centroid when nothing spatial is present at all.
	if explicitZone != "" {
		if z := a.world.Zone(explicitZone); z != nil {
			return z.Centroid, nil, nil, true
		}
	}

	return geo.Point{}, nil, nil, false
}

func (a *Adapter) explicitPair(record map[string]any) (geo.Point, bool) {
	x, okX := floatField(record, xKeys)
	y, okY := floatField(record, yKeys)
	if !okX || !okY {
		return geo.Point{}, false
	}
	return scalePair(x, y)
}

// scalePair accepts values in [0,1] as-is and [0,100] as percentages.
func scalePair(x, y float64) (geo.Point, bool) {
	if x >= 0 && x <= 1 && y >= 0 && y <= 1 {
		return geo.Pt(x, y), true
	}
	if x >= 0 && x <= 100 && y >= 0 && y <= 100 {
		return geo.Pt(x/100, y/100), true
	}
	return geo.Point{}, false
}

func (a *Adapter) worldCoords(record map[string]any) (geo.Point, *float64, *float64, bool) {
	wx, okX := floatField(record, worldXKeys)
	wz, okZ := floatField(record, worldZKeys)
	if !okX || !okZ {
		return geo.Point{}, nil, nil, false
	}

	var worldNorm geo.Point
	var mx, mz *float64
	if wx >= 0 && wx <= 1 && wz >= 0 && wz <= 1 {
		// Both in [0,1]: treated as already world-normalized.
		worldNorm = geo.Pt(wx, wz)
	} else {
		worldNorm = a.world.Transform().MetersToWorldNorm(wx, wz)
		mx, mz = &wx, &wz
	}
	return a.world.Transform().WorldToMap(worldNorm), mx, mz, true
}

func (a *Adapter) bboxPosition(record map[string]any, cameraID string) (geo.Point, bool) {
	box, ok := parseBBox(record)
	if !ok {
		return geo.Point{}, false
	}

	// Ground-contact proxy: the bottom-center of the box, not its center.
	footX := (box.x1 + box.x2) / 2
	footY := box.y2

	frameW, _ := floatField(record, frameWidthKeys)
	frameH, _ := floatField(record, frameHeightKeys)

	if cameraID != "" {
		if cam := a.world.Camera(cameraID); cam != nil {
			px, py := footX, footY
			// Rescale when the record's declared frame differs from the one
			// the calibration was authored against.
			if frameW > 0 && frameH > 0 && cam.FrameWidth > 0 && cam.FrameHeight > 0 &&
				(frameW != cam.FrameWidth || frameH != cam.FrameHeight) {
				px = footX * cam.FrameWidth / frameW
				py = footY * cam.FrameHeight / frameH
			}
			if p, ok := cam.H.Apply(px, py); ok {
				return p.Clamp(), true
			}
		}
	}

	// No usable homography: normalize by the declared or inferred frame.
	switch {
	case frameW > 0 && frameH > 0:
		return geo.Pt(footX/frameW, footY/frameH).Clamp(), true
	case box.x2 <= 1 && box.y2 <= 1:
		// Box already normalized.
		return geo.Pt(footX, footY).Clamp(), true
	default:
		return geo.Pt(footX/defaultFrameWidth, footY/defaultFrameHeight).Clamp(), true
	}
}

// Assumed frame for boxes that declare no size; matches the dominant camera
// resolution in the fleet.
const (
	defaultFrameWidth  = 1920.0
	defaultFrameHeight = 1080.0
)

type bbox struct {
	x1, y1, x2, y2 float64
}

// parseBBox accepts [x1,y1,x2,y2] arrays and {x1..}/{left..}/{x,y,w,h}
// objects.
func parseBBox(record map[string]any) (bbox, bool) {
	v, found := lookup(record, bboxKeys)
	if !found {
		return bbox{}, false
	}

	if arr, ok := v.([]any); ok && len(arr) == 4 {
		vals := make([]float64, 4)
		for i, raw := range arr {
			f, ok := asFloat(raw)
			if !ok {
				return bbox{}, false
			}
			vals[i] = f
		}
		return orderedBBox(vals[0], vals[1], vals[2], vals[3])
	}

	m, ok := v.(map[string]any)
	if !ok {
		return bbox{}, false
	}
	get := func(keys ...string) (float64, bool) {
		for _, k := range keys {
			if f, ok := asFloat(m[k]); ok {
				return f, true
			}
		}
		return 0, false
	}

	if x1, ok := get("x1", "left"); ok {
		y1, ok1 := get("y1", "top")
		x2, ok2 := get("x2", "right")
		y2, ok3 := get("y2", "bottom")
		if ok1 && ok2 && ok3 {
			return orderedBBox(x1, y1, x2, y2)
		}
	}
	if x, ok := get("x"); ok {
		y, ok1 := get("y")
		w, ok2 := get("w", "width")
		h, ok3 := get("h", "height")
		if ok1 && ok2 && ok3 {
			return orderedBBox(x, y, x+w, y+h)
		}
	}
	return bbox{}, false
}

func orderedBBox(x1, y1, x2, y2 float64) (bbox, bool) {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return bbox{x1, y1, x2, y2}, true
}

// resolveZone prefers an explicit zone id, trusting unknown non-placeholder
// identifiers from external systems; otherwise it attributes the point to
// the zone whose outer boundary contains it (holes ignored), falling back to
// the nearest centroid.
func (a *Adapter) resolveZone(explicitZone string, pos geo.Point) (*world.Zone, string) {
	if explicitZone != "" {
		if z := a.world.Zone(explicitZone); z != nil {
			return z, z.ID
		}
		if !placeholderZones[strings.ToLower(explicitZone)] {
			// Unknown but plausibly legitimate external id: keep it, snap
			// against the geometry the point actually falls in.
			return a.geometryZone(pos), explicitZone
		}
	}
	z := a.geometryZone(pos)
	if z == nil {
		return nil, ""
	}
	return z, z.ID
}

func (a *Adapter) geometryZone(pos geo.Point) *world.Zone {
	if z := a.world.ZoneAt(pos); z != nil {
		return z
	}
	return a.world.NearestZone(pos)
}
