package world

import "github.com/floorwatch/floorwatch/internal/geo"

// Transform maps between map-normalized space (proportional to the floor-plan
// image) and world-normalized space (proportional to the physical footprint
// in meters). The two rectangles may have different aspect ratios, so the map
// is scaled to fit and centered; one axis fills exactly, the other is
// letterboxed.
type Transform struct {
	scaleX, scaleY   float64
	offsetX, offsetY float64

	worldWidthMeters  float64
	worldDepthMeters  float64
	worldOffsetXM     float64
	worldOffsetZM     float64
}

// NewTransform builds the transform from the map image dimensions in pixels
// and the physical world footprint in meters.
func NewTransform(mapWidthPx, mapHeightPx, worldWidthM, worldDepthM, worldOffsetXM, worldOffsetZM float64) Transform {
	t := Transform{
		scaleX: 1, scaleY: 1,
		worldWidthMeters: worldWidthM,
		worldDepthMeters: worldDepthM,
		worldOffsetXM:    worldOffsetXM,
		worldOffsetZM:    worldOffsetZM,
	}
	if mapWidthPx <= 0 || mapHeightPx <= 0 || worldWidthM <= 0 || worldDepthM <= 0 {
		return t
	}

	mapAspect := mapWidthPx / mapHeightPx
	worldAspect := worldWidthM / worldDepthM

	// Scale-to-fit: s=1 means the vertical axis fills; s<1 letterboxes it.
	s := 1.0
	if mapAspect > worldAspect {
		s = worldAspect / mapAspect
	}

	t.scaleX = s * mapAspect / worldAspect
	t.scaleY = s
	t.offsetX = (1 - t.scaleX) / 2
	t.offsetY = (1 - t.scaleY) / 2
	return t
}

// MapToWorld converts a map-normalized point to world-normalized space.
func (t Transform) MapToWorld(p geo.Point) geo.Point {
	return geo.Pt(t.offsetX+p.X*t.scaleX, t.offsetY+p.Y*t.scaleY)
}

// WorldToMap is the exact inverse of MapToWorld.
func (t Transform) WorldToMap(p geo.Point) geo.Point {
	return geo.Pt((p.X-t.offsetX)/t.scaleX, (p.Y-t.offsetY)/t.scaleY)
}

// MetersToWorldNorm converts absolute world meters (x east, z south) to
// world-normalized space, honoring the configured world offset.
func (t Transform) MetersToWorldNorm(xMeters, zMeters float64) geo.Point {
	if t.worldWidthMeters <= 0 || t.worldDepthMeters <= 0 {
		return geo.Pt(0, 0)
	}
	return geo.Pt(
		(xMeters-t.worldOffsetXM)/t.worldWidthMeters,
		(zMeters-t.worldOffsetZM)/t.worldDepthMeters,
	)
}

// WorldNormToMeters converts world-normalized coordinates back to meters.
func (t Transform) WorldNormToMeters(p geo.Point) (xMeters, zMeters float64) {
	return p.X*t.worldWidthMeters + t.worldOffsetXM,
		p.Y*t.worldDepthMeters + t.worldOffsetZM
}
