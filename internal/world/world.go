// Package world owns the static floor-plan model: zone geometry, the
// map/world coordinate transform, camera homographies, and walkability
// resolution. A World is built once at startup and shared read-only by the
// normalizer and the simulator; there are no package-level lookup tables.
package world

import (
	"fmt"
	"strings"

	"github.com/floorwatch/floorwatch/internal/geo"
)

const (
	defaultHolePadding = 0.004
	defaultEdgePadding = 0.0
)

// Options tunes walkability padding. Zero values fall back to defaults.
type Options struct {
	HolePadding float64
	EdgePadding float64
}

// World is the immutable floor-plan configuration.
type World struct {
	zones    []*Zone
	zoneByID map[string]*Zone

	transform Transform
	cameras   map[string]*CameraProjection

	holePad float64
	edgePad float64
}

// New builds a World from parsed static configuration. Failing here aborts
// startup; running with an empty geometry model is never acceptable.
func New(zm *ZoneMapFile, cal *CalibrationFile, opts Options) (*World, error) {
	zones := LoadZones(zm.Zones, zm.MapWidthPx, zm.MapHeightPx)
	if len(zones) == 0 {
		return nil, fmt.Errorf("no usable zones in zone map")
	}

	w := &World{
		zones:    zones,
		zoneByID: make(map[string]*Zone, len(zones)),
		transform: NewTransform(
			zm.MapWidthPx, zm.MapHeightPx,
			zm.WorldWidthMeters, zm.WorldDepthMeters,
			zm.WorldOffsetXMeters, zm.WorldOffsetZMeters,
		),
		cameras: map[string]*CameraProjection{},
		holePad: opts.HolePadding,
		edgePad: opts.EdgePadding,
	}
	if w.holePad == 0 {
		w.holePad = defaultHolePadding
	}
	if w.edgePad == 0 {
		w.edgePad = defaultEdgePadding
	}

	for _, z := range zones {
		w.zoneByID[z.ID] = z
	}
	if cal != nil {
		w.cameras = BuildCalibrations(cal.Cameras)
	}
	return w, nil
}

// Zones returns all zones in load order.
func (w *World) Zones() []*Zone {
	return w.zones
}

// Zone looks up a zone by id, nil when unknown.
func (w *World) Zone(id string) *Zone {
	return w.zoneByID[id]
}

// NearestZone returns the zone whose centroid is closest to p.
func (w *World) NearestZone(p geo.Point) *Zone {
	return NearestZone(w.zones, p)
}

// ZoneAt returns the first zone whose outer boundary contains p, nil when
// none does. Holes are deliberately ignored.
func (w *World) ZoneAt(p geo.Point) *Zone {
	for _, z := range w.zones {
		if z.ContainsOuter(p) {
			return z
		}
	}
	return nil
}

// Transform returns the map/world coordinate transform.
func (w *World) Transform() Transform {
	return w.transform
}

// Camera returns the calibration for a camera id (case-insensitive), nil
// when the camera has no usable homography.
func (w *World) Camera(id string) *CameraProjection {
	return w.cameras[strings.ToLower(id)]
}

// CameraCount returns the number of calibrated cameras.
func (w *World) CameraCount() int {
	return len(w.cameras)
}

// HolePadding returns the configured hole padding in normalized units.
func (w *World) HolePadding() float64 {
	return w.holePad
}
