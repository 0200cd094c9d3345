package world

import (
	"math"

	"github.com/floorwatch/floorwatch/internal/geo"
)

const (
	spiralStep     = 0.003
	spiralMaxRings = 60

	projectGridRes = 24
)

// Walkable reports whether p is valid floor inside the zone: inside the
// outer boundary, clear of every hole (including the padded hole bounds),
// and clear of the outer bounds edge margin when one is configured.
func (w *World) Walkable(z *Zone, p geo.Point) bool {
	return w.walkable(z, p, w.edgePad)
}

func (w *World) walkable(z *Zone, p geo.Point, edgePad float64) bool {
	if z == nil || !z.ContainsOuter(p) {
		return false
	}
	if z.InHole(p, w.holePad) {
		return false
	}
	if edgePad > 0 {
		b := z.OuterBound
		if p.X < b.MinX+edgePad || p.X > b.MaxX-edgePad ||
			p.Y < b.MinY+edgePad || p.Y > b.MaxY-edgePad {
			return false
		}
	}
	return true
}

// Blocked reports whether p lands in any zone's obstacle footprint. Used by
// navigation, which cares about obstacles everywhere rather than membership
// in one zone.
func (w *World) Blocked(p geo.Point) bool {
	for _, z := range w.zones {
		if !z.OuterBound.ContainsPadded(p, w.holePad) {
			continue
		}
		if z.InHole(p, w.holePad) {
			return true
		}
	}
	return false
}

// SpiralSnap searches concentric square rings around origin for the nearest
// point satisfying the predicate. It returns the best candidate of the first
// ring that yields any hit; ties within a ring break by squared distance.
// This is bounded-work approximation, not exact nearest-point search.
func SpiralSnap(origin geo.Point, walkable func(geo.Point) bool) (geo.Point, bool) {
	for ring := 1; ring <= spiralMaxRings; ring++ {
		r := float64(ring) * spiralStep
		best := geo.Point{}
		bestDist := math.MaxFloat64
		found := false

		try := func(p geo.Point) {
			p = p.Clamp()
			if !walkable(p) {
				return
			}
			d := origin.DistanceSq(p)
			if d < bestDist {
				bestDist = d
				best = p
				found = true
			}
		}

		// Top and bottom strips, then left and right.
		for x := origin.X - r; x <= origin.X+r; x += spiralStep {
			try(geo.Pt(x, origin.Y-r))
			try(geo.Pt(x, origin.Y+r))
		}
		for y := origin.Y - r + spiralStep; y < origin.Y+r; y += spiralStep {
			try(geo.Pt(origin.X-r, y))
			try(geo.Pt(origin.X+r, y))
		}

		if found {
			return best, true
		}
	}
	return geo.Point{}, false
}

// SnapToWalkable enforces the walkability contract on a resolved event point:
// accepted unchanged when already walkable, replaced by the zone centroid when
// outside the outer boundary (a resolution error, not a snap candidate),
// otherwise spiral-snapped with a centroid fallback.
func (w *World) SnapToWalkable(z *Zone, p geo.Point) geo.Point {
	if z == nil {
		return p.Clamp()
	}
	if w.Walkable(z, p) {
		return p
	}
	if !z.ContainsOuter(p) {
		return z.Centroid
	}
	if snapped, ok := SpiralSnap(p, func(c geo.Point) bool { return w.Walkable(z, c) }); ok {
		return snapped
	}
	return z.Centroid
}

// ProjectIntoZone relocates p to a walkable point inside the zone using a
// bounded grid sample: centroid first, then a fixed-resolution grid over the
// zone bounds keeping the closest walkable sample. When edge padding was in
// effect and nothing was found, it retries once without it. Last resort is
// the clamped input.
func (w *World) ProjectIntoZone(z *Zone, p geo.Point) geo.Point {
	if z == nil {
		return p.Clamp()
	}

	for _, edgePad := range []float64{w.edgePad, 0} {
		if w.walkable(z, p, edgePad) {
			return p
		}
		if w.walkable(z, z.Centroid, edgePad) {
			return z.Centroid
		}

		b := z.OuterBound
		stepX := (b.MaxX - b.MinX) / projectGridRes
		stepY := (b.MaxY - b.MinY) / projectGridRes
		if stepX <= 0 || stepY <= 0 {
			break
		}

		best := geo.Point{}
		bestDist := math.MaxFloat64
		found := false
		for gy := 0; gy <= projectGridRes; gy++ {
			for gx := 0; gx <= projectGridRes; gx++ {
				c := geo.Pt(b.MinX+float64(gx)*stepX, b.MinY+float64(gy)*stepY).Clamp()
				if !w.walkable(z, c, edgePad) {
					continue
				}
				d := p.DistanceSq(c)
				if d < bestDist {
					bestDist = d
					best = c
					found = true
				}
			}
		}
		if found {
			return best
		}
		if w.edgePad == 0 {
			break
		}
	}
	return p.Clamp()
}
