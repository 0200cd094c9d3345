package world

import (
	"math"

	"github.com/floorwatch/floorwatch/internal/geo"
)

// Zone is one region of the floor plan with its obstacle cutouts, in
// normalized map space. Built once at startup, immutable afterwards.
type Zone struct {
	ID         string
	Name       string
	Outer      geo.Polygon
	Holes      []geo.Polygon
	OuterBound geo.Bounds
	HoleBounds []geo.Bounds
	Centroid   geo.Point
}

// LoadZones converts pixel-space zone definitions into normalized zones.
// Vertices that are not finite 2-tuples are dropped; zones whose outer
// boundary degenerates below 3 vertices are skipped entirely.
func LoadZones(defs []ZoneDef, mapWidthPx, mapHeightPx float64) []*Zone {
	if mapWidthPx <= 0 || mapHeightPx <= 0 {
		return nil
	}

	zones := make([]*Zone, 0, len(defs))
	for _, def := range defs {
		outer := normalizePolygon(def.Polygon, mapWidthPx, mapHeightPx)
		if outer.IsEmpty() {
			continue
		}

		z := &Zone{
			ID:         def.ZoneID,
			Name:       def.Name,
			Outer:      outer,
			OuterBound: outer.BoundingBox(),
		}

		for _, rawHole := range def.Holes {
			hole := normalizePolygon(rawHole, mapWidthPx, mapHeightPx)
			if hole.IsEmpty() {
				continue
			}
			z.Holes = append(z.Holes, hole)
			z.HoleBounds = append(z.HoleBounds, hole.BoundingBox())
		}

		z.Centroid = resolveCentroid(def.Centroid, mapWidthPx, mapHeightPx)
		zones = append(zones, z)
	}
	return zones
}

func normalizePolygon(raw [][]float64, w, h float64) geo.Polygon {
	pts := make([]geo.Point, 0, len(raw))
	for _, v := range raw {
		if len(v) != 2 {
			continue
		}
		p := geo.Pt(v[0]/w, v[1]/h)
		if !p.IsFinite() {
			continue
		}
		pts = append(pts, p)
	}
	return geo.Polygon{Vertices: pts}
}

func resolveCentroid(raw []float64, w, h float64) geo.Point {
	if len(raw) == 2 {
		p := geo.Pt(raw[0]/w, raw[1]/h)
		if p.IsFinite() {
			return p.Clamp()
		}
	}
	return geo.Pt(0.5, 0.5)
}

// ContainsOuter reports whether the point lies inside the outer boundary.
// Holes are ignored here on purpose: a point standing on a shelf footprint
// still belongs to its enclosing zone for attribution.
func (z *Zone) ContainsOuter(p geo.Point) bool {
	return z.Outer.Contains(p)
}

// InHole reports whether the point is blocked by any obstacle: inside a hole
// polygon, or inside a hole's bounding box grown by pad. The padded-bounds
// check is a conservative approximation that downstream navigation relies on.
func (z *Zone) InHole(p geo.Point, pad float64) bool {
	for i, hole := range z.Holes {
		if z.HoleBounds[i].ContainsPadded(p, pad) {
			return true
		}
		if hole.Contains(p) {
			return true
		}
	}
	return false
}

// NearestZone returns the zone whose centroid is closest to p by squared
// distance, or nil when no zones are loaded.
func NearestZone(zones []*Zone, p geo.Point) *Zone {
	var best *Zone
	bestDist := math.MaxFloat64
	for _, z := range zones {
		d := p.DistanceSq(z.Centroid)
		if d < bestDist {
			bestDist = d
			best = z
		}
	}
	return best
}
