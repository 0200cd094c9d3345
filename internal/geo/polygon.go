package geo

import "math"

// Polygon is a closed polygon defined by its vertices in order.
type Polygon struct {
	Vertices []Point
}

// NewPolygon creates a polygon from a list of vertices.
func NewPolygon(pts ...Point) Polygon {
	return Polygon{Vertices: pts}
}

// IsEmpty returns true if the polygon has fewer than 3 vertices.
func (p Polygon) IsEmpty() bool {
	return len(p.Vertices) < 3
}

// Contains returns true if the point is inside the polygon using ray casting.
// Points exactly on an edge may land on either side.
func (p Polygon) Contains(pt Point) bool {
	n := len(p.Vertices)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := p.Vertices[i], p.Vertices[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) {
			xCross := (vj.X-vi.X)*(pt.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if pt.X < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// SignedArea returns the signed area using the shoelace formula.
// Positive for counterclockwise winding, negative for clockwise.
func (p Polygon) SignedArea() float64 {
	n := len(p.Vertices)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += p.Vertices[i].X * p.Vertices[j].Y
		area -= p.Vertices[j].X * p.Vertices[i].Y
	}
	return area / 2
}

// Centroid returns the area centroid of the polygon. Degenerate polygons
// (near-zero area or fewer than 3 vertices) fall back to the vertex average.
func (p Polygon) Centroid() Point {
	n := len(p.Vertices)
	if n == 0 {
		return Point{}
	}
	a := p.SignedArea()
	if n < 3 || math.Abs(a) < 1e-12 {
		sum := Point{}
		for _, v := range p.Vertices {
			sum = sum.Add(v)
		}
		return sum.Scale(1.0 / float64(n))
	}
	cx, cy := 0.0, 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := p.Vertices[i].X*p.Vertices[j].Y - p.Vertices[j].X*p.Vertices[i].Y
		cx += (p.Vertices[i].X + p.Vertices[j].X) * cross
		cy += (p.Vertices[i].Y + p.Vertices[j].Y) * cross
	}
	f := 1.0 / (6.0 * a)
	return Point{cx * f, cy * f}
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// BoundingBox returns the axis-aligned bounding box of the polygon.
func (p Polygon) BoundingBox() Bounds {
	if len(p.Vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{
		MinX: p.Vertices[0].X, MinY: p.Vertices[0].Y,
		MaxX: p.Vertices[0].X, MaxY: p.Vertices[0].Y,
	}
	for _, v := range p.Vertices[1:] {
		if v.X < b.MinX {
			b.MinX = v.X
		}
		if v.Y < b.MinY {
			b.MinY = v.Y
		}
		if v.X > b.MaxX {
			b.MaxX = v.X
		}
		if v.Y > b.MaxY {
			b.MaxY = v.Y
		}
	}
	return b
}

// Contains returns true if the point lies inside the box, inclusive.
func (b Bounds) Contains(pt Point) bool {
	return pt.X >= b.MinX && pt.X <= b.MaxX && pt.Y >= b.MinY && pt.Y <= b.MaxY
}

// ContainsPadded returns true if the point lies inside the box grown by pad
// on every side.
func (b Bounds) ContainsPadded(pt Point, pad float64) bool {
	return pt.X >= b.MinX-pad && pt.X <= b.MaxX+pad &&
		pt.Y >= b.MinY-pad && pt.Y <= b.MaxY+pad
}

// Center returns the center of the box.
func (b Bounds) Center() Point {
	return Point{(b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2}
}
