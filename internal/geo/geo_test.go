package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func square(x, y, size float64) Polygon {
	return NewPolygon(
		Pt(x, y),
		Pt(x+size, y),
		Pt(x+size, y+size),
		Pt(x, y+size),
	)
}

func TestPolygonContains(t *testing.T) {
	sq := square(0, 0, 1)

	assert.True(t, sq.Contains(Pt(0.5, 0.5)))
	assert.False(t, sq.Contains(Pt(1.5, 0.5)))
	assert.False(t, sq.Contains(Pt(-0.1, 0.5)))
	assert.False(t, sq.Contains(Pt(0.5, 2)))
}

func TestPolygonContainsConcave(t *testing.T) {
	// L-shape: the notch at the top-right is outside.
	l := NewPolygon(
		Pt(0, 0), Pt(1, 0), Pt(1, 0.5), Pt(0.5, 0.5), Pt(0.5, 1), Pt(0, 1),
	)

	assert.True(t, l.Contains(Pt(0.25, 0.75)))
	assert.True(t, l.Contains(Pt(0.75, 0.25)))
	assert.False(t, l.Contains(Pt(0.75, 0.75)))
}

func TestPolygonContainsDegenerate(t *testing.T) {
	assert.False(t, NewPolygon().Contains(Pt(0, 0)))
	assert.False(t, NewPolygon(Pt(0, 0), Pt(1, 1)).Contains(Pt(0.5, 0.5)))
}

func TestPolygonCentroid(t *testing.T) {
	sq := square(0.2, 0.4, 0.2)
	c := sq.Centroid()
	assert.InDelta(t, 0.3, c.X, 1e-9)
	assert.InDelta(t, 0.5, c.Y, 1e-9)

	// Degenerate polygon falls back to vertex average.
	line := NewPolygon(Pt(0, 0), Pt(1, 0))
	c = line.Centroid()
	assert.InDelta(t, 0.5, c.X, 1e-9)
	assert.InDelta(t, 0.0, c.Y, 1e-9)
}

func TestBoundingBox(t *testing.T) {
	p := NewPolygon(Pt(0.1, 0.9), Pt(0.7, 0.2), Pt(0.4, 0.5))
	b := p.BoundingBox()

	assert.Equal(t, 0.1, b.MinX)
	assert.Equal(t, 0.2, b.MinY)
	assert.Equal(t, 0.7, b.MaxX)
	assert.Equal(t, 0.9, b.MaxY)

	assert.True(t, b.Contains(Pt(0.4, 0.5)))
	assert.False(t, b.Contains(Pt(0.05, 0.5)))
	assert.True(t, b.ContainsPadded(Pt(0.05, 0.5), 0.06))
}

func TestPointClamp(t *testing.T) {
	assert.Equal(t, Pt(0, 1), Pt(-0.5, 1.5).Clamp())
	assert.Equal(t, Pt(0.3, 0.4), Pt(0.3, 0.4).Clamp())
}

func TestPointDistance(t *testing.T) {
	assert.InDelta(t, 5, Pt(0, 0).Distance(Pt(3, 4)), 1e-9)
	assert.InDelta(t, 25, Pt(0, 0).DistanceSq(Pt(3, 4)), 1e-9)
}
