package world

import (
	"math"
	"strings"

	"github.com/floorwatch/floorwatch/internal/geo"
)

// Homography is a 3x3 planar projective transform, stored row-major with
// h33 fixed to 1.
type Homography [9]float64

// ComputeHomography solves the planar projective transform mapping the four
// source points onto the four destination points, using the standard
// 8-unknown linear system. Returns false when the system is singular.
func ComputeHomography(src, dst [4]geo.Point) (Homography, bool) {
	// Two equations per correspondence:
	//   x*h11 + y*h12 + h13 - u*x*h31 - u*y*h32 = u
	//   x*h21 + y*h22 + h23 - v*x*h31 - v*y*h32 = v
	var m [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		m[2*i] = [9]float64{x, y, 1, 0, 0, 0, -u * x, -u * y, u}
		m[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -v * x, -v * y, v}
	}

	// Gaussian elimination with partial pivoting.
	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(m[pivot][col]) < 1e-10 {
			return Homography{}, false
		}
		m[col], m[pivot] = m[pivot], m[col]

		inv := 1 / m[col][col]
		for k := col; k < 9; k++ {
			m[col][k] *= inv
		}
		for row := 0; row < 8; row++ {
			if row == col {
				continue
			}
			f := m[row][col]
			if f == 0 {
				continue
			}
			for k := col; k < 9; k++ {
				m[row][k] -= f * m[col][k]
			}
		}
	}

	var h Homography
	for i := 0; i < 8; i++ {
		h[i] = m[i][8]
	}
	h[8] = 1
	for i := range h {
		if math.IsNaN(h[i]) || math.IsInf(h[i], 0) {
			return Homography{}, false
		}
	}
	return h, true
}

// Apply projects a point through the homography. Returns false when the
// homogeneous divisor collapses to ~0.
func (h Homography) Apply(x, y float64) (geo.Point, bool) {
	d := h[6]*x + h[7]*y + h[8]
	if math.Abs(d) < 1e-9 {
		return geo.Point{}, false
	}
	return geo.Pt(
		(h[0]*x+h[1]*y+h[2])/d,
		(h[3]*x+h[4]*y+h[5])/d,
	), true
}

// CameraProjection holds the calibration of one camera: the pixel-to-map
// homography plus the frame size the calibration was authored against
// (zero when undeclared).
type CameraProjection struct {
	H           Homography
	FrameWidth  float64
	FrameHeight float64
}

// BuildCalibrations fits a homography per enabled camera row, keyed by
// lower-cased camera id. Rows with fewer than 4 correspondences or a
// singular system are skipped; those cameras fall back to frame-relative
// normalization downstream.
func BuildCalibrations(rows []CameraDef) map[string]*CameraProjection {
	out := make(map[string]*CameraProjection, len(rows))
	for _, row := range rows {
		if row.CameraID == "" || (row.Enabled != nil && !*row.Enabled) {
			continue
		}
		if len(row.ImagePoints) < 4 || len(row.MapNormPoints) < 4 {
			continue
		}

		var src, dst [4]geo.Point
		ok := true
		for i := 0; i < 4; i++ {
			if len(row.ImagePoints[i]) != 2 || len(row.MapNormPoints[i]) != 2 {
				ok = false
				break
			}
			src[i] = geo.Pt(row.ImagePoints[i][0], row.ImagePoints[i][1])
			dst[i] = geo.Pt(row.MapNormPoints[i][0], row.MapNormPoints[i][1])
		}
		if !ok {
			continue
		}

		h, ok := ComputeHomography(src, dst)
		if !ok {
			continue
		}

		proj := &CameraProjection{H: h}
		if row.Frame != nil {
			proj.FrameWidth = row.Frame.Width
			proj.FrameHeight = row.Frame.Height
		}
		out[strings.ToLower(row.CameraID)] = proj
	}
	return out
}
