package models

import "math"

// Point represents a single rain-gauge observation: the gauge position in
// the plane and the measured value at that position.
type Point struct {
	// X and Y are the gauge coordinates
	X, Y float64

	// Z is the measured value (accumulated rainfall) at (X, Y)
	Z float64
}

// PointCloud is an ordered sequence of observations. Order matters: neighbor
// ranking breaks distance ties by input order, so two clouds with the same
// points in different order are not interchangeable.
type PointCloud []Point

// Zs returns the measured values in input order.
func (pc PointCloud) Zs() []float64 {
	zs := make([]float64, len(pc))
	for i, p := range pc {
		zs[i] = p.Z
	}
	return zs
}

// MeanZ returns the arithmetic mean of the measured values.
func (pc PointCloud) MeanZ() float64 {
	if len(pc) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, p := range pc {
		sum += p.Z
	}
	return sum / float64(len(pc))
}

// Bounds is an axis-aligned bounding box in the (x, y) plane.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Valid reports whether the box spans a non-degenerate area. A box with zero
// width or height cannot carry a knot vector.
func (b Bounds) Valid() bool {
	return b.XMin < b.XMax && b.YMin < b.YMax
}

// BoundsOf computes the bounding box of the union of the given clouds.
// The second return value is false when the union is empty.
func BoundsOf(clouds ...PointCloud) (Bounds, bool) {
	b := Bounds{
		XMin: math.Inf(1), XMax: math.Inf(-1),
		YMin: math.Inf(1), YMax: math.Inf(-1),
	}
	seen := false
	for _, pc := range clouds {
		for _, p := range pc {
			seen = true
			if p.X < b.XMin {
				b.XMin = p.X
			}
			if p.X > b.XMax {
				b.XMax = p.X
			}
			if p.Y < b.YMin {
				b.YMin = p.Y
			}
			if p.Y > b.YMax {
				b.YMax = p.Y
			}
		}
	}
	return b, seen
}
