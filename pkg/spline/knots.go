// Package spline implements the bivariate tensor-product B-spline basis
// used to represent the estimated rainfall surface. A mesh is built from one
// clamped uniform knot vector per axis; each basis function carries a scalar
// coefficient (its control-point value) and a knot-average anchor that marks
// its area of influence in the plane.
package spline

import (
	"errors"
	"fmt"
)

// ErrDegenerateSpan is returned when a knot vector cannot be built because
// the requested domain has zero length.
var ErrDegenerateSpan = errors.New("degenerate knot span")

// KnotVector is a non-decreasing sequence of breakpoints along one axis.
// Vectors built by this package are (p+1)-regular: the first and last value
// each appear degree+1 times, clamping the spline at the domain boundary.
type KnotVector []float64

// UniformClampedKnots builds a (p+1)-regular knot vector over [lo, hi] with
// n uniform interior subdivisions: degree copies of lo, then n+1 uniformly
// spaced values from lo to hi inclusive, then degree copies of hi.
//
// The resulting vector defines n + degree basis functions.
func UniformClampedKnots(lo, hi float64, degree, n int) (KnotVector, error) {
	if degree < 1 {
		return nil, fmt.Errorf("spline: degree must be at least 1, got %d", degree)
	}
	if n < 1 {
		return nil, fmt.Errorf("spline: refinement count must be at least 1, got %d", n)
	}
	if !(lo < hi) {
		return nil, fmt.Errorf("spline: [%v, %v]: %w", lo, hi, ErrDegenerateSpan)
	}

	kv := make(KnotVector, 0, 2*degree+n+1)
	for i := 0; i < degree; i++ {
		kv = append(kv, lo)
	}
	// n+1 breakpoints from lo to hi inclusive. The last one is written as hi
	// exactly rather than lo + n*step so the clamped tail repeats the same
	// float value.
	step := (hi - lo) / float64(n)
	for i := 0; i < n; i++ {
		kv = append(kv, lo+float64(i)*step)
	}
	kv = append(kv, hi)
	for i := 0; i < degree; i++ {
		kv = append(kv, hi)
	}
	return kv, nil
}

// NumBasis returns the number of basis functions the vector defines for the
// given degree: len(knots) - degree - 1.
func (kv KnotVector) NumBasis(degree int) int {
	return len(kv) - degree - 1
}

// Domain returns the lower and upper bound of the vector.
func (kv KnotVector) Domain() (lo, hi float64) {
	return kv[0], kv[len(kv)-1]
}

// Window returns the local knot window of basis function i: the contiguous
// slice of degree+2 knots that supports it. The returned slice aliases the
// vector and must not be modified.
func (kv KnotVector) Window(i, degree int) []float64 {
	return kv[i : i+degree+2]
}

// Average returns the knot average (Greville abscissa) of basis function i:
// the mean of the degree interior knots of its local window. For a clamped
// vector the first average sits on the lower domain bound and the last on
// the upper.
func (kv KnotVector) Average(i, degree int) float64 {
	sum := 0.0
	for j := 1; j <= degree; j++ {
		sum += kv[i+j]
	}
	return sum / float64(degree)
}

// value evaluates basis function i of the given degree at x by Cox-de Boor
// recursion. The last non-empty span is treated as closed so the domain
// maximum evaluates to the clamped boundary value instead of zero.
func (kv KnotVector) value(i, degree int, x float64) float64 {
	if degree == 0 {
		if kv[i] <= x && x < kv[i+1] {
			return 1.0
		}
		// x on the upper domain bound belongs to the final non-empty span.
		hi := kv[len(kv)-1]
		if x == hi && kv[i+1] == hi && kv[i] < kv[i+1] {
			return 1.0
		}
		return 0.0
	}

	left := 0.0
	if kv[i+degree] != kv[i] {
		left = (x - kv[i]) / (kv[i+degree] - kv[i]) * kv.value(i, degree-1, x)
	}
	right := 0.0
	if kv[i+degree+1] != kv[i+1] {
		right = (kv[i+degree+1] - x) / (kv[i+degree+1] - kv[i+1]) * kv.value(i+1, degree-1, x)
	}
	return left + right
}
