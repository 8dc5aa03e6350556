package spline

import "fmt"

// Anchor is the knot-average position of a basis function in the plane. It
// is the representative location used when ranking training points around
// the function.
type Anchor struct {
	X, Y float64
}

// BasisFunction is one tensor-product blending function. It is identified by
// its index pair along the two axes, supported on a local knot window per
// axis, and owns a single scalar coefficient: the control-point value the
// estimator assigns.
type BasisFunction struct {
	// IU and IV are the basis indices along the u and v axis.
	IU, IV int

	// WindowU and WindowV are the local knot windows, degree+2 knots each.
	// They alias the mesh knot vectors.
	WindowU, WindowV []float64

	// Anchor is the knot-average position, derived once at mesh build time.
	Anchor Anchor

	// Coefficient is the control-point value. It is overwritten in full by
	// every estimation pass; no value survives across hyperparameter cells.
	Coefficient float64
}

// TensorMesh owns the full set of basis functions spanned by two knot
// vectors and exposes pointwise evaluation of the spline surface
//
//	f(x, y) = sum_ij coefficient_ij * N_i(x) * N_j(y).
type TensorMesh struct {
	degU, degV int
	ku, kv     KnotVector
	basis      []BasisFunction
}

// NewTensorMesh builds the mesh for the given degree pair and knot vectors.
// Basis functions are laid out row-major: all v indices for u index 0, then
// u index 1, and so on.
func NewTensorMesh(degU, degV int, ku, kv KnotVector) (*TensorMesh, error) {
	nu := ku.NumBasis(degU)
	nv := kv.NumBasis(degV)
	if nu < 1 || nv < 1 {
		return nil, fmt.Errorf("spline: knot vectors define %dx%d basis functions", nu, nv)
	}

	m := &TensorMesh{
		degU:  degU,
		degV:  degV,
		ku:    ku,
		kv:    kv,
		basis: make([]BasisFunction, nu*nv),
	}
	for iu := 0; iu < nu; iu++ {
		ax := ku.Average(iu, degU)
		for iv := 0; iv < nv; iv++ {
			m.basis[iu*nv+iv] = BasisFunction{
				IU:      iu,
				IV:      iv,
				WindowU: ku.Window(iu, degU),
				WindowV: kv.Window(iv, degV),
				Anchor:  Anchor{X: ax, Y: kv.Average(iv, degV)},
			}
		}
	}
	return m, nil
}

// NumBasis returns the total number of basis functions in the mesh.
func (m *TensorMesh) NumBasis() int { return len(m.basis) }

// Dims returns the basis count along each axis.
func (m *TensorMesh) Dims() (nu, nv int) {
	return m.ku.NumBasis(m.degU), m.kv.NumBasis(m.degV)
}

// At returns the basis function at flat index i. The pointer stays valid for
// the lifetime of the mesh; mutating its Coefficient updates the surface.
func (m *TensorMesh) At(i int) *BasisFunction { return &m.basis[i] }

// ResetCoefficients zeroes every control-point value.
func (m *TensorMesh) ResetCoefficients() {
	for i := range m.basis {
		m.basis[i].Coefficient = 0
	}
}

// Eval evaluates the spline surface at (x, y). Outside the knot domain the
// basis functions vanish and the result is zero.
func (m *TensorMesh) Eval(x, y float64) float64 {
	nu, nv := m.Dims()

	// One pass of univariate basis values per axis, reused across the
	// tensor product.
	bu := make([]float64, nu)
	for i := range bu {
		bu[i] = m.ku.value(i, m.degU, x)
	}
	bv := make([]float64, nv)
	for j := range bv {
		bv[j] = m.kv.value(j, m.degV, y)
	}

	sum := 0.0
	for iu := 0; iu < nu; iu++ {
		if bu[iu] == 0 {
			continue
		}
		row := m.basis[iu*nv : (iu+1)*nv]
		for iv := 0; iv < nv; iv++ {
			if bv[iv] == 0 {
				continue
			}
			sum += row[iv].Coefficient * bu[iu] * bv[iv]
		}
	}
	return sum
}
