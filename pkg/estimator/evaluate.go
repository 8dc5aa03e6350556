package estimator

import (
	"math"

	"rainfield/internal/models"
	"rainfield/pkg/spline"
)

// AbsoluteErrors evaluates the populated mesh at every validation point and
// returns |predicted - measured| per point, in input order. The length of
// the result equals the validation set size.
func AbsoluteErrors(mesh *spline.TensorMesh, validation models.PointCloud) []float64 {
	errs := make([]float64, len(validation))
	for i, p := range validation {
		errs[i] = math.Abs(mesh.Eval(p.X, p.Y) - p.Z)
	}
	return errs
}
