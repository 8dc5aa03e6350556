// Package estimator turns a sparse gauge point cloud into control-point
// values for a tensor-product spline mesh. The estimator is a k-nearest
// neighbor quasi-interpolant: each basis function receives the plain average
// of the k training values closest to its anchor, realizing the indicator
// weight 1/k over the selected neighbors and 0 elsewhere.
package estimator

import (
	"errors"
	"fmt"
	"sort"

	"rainfield/internal/models"
	"rainfield/pkg/spline"
)

// ErrNeighborCount is returned when k is not in [1, len(train)].
var ErrNeighborCount = errors.New("neighbor count out of range")

// EstimateControlPoints assigns every basis function of the mesh the mean z
// of the k training points nearest to its anchor (Euclidean distance in the
// plane). Every coefficient is overwritten, so re-invoking with a different
// k never leaves stale values behind.
//
// Distance ties keep the input order of the cloud: ranking uses a stable
// sort over point indices, so the earlier-loaded point wins. This makes the
// estimate bit-reproducible for identical inputs.
func EstimateControlPoints(mesh *spline.TensorMesh, train models.PointCloud, k int) error {
	if k < 1 || k > len(train) {
		return fmt.Errorf("estimator: k=%d with %d training points: %w",
			k, len(train), ErrNeighborCount)
	}

	// Scratch buffers shared across basis functions.
	dists := make([]float64, len(train))
	order := make([]int, len(train))

	for b := 0; b < mesh.NumBasis(); b++ {
		bf := mesh.At(b)

		// Squared distances rank the same as distances and skip the sqrt.
		for i, p := range train {
			dx := p.X - bf.Anchor.X
			dy := p.Y - bf.Anchor.Y
			dists[i] = dx*dx + dy*dy
		}
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return dists[order[i]] < dists[order[j]]
		})

		sum := 0.0
		for _, idx := range order[:k] {
			sum += train[idx].Z
		}
		bf.Coefficient = sum / float64(k)
	}
	return nil
}
