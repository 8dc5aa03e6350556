// Package crossval implements the repeated k-fold cross-validation grid
// search that selects the quasi-interpolant hyperparameters: the neighbor
// count k and the mesh refinement n. Every (repetition, fold, k, n) leaf
// builds a fresh mesh over the fold's bounding box, estimates control points
// from the training cloud, scores the validation cloud, and folds the six
// error statistics into the (k, n) cell of the grid.
package crossval

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"rainfield/internal/models"
	"rainfield/pkg/dataset"
	"rainfield/pkg/estimator"
	"rainfield/pkg/spline"
)

// ErrConfig marks an invalid search configuration.
var ErrConfig = errors.New("invalid search configuration")

// ErrNoValidCell is returned when every grid cell failed and no optimum can
// be reported.
var ErrNoValidCell = errors.New("no valid grid cell")

// Params configures one grid search.
type Params struct {
	// DegreeX and DegreeY are the spline degrees per axis.
	DegreeX, DegreeY int

	// KMax and NMax bound the hyperparameter grid: k in [1, KMax],
	// n in [1, NMax].
	KMax, NMax int

	// Repetitions and Folds shape the repeated k-fold cross-validation.
	Repetitions, Folds int

	// NumCores bounds the number of concurrent cell workers. Zero or
	// negative means all available CPUs.
	NumCores int
}

func (p Params) validate() error {
	switch {
	case p.DegreeX < 1 || p.DegreeY < 1:
		return fmt.Errorf("%w: degrees must be at least 1, got (%d, %d)",
			ErrConfig, p.DegreeX, p.DegreeY)
	case p.KMax < 1 || p.NMax < 1:
		return fmt.Errorf("%w: grid bounds must be at least 1, got kMax=%d nMax=%d",
			ErrConfig, p.KMax, p.NMax)
	case p.Repetitions < 1 || p.Folds < 1:
		return fmt.Errorf("%w: need at least 1 repetition and 1 fold, got %d and %d",
			ErrConfig, p.Repetitions, p.Folds)
	}
	return nil
}

// Result is the outcome of a completed search: the optimal hyperparameters
// (1-indexed), the finalized statistics at that cell, and the full grid.
type Result struct {
	K, N  int
	Stats Cell
	Grid  *ErrorStatGrid
}

// foldData is one preloaded (repetition, fold) split with its bounding box.
type foldData struct {
	train      models.PointCloud
	validation models.PointCloud
	bounds     models.Bounds
}

// Search runs the full grid search. All fold data is loaded up front; any
// data problem aborts the search with no partial result. Failures confined
// to a single (k, n) cell (undefined statistics) mark that cell failed
// without disturbing the rest of the grid.
//
// Cells are computed by independent workers, one per (k, n) pair, each
// looping its own repetitions and folds sequentially. A cell is written by
// exactly one worker, so the grid needs no locking.
func Search(ctx context.Context, p Params, src dataset.FoldSource) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	folds, minTrain, err := preload(p, src)
	if err != nil {
		return nil, err
	}
	if p.KMax > minTrain {
		return nil, fmt.Errorf("%w: kMax=%d exceeds smallest training fold (%d points)",
			ErrConfig, p.KMax, minTrain)
	}

	log.Info().
		Int("kMax", p.KMax).
		Int("nMax", p.NMax).
		Int("repetitions", p.Repetitions).
		Int("folds", p.Folds).
		Msg("starting cross-validation grid search")

	grid := NewErrorStatGrid(p.KMax, p.NMax)

	cores := p.NumCores
	if cores <= 0 {
		cores = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cores)

	for k := 1; k <= p.KMax; k++ {
		for n := 1; n <= p.NMax; n++ {
			k, n := k, n
			g.Go(func() error {
				return computeCell(ctx, p, folds, grid.Cell(k, n), k, n)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	grid.Finalize(p.Repetitions)

	for _, fc := range grid.FailedCells() {
		log.Warn().Int("k", fc.K).Int("n", fc.N).Str("reason", fc.Reason).
			Msg("grid cell failed")
	}

	k, n, best, ok := grid.Best()
	if !ok {
		return nil, ErrNoValidCell
	}

	log.Info().Int("k", k).Int("n", n).Float64("mse", best.MSE).
		Msg("grid search complete")

	return &Result{K: k, N: n, Stats: best, Grid: grid}, nil
}

// preload fetches every (repetition, fold) split once and validates it. It
// returns the splits indexed [rep-1][fold] and the smallest training size.
func preload(p Params, src dataset.FoldSource) ([][]foldData, int, error) {
	folds := make([][]foldData, p.Repetitions)
	minTrain := -1
	for rep := 1; rep <= p.Repetitions; rep++ {
		folds[rep-1] = make([]foldData, p.Folds)
		for f := 0; f < p.Folds; f++ {
			train, validation, err := src.Fold(rep, f)
			if err != nil {
				return nil, 0, fmt.Errorf("repetition %d fold %d: %w", rep, f, err)
			}
			if len(train) == 0 || len(validation) == 0 {
				return nil, 0, fmt.Errorf("repetition %d fold %d: %w: empty split",
					rep, f, dataset.ErrData)
			}
			bounds, _ := models.BoundsOf(train, validation)
			if !bounds.Valid() {
				return nil, 0, fmt.Errorf("repetition %d fold %d: %w: degenerate bounding box %+v",
					rep, f, ErrConfig, bounds)
			}
			folds[rep-1][f] = foldData{train: train, validation: validation, bounds: bounds}
			if minTrain < 0 || len(train) < minTrain {
				minTrain = len(train)
			}
		}
	}
	return folds, minTrain, nil
}

// computeCell fills one (k, n) cell: for every repetition and fold it builds
// the mesh, estimates coefficients for this k, scores the validation cloud
// and accumulates the fold statistics scaled by 1/folds. The final division
// by the repetition count happens in ErrorStatGrid.Finalize.
func computeCell(ctx context.Context, p Params, folds [][]foldData, cell *Cell, k, n int) error {
	foldWeight := 1.0 / float64(p.Folds)

	for rep := 1; rep <= p.Repetitions; rep++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for f := 0; f < p.Folds; f++ {
			fd := &folds[rep-1][f]

			mesh, err := buildMesh(p, fd.bounds, n)
			if err != nil {
				cell.fail(fmt.Sprintf("repetition %d fold %d: %v", rep, f, err))
				return nil
			}
			if err := estimator.EstimateControlPoints(mesh, fd.train, k); err != nil {
				cell.fail(fmt.Sprintf("repetition %d fold %d: %v", rep, f, err))
				return nil
			}

			stats := Summarize(estimator.AbsoluteErrors(mesh, fd.validation))
			if !stats.valid() {
				cell.fail(fmt.Sprintf("repetition %d fold %d: undefined statistics (validation size %d)",
					rep, f, len(fd.validation)))
				return nil
			}
			cell.accumulate(stats, foldWeight)
		}
	}
	return nil
}

// buildMesh constructs a fresh tensor-product mesh over the fold's bounding
// box with n interior subdivisions on both axes. Coefficients start at zero;
// the estimator overwrites all of them.
func buildMesh(p Params, b models.Bounds, n int) (*spline.TensorMesh, error) {
	ku, err := spline.UniformClampedKnots(b.XMin, b.XMax, p.DegreeX, n)
	if err != nil {
		return nil, err
	}
	kv, err := spline.UniformClampedKnots(b.YMin, b.YMax, p.DegreeY, n)
	if err != nil {
		return nil, err
	}
	return spline.NewTensorMesh(p.DegreeX, p.DegreeY, ku, kv)
}
