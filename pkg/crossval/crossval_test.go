package crossval

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainfield/internal/models"
	"rainfield/pkg/dataset"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})

	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 2.5, s.Median)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.Std, 1e-12)
	assert.Equal(t, (1.0+4+9+16)/4, s.MSE)
	assert.True(t, s.valid())
}

func TestSummarizeOddMedian(t *testing.T) {
	s := Summarize([]float64{5, 1, 9})
	assert.Equal(t, 5.0, s.Median)
}

func TestSummarizeIdenticalErrors(t *testing.T) {
	s := Summarize([]float64{2, 2, 2, 2})
	assert.Equal(t, 0.0, s.Std)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 2.0, s.Max)
	assert.Equal(t, 4.0, s.MSE)
}

func TestSummarizeSinglePointIsUndefined(t *testing.T) {
	// One validation point leaves the N-1 denominator at zero; the result
	// must be flagged undefined, never silently 0.
	s := Summarize([]float64{3})
	assert.True(t, math.IsNaN(s.Std))
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 9.0, s.MSE)
	assert.False(t, s.valid())
}

func TestGridTwoLevelAveraging(t *testing.T) {
	// Two repetitions of two folds: fold averages first, then the
	// repetition average on Finalize.
	g := NewErrorStatGrid(1, 1)
	c := g.Cell(1, 1)
	for rep := 0; rep < 2; rep++ {
		for _, mse := range []float64{2, 4} {
			c.accumulate(Stats{MSE: mse, Min: 1, Max: 1, Mean: 1, Median: 1, Std: 1}, 0.5)
		}
	}
	g.Finalize(2)

	assert.Equal(t, 3.0, c.MSE)
	assert.Equal(t, 1.0, c.Mean)
}

func TestBestTieBreak(t *testing.T) {
	g := NewErrorStatGrid(3, 3)
	for k := 1; k <= 3; k++ {
		for n := 1; n <= 3; n++ {
			g.Cell(k, n).MSE = 9
		}
	}
	// Two cells share the minimal MSE; the first in row-major (k, n) order
	// must win.
	g.Cell(2, 3).MSE = 1
	g.Cell(3, 1).MSE = 1

	k, n, cell, ok := g.Best()
	require.True(t, ok)
	assert.Equal(t, 2, k)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1.0, cell.MSE)
}

func TestBestSkipsFailedCells(t *testing.T) {
	g := NewErrorStatGrid(2, 2)
	g.Cell(1, 1).MSE = 1
	g.Cell(1, 1).fail("undefined statistics")
	g.Cell(1, 2).MSE = 5
	g.Cell(2, 1).MSE = 3
	g.Cell(2, 2).MSE = 4

	k, n, cell, ok := g.Best()
	require.True(t, ok)
	assert.Equal(t, 2, k)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3.0, cell.MSE)

	assert.Len(t, g.FailedCells(), 1)
}

func TestBestAllFailed(t *testing.T) {
	g := NewErrorStatGrid(2, 2)
	for k := 1; k <= 2; k++ {
		for n := 1; n <= 2; n++ {
			g.Cell(k, n).fail("x")
		}
	}
	_, _, _, ok := g.Best()
	assert.False(t, ok)
}

// syntheticCloud scatters gauges over [0,10]x[0,10] with a smooth height
// field plus small deterministic noise.
func syntheticCloud(n int, seed int64) models.PointCloud {
	rng := rand.New(rand.NewSource(seed))
	cloud := make(models.PointCloud, n)
	for i := range cloud {
		x := rng.Float64() * 10
		y := rng.Float64() * 10
		z := 2 + 0.3*x + 0.1*y + 0.2*math.Sin(x)
		cloud[i] = models.Point{X: x, Y: y, Z: z + 0.05*rng.NormFloat64()}
	}
	return cloud
}

func testParams() Params {
	return Params{
		DegreeX: 2, DegreeY: 2,
		KMax: 4, NMax: 3,
		Repetitions: 2, Folds: 4,
		NumCores: 2,
	}
}

func TestSearchEndToEnd(t *testing.T) {
	src := &dataset.PartitionSource{Cloud: syntheticCloud(48, 3), Folds: 4, Seed: 11}

	result, err := Search(context.Background(), testParams(), src)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.K, 1)
	assert.LessOrEqual(t, result.K, 4)
	assert.GreaterOrEqual(t, result.N, 1)
	assert.LessOrEqual(t, result.N, 3)

	assert.False(t, result.Stats.Failed)
	for _, v := range []float64{result.Stats.Min, result.Stats.Max, result.Stats.Mean,
		result.Stats.Median, result.Stats.Std, result.Stats.MSE} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "winning cell statistics must be finite")
	}
	assert.LessOrEqual(t, result.Stats.Min, result.Stats.Mean)
	assert.LessOrEqual(t, result.Stats.Mean, result.Stats.Max)
	assert.Greater(t, result.Stats.MSE, 0.0)

	// Every cell of the grid was filled and none failed on this data.
	kMax, nMax := result.Grid.Dims()
	for k := 1; k <= kMax; k++ {
		for n := 1; n <= nMax; n++ {
			assert.False(t, result.Grid.Cell(k, n).Failed)
		}
	}
}

func TestSearchDeterministic(t *testing.T) {
	params := testParams()
	a, err := Search(context.Background(),
		params, &dataset.PartitionSource{Cloud: syntheticCloud(40, 9), Folds: 4, Seed: 5})
	require.NoError(t, err)
	b, err := Search(context.Background(),
		params, &dataset.PartitionSource{Cloud: syntheticCloud(40, 9), Folds: 4, Seed: 5})
	require.NoError(t, err)

	assert.Equal(t, a.K, b.K)
	assert.Equal(t, a.N, b.N)
	assert.Equal(t, a.Stats, b.Stats)

	// Bit-identical grids, not just matching optima.
	for k := 1; k <= params.KMax; k++ {
		for n := 1; n <= params.NMax; n++ {
			assert.Equal(t, *a.Grid.Cell(k, n), *b.Grid.Cell(k, n))
		}
	}
}

func TestSearchRejectsOversizedKMax(t *testing.T) {
	src := &dataset.PartitionSource{Cloud: syntheticCloud(12, 1), Folds: 4, Seed: 2}
	params := testParams()
	params.KMax = 100

	_, err := Search(context.Background(), params, src)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSearchRejectsBadParams(t *testing.T) {
	src := &dataset.PartitionSource{Cloud: syntheticCloud(20, 1), Folds: 4, Seed: 2}

	for _, params := range []Params{
		{DegreeX: 0, DegreeY: 2, KMax: 2, NMax: 2, Repetitions: 1, Folds: 2},
		{DegreeX: 2, DegreeY: 2, KMax: 0, NMax: 2, Repetitions: 1, Folds: 2},
		{DegreeX: 2, DegreeY: 2, KMax: 2, NMax: 2, Repetitions: 0, Folds: 2},
	} {
		_, err := Search(context.Background(), params, src)
		assert.ErrorIs(t, err, ErrConfig)
	}
}

type failingSource struct{ err error }

func (s *failingSource) Fold(rep, fold int) (models.PointCloud, models.PointCloud, error) {
	return nil, nil, s.err
}

func TestSearchAbortsOnDataError(t *testing.T) {
	wantErr := errors.New("fold file vanished")
	_, err := Search(context.Background(), testParams(), &failingSource{err: wantErr})
	assert.ErrorIs(t, err, wantErr)
}

func TestSearchRejectsDegenerateBounds(t *testing.T) {
	// All gauges on one vertical line: zero-width bounding box.
	cloud := make(models.PointCloud, 16)
	for i := range cloud {
		cloud[i] = models.Point{X: 3, Y: float64(i), Z: float64(i)}
	}
	src := &dataset.PartitionSource{Cloud: cloud, Folds: 4, Seed: 1}

	_, err := Search(context.Background(), testParams(), src)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSearchFailsWhenNoValidCell(t *testing.T) {
	// Six points in six folds: every validation set has one point, so the
	// standard deviation is undefined in every cell.
	cloud := syntheticCloud(6, 4)
	src := &dataset.PartitionSource{Cloud: cloud, Folds: 6, Seed: 1}
	params := Params{
		DegreeX: 2, DegreeY: 2,
		KMax: 3, NMax: 2,
		Repetitions: 1, Folds: 6,
		NumCores: 1,
	}

	_, err := Search(context.Background(), params, src)
	assert.ErrorIs(t, err, ErrNoValidCell)
}

func TestSearchHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &dataset.PartitionSource{Cloud: syntheticCloud(40, 6), Folds: 4, Seed: 3}
	_, err := Search(ctx, testParams(), src)
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkSearch(b *testing.B) {
	src := &dataset.PartitionSource{Cloud: syntheticCloud(120, 8), Folds: 5, Seed: 13}
	params := Params{
		DegreeX: 2, DegreeY: 2,
		KMax: 5, NMax: 5,
		Repetitions: 2, Folds: 5,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Search(context.Background(), params, src); err != nil {
			b.Fatal(err)
		}
	}
}
