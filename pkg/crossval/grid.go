package crossval

// Cell holds the six running accumulators of one (k, n) hyperparameter
// combination, plus its failure state. Fold statistics are added scaled by
// 1/folds; Finalize applies the second division by the repetition count.
// The two averaging levels are kept separate on purpose: the reference
// computation averages over folds first and repetitions second, and this
// grid reproduces that arithmetic exactly.
type Cell struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	Std    float64
	MSE    float64

	// Failed marks a cell whose statistics are undefined (for example a
	// single-point validation set making Std NaN). Failed cells never win
	// the best-cell selection.
	Failed bool

	// Reason describes why the cell failed, empty otherwise.
	Reason string
}

func (c *Cell) accumulate(s Stats, weight float64) {
	c.Min += weight * s.Min
	c.Max += weight * s.Max
	c.Mean += weight * s.Mean
	c.Median += weight * s.Median
	c.Std += weight * s.Std
	c.MSE += weight * s.MSE
}

func (c *Cell) fail(reason string) {
	c.Failed = true
	c.Reason = reason
}

func (c *Cell) finalize(reps int) {
	d := float64(reps)
	c.Min /= d
	c.Max /= d
	c.Mean /= d
	c.Median /= d
	c.Std /= d
	c.MSE /= d
}

// ErrorStatGrid is the (k, n) table the grid search fills: one Cell per
// hyperparameter combination, indexed 1-based on both axes.
type ErrorStatGrid struct {
	kMax, nMax int
	cells      []Cell
}

// NewErrorStatGrid allocates a zeroed kMax x nMax grid.
func NewErrorStatGrid(kMax, nMax int) *ErrorStatGrid {
	return &ErrorStatGrid{
		kMax:  kMax,
		nMax:  nMax,
		cells: make([]Cell, kMax*nMax),
	}
}

// Dims returns (kMax, nMax).
func (g *ErrorStatGrid) Dims() (kMax, nMax int) { return g.kMax, g.nMax }

// Cell returns the cell for 1-based (k, n). The pointer stays valid for the
// lifetime of the grid.
func (g *ErrorStatGrid) Cell(k, n int) *Cell {
	return &g.cells[(k-1)*g.nMax+(n-1)]
}

// Finalize divides every accumulator by the repetition count, completing the
// two-level fold/repetition average.
func (g *ErrorStatGrid) Finalize(reps int) {
	for i := range g.cells {
		if !g.cells[i].Failed {
			g.cells[i].finalize(reps)
		}
	}
}

// Best locates the valid cell with the smallest MSE. The scan walks k
// ascending then n ascending and replaces only on strictly smaller MSE, so
// ties resolve to the first cell in row-major order. ok is false when every
// cell failed.
func (g *ErrorStatGrid) Best() (k, n int, cell Cell, ok bool) {
	for ki := 1; ki <= g.kMax; ki++ {
		for ni := 1; ni <= g.nMax; ni++ {
			c := g.Cell(ki, ni)
			if c.Failed {
				continue
			}
			if !ok || c.MSE < cell.MSE {
				k, n, cell, ok = ki, ni, *c, true
			}
		}
	}
	return k, n, cell, ok
}

// FailedCells lists the 1-based (k, n) pairs of failed cells with their
// reasons, for diagnostics.
func (g *ErrorStatGrid) FailedCells() []FailedCell {
	var failed []FailedCell
	for ki := 1; ki <= g.kMax; ki++ {
		for ni := 1; ni <= g.nMax; ni++ {
			if c := g.Cell(ki, ni); c.Failed {
				failed = append(failed, FailedCell{K: ki, N: ni, Reason: c.Reason})
			}
		}
	}
	return failed
}

// FailedCell identifies one failed grid cell.
type FailedCell struct {
	K, N   int
	Reason string
}
