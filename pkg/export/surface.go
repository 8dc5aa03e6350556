// Package export samples a fitted rainfall surface on a regular grid and
// writes it out for downstream tools. Plotting itself is left to those
// tools; this package only produces the sampled data.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"rainfield/internal/models"
	"rainfield/pkg/spline"
)

// WriteSurfaceCSV evaluates the mesh on a rows x cols grid covering the
// bounding box and writes x,y,z records to path, row by row from the lower
// to the upper y bound. Grid nodes include both bounds on each axis.
func WriteSurfaceCSV(mesh *spline.TensorMesh, b models.Bounds, rows, cols int, path string) error {
	if rows < 2 || cols < 2 {
		return fmt.Errorf("export: sampling grid must be at least 2x2, got %dx%d", rows, cols)
	}
	if !b.Valid() {
		return fmt.Errorf("export: degenerate bounding box %+v", b)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("export: creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	dy := (b.YMax - b.YMin) / float64(rows-1)
	dx := (b.XMax - b.XMin) / float64(cols-1)
	for r := 0; r < rows; r++ {
		y := b.YMin + float64(r)*dy
		for c := 0; c < cols; c++ {
			x := b.XMin + float64(c)*dx
			rec := []string{
				strconv.FormatFloat(x, 'g', -1, 64),
				strconv.FormatFloat(y, 'g', -1, 64),
				strconv.FormatFloat(mesh.Eval(x, y), 'g', -1, 64),
			}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("export: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
