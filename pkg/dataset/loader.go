// Package dataset loads rain-gauge point clouds and serves the per
// (repetition, fold) training/validation splits the cross-validation search
// consumes. Data problems are fatal by design: a malformed or missing fold
// aborts the whole search rather than propagating into the error grid.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"rainfield/internal/models"
)

// ErrData marks malformed or missing point-cloud input.
var ErrData = errors.New("invalid point data")

// Load reads a point cloud from a delimited file of x,y,z triples, one per
// row, no header. Row order is preserved; it is significant for neighbor
// tie-breaking downstream.
func Load(path string) (models.PointCloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w: %v", ErrData, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w: %v", path, ErrData, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset: %s: %w: file is empty", path, ErrData)
	}

	cloud := make(models.PointCloud, 0, len(records))
	for i, rec := range records {
		vals := [3]float64{}
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: %s row %d: %w: %v", path, i+1, ErrData, err)
			}
			vals[j] = v
		}
		cloud = append(cloud, models.Point{X: vals[0], Y: vals[1], Z: vals[2]})
	}
	return cloud, nil
}
