package dataset

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"rainfield/internal/models"
)

// FoldSource serves the training and validation clouds for one repetition
// and fold of the cross-validation search. Repetitions are 1-based, folds
// 0-based, matching the reference partition layout.
type FoldSource interface {
	Fold(rep, fold int) (train, validation models.PointCloud, err error)
}

// FileSource reads pre-split per-(repetition, fold) files from a directory.
// The filename patterns receive the repetition and fold as the two integer
// verbs, e.g. "train_r%d_f%d.csv".
type FileSource struct {
	Dir               string
	TrainPattern      string
	ValidationPattern string
}

// Fold implements FoldSource.
func (s *FileSource) Fold(rep, fold int) (models.PointCloud, models.PointCloud, error) {
	train, err := Load(filepath.Join(s.Dir, fmt.Sprintf(s.TrainPattern, rep, fold)))
	if err != nil {
		return nil, nil, err
	}
	validation, err := Load(filepath.Join(s.Dir, fmt.Sprintf(s.ValidationPattern, rep, fold)))
	if err != nil {
		return nil, nil, err
	}
	return train, validation, nil
}

// PartitionSource splits a single cloud into k folds per repetition. Each
// repetition reshuffles with a seed derived from the base seed, so the whole
// search is reproducible from (cloud, seed). Within one repetition the folds
// are disjoint and their union covers the cloud.
type PartitionSource struct {
	Cloud models.PointCloud
	Folds int
	Seed  int64
}

// Fold implements FoldSource. The validation set is fold number `fold` of
// the repetition's shuffled partition; the training set is everything else.
func (s *PartitionSource) Fold(rep, fold int) (models.PointCloud, models.PointCloud, error) {
	if s.Folds < 2 || s.Folds > len(s.Cloud) {
		return nil, nil, fmt.Errorf("dataset: cannot split %d points into %d folds: %w",
			len(s.Cloud), s.Folds, ErrData)
	}
	if fold < 0 || fold >= s.Folds {
		return nil, nil, fmt.Errorf("dataset: fold %d out of range [0, %d): %w",
			fold, s.Folds, ErrData)
	}

	rng := rand.New(rand.NewSource(s.Seed + int64(rep)))
	perm := rng.Perm(len(s.Cloud))

	// Fold sizes differ by at most one; earlier folds absorb the remainder.
	per := len(s.Cloud) / s.Folds
	rem := len(s.Cloud) % s.Folds
	start := 0
	for f := 0; f < fold; f++ {
		start += per
		if f < rem {
			start++
		}
	}
	size := per
	if fold < rem {
		size++
	}

	validation := make(models.PointCloud, 0, size)
	train := make(models.PointCloud, 0, len(s.Cloud)-size)
	for i, idx := range perm {
		if i >= start && i < start+size {
			validation = append(validation, s.Cloud[idx])
		} else {
			train = append(train, s.Cloud[idx])
		}
	}
	return train, validation, nil
}
