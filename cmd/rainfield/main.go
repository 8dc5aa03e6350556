package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rainfield/internal/models"
	"rainfield/pkg/config"
	"rainfield/pkg/crossval"
	"rainfield/pkg/dataset"
	"rainfield/pkg/estimator"
	"rainfield/pkg/export"
	"rainfield/pkg/spline"
)

func main() {
	configPath := flag.String("config", "rainfield.yaml", "Path to the YAML configuration file")
	dataDir := flag.String("data", "", "Directory containing the per-fold point-cloud files (overrides config)")
	cloudFile := flag.String("cloud", "", "Single point-cloud file to partition into folds (overrides config)")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (0 = config value)")
	surfaceOut := flag.String("surface", "", "CSV path to sample the winning surface to (overrides config)")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to the config path and exit")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatal().Err(err).Msg("failed to write default config")
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *cloudFile != "" {
		cfg.Data.CloudFile = *cloudFile
	}
	if *numCores > 0 {
		cfg.Processing.NumCores = *numCores
	}
	if *surfaceOut != "" {
		cfg.Output.SurfaceCSV = *surfaceOut
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if !cfg.Output.Verbose {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	src, full, err := buildSource(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up data source")
	}

	params := crossval.Params{
		DegreeX:     cfg.Search.DegreeX,
		DegreeY:     cfg.Search.DegreeY,
		KMax:        cfg.Search.KMax,
		NMax:        cfg.Search.NMax,
		Repetitions: cfg.Search.Repetitions,
		Folds:       cfg.Search.Folds,
		NumCores:    cfg.Processing.NumCores,
	}

	start := time.Now()
	result, err := crossval.Search(context.Background(), params, src)
	if err != nil {
		log.Fatal().Err(err).Msg("grid search failed")
	}

	fmt.Printf("Average min is %v\n", result.Stats.Min)
	fmt.Printf("Average max is %v\n", result.Stats.Max)
	fmt.Printf("Average mean is %v\n", result.Stats.Mean)
	fmt.Printf("Average median is %v\n", result.Stats.Median)
	fmt.Printf("Average std is %v\n", result.Stats.Std)
	fmt.Printf("Average MSE is %v\n", result.Stats.MSE)
	fmt.Printf("Optimal k is %d\n", result.K)
	fmt.Printf("Optimal n is %d\n", result.N)
	fmt.Printf("Search completed in %.2f seconds\n", time.Since(start).Seconds())

	if cfg.Output.SurfaceCSV != "" {
		if err := exportSurface(cfg, params, result, full); err != nil {
			log.Fatal().Err(err).Msg("surface export failed")
		}
		fmt.Printf("Fitted surface sampled to %s\n", cfg.Output.SurfaceCSV)
	}
}

// buildSource picks the fold source from the configuration: a single cloud
// partitioned internally, or pre-split per-fold files. The returned cloud is
// the full dataset used for the final surface fit; in file mode it is the
// union of the first repetition's first split.
func buildSource(cfg *config.Config) (dataset.FoldSource, models.PointCloud, error) {
	if cfg.Data.CloudFile != "" {
		cloud, err := dataset.Load(cfg.Data.CloudFile)
		if err != nil {
			return nil, nil, err
		}
		src := &dataset.PartitionSource{
			Cloud: cloud,
			Folds: cfg.Search.Folds,
			Seed:  cfg.Data.Seed,
		}
		return src, cloud, nil
	}

	src := &dataset.FileSource{
		Dir:               cfg.Data.Dir,
		TrainPattern:      cfg.Data.TrainPattern,
		ValidationPattern: cfg.Data.ValidationPattern,
	}
	train, validation, err := src.Fold(1, 0)
	if err != nil {
		return nil, nil, err
	}
	full := make(models.PointCloud, 0, len(train)+len(validation))
	full = append(full, train...)
	full = append(full, validation...)
	return src, full, nil
}

// exportSurface refits the winning (k, n) cell on the full dataset and
// samples the surface to CSV.
func exportSurface(cfg *config.Config, p crossval.Params, r *crossval.Result, full models.PointCloud) error {
	bounds, ok := models.BoundsOf(full)
	if !ok || !bounds.Valid() {
		return fmt.Errorf("degenerate bounding box for surface export")
	}
	ku, err := spline.UniformClampedKnots(bounds.XMin, bounds.XMax, p.DegreeX, r.N)
	if err != nil {
		return err
	}
	kv, err := spline.UniformClampedKnots(bounds.YMin, bounds.YMax, p.DegreeY, r.N)
	if err != nil {
		return err
	}
	mesh, err := spline.NewTensorMesh(p.DegreeX, p.DegreeY, ku, kv)
	if err != nil {
		return err
	}
	if err := estimator.EstimateControlPoints(mesh, full, r.K); err != nil {
		return err
	}
	return export.WriteSurfaceCSV(mesh, bounds,
		cfg.Output.SurfaceRows, cfg.Output.SurfaceCols, cfg.Output.SurfaceCSV)
}
