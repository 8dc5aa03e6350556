// Package config provides configuration loading and management for
// rainfield. It handles loading configuration from YAML files and provides
// default values matching the reference search setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Search parameters for the cross-validation grid
	Search struct {
		// DegreeX and DegreeY are the spline degrees per axis
		DegreeX int `yaml:"degreeX"`
		DegreeY int `yaml:"degreeY"`

		// KMax bounds the neighbor-count axis of the grid
		KMax int `yaml:"kMax"`

		// NMax bounds the mesh-refinement axis of the grid
		NMax int `yaml:"nMax"`

		// Repetitions is the number of cross-validation repetitions
		Repetitions int `yaml:"repetitions"`

		// Folds is the number of folds per repetition
		Folds int `yaml:"folds"`
	} `yaml:"search"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel cell
		// workers
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Data parameters
	Data struct {
		// Dir is the directory holding the fold files
		Dir string `yaml:"dir"`

		// TrainPattern and ValidationPattern name the per-(repetition, fold)
		// files; both receive the repetition and fold as integer verbs
		TrainPattern      string `yaml:"trainPattern"`
		ValidationPattern string `yaml:"validationPattern"`

		// CloudFile, when set, switches to partition mode: a single point
		// cloud split into folds internally instead of pre-split files
		CloudFile string `yaml:"cloudFile"`

		// Seed drives the partition shuffles in partition mode
		Seed int64 `yaml:"seed"`
	} `yaml:"data"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// SurfaceCSV, when non-empty, is the path the fitted surface of the
		// winning cell is sampled to
		SurfaceCSV string `yaml:"surfaceCSV"`

		// SurfaceRows and SurfaceCols set the sampling grid for SurfaceCSV
		SurfaceRows int `yaml:"surfaceRows"`
		SurfaceCols int `yaml:"surfaceCols"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	// Reference search setup: quadratic splines, 15x15 grid, 5x5-fold
	// cross-validation
	cfg.Search.DegreeX = 2
	cfg.Search.DegreeY = 2
	cfg.Search.KMax = 15
	cfg.Search.NMax = 15
	cfg.Search.Repetitions = 5
	cfg.Search.Folds = 5

	cfg.Processing.NumCores = runtime.NumCPU()

	cfg.Data.TrainPattern = "train_r%d_f%d.csv"
	cfg.Data.ValidationPattern = "val_r%d_f%d.csv"
	cfg.Data.Seed = 1

	cfg.Output.Verbose = true
	cfg.Output.SurfaceRows = 50
	cfg.Output.SurfaceCols = 50

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
