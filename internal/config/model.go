package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/jobcheck/internal/training"
	"github.com/JaimeStill/jobcheck/pkg/features"
)

const (
	EnvModelDatasetPath        = "JOBCHECK_MODEL_DATASET_PATH"
	EnvModelStopWordsPath      = "JOBCHECK_MODEL_STOP_WORDS_PATH"
	EnvModelSeed               = "JOBCHECK_MODEL_SEED"
	EnvModelTestRatio          = "JOBCHECK_MODEL_TEST_RATIO"
	EnvModelMaxFeatures        = "JOBCHECK_MODEL_MAX_FEATURES"
	EnvModelMinDF              = "JOBCHECK_MODEL_MIN_DF"
	EnvModelWorkers            = "JOBCHECK_MODEL_WORKERS"
	EnvModelSyntheticSize      = "JOBCHECK_MODEL_SYNTHETIC_SIZE"
	EnvModelSyntheticFakeRatio = "JOBCHECK_MODEL_SYNTHETIC_FAKE_RATIO"
	EnvModelTrainOnStartup     = "JOBCHECK_MODEL_TRAIN_ON_STARTUP"
	EnvModelFallbackConfidence = "JOBCHECK_MODEL_FALLBACK_CONFIDENCE"
)

// ModelConfig holds training and serving parameters.
type ModelConfig struct {
	DatasetPath        string  `toml:"dataset_path"`
	StopWordsPath      string  `toml:"stop_words_path"`
	Seed               uint64  `toml:"seed"`
	TestRatio          float64 `toml:"test_ratio"`
	MaxFeatures        int     `toml:"max_features"`
	MinDF              int     `toml:"min_df"`
	Workers            int     `toml:"workers"`
	SyntheticSize      int     `toml:"synthetic_size"`
	SyntheticFakeRatio float64 `toml:"synthetic_fake_ratio"`
	TrainOnStartup     bool    `toml:"train_on_startup"`
	FallbackConfidence float64 `toml:"fallback_confidence"`
}

// TrainingOptions returns the pipeline options described by the config.
func (c *ModelConfig) TrainingOptions() training.Options {
	opts := training.DefaultOptions()
	opts.Seed = c.Seed
	opts.TestRatio = c.TestRatio
	opts.Workers = c.Workers
	opts.Features.MaxFeatures = c.MaxFeatures
	opts.Features.MinDF = c.MinDF
	return opts
}

// SyntheticOptions returns the fallback corpus parameters.
func (c *ModelConfig) SyntheticOptions() training.SyntheticOptions {
	return training.SyntheticOptions{
		Size:      c.SyntheticSize,
		Seed:      c.Seed,
		FakeRatio: c.SyntheticFakeRatio,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ModelConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ModelConfig) Merge(overlay *ModelConfig) {
	if overlay.DatasetPath != "" {
		c.DatasetPath = overlay.DatasetPath
	}
	if overlay.StopWordsPath != "" {
		c.StopWordsPath = overlay.StopWordsPath
	}
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
	if overlay.TestRatio != 0 {
		c.TestRatio = overlay.TestRatio
	}
	if overlay.MaxFeatures != 0 {
		c.MaxFeatures = overlay.MaxFeatures
	}
	if overlay.MinDF != 0 {
		c.MinDF = overlay.MinDF
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.SyntheticSize != 0 {
		c.SyntheticSize = overlay.SyntheticSize
	}
	if overlay.SyntheticFakeRatio != 0 {
		c.SyntheticFakeRatio = overlay.SyntheticFakeRatio
	}
	if overlay.TrainOnStartup {
		c.TrainOnStartup = true
	}
	if overlay.FallbackConfidence != 0 {
		c.FallbackConfidence = overlay.FallbackConfidence
	}
}

func (c *ModelConfig) loadDefaults() {
	defaults := training.DefaultOptions()
	synthetic := training.DefaultSyntheticOptions()

	if c.DatasetPath == "" {
		c.DatasetPath = "data/fake_job_postings.csv"
	}
	if c.Seed == 0 {
		c.Seed = defaults.Seed
	}
	if c.TestRatio == 0 {
		c.TestRatio = defaults.TestRatio
	}
	if c.MaxFeatures == 0 {
		c.MaxFeatures = features.DefaultOptions().MaxFeatures
	}
	if c.MinDF == 0 {
		c.MinDF = features.DefaultOptions().MinDF
	}
	if c.SyntheticSize == 0 {
		c.SyntheticSize = synthetic.Size
	}
	if c.SyntheticFakeRatio == 0 {
		c.SyntheticFakeRatio = synthetic.FakeRatio
	}
	if c.FallbackConfidence == 0 {
		c.FallbackConfidence = 0.85
	}
}

func (c *ModelConfig) loadEnv() {
	if v := os.Getenv(EnvModelDatasetPath); v != "" {
		c.DatasetPath = v
	}
	if v := os.Getenv(EnvModelStopWordsPath); v != "" {
		c.StopWordsPath = v
	}
	if v := os.Getenv(EnvModelSeed); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = seed
		}
	}
	if v := os.Getenv(EnvModelTestRatio); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			c.TestRatio = r
		}
	}
	if v := os.Getenv(EnvModelMaxFeatures); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxFeatures = n
		}
	}
	if v := os.Getenv(EnvModelMinDF); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MinDF = n
		}
	}
	if v := os.Getenv(EnvModelWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvModelSyntheticSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SyntheticSize = n
		}
	}
	if v := os.Getenv(EnvModelSyntheticFakeRatio); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			c.SyntheticFakeRatio = r
		}
	}
	if v := os.Getenv(EnvModelTrainOnStartup); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.TrainOnStartup = b
		}
	}
	if v := os.Getenv(EnvModelFallbackConfidence); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.FallbackConfidence = f
		}
	}
}

func (c *ModelConfig) validate() error {
	if c.TestRatio <= 0 || c.TestRatio >= 1 {
		return fmt.Errorf("test_ratio must be in (0, 1): %v", c.TestRatio)
	}
	if c.MaxFeatures < 1 {
		return fmt.Errorf("max_features must be positive: %d", c.MaxFeatures)
	}
	if c.MinDF < 1 {
		return fmt.Errorf("min_df must be positive: %d", c.MinDF)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative: %d", c.Workers)
	}
	if c.SyntheticSize < 10 {
		return fmt.Errorf("synthetic_size must be at least 10: %d", c.SyntheticSize)
	}
	if c.SyntheticFakeRatio <= 0 || c.SyntheticFakeRatio >= 1 {
		return fmt.Errorf("synthetic_fake_ratio must be in (0, 1): %v", c.SyntheticFakeRatio)
	}
	if c.FallbackConfidence <= 0 || c.FallbackConfidence > 1 {
		return fmt.Errorf("fallback_confidence must be in (0, 1]: %v", c.FallbackConfidence)
	}
	return nil
}
