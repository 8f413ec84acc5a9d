// Package params holds the run configuration for fine-tuning and
// evaluation. Every recognized option lives on Config; there is no
// package-level mutable state.
package params

import (
	"errors"
	"fmt"
	"runtime"
)

// Config enumerates the recognized options for a fine-tuning or
// evaluation run.
type Config struct {
	// ModelNameOrPath identifies the pretrained weights: either a local
	// directory or a hub model id like "t5-small". Required.
	ModelNameOrPath string

	// ConfigName and TokenizerName override the config/tokenizer source
	// when they differ from ModelNameOrPath. Empty means "same".
	ConfigName    string
	TokenizerName string

	// CacheDir is the local hub cache location. Empty picks the
	// platform default.
	CacheDir string

	// InputDir holds the dataset splits (<split>.source / <split>.target).
	InputDir string

	// Optimizer settings.
	MaxGradNorm    float64
	GradAccumSteps int
	LearningRate   float64
	WeightDecay    float64
	AdamEpsilon    float64

	Epochs         int
	TrainBatchSize int
	EvalBatchSize  int

	// Sequence length caps applied while encoding.
	MaxSourceLength int
	MaxTargetLength int

	// NumWorkers is the collation worker count for the loader.
	NumWorkers int
}

// Default returns a Config carrying the stock hyperparameters.
func Default() Config {
	return Config{
		MaxGradNorm:     1.0,
		GradAccumSteps:  1,
		LearningRate:    5e-5,
		WeightDecay:     0.0,
		AdamEpsilon:     1e-8,
		Epochs:          3,
		TrainBatchSize:  8,
		EvalBatchSize:   8,
		MaxSourceLength: 1024,
		MaxTargetLength: 56,
		NumWorkers:      defaultWorkers(),
	}
}

// Parallel collation is unreliable on Windows, so it is disabled there.
func defaultWorkers() int {
	if runtime.GOOS == "windows" {
		return 0
	}
	return 2
}

var ErrMissingModel = errors.New("model_name_or_path is required")

// Validate reports the first configuration error, if any. A Config that
// fails Validate is fatal at startup.
func (c Config) Validate() error {
	if c.ModelNameOrPath == "" {
		return ErrMissingModel
	}
	if c.TrainBatchSize <= 0 {
		return fmt.Errorf("train_batch_size must be positive, got %d", c.TrainBatchSize)
	}
	if c.EvalBatchSize <= 0 {
		return fmt.Errorf("eval_batch_size must be positive, got %d", c.EvalBatchSize)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.GradAccumSteps <= 0 {
		return fmt.Errorf("gradient_accumulation_steps must be positive, got %d", c.GradAccumSteps)
	}
	if c.MaxSourceLength <= 0 || c.MaxTargetLength <= 0 {
		return fmt.Errorf("sequence length caps must be positive, got source=%d target=%d",
			c.MaxSourceLength, c.MaxTargetLength)
	}
	return nil
}

// ConfigSource resolves the config artifact name, falling back to the
// model itself.
func (c Config) ConfigSource() string {
	if c.ConfigName != "" {
		return c.ConfigName
	}
	return c.ModelNameOrPath
}

// TokenizerSource resolves the tokenizer artifact name, falling back to
// the model itself.
func (c Config) TokenizerSource() string {
	if c.TokenizerName != "" {
		return c.TokenizerName
	}
	return c.ModelNameOrPath
}
