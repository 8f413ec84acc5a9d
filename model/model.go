// Package model defines the contract between the harness and the
// external pretrained sequence-to-sequence backend, and the train/eval
// step orchestration on top of it. Everything hard — attention, beam
// search, autograd, the loss formula — lives behind Seq2Seq and
// Trainable; this package is the wiring around them.
package model

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ForwardInput is one teacher-forced pass. All four fields are aligned
// row-for-row; Labels carries IgnoreIndex at positions the loss skips.
type ForwardInput struct {
	SourceIDs       [][]int
	SourceMask      [][]int
	DecoderInputIDs [][]int
	Labels          [][]int
}

// GenerateOptions steer autoregressive decoding. Zero values mean "use
// the backend's default".
type GenerateOptions struct {
	MaxNewTokens      int
	NumBeams          int
	RepetitionPenalty float64
	LengthPenalty     float64
	EarlyStopping     bool
}

// TestOptions is the decoding profile used for the test split: greedy
// and fast, trading summary quality for throughput.
func TestOptions() GenerateOptions {
	return GenerateOptions{
		MaxNewTokens:      80,
		NumBeams:          1,
		RepetitionPenalty: 2.5,
		LengthPenalty:     1.0,
		EarlyStopping:     true,
	}
}

// Seq2Seq is the inference surface of a pretrained encoder-decoder
// model. Forward runs one teacher-forced pass and returns the scalar
// loss the model itself computes (cross-entropy over the vocabulary,
// skipping IgnoreIndex positions). Generate decodes autoregressively,
// conditioned on source ids and mask; row lengths of the result may
// differ.
type Seq2Seq interface {
	Forward(ctx context.Context, in ForwardInput) (float64, error)
	Generate(ctx context.Context, sourceIDs, sourceMask [][]int, opts GenerateOptions) ([][]int, error)
	ResizeTokenEmbeddings(vocabSize int) error
}

// Trainable extends Seq2Seq with the gradient surface the trainer
// drives. Parameter storage, autograd and the optimizer state all
// belong to the backend; the trainer only sequences the calls.
type Trainable interface {
	Seq2Seq

	Backward(ctx context.Context) error
	ClipGradNorm(maxNorm float64) float64
	Step(lr float64) error
	ZeroGrad()
	Save(path string) error
}

// BuildFunc constructs a backend from a resolved artifact directory.
type BuildFunc func(dir string, cfg *Config) (Seq2Seq, error)

var (
	buildersMu sync.RWMutex
	builders   = make(map[string]BuildFunc)
)

// Register makes a backend available for a model_type; backends call
// it from init.
func Register(modelType string, fn BuildFunc) {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	if _, dup := builders[modelType]; dup {
		panic(fmt.Sprintf("model: backend %q registered twice", modelType))
	}
	builders[modelType] = fn
}

// Registered lists the available backend model types, sorted.
func Registered() []string {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	types := make([]string, 0, len(builders))
	for t := range builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build constructs the backend registered for cfg's model_type from
// the weights in dir. Unknown types are fatal at startup.
func Build(dir string, cfg *Config) (Seq2Seq, error) {
	buildersMu.RLock()
	build, ok := builders[cfg.ModelType]
	buildersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("model: no backend registered for model_type %q (have %v)", cfg.ModelType, Registered())
	}
	m, err := build(dir, cfg)
	if err != nil {
		return nil, fmt.Errorf("model: building %q backend: %w", cfg.ModelType, err)
	}
	return m, nil
}

// Open reads the artifact's config.json and constructs its backend.
func Open(dir string) (Seq2Seq, *Config, error) {
	cfg, err := ParseConfig(dir)
	if err != nil {
		return nil, nil, err
	}
	m, err := Build(dir, cfg)
	if err != nil {
		return nil, nil, err
	}
	return m, cfg, nil
}
