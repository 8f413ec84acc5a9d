package model

import (
	"context"
	"fmt"

	"github.com/manningwu07/seqtune/dataset"
	"github.com/manningwu07/seqtune/params"
	"github.com/manningwu07/seqtune/rouge"
)

// Codec is the tokenizer surface the step orchestrators need.
type Codec interface {
	PadID() int
	EOSID() int
	VocabSize() int
	DecodeBatch([][]int) []string
}

// Module owns the long-lived pieces of a run: configuration, tokenizer
// and model backend. It is constructed once at startup and passed to
// the trainer and evaluator; there is no implicit package state.
type Module struct {
	Params params.Config
	Codec  Codec
	Model  Seq2Seq
}

func NewModule(cfg params.Config, codec Codec, m Seq2Seq) *Module {
	return &Module{Params: cfg, Codec: codec, Model: m}
}

// TrainResult is what one training step reports.
type TrainResult struct {
	Loss float64
	Log  map[string]float64
}

// Result is what one evaluation step reports: loss, the three rouge
// F-measures, the mean generated length, and the decoded texts.
type Result struct {
	Loss    float64
	Rouge   map[string]float64
	SummLen float64
	Preds   []string
	Refs    []string
}

// TrainStep runs one teacher-forced forward pass and returns its loss.
// Gradient computation and the optimizer update are the trainer's and
// backend's business.
func (m *Module) TrainStep(ctx context.Context, b *dataset.Batch) (TrainResult, error) {
	loss, err := m.step(ctx, b)
	if err != nil {
		return TrainResult{}, err
	}
	return TrainResult{Loss: loss, Log: map[string]float64{"loss": loss}}, nil
}

// step is the shared teacher-forced loss pass.
func (m *Module) step(ctx context.Context, b *dataset.Batch) (float64, error) {
	decoderInput, labels, err := BuildDecoderInputs(b.TargetIDs, m.Codec.PadID())
	if err != nil {
		return 0, err
	}
	loss, err := m.Model.Forward(ctx, ForwardInput{
		SourceIDs:       b.SourceIDs,
		SourceMask:      b.SourceMask,
		DecoderInputIDs: decoderInput,
		Labels:          labels,
	})
	if err != nil {
		return 0, fmt.Errorf("model: forward: %w", err)
	}
	return loss, nil
}

// EvalStep runs the generative evaluation for one batch: trim shared
// padding, generate, decode predictions and references, score, and
// compute the reporting loss with a second teacher-forced pass. The
// model runs twice per batch on purpose — generation quality and loss
// are monitored together.
func (m *Module) EvalStep(ctx context.Context, b *dataset.Batch, opts GenerateOptions) (Result, error) {
	padID := m.Codec.PadID()
	sourceIDs, sourceMask, targetIDs := dataset.Trim(b, padID)

	generated, err := m.Model.Generate(ctx, sourceIDs, sourceMask, opts)
	if err != nil {
		return Result{}, fmt.Errorf("model: generate: %w", err)
	}

	preds := m.Codec.DecodeBatch(generated)
	refs := m.Codec.DecodeBatch(targetIDs)

	loss, err := m.step(ctx, b)
	if err != nil {
		return Result{}, err
	}

	scores, err := rouge.Calculate(preds, refs)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Loss:    loss,
		Rouge:   scores,
		SummLen: meanLength(generated),
		Preds:   preds,
		Refs:    refs,
	}, nil
}

// meanLength is the average generated-sequence length in tokens.
func meanLength(seqs [][]int) float64 {
	if len(seqs) == 0 {
		return 0
	}
	total := 0
	for _, s := range seqs {
		total += len(s)
	}
	return float64(total) / float64(len(seqs))
}

// EpochResult aggregates one evaluation pass.
type EpochResult struct {
	Loss    float64
	Rouge   map[string]float64
	SummLen float64
	Pairs   int
}

// Aggregate folds per-step results into one epoch record: loss and
// generated length average over steps weighted by pair count, and
// rouge is recomputed over the concatenated pairs so the aggregate
// does not depend on batch boundaries.
func Aggregate(results []Result) (EpochResult, error) {
	if len(results) == 0 {
		return EpochResult{}, fmt.Errorf("model: no evaluation results to aggregate")
	}

	var preds, refs []string
	var lossSum, lenSum float64
	for _, r := range results {
		n := float64(len(r.Preds))
		preds = append(preds, r.Preds...)
		refs = append(refs, r.Refs...)
		lossSum += r.Loss * n
		lenSum += r.SummLen * n
	}
	total := float64(len(preds))
	if total == 0 {
		return EpochResult{}, fmt.Errorf("model: evaluation results carry no pairs")
	}

	scores, err := rouge.Calculate(preds, refs)
	if err != nil {
		return EpochResult{}, err
	}
	return EpochResult{
		Loss:    lossSum / total,
		Rouge:   scores,
		SummLen: lenSum / total,
		Pairs:   len(preds),
	}, nil
}
