// Package train drives the fine-tuning run: the epoch loop, optimizer
// scheduling, validation, checkpointing and early stopping. The model
// backend owns gradients and parameter storage; the trainer only
// sequences the calls.
package train

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/manningwu07/seqtune/dataset"
	"github.com/manningwu07/seqtune/model"
	"github.com/manningwu07/seqtune/params"
)

// ValMetric is the validation score checkpointing tracks.
const ValMetric = "rouge2"

// Trainer runs fine-tuning over a Trainable backend.
type Trainer struct {
	Params params.Config
	Module *model.Module
	Model  model.Trainable
	Train  *dataset.Loader
	Val    *dataset.Loader

	// OutputDir receives checkpoints; empty disables saving.
	OutputDir string

	// Patience is the number of epochs without a ValMetric improvement
	// tolerated before stopping early; zero or negative disables it.
	Patience int

	// SaveEvery writes a rolling checkpoint each N epochs; zero or
	// negative disables it.
	SaveEvery int

	// EvalOpts steers validation decoding; zero value means TestOptions.
	EvalOpts model.GenerateOptions

	Schedule *CosineAnnealing
	Logger   *slog.Logger
}

// FitResult summarizes a completed run.
type FitResult struct {
	RunID        string
	Epochs       int
	Best         model.EpochResult
	BestEpoch    int
	StoppedEarly bool
}

func (t *Trainer) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

func (t *Trainer) evalOpts() model.GenerateOptions {
	if t.EvalOpts == (model.GenerateOptions{}) {
		return model.TestOptions()
	}
	return t.EvalOpts
}

// Fit runs the full training loop: per epoch one pass over the train
// loader with gradient accumulation and clipping, then one validation
// pass. The best checkpoint by ValMetric is kept; training stops early
// after Patience epochs without improvement.
func (t *Trainer) Fit(ctx context.Context) (FitResult, error) {
	if t.Model == nil {
		return FitResult{}, fmt.Errorf("train: backend is not trainable")
	}
	schedule := t.Schedule
	if schedule == nil {
		schedule = NewCosineAnnealing(t.Params.LearningRate)
	}

	res := FitResult{RunID: uuid.NewString(), BestEpoch: -1}
	log := t.logger().With("run", res.RunID)
	log.Info("starting fit",
		"epochs", t.Params.Epochs,
		"train_batches", t.Train.NumBatches(),
		"accum_steps", t.Params.GradAccumSteps,
		"lr", t.Params.LearningRate)

	bestScore := -1.0
	noImprovement := 0

	for epoch := 0; epoch < t.Params.Epochs; epoch++ {
		lr := schedule.LR(epoch)
		trainLoss, err := t.trainEpoch(ctx, lr)
		if err != nil {
			return res, fmt.Errorf("train: epoch %d: %w", epoch, err)
		}
		res.Epochs = epoch + 1

		if t.Val == nil {
			log.Info("epoch done", "epoch", epoch, "lr", lr, "train_loss", trainLoss)
			if err := t.periodicSave(epoch); err != nil {
				return res, err
			}
			continue
		}

		val, err := t.runEval(ctx, t.Val)
		if err != nil {
			return res, fmt.Errorf("train: validating epoch %d: %w", epoch, err)
		}
		log.Info("epoch done",
			"epoch", epoch,
			"lr", lr,
			"train_loss", trainLoss,
			"val_loss", val.Loss,
			ValMetric, val.Rouge[ValMetric],
			"gen_len", val.SummLen)

		saved := false
		if score := val.Rouge[ValMetric]; score > bestScore {
			bestScore = score
			res.Best = val
			res.BestEpoch = epoch
			noImprovement = 0
			if err := t.save("best_model.ckpt"); err != nil {
				return res, err
			}
			saved = true
		} else {
			noImprovement++
		}

		if !saved {
			if err := t.periodicSave(epoch); err != nil {
				return res, err
			}
		}

		if t.Patience > 0 && noImprovement >= t.Patience {
			log.Info("stopping early", "epoch", epoch, "patience", t.Patience)
			res.StoppedEarly = true
			break
		}
	}
	return res, nil
}

// trainEpoch runs one pass over the train loader and returns the mean
// step loss. The optimizer steps once per GradAccumSteps batches, with
// a final flush for the remainder.
func (t *Trainer) trainEpoch(ctx context.Context, lr float64) (float64, error) {
	batches, wait := t.Train.Batches(ctx)

	accum := max(1, t.Params.GradAccumSteps)
	var lossSum float64
	var steps, pending int

	apply := func() error {
		t.Model.ClipGradNorm(t.Params.MaxGradNorm)
		if err := t.Model.Step(lr); err != nil {
			return fmt.Errorf("optimizer step: %w", err)
		}
		t.Model.ZeroGrad()
		pending = 0
		return nil
	}

	for b := range batches {
		out, err := t.Module.TrainStep(ctx, b)
		if err != nil {
			// Drain so the loader goroutines can exit.
			for range batches {
			}
			_ = wait()
			return 0, err
		}
		if err := t.Model.Backward(ctx); err != nil {
			for range batches {
			}
			_ = wait()
			return 0, fmt.Errorf("backward: %w", err)
		}
		lossSum += out.Loss
		steps++
		pending++
		if pending == accum {
			if err := apply(); err != nil {
				for range batches {
				}
				_ = wait()
				return 0, err
			}
		}
	}
	if err := wait(); err != nil {
		return 0, err
	}
	if pending > 0 {
		if err := apply(); err != nil {
			return 0, err
		}
	}
	if steps == 0 {
		return 0, fmt.Errorf("train loader produced no batches")
	}
	return lossSum / float64(steps), nil
}

// Test runs one evaluation pass over the given loader and aggregates
// the per-batch results.
func (t *Trainer) Test(ctx context.Context, loader *dataset.Loader) (model.EpochResult, error) {
	res, err := t.runEval(ctx, loader)
	if err != nil {
		return model.EpochResult{}, fmt.Errorf("train: test pass: %w", err)
	}
	return res, nil
}

func (t *Trainer) runEval(ctx context.Context, loader *dataset.Loader) (model.EpochResult, error) {
	batches, wait := loader.Batches(ctx)
	opts := t.evalOpts()

	var results []model.Result
	for b := range batches {
		r, err := t.Module.EvalStep(ctx, b, opts)
		if err != nil {
			for range batches {
			}
			_ = wait()
			return model.EpochResult{}, err
		}
		results = append(results, r)
	}
	if err := wait(); err != nil {
		return model.EpochResult{}, err
	}
	return model.Aggregate(results)
}

func (t *Trainer) periodicSave(epoch int) error {
	if t.SaveEvery <= 0 || (epoch+1)%t.SaveEvery != 0 {
		return nil
	}
	return t.save("last_epoch.ckpt")
}

func (t *Trainer) save(name string) error {
	if t.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(t.OutputDir, 0o755); err != nil {
		return fmt.Errorf("train: creating output dir: %w", err)
	}
	path := filepath.Join(t.OutputDir, name)
	if err := t.Model.Save(path); err != nil {
		return fmt.Errorf("train: saving %s: %w", path, err)
	}
	return nil
}
