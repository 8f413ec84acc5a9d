package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/manningwu07/seqtune/dataset"
	"github.com/manningwu07/seqtune/hub"
	"github.com/manningwu07/seqtune/model"
	"github.com/manningwu07/seqtune/params"
	"github.com/manningwu07/seqtune/rouge"
	"github.com/manningwu07/seqtune/tokenizer"
	"github.com/manningwu07/seqtune/train"
)

// app is the wired run: resolved artifacts, tokenizer, backend and the
// step orchestrator.
type app struct {
	cfg     params.Config
	tok     *tokenizer.Tokenizer
	backend model.Seq2Seq
	module  *model.Module
}

// setup resolves the model and tokenizer artifacts, constructs the
// backend and applies the end-of-sequence fix. Any failure here is
// fatal before work starts.
func setup(cfg params.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	modelDir, err := hub.Resolve(cfg.ModelNameOrPath, cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	configDir := modelDir
	if cfg.ConfigName != "" {
		if configDir, err = hub.Resolve(cfg.ConfigName, cfg.CacheDir); err != nil {
			return nil, err
		}
	}

	tok, err := tokenizer.Load(cfg.TokenizerSource(), cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	mcfg, err := model.ParseConfig(configDir)
	if err != nil {
		return nil, err
	}
	backend, err := model.Build(modelDir, mcfg)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded model",
		"model", cfg.ModelNameOrPath,
		"model_type", mcfg.ModelType,
		"vocab_size", mcfg.VocabSize)

	fixed, err := tok.EnsureDistinctEOS(backend)
	if err != nil {
		return nil, err
	}
	if fixed {
		slog.Info("replaced reserved end-of-sequence token", "eos_id", tok.EOSID())
	}

	return &app{
		cfg:     cfg,
		tok:     tok,
		backend: backend,
		module:  model.NewModule(cfg, tok, backend),
	}, nil
}

// loader builds a split's loader; shuffle and seed only matter for the
// train split.
func (a *app) loader(split string, batchSize int, shuffle bool, seed int64) (*dataset.Loader, error) {
	ds, err := dataset.Load(a.cfg.InputDir, split, a.tok, a.cfg.MaxSourceLength, a.cfg.MaxTargetLength)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded split", "split", split, "examples", ds.Len())
	return &dataset.Loader{
		Dataset:   ds,
		BatchSize: batchSize,
		Shuffle:   shuffle,
		Seed:      seed,
		Workers:   a.cfg.NumWorkers,
	}, nil
}

func newTrainCmd() *cobra.Command {
	cfg := params.Default()
	var (
		outputDir string
		patience  int
		saveEvery int
		seed      int64
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fine-tune a pretrained model on the train split",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cfg)
			if err != nil {
				return err
			}
			trainable, ok := a.backend.(model.Trainable)
			if !ok {
				return fmt.Errorf("backend for %q does not support training", cfg.ModelNameOrPath)
			}

			trainLoader, err := a.loader("train", cfg.TrainBatchSize, true, seed)
			if err != nil {
				return err
			}
			valLoader, err := a.loader("val", cfg.EvalBatchSize, false, 0)
			if err != nil {
				return err
			}

			tr := &train.Trainer{
				Params:    cfg,
				Module:    a.module,
				Model:     trainable,
				Train:     trainLoader,
				Val:       valLoader,
				OutputDir: outputDir,
				Patience:  patience,
				SaveEvery: saveEvery,
			}
			res, err := tr.Fit(cmd.Context())
			if err != nil {
				return err
			}
			slog.Info("fit complete",
				"run", res.RunID,
				"epochs", res.Epochs,
				"best_epoch", res.BestEpoch,
				train.ValMetric, res.Best.Rouge[train.ValMetric],
				"stopped_early", res.StoppedEarly)
			return nil
		},
	}
	addRunFlags(cmd, &cfg)
	cmd.Flags().StringVar(&outputDir, "output_dir", "runs", "Checkpoint directory")
	cmd.Flags().IntVar(&patience, "patience", 0, "Epochs without improvement before early stop (0 disables)")
	cmd.Flags().IntVar(&saveEvery, "save_every", 1, "Rolling checkpoint interval in epochs (0 disables)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Shuffle seed for the train split")
	return cmd
}

func newEvaluateCmd() *cobra.Command {
	cfg := params.Default()

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the generative test pass and report rouge",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cfg)
			if err != nil {
				return err
			}
			testLoader, err := a.loader("test", cfg.EvalBatchSize, false, 0)
			if err != nil {
				return err
			}

			tr := &train.Trainer{Params: cfg, Module: a.module}
			res, err := tr.Test(cmd.Context(), testLoader)
			if err != nil {
				return err
			}
			slog.Info("test complete",
				"pairs", res.Pairs,
				"loss", res.Loss,
				"gen_len", res.SummLen)
			for _, name := range rouge.Names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %.4f\n", name, res.Rouge[name])
			}
			return nil
		},
	}
	addRunFlags(cmd, &cfg)
	return cmd
}
