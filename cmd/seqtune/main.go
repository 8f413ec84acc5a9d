// Command seqtune fine-tunes and evaluates pretrained encoder-decoder
// models on question-answering splits.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/manningwu07/seqtune/params"
)

func main() {
	cobra.CheckErr(NewCLI().Execute())
}

func NewCLI() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "seqtune",
		Short:         "Fine-tune and evaluate seq2seq question answering models",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newTrainCmd(), newEvaluateCmd())
	return rootCmd
}

// addRunFlags registers the option surface shared by train and
// evaluate, defaulted from the stock hyperparameters.
func addRunFlags(cmd *cobra.Command, cfg *params.Config) {
	f := cmd.Flags()
	f.StringVar(&cfg.ModelNameOrPath, "model_name_or_path", "", "Pretrained model id or local directory (required)")
	f.StringVar(&cfg.ConfigName, "config_name", "", "Config source when it differs from the model")
	f.StringVar(&cfg.TokenizerName, "tokenizer_name", "", "Tokenizer source when it differs from the model")
	f.StringVar(&cfg.CacheDir, "cache_dir", "", "Hub cache directory")
	f.StringVar(&cfg.InputDir, "input_dir", cfg.InputDir, "Directory holding <split>.source and <split>.target files")
	f.Float64Var(&cfg.MaxGradNorm, "max_grad_norm", cfg.MaxGradNorm, "Gradient clipping norm")
	f.IntVar(&cfg.GradAccumSteps, "gradient_accumulation_steps", cfg.GradAccumSteps, "Batches per optimizer step")
	f.Float64Var(&cfg.LearningRate, "learning_rate", cfg.LearningRate, "Peak learning rate")
	f.Float64Var(&cfg.WeightDecay, "weight_decay", cfg.WeightDecay, "Decoupled weight decay")
	f.Float64Var(&cfg.AdamEpsilon, "adam_epsilon", cfg.AdamEpsilon, "Adam denominator epsilon")
	f.IntVar(&cfg.Epochs, "epochs", cfg.Epochs, "Training epochs")
	f.IntVar(&cfg.TrainBatchSize, "train_batch_size", cfg.TrainBatchSize, "Training batch size")
	f.IntVar(&cfg.EvalBatchSize, "eval_batch_size", cfg.EvalBatchSize, "Evaluation batch size")
	f.IntVar(&cfg.MaxSourceLength, "max_source_length", cfg.MaxSourceLength, "Source truncation length in tokens")
	f.IntVar(&cfg.MaxTargetLength, "max_target_length", cfg.MaxTargetLength, "Target truncation length in tokens")
	f.IntVar(&cfg.NumWorkers, "num_workers", cfg.NumWorkers, "Batch collation workers")
}
