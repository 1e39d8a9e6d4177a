package commands

import (
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/checkpoint"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/dataset"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/trainer"
)

var (
	trainEpochs   int
	trainCoverage string
	trainResume   bool
	trainInputDir string
	trainLabelDir string
	trainRun      string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the enhancement model",
	Long: `Train the model frame by frame over the training pairs.

The resolved configuration is saved as <run>.yaml in the checkpoint
directory, so "train -c" on that file repeats the run.

A checkpoint is written after every visit of a file whose index is a
multiple of checkpoint_every, and once more when training ends. The loss of
files at multiples of summary_every is recorded in summary_dir.

Interrupting the command stops training between two steps; the partial
result is printed and the last checkpoint is kept.

Examples:
  speechenhance train
  speechenhance train -c train.yaml --epochs 3 --coverage full
  speechenhance train --resume --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("epochs") {
			cfg.Epochs = trainEpochs
		}
		if flags.Changed("coverage") {
			cfg.Coverage = trainCoverage
		}
		if flags.Changed("resume") {
			cfg.Resume = trainResume
		}
		if flags.Changed("input-dir") {
			cfg.InputDir = trainInputDir
		}
		if flags.Changed("label-dir") {
			cfg.LabelDir = trainLabelDir
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := newLogger(cfg)
		catalog, err := dataset.Build(cfg.InputDir, cfg.LabelDir, cfg.TestFiles)
		if err != nil {
			return err
		}

		files, err := openCheckpointFiles(cfg)
		if err != nil {
			return err
		}
		opts := []trainer.Option{
			trainer.WithLogger(logger),
			trainer.WithCheckpoints(checkpoint.New(files, "")),
		}
		if cfg.SummaryDir != "" {
			sums, err := openSummaries(cfg, logger)
			if err != nil {
				return err
			}
			defer sums.Close()
			opts = append(opts, trainer.WithSummaries(sums))
		}
		if trainRun != "" {
			opts = append(opts, trainer.WithRunID(trainRun))
		}

		d, err := trainer.NewDriver(cfg, catalog, opts...)
		if err != nil {
			return err
		}

		if cfg.Checkpoint.Dir != "" {
			path := filepath.Join(cfg.Checkpoint.Dir, d.RunID()+".yaml")
			if err := trainer.SaveConfig(path, cfg); err != nil {
				return err
			}
			logger.Debug("saved run config", "path", path)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		res, err := d.Run(ctx)
		if err != nil {
			logger.Error("training stopped", "run", res.Run, "steps", res.Steps, "error", err)
			return err
		}
		return printResult(res)
	},
}

func init() {
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 0, "last epoch to train (overrides config)")
	trainCmd.Flags().StringVar(&trainCoverage, "coverage", "", "file coverage: reference or full (overrides config)")
	trainCmd.Flags().BoolVar(&trainResume, "resume", false, "restore the latest checkpoint before training")
	trainCmd.Flags().StringVar(&trainInputDir, "input-dir", "", "directory of noisy inputs (overrides config)")
	trainCmd.Flags().StringVar(&trainLabelDir, "label-dir", "", "directory of clean labels (overrides config)")
	trainCmd.Flags().StringVar(&trainRun, "run", "", "run name for summaries (default: generated)")

	rootCmd.AddCommand(trainCmd)
}
