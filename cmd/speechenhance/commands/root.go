package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/cli"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/storage"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/summary"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/trainer"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	formatOutput string
	outputFile   string
)

var rootCmd = &cobra.Command{
	Use:   "speechenhance",
	Short: "Train a speech enhancement model on paired WAV files",
	Long: `speechenhance - train a denoising model on paired noisy/clean recordings.

Noisy inputs are read from X_data/ and clean labels from y_data/; the i-th
file of each tree form a pair. The first test_files pairs are held out for
evaluation and generation.

Configuration is read from --config, or ~/.speechenhance/config.yaml when it
exists. Flags on each command override the file.

Examples:
  # Inspect the data before training
  speechenhance catalog
  speechenhance frames --epochs 0

  # Train, then enhance a recording with the saved checkpoint
  speechenhance train -c train.yaml --epochs 5
  speechenhance enhance -c train.yaml noisy.wav clean.wav

  # Follow the loss curve of a run
  speechenhance summary run-20240301120000-1b4e28ba --tag loss`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ~/.speechenhance/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVarP(&formatOutput, "format", "f", "table", "output format: table, yaml, json")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
}

// loadConfig reads --config, else the per-user config file when present,
// else the defaults.
func loadConfig() (trainer.Config, error) {
	if path := configSource(); path != "" {
		return trainer.LoadConfig(path)
	}
	return trainer.DefaultConfig(), nil
}

// configSource returns the config file loadConfig reads, or "" for the
// defaults.
func configSource() string {
	if cfgFile != "" {
		return cfgFile
	}
	paths, err := cli.NewPaths()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(paths.ConfigFile()); err == nil {
		return paths.ConfigFile()
	}
	return ""
}

// newLogger writes text logs to stderr at the configured level; --verbose
// forces debug.
func newLogger(cfg trainer.Config) *slog.Logger {
	level, err := trainer.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openSummaries opens the badger summary store of cfg.
func openSummaries(cfg trainer.Config, logger *slog.Logger) (summary.Store, error) {
	if cfg.SummaryDir == "" {
		return nil, fmt.Errorf("summary_dir is not configured")
	}
	b, err := summary.NewBadger(summary.BadgerOptions{Dir: cfg.SummaryDir, Logger: logger})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// openCheckpointFiles opens the checkpoint storage of cfg.
func openCheckpointFiles(cfg trainer.Config) (storage.FileStore, error) {
	files, err := storage.Open(cfg.Checkpoint)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint storage: %w", err)
	}
	return files, nil
}

// printResult writes result in the --format and --output of the invocation.
func printResult(result any) error {
	format, err := cli.ParseFormat(formatOutput)
	if err != nil {
		return err
	}
	return cli.Output(result, cli.OutputOptions{Format: format, File: outputFile})
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
