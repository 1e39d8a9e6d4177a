package trainer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/cli"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/dataset"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/model"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/storage"
)

// Config holds the training tunables. Zero-value fields loaded from YAML
// keep the defaults of DefaultConfig.
type Config struct {
	InputDir string `yaml:"input_dir" json:"input_dir"`
	LabelDir string `yaml:"label_dir" json:"label_dir"`

	// Epochs is the last epoch trained; the loop runs while epoch <= Epochs.
	Epochs    int           `yaml:"epochs" json:"epochs"`
	Window    time.Duration `yaml:"window" json:"window"`
	TestFiles int           `yaml:"test_files" json:"test_files"`

	LearningRate float64 `yaml:"learning_rate" json:"learning_rate"`
	Taps         int     `yaml:"taps" json:"taps"`

	// Coverage is "reference" (last training file never visited) or "full".
	Coverage       string `yaml:"coverage" json:"coverage"`
	AlignLabelRate bool   `yaml:"align_label_rate" json:"align_label_rate"`

	CheckpointEvery int `yaml:"checkpoint_every" json:"checkpoint_every"`
	SummaryEvery    int `yaml:"summary_every" json:"summary_every"`

	// LossWindow is the number of recent steps averaged into the smoothed loss.
	LossWindow int `yaml:"loss_window" json:"loss_window"`

	Resume             bool `yaml:"resume" json:"resume"`
	Evaluate           bool `yaml:"evaluate" json:"evaluate"`
	EvaluateEveryEpoch bool `yaml:"evaluate_every_epoch" json:"evaluate_every_epoch"`

	Checkpoint   storage.Config `yaml:"checkpoint" json:"checkpoint"`
	SummaryDir   string         `yaml:"summary_dir" json:"summary_dir"`
	GeneratedDir string         `yaml:"generated_dir" json:"generated_dir"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns the reference constants: 31 epochs of 20 ms frames
// from ./X_data and ./y_data, two held-out test files, learning rate 0.01,
// a checkpoint and summary every 10th file index.
func DefaultConfig() Config {
	return Config{
		InputDir:        "./X_data",
		LabelDir:        "./y_data",
		Epochs:          31,
		Window:          dataset.DefaultWindow,
		TestFiles:       2,
		LearningRate:    model.DefaultLearningRate,
		Taps:            model.DefaultTaps,
		Coverage:        dataset.CoverageReference.String(),
		CheckpointEvery: 10,
		SummaryEvery:    10,
		LossWindow:      100,
		Evaluate:        true,
		Checkpoint:      storage.Config{Dir: "./checkpoints"},
		SummaryDir:      "./summaries",
		LogLevel:        "info",
	}
}

// LoadConfig reads a YAML file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := cli.LoadYAML(path, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Checkpoint.S3 != nil {
		// A file that selects S3 replaces the default directory.
		cfg.Checkpoint.Dir = ""
	}
	return cfg, cfg.Validate()
}

// SaveConfig writes cfg to path in the form LoadConfig reads. Static S3
// credentials are left out.
func SaveConfig(path string, cfg Config) error {
	if cfg.Checkpoint.S3 != nil {
		s3 := *cfg.Checkpoint.S3
		s3.AccessKeyID, s3.SecretAccessKey = "", ""
		cfg.Checkpoint.S3 = &s3
	}
	return cli.SaveYAML(path, cfg)
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.InputDir == "" || c.LabelDir == "" {
		errs = append(errs, errors.New("input_dir and label_dir are required"))
	}
	if c.Epochs < 0 {
		errs = append(errs, fmt.Errorf("epochs must not be negative, got %d", c.Epochs))
	}
	if c.Window <= 0 {
		errs = append(errs, fmt.Errorf("window must be positive, got %v", c.Window))
	}
	if c.TestFiles < 0 {
		errs = append(errs, fmt.Errorf("test_files must not be negative, got %d", c.TestFiles))
	}
	if c.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("learning_rate must be positive, got %v", c.LearningRate))
	}
	if c.Taps <= 0 {
		errs = append(errs, fmt.Errorf("taps must be positive, got %d", c.Taps))
	}
	if _, err := dataset.ParseCoverage(c.Coverage); err != nil {
		errs = append(errs, err)
	}
	if c.CheckpointEvery <= 0 || c.SummaryEvery <= 0 {
		errs = append(errs, errors.New("checkpoint_every and summary_every must be positive"))
	}
	if c.LossWindow <= 0 {
		errs = append(errs, fmt.Errorf("loss_window must be positive, got %d", c.LossWindow))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("trainer: invalid config: %w", err)
	}
	return nil
}

// CoverageMode returns the parsed Coverage.
func (c Config) CoverageMode() dataset.Coverage {
	cov, _ := dataset.ParseCoverage(c.Coverage)
	return cov
}

// ParseLogLevel maps debug, info, warn or error to a slog level. The empty
// string is info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
