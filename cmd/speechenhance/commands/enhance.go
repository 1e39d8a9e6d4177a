package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/checkpoint"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/model"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/trainer"
)

type enhanceResult struct {
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`
	Frames int    `json:"frames" yaml:"frames"`
	Run    string `json:"run" yaml:"run"`
	Step   int64  `json:"step" yaml:"step"`
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance <input.wav> <output.wav>",
	Short: "Enhance a WAV file with the latest checkpoint",
	Long: `Restore the model from the configured checkpoint storage and run it
over every complete frame of the input. The output is a 32-bit mono WAV at
the input's sample rate; the trailing partial frame is dropped.

Examples:
  speechenhance enhance noisy.wav enhanced.wav
  speechenhance enhance -c train.yaml X_data/0001.wav /tmp/0001.wav`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		files, err := openCheckpointFiles(cfg)
		if err != nil {
			return err
		}

		m, err := model.NewFIR(cfg.Taps, cfg.LearningRate)
		if err != nil {
			return err
		}
		p, err := checkpoint.New(files, "").Load(cmd.Context(), m)
		if errors.Is(err, checkpoint.ErrNoCheckpoint) {
			return errors.New("no checkpoint found, run 'speechenhance train' first")
		}
		if err != nil {
			return err
		}
		newLogger(cfg).Debug("restored checkpoint", "run", p.Run, "epoch", p.Epoch, "step", p.Step)

		frames, err := trainer.Enhance(cmd.Context(), m, nil, args[0], args[1], cfg.Window)
		if err != nil {
			return err
		}
		return printResult(enhanceResult{
			Input:  args[0],
			Output: args[1],
			Frames: frames,
			Run:    p.Run,
			Step:   p.Step,
		})
	},
}

func init() {
	rootCmd.AddCommand(enhanceCmd)
}
