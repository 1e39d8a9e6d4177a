package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/cli"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/dataset"
)

var (
	framesEpochs   int
	framesCoverage string
)

type frameVisit struct {
	Epoch    int    `json:"epoch" yaml:"epoch"`
	File     int    `json:"file" yaml:"file"`
	Input    string `json:"input" yaml:"input"`
	FrameLen int    `json:"frame_len" yaml:"frame_len"`
	Frames   int    `json:"frames" yaml:"frames"`
}

type framesResult struct {
	Coverage string       `json:"coverage" yaml:"coverage"`
	Frames   int          `json:"frames" yaml:"frames"`
	Visits   []frameVisit `json:"visits" yaml:"visits"`
	Warnings []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func (r framesResult) Table() cli.Table {
	t := cli.Table{Headers: []string{"EPOCH", "FILE", "INPUT", "FRAME LEN", "FRAMES"}}
	for _, v := range r.Visits {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(v.Epoch),
			strconv.Itoa(v.File),
			v.Input,
			strconv.Itoa(v.FrameLen),
			strconv.Itoa(v.Frames),
		})
	}
	return t
}

var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "Dry-run the frame schedule without a model",
	Long: `Walk the training pairs exactly as train would, without training, and
print how many frames each file visit yields.

Data integrity warnings (sample rate, length and range mismatches) are
collected into the result.

Examples:
  speechenhance frames
  speechenhance frames --epochs 1 --coverage full --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("coverage") {
			cfg.Coverage = framesCoverage
		}
		cov, err := dataset.ParseCoverage(cfg.Coverage)
		if err != nil {
			return err
		}
		c, err := dataset.Build(cfg.InputDir, cfg.LabelDir, cfg.TestFiles)
		if err != nil {
			return err
		}

		res := framesResult{Coverage: cov.String()}
		cursor, err := dataset.NewCursor(c.Train,
			dataset.WithWindow(cfg.Window),
			dataset.WithCoverage(cov),
			dataset.WithLabelRateAlignment(cfg.AlignLabelRate),
			dataset.WithLogger(newLogger(cfg)),
			dataset.WithWarningHandler(func(w dataset.Warning) {
				res.Warnings = append(res.Warnings, w.String())
			}),
		)
		if err != nil {
			return err
		}

		for cursor.Epoch() <= framesEpochs {
			f, err := cursor.Advance(cmd.Context())
			if err != nil {
				return err
			}
			if f.FrameIndex == 0 {
				res.Visits = append(res.Visits, frameVisit{
					Epoch:    f.Epoch,
					File:     f.FileIndex,
					Input:    c.Train[f.FileIndex].Input,
					FrameLen: len(f.Input),
				})
			}
			res.Visits[len(res.Visits)-1].Frames++
			res.Frames++
		}
		return printResult(res)
	},
}

func init() {
	framesCmd.Flags().IntVar(&framesEpochs, "epochs", 0, "last epoch to walk")
	framesCmd.Flags().StringVar(&framesCoverage, "coverage", "", "file coverage: reference or full (overrides config)")

	rootCmd.AddCommand(framesCmd)
}
