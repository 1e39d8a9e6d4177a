package commands

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/cli"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/dataset"
)

type catalogEntry struct {
	Set   string `json:"set" yaml:"set"`
	Index int    `json:"index" yaml:"index"`
	Input string `json:"input" yaml:"input"`
	Label string `json:"label" yaml:"label"`
	Bytes int64  `json:"bytes" yaml:"bytes"`
}

type catalogResult struct {
	InputDir string         `json:"input_dir" yaml:"input_dir"`
	LabelDir string         `json:"label_dir" yaml:"label_dir"`
	Test     int            `json:"test" yaml:"test"`
	Train    int            `json:"train" yaml:"train"`
	Pairs    []catalogEntry `json:"pairs" yaml:"pairs"`
}

func (r catalogResult) Table() cli.Table {
	t := cli.Table{Headers: []string{"SET", "#", "INPUT", "LABEL", "SIZE"}}
	for _, p := range r.Pairs {
		t.Rows = append(t.Rows, []string{p.Set, strconv.Itoa(p.Index), p.Input, p.Label, cli.FormatBytes(p.Bytes)})
	}
	return t
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the train/test split of the paired files",
	Long: `Enumerate X_data/ and y_data/, pair them by position and print the
held-out test pairs followed by the training pairs.

Fails when the two trees hold a different number of files.

Examples:
  speechenhance catalog
  speechenhance catalog --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := dataset.Build(cfg.InputDir, cfg.LabelDir, cfg.TestFiles)
		if err != nil {
			return err
		}

		res := catalogResult{
			InputDir: cfg.InputDir,
			LabelDir: cfg.LabelDir,
			Test:     len(c.Test),
			Train:    len(c.Train),
		}
		add := func(set string, pairs []dataset.Pair) {
			for i, p := range pairs {
				var size int64
				if fi, err := os.Stat(p.Input); err == nil {
					size = fi.Size()
				}
				res.Pairs = append(res.Pairs, catalogEntry{Set: set, Index: i, Input: p.Input, Label: p.Label, Bytes: size})
			}
		}
		add("test", c.Test)
		add("train", c.Train)
		return printResult(res)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
