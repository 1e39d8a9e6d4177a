package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/cli"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/summary"
)

var summaryTag string

type runList struct {
	Runs []string `json:"runs" yaml:"runs"`
}

func (r runList) Table() cli.Table {
	t := cli.Table{Headers: []string{"RUN"}}
	for _, run := range r.Runs {
		t.Rows = append(t.Rows, []string{run})
	}
	return t
}

type scalarList struct {
	Run     string           `json:"run" yaml:"run"`
	Scalars []summary.Scalar `json:"scalars" yaml:"scalars"`
}

func (s scalarList) Table() cli.Table {
	t := cli.Table{Headers: []string{"TAG", "STEP", "EPOCH", "FILE", "VALUE"}}
	for _, sc := range s.Scalars {
		t.Rows = append(t.Rows, []string{
			sc.Tag,
			strconv.FormatInt(sc.Step, 10),
			strconv.Itoa(sc.Epoch),
			strconv.Itoa(sc.FileIndex),
			strconv.FormatFloat(sc.Value, 'g', 6, 64),
		})
	}
	return t
}

var summaryCmd = &cobra.Command{
	Use:   "summary [run]",
	Short: "List runs or the loss curves of one run",
	Long: `Without arguments, list the runs recorded in summary_dir. With a run
name, print its scalars in step order.

Examples:
  speechenhance summary
  speechenhance summary run-20240301120000-1b4e28ba --tag test_loss`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openSummaries(cfg, newLogger(cfg))
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 0 {
			runs, err := store.Runs(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(runList{Runs: runs})
		}

		res := scalarList{Run: args[0]}
		for sc, err := range store.List(cmd.Context(), args[0], summaryTag) {
			if err != nil {
				return err
			}
			res.Scalars = append(res.Scalars, sc)
		}
		return printResult(res)
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryTag, "tag", "", "only list this tag (loss, test_loss)")

	rootCmd.AddCommand(summaryCmd)
}
