package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/cmd/speechenhance/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if formatOutput != "table" {
			return printResult(build.Get())
		}
		fmt.Println(build.String())
		if IsVerbose() {
			fmt.Printf("  go:     %s\n", build.Get().Go)
			src := configSource()
			if src == "" {
				src = "(defaults)"
			}
			fmt.Printf("  config: %s\n", src)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
