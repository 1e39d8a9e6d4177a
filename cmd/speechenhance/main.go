// Package main is the entry point for the speechenhance CLI.
//
// Usage:
//
//	speechenhance [flags] <command> [args]
//
// Commands:
//
//	train      - Train the enhancement model over X_data/ and y_data/
//	catalog    - Show the train/test split of the paired files
//	frames     - Dry-run the frame schedule without a model
//	enhance    - Enhance a WAV file with the latest checkpoint
//	summary    - List runs or the loss curves of one run
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/cmd/speechenhance/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
