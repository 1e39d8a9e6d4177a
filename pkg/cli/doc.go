// Package cli provides helpers shared by the speechenhance commands:
// YAML config loading, result output in several formats, human readable
// formatting, and the ~/.speechenhance directory layout.
//
// Example usage:
//
//	var cfg trainer.Config
//	if err := cli.LoadYAML(path, &cfg); err != nil {
//	    return err
//	}
//
//	cli.Output(result, cli.OutputOptions{Format: cli.FormatTable})
package cli
