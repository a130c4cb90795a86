package main

import (
	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by all subcommands.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "hldrdetect",
		Short: "High-level data race detector",
		Long: `hldrdetect detects high-level data races (atomicity violations):
interleavings that break the apparent serializability of program-defined
atomic regions even when every single memory location is accessed safely.

It replays recorded instrumentation event traces through the detector and
prints a report for every violation found.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(newReplayCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}
