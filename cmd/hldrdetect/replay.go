package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kolkov/hldrdetector/internal/hldr/backtrace"
	"github.com/kolkov/hldrdetector/internal/hldr/config"
	"github.com/kolkov/hldrdetector/internal/hldr/detector"
	"github.com/kolkov/hldrdetector/internal/hldr/logging"
	"github.com/kolkov/hldrdetector/internal/hldr/trace"
)

// replayOptions holds flags for the replay command.
type replayOptions struct {
	*rootOptions
	window int
	retain int
	output string
}

func newReplayCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &replayOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <trace-file>",
		Short: "Replay a recorded event trace through the detector",
		Long: `Replay applies a recorded instrumentation event trace to the detector
in recorded order and prints a report for every violation found.

Trace format, one event per line ("#" starts a comment):

  start  <tid>
  finish <tid>
  enter  <tid>
  exit   <tid>
  read   <tid> <addr> [instr]
  write  <tid> <addr> [instr]

Replaying the same trace always produces the same reports. The exit
status is 2 when at least one violation was detected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0])
		},
	}

	cmd.Flags().IntVarP(&opts.window, "window", "w", 0, "window capacity (overrides config)")
	cmd.Flags().IntVar(&opts.retain, "retain", -1, "history retention beyond the window, 0 = unbounded (overrides config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write reports to a file instead of stderr")

	return cmd
}

func runReplay(opts *replayOptions, path string) error {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return err
		}
	}
	if opts.window > 0 {
		cfg.WindowCapacity = opts.window
	}
	if opts.retain >= 0 {
		cfg.RetainLimit = opts.retain
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening trace: %w", err)
	}
	defer f.Close()

	events, err := trace.Parse(f)
	if err != nil {
		return err
	}

	out := os.Stderr
	if opts.output != "" {
		out, err = os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer out.Close()
	}

	d := detector.New(detector.Options{
		WindowCapacity: cfg.WindowCapacity,
		RetainLimit:    cfg.RetainLimit,
		Output:         out,
		Logger:         logging.New(logging.Config{Level: level, Service: "hldrdetect"}),
		// Backtraces of the replaying process carry no information about
		// the traced program; degrade them to placeholders.
		Provider: backtrace.NopProvider{},
		Resolver: backtrace.NopResolver{},
	})

	trace.Replay(events, d)
	d.Close()

	n := d.ViolationsDetected()
	fmt.Printf("replayed %d event(s), %d violation(s) detected\n", len(events), n)
	if n > 0 {
		os.Exit(2)
	}
	return nil
}
