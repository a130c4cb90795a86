// Command hldrdetect runs the high-level data race detector over recorded
// instrumentation event traces.
//
// Usage:
//
//	hldrdetect replay trace.txt            # replay a recorded trace
//	hldrdetect replay -w 8 trace.txt       # override the window capacity
//	hldrdetect version                     # print version information
//
// The trace format is one event per line (start/finish/enter/exit with a
// thread id, read/write with a thread id, an address and an optional
// instruction id); see the replay command help for details.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
