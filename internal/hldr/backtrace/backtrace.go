// Package backtrace models call-stack snapshots captured at atomic-region
// boundaries and their resolution to human-readable locations.
//
// Capturing and symbolizing stacks is the job of the instrumentation engine
// hosting the detector; this package only defines the value type and the two
// collaborator interfaces, plus runtime-based defaults so the module works
// standalone. Resolution failures always degrade to placeholder strings and
// are never fatal.
package backtrace

import (
	"fmt"
	"runtime"
)

// Unknown is the placeholder emitted when a backtrace or source location
// cannot be resolved.
const Unknown = "<unknown>"

// maxFrames bounds the number of frames captured by the default provider.
const maxFrames = 32

// Backtrace is an immutable snapshot of program counters captured once at a
// region boundary. A nil or empty Backtrace means "no stack available".
type Backtrace []uintptr

// Location is a resolved source position for one instruction.
type Location struct {
	File string
	Line int
}

// String formats the location as "file:line", or Unknown when empty.
func (l Location) String() string {
	if l.File == "" {
		return Unknown
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Provider captures the call stack of the thread executing the current
// callback. The instrumentation engine supplies its own implementation;
// RuntimeProvider is the standalone default.
type Provider interface {
	Capture() Backtrace
}

// Resolver turns captured backtraces and instruction identifiers into
// human-readable strings for reports.
//
// ResolveLocation takes the raw instruction identifier (an address-sized
// value assigned by the instrumentation engine, a PC for the runtime
// default) and reports ok=false when the position is not known.
type Resolver interface {
	ResolveBacktrace(bt Backtrace) []string
	ResolveLocation(instr uint64) (Location, bool)
}

// RuntimeProvider captures stacks with runtime.Callers.
//
// Skip is the number of frames to drop on top of the capture machinery
// itself, so the snapshot starts at the instrumented call site.
type RuntimeProvider struct {
	Skip int
}

// Capture implements Provider.
func (p RuntimeProvider) Capture() Backtrace {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(2+p.Skip, pcs)
	if n == 0 {
		return nil
	}
	return pcs[:n]
}

// RuntimeResolver resolves backtraces and instruction identifiers through
// the Go runtime symbol tables.
type RuntimeResolver struct{}

// ResolveBacktrace implements Resolver. Each frame resolves to
// "function() file:line"; an empty backtrace resolves to a single Unknown
// entry so reports always have something to print.
func (RuntimeResolver) ResolveBacktrace(bt Backtrace) []string {
	if len(bt) == 0 {
		return []string{Unknown}
	}

	frames := runtime.CallersFrames(bt)
	var out []string
	for {
		frame, more := frames.Next()
		if frame.PC != 0 && frame.Function != "" {
			out = append(out, fmt.Sprintf("%s() %s:%d", frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	if len(out) == 0 {
		return []string{Unknown}
	}
	return out
}

// ResolveLocation implements Resolver, treating the instruction identifier
// as a program counter.
func (RuntimeResolver) ResolveLocation(instr uint64) (Location, bool) {
	if instr == 0 {
		return Location{}, false
	}
	fn := runtime.FuncForPC(uintptr(instr))
	if fn == nil {
		return Location{}, false
	}
	file, line := fn.FileLine(uintptr(instr))
	return Location{File: file, Line: line}, true
}

// NopProvider captures nothing. Used by trace replay, where the replayer's
// own stack would be noise rather than information.
type NopProvider struct{}

// Capture implements Provider.
func (NopProvider) Capture() Backtrace { return nil }

// NopResolver resolves nothing; every backtrace and location degrades to
// the Unknown placeholder. Used by trace replay and golden tests, where
// output must be deterministic.
type NopResolver struct{}

// ResolveBacktrace implements Resolver.
func (NopResolver) ResolveBacktrace(Backtrace) []string { return []string{Unknown} }

// ResolveLocation implements Resolver.
func (NopResolver) ResolveLocation(uint64) (Location, bool) { return Location{}, false }
