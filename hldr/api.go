package hldr

import (
	"github.com/kolkov/hldrdetector/internal/hldr/backtrace"
	"github.com/kolkov/hldrdetector/internal/hldr/detector"
	"github.com/kolkov/hldrdetector/internal/hldr/view"
)

// Detector is the exported detection engine; see the package documentation
// for the callback contract.
type Detector = detector.Detector

// Options configures a Detector; the zero value uses defaults (window
// capacity 5, unbounded retention, reports to stderr, runtime backtraces).
type Options = detector.Options

// ThreadID identifies one thread of the instrumented program.
type ThreadID = detector.ThreadID

// Address identifies one accessed memory location.
type Address = view.Address

// InstructionID identifies the accessing instruction, for reporting.
type InstructionID = view.InstructionID

// Backtrace is an immutable call-stack snapshot captured at region
// boundaries.
type Backtrace = backtrace.Backtrace

// Location is a resolved source position for one instruction.
type Location = backtrace.Location

// Provider captures backtraces; supply the instrumentation engine's
// implementation through Options.
type Provider = backtrace.Provider

// Resolver symbolizes backtraces and instruction locations in reports.
type Resolver = backtrace.Resolver

// NopProvider captures nothing; use it when backtraces would be noise,
// for example when feeding the detector from a recorded trace.
type NopProvider = backtrace.NopProvider

// NopResolver resolves nothing; every backtrace and location degrades to a
// placeholder, which keeps report output deterministic.
type NopResolver = backtrace.NopResolver

// New constructs a detector. One detector serves one instrumented process;
// share it by reference, it has no ambient instance.
func New(opts Options) *Detector {
	return detector.New(opts)
}
