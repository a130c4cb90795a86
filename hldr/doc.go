// Package hldr provides the public API for the high-level data race
// detector.
//
// A high-level data race (HLDR) is an atomicity violation: the program
// defines atomic regions (critical sections or transactions), and although
// every single memory location may be accessed safely, the interleaving of
// whole regions breaks their apparent serializability. The detector checks
// a set-inclusion ("chain") invariant over the memory footprints of
// recently completed regions; a broken chain witnesses a possible
// violation.
//
// # Quick start
//
// The detector is driven by synchronous callbacks from an instrumentation
// engine (or by hand, or by replaying a recorded trace with the
// hldrdetect CLI):
//
//	d := hldr.New(hldr.Options{})
//
//	d.OnThreadStarted(1)
//	d.OnAtomicRegionEntered(1)
//	d.OnMemoryWrite(1, 0x10, 0x400100)
//	d.OnAtomicRegionExited(1) // freezes the view, runs cross-thread checks
//	d.OnThreadFinished(1)
//
// Violations are formatted to Options.Output (stderr by default) as they
// are found, classified "Real HLDR!" when the logical-clock ordering of
// the three involved region completions witnesses the interleaving, and
// "Possible HLDR!" otherwise.
//
// # Callback contract
//
// Callbacks for one thread must arrive on that thread, in program order;
// callbacks for different threads may arrive concurrently. Memory events
// outside an atomic region, exits without a matching enter, and events for
// unregistered threads are ignored. No callback ever panics or aborts the
// host program: detection is strictly best-effort.
//
// The algorithm follows Artho, Havelund and Biere's view-consistency
// formulation of high-level data races; it is a sound-but-incomplete
// heuristic and does not guarantee zero false positives.
package hldr
