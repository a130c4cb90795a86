// Package detector orchestrates high-level data race (HLDR) detection.
//
// An HLDR is an atomicity violation: program-defined atomic regions
// (critical sections or transactions) whose apparent serializability is
// broken by interleaving, even though no single address is accessed
// unsafely. The detector consumes synchronous callbacks from an
// instrumentation engine (thread start/finish, atomic-region entry/exit,
// memory reads and writes) and maintains, per thread, the footprint of the
// active region (a Building view) and a history of completed regions
// (Frozen views).
//
// On every outermost region exit the new view is frozen, timestamped on the
// process-wide logical clock, and checked both ways: the new view against
// every other thread's recent window, and every other thread's recent views
// against this thread's window. A chain (total-order-by-inclusion) break in
// any write/write, write/read, or read/write intersection family is
// reported as a Real or Possible HLDR, classified by the logical-clock
// ordering of the three views involved.
//
// All state lives in the Detector value; there are no package globals and
// no thread-local storage. Every operation is best-effort: malformed
// callback sequences are defended no-ops, and nothing in this package can
// abort the instrumented program.
package detector
