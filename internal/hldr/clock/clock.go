// Package clock implements the process-wide logical clock that orders view
// freeze events.
//
// The clock is a single monotonically increasing counter incremented with
// one atomic operation per view freeze. It yields a best-effort total order
// over freeze events across all threads. It is NOT a vector clock and does
// not capture causality; the detector uses it only as a heuristic to
// separate provably real atomicity violations from merely possible ones.
package clock

import (
	"strconv"
	"sync/atomic"
)

// Time is a logical timestamp assigned to a view when it freezes.
//
// The zero value means "not yet assigned": the clock never produces 0, so a
// Building view is distinguishable from any Frozen one.
type Time uint64

// IsZero reports whether the timestamp has not been assigned.
func (t Time) IsZero() bool { return t == 0 }

// After reports whether t was assigned after u on the logical clock.
func (t Time) After(u Time) bool { return t > u }

// Before reports whether t was assigned before u on the logical clock.
func (t Time) Before(u Time) bool { return t < u }

// String returns the timestamp as a decimal string.
func (t Time) String() string { return strconv.FormatUint(uint64(t), 10) }

// Clock is the process-wide logical clock.
//
// One Clock instance is owned by the detector; it is never a package-level
// global. All methods are safe for concurrent use.
type Clock struct {
	now atomic.Uint64
}

// New returns a clock whose first Next call yields 1.
func New() *Clock {
	return &Clock{}
}

// Next atomically advances the clock and returns the new timestamp.
//
// Called exactly once per view freeze. The returned values form a strictly
// increasing sequence across all callers.
func (c *Clock) Next() Time {
	return Time(c.now.Add(1))
}

// Now returns the most recently assigned timestamp, or 0 if Next has never
// been called.
func (c *Clock) Now() Time {
	return Time(c.now.Load())
}
