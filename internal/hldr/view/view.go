// Package view records the memory footprint of one atomic-region execution.
//
// A View is created when its owning thread enters an outermost atomic region
// and is mutated, by that thread only, as memory-access callbacks arrive.
// When the outermost region exits the view makes a single irreversible
// transition to the Frozen state: it receives its logical timestamp, its
// sets become read-only, and from then on it may be shared with other
// threads without synchronization. Only registration of the frozen view in
// a history is synchronized, never its content.
package view

import (
	"slices"
	"sync/atomic"

	"github.com/kolkov/hldrdetector/internal/hldr/backtrace"
	"github.com/kolkov/hldrdetector/internal/hldr/clock"
)

// State is the lifecycle state of a View.
type State uint8

const (
	// Building is the initial state: the view is exclusively owned and
	// mutated by its creating thread. The nesting counter is meaningful.
	Building State = iota

	// Frozen is the terminal state: the view is immutable and shared
	// read-only. The reader count is meaningful.
	Frozen
)

// String returns "Building" or "Frozen".
func (s State) String() string {
	if s == Frozen {
		return "Frozen"
	}
	return "Building"
}

// View is the read/write footprint of one (possibly nested) atomic region.
//
// The original design overloaded one counter as both the nesting depth and
// the post-freeze reader count; here they are two fields gated by the state
// tag so no code path can read the wrong one.
type View struct {
	state State

	reads  AddressSet
	writes AddressSet

	// Which instructions touched each address, kept for reporting only.
	readInstrs  map[Address]map[InstructionID]struct{}
	writeInstrs map[Address]map[InstructionID]struct{}

	// depth counts re-entrant atomic regions collapsed into this view.
	// Meaningful only while Building. maxDepth is the deepest nesting
	// observed, retained for reports after depth has returned to zero.
	depth    int
	maxDepth int

	// readers counts threads currently holding this view pinned through an
	// acquired window. Meaningful only once Frozen.
	readers atomic.Int32

	timestamp clock.Time

	start backtrace.Backtrace
	end   backtrace.Backtrace
}

// New returns a Building view with the given region-entry backtrace and a
// nesting depth of zero. The caller records the first region entry with
// Enter.
func New(start backtrace.Backtrace) *View {
	return &View{
		state:       Building,
		reads:       make(AddressSet),
		writes:      make(AddressSet),
		readInstrs:  make(map[Address]map[InstructionID]struct{}),
		writeInstrs: make(map[Address]map[InstructionID]struct{}),
		start:       start,
	}
}

// Enter records entry into a (possibly nested) atomic region and returns
// the new nesting depth. On a Frozen view it is a defended no-op.
func (v *View) Enter() int {
	if v.state != Building {
		return 0
	}
	v.depth++
	if v.depth > v.maxDepth {
		v.maxDepth = v.depth
	}
	return v.depth
}

// Exit records exit from an atomic region and returns the remaining
// nesting depth. Zero means the outermost region has exited and the caller
// must freeze the view. Exit never goes below zero and is a no-op on a
// Frozen view.
func (v *View) Exit() int {
	if v.state != Building || v.depth == 0 {
		return 0
	}
	v.depth--
	return v.depth
}

// RecordRead adds addr to the read set and remembers the accessing
// instruction. No-op once Frozen.
func (v *View) RecordRead(addr Address, instr InstructionID) {
	if v.state != Building {
		return
	}
	v.reads.Add(addr)
	recordInstr(v.readInstrs, addr, instr)
}

// RecordWrite adds addr to the write set and remembers the accessing
// instruction. No-op once Frozen.
func (v *View) RecordWrite(addr Address, instr InstructionID) {
	if v.state != Building {
		return
	}
	v.writes.Add(addr)
	recordInstr(v.writeInstrs, addr, instr)
}

func recordInstr(m map[Address]map[InstructionID]struct{}, addr Address, instr InstructionID) {
	set, ok := m[addr]
	if !ok {
		set = make(map[InstructionID]struct{})
		m[addr] = set
	}
	set[instr] = struct{}{}
}

// Freeze makes the single irreversible Building → Frozen transition,
// assigning the logical timestamp and the region-exit backtrace. A second
// Freeze is a defended no-op: the first timestamp sticks.
func (v *View) Freeze(ts clock.Time, end backtrace.Backtrace) {
	if v.state != Building {
		return
	}
	v.state = Frozen
	v.timestamp = ts
	v.end = end
}

// State returns the lifecycle state.
func (v *View) State() State { return v.state }

// Frozen reports whether the view has made its terminal transition.
func (v *View) Frozen() bool { return v.state == Frozen }

// Reads returns the read set. Callers must not mutate it; once the view is
// Frozen it is safe to read from any thread.
func (v *View) Reads() AddressSet { return v.reads }

// Writes returns the write set under the same contract as Reads.
func (v *View) Writes() AddressSet { return v.writes }

// Depth returns the current nesting depth (meaningful while Building).
func (v *View) Depth() int { return v.depth }

// MaxDepth returns the deepest nesting this view collapsed, for reporting.
func (v *View) MaxDepth() int { return v.maxDepth }

// Timestamp returns the freeze timestamp, zero while Building.
func (v *View) Timestamp() clock.Time { return v.timestamp }

// Start returns the region-entry backtrace snapshot.
func (v *View) Start() backtrace.Backtrace { return v.start }

// End returns the region-exit backtrace snapshot, nil while Building.
func (v *View) End() backtrace.Backtrace { return v.end }

// Instructions returns the identifiers of the instructions that read
// (write=false) or wrote (write=true) addr, in ascending order.
func (v *View) Instructions(addr Address, write bool) []InstructionID {
	m := v.readInstrs
	if write {
		m = v.writeInstrs
	}
	set, ok := m[addr]
	if !ok {
		return nil
	}
	out := make([]InstructionID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Pin increments the reader count, keeping the view alive while another
// thread inspects it through an acquired window. Meaningful only once
// Frozen.
func (v *View) Pin() { v.readers.Add(1) }

// Unpin decrements the reader count.
func (v *View) Unpin() { v.readers.Add(-1) }

// Readers returns the current reader count.
func (v *View) Readers() int32 { return v.readers.Load() }
