// Package trace reads recorded instrumentation event streams and replays
// them through a detector.
//
// A trace is a text file with one event per line, in the order the
// instrumentation engine observed them; blank lines and "#" comments are
// skipped:
//
//	start  <tid>
//	finish <tid>
//	enter  <tid>
//	exit   <tid>
//	read   <tid> <addr> [instr]
//	write  <tid> <addr> [instr]
//
// Addresses and instruction identifiers accept any base strconv.ParseUint
// understands ("0x10", "16"). Replaying the same trace always produces the
// same reports: the recorded interleaving is applied sequentially, so
// detection is deterministic.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kolkov/hldrdetector/internal/hldr/detector"
	"github.com/kolkov/hldrdetector/internal/hldr/view"
)

// ErrSyntax wraps every parse failure; errors.Is(err, ErrSyntax) holds for
// any malformed line.
var ErrSyntax = errors.New("trace syntax error")

// Kind is the event type.
type Kind uint8

const (
	// ThreadStart registers a thread.
	ThreadStart Kind = iota
	// ThreadFinish removes a thread.
	ThreadFinish
	// RegionEnter enters an atomic region.
	RegionEnter
	// RegionExit exits an atomic region.
	RegionExit
	// MemoryRead records a read access.
	MemoryRead
	// MemoryWrite records a write access.
	MemoryWrite
)

// String returns the trace keyword for the kind.
func (k Kind) String() string {
	switch k {
	case ThreadStart:
		return "start"
	case ThreadFinish:
		return "finish"
	case RegionEnter:
		return "enter"
	case RegionExit:
		return "exit"
	case MemoryRead:
		return "read"
	case MemoryWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Event is one recorded instrumentation callback. Addr and Instr are
// meaningful only for memory events.
type Event struct {
	Kind   Kind
	Thread detector.ThreadID
	Addr   view.Address
	Instr  view.InstructionID
}

// Parse reads a whole trace. The first malformed line aborts the parse
// with an error naming the line number and wrapping ErrSyntax.
func Parse(r io.Reader) ([]Event, error) {
	var events []Event

	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		ev, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	return events, nil
}

func parseLine(text string) (Event, error) {
	fields := strings.Fields(text)
	keyword := fields[0]

	var ev Event
	var operands int
	switch keyword {
	case "start":
		ev.Kind, operands = ThreadStart, 1
	case "finish":
		ev.Kind, operands = ThreadFinish, 1
	case "enter":
		ev.Kind, operands = RegionEnter, 1
	case "exit":
		ev.Kind, operands = RegionExit, 1
	case "read":
		ev.Kind, operands = MemoryRead, 2
	case "write":
		ev.Kind, operands = MemoryWrite, 2
	default:
		return Event{}, fmt.Errorf("%w: unknown event %q", ErrSyntax, keyword)
	}

	args := fields[1:]
	if len(args) < operands {
		return Event{}, fmt.Errorf("%w: %s needs %d operand(s), got %d", ErrSyntax, keyword, operands, len(args))
	}
	maxArgs := operands
	if ev.Kind == MemoryRead || ev.Kind == MemoryWrite {
		maxArgs++ // optional instruction identifier
	}
	if len(args) > maxArgs {
		return Event{}, fmt.Errorf("%w: %s takes at most %d operand(s), got %d", ErrSyntax, keyword, maxArgs, len(args))
	}

	tid, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return Event{}, fmt.Errorf("%w: bad thread id %q: %v", ErrSyntax, args[0], err)
	}
	ev.Thread = detector.ThreadID(tid)

	if len(args) > 1 {
		addr, err := strconv.ParseUint(args[1], 0, 64)
		if err != nil {
			return Event{}, fmt.Errorf("%w: bad address %q: %v", ErrSyntax, args[1], err)
		}
		ev.Addr = view.Address(addr)
	}
	if len(args) > 2 {
		instr, err := strconv.ParseUint(args[2], 0, 64)
		if err != nil {
			return Event{}, fmt.Errorf("%w: bad instruction id %q: %v", ErrSyntax, args[2], err)
		}
		ev.Instr = view.InstructionID(instr)
	}
	return ev, nil
}

// Replay applies the events to the detector in recorded order.
func Replay(events []Event, d *detector.Detector) {
	for _, ev := range events {
		switch ev.Kind {
		case ThreadStart:
			d.OnThreadStarted(ev.Thread)
		case ThreadFinish:
			d.OnThreadFinished(ev.Thread)
		case RegionEnter:
			d.OnAtomicRegionEntered(ev.Thread)
		case RegionExit:
			d.OnAtomicRegionExited(ev.Thread)
		case MemoryRead:
			d.OnMemoryRead(ev.Thread, ev.Addr, ev.Instr)
		case MemoryWrite:
			d.OnMemoryWrite(ev.Thread, ev.Addr, ev.Instr)
		}
	}
}
