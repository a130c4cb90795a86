package detector

import (
	"fmt"
	"io"
	"strings"

	"github.com/kolkov/hldrdetector/internal/hldr/backtrace"
	"github.com/kolkov/hldrdetector/internal/hldr/chain"
	"github.com/kolkov/hldrdetector/internal/hldr/clock"
	"github.com/kolkov/hldrdetector/internal/hldr/view"
)

// Classification says how strong the evidence for a violation is.
//
// The logical clock totally orders freeze events but carries no causality,
// so Real is a heuristic witness, not a proof; that is intentional and
// inherited from the reference algorithm.
type Classification int

const (
	// Possible means the interleaving is consistent with the observed
	// trace but not witnessed by the clock ordering.
	Possible Classification = iota
	// Real means the clock ordering t(first) > t(candidate) > t(last)
	// witnessed the interleaving.
	Real
)

// String returns "Possible" or "Real".
func (c Classification) String() string {
	if c == Real {
		return "Real"
	}
	return "Possible"
}

// Access is one resolved conflicting access for a report block.
type Access struct {
	Kind     string // "read" or "write"
	Addr     view.Address
	Instr    view.InstructionID
	Location string // "file:line" or the <unknown> placeholder
}

// ViewBlock is the per-view section of a report: the candidate view and
// the two window views whose intersections with it are incomparable.
type ViewBlock struct {
	Role        string // "candidate", "first" (newer) or "last" (older)
	Timestamp   clock.Time
	Depth       int // deepest nesting collapsed into the view
	Conflicting view.AddressSet
	Start       []string // resolved region-entry backtrace
	End         []string // resolved region-exit backtrace
	Accesses    []Access
}

// Report is one detected HLDR, ready for formatting.
type Report struct {
	Classification  Classification
	Family          chain.Family
	CandidateThread ThreadID
	HistoryThread   ThreadID
	Candidate       ViewBlock
	First           ViewBlock
	Last            ViewBlock
}

// newReport classifies the violation and resolves every backtrace and
// access location through the resolver. Resolution failures degrade to
// placeholders; building a report never fails.
func newReport(candidateThread, historyThread ThreadID, v *view.View, viol *chain.Violation, res backtrace.Resolver) *Report {
	cls := Possible
	if viol.First.Timestamp().After(v.Timestamp()) && v.Timestamp().After(viol.Last.Timestamp()) {
		cls = Real
	}

	return &Report{
		Classification:  cls,
		Family:          viol.Family,
		CandidateThread: candidateThread,
		HistoryThread:   historyThread,
		Candidate:       newViewBlock("candidate", v, viol.Family.Candidate, viol.FirstSet.Union(viol.LastSet), res),
		First:           newViewBlock("first", viol.First, viol.Family.History, viol.FirstSet, res),
		Last:            newViewBlock("last", viol.Last, viol.Family.History, viol.LastSet, res),
	}
}

// newViewBlock resolves one view's section. The conflicting set and the
// accessor decide which per-address instruction sets become Accesses.
func newViewBlock(role string, v *view.View, acc chain.Accessor, conflicting view.AddressSet, res backtrace.Resolver) ViewBlock {
	block := ViewBlock{
		Role:        role,
		Timestamp:   v.Timestamp(),
		Depth:       v.MaxDepth(),
		Conflicting: conflicting,
		Start:       resolveTrace(res, v.Start()),
		End:         resolveTrace(res, v.End()),
	}

	isWrite := acc == chain.Writes
	for _, addr := range conflicting.Sorted() {
		for _, instr := range v.Instructions(addr, isWrite) {
			loc := backtrace.Unknown
			if l, ok := res.ResolveLocation(uint64(instr)); ok {
				loc = l.String()
			}
			block.Accesses = append(block.Accesses, Access{
				Kind:     acc.String(),
				Addr:     addr,
				Instr:    instr,
				Location: loc,
			})
		}
	}
	return block
}

func resolveTrace(res backtrace.Resolver, bt backtrace.Backtrace) []string {
	frames := res.ResolveBacktrace(bt)
	if len(frames) == 0 {
		return []string{backtrace.Unknown}
	}
	return frames
}

// Format writes the report in the fixed text layout. Output is
// deterministic given a deterministic resolver.
//
//nolint:errcheck // report sink write errors are not actionable
func (r *Report) Format(w io.Writer) {
	fmt.Fprintf(w, "==================\n")
	fmt.Fprintf(w, "%s HLDR!\n", r.Classification)
	fmt.Fprintf(w, "Conflicting family: %s (candidate/history)\n", r.Family)
	fmt.Fprintf(w, "Candidate thread: %d, history thread: %d\n", r.CandidateThread, r.HistoryThread)

	for _, block := range []*ViewBlock{&r.Candidate, &r.First, &r.Last} {
		fmt.Fprintf(w, "\n%s view [t=%s, depth=%d]:\n", titleCase(block.Role), block.Timestamp, block.Depth)
		fmt.Fprintf(w, "  Conflicting addresses: %s\n", block.Conflicting)
		fmt.Fprintf(w, "  Region entered at:\n")
		for _, frame := range block.Start {
			fmt.Fprintf(w, "    %s\n", frame)
		}
		fmt.Fprintf(w, "  Region exited at:\n")
		for _, frame := range block.End {
			fmt.Fprintf(w, "    %s\n", frame)
		}
		if len(block.Accesses) > 0 {
			fmt.Fprintf(w, "  Conflicting accesses:\n")
			for _, a := range block.Accesses {
				fmt.Fprintf(w, "    %s 0x%x by instruction 0x%x at %s\n",
					a.Kind, uint64(a.Addr), uint64(a.Instr), a.Location)
			}
		}
	}

	fmt.Fprintf(w, "==================\n")
}

// String returns the formatted report.
func (r *Report) String() string {
	var b strings.Builder
	r.Format(&b)
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
