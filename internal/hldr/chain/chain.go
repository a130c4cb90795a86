// Package chain implements the set-inclusion ("chain") test that decides
// whether a candidate view is apparently serializable against a window of
// another thread's recent views.
//
// For each view in the window the engine intersects one access set of the
// candidate with one access set of the window view, then requires the
// resulting sequence of sets to form a chain: every pair must be ordered by
// inclusion (equality counts as ordered). A pair of incomparable,
// non-equal sets witnesses a possible atomicity violation.
package chain

import (
	"github.com/kolkov/hldrdetector/internal/hldr/history"
	"github.com/kolkov/hldrdetector/internal/hldr/view"
)

// Accessor selects one of the two access sets of a view.
type Accessor uint8

const (
	// Reads selects the read set.
	Reads Accessor = iota
	// Writes selects the write set.
	Writes
)

// Of returns the selected access set of v.
func (a Accessor) Of(v *view.View) view.AddressSet {
	if a == Writes {
		return v.Writes()
	}
	return v.Reads()
}

// String returns "read" or "write".
func (a Accessor) String() string {
	if a == Writes {
		return "write"
	}
	return "read"
}

// Family is one candidate/history accessor pairing. Serializability can be
// broken by the candidate's writes conflicting with history writes or
// reads, or the candidate's reads conflicting with history writes;
// read/read never threatens it and has no family.
type Family struct {
	Candidate Accessor
	History   Accessor
}

// String formats the family as "write/read" (candidate/history).
func (f Family) String() string {
	return f.Candidate.String() + "/" + f.History.String()
}

// families lists the three accessor pairings in checking order.
var families = [3]Family{
	{Candidate: Writes, History: Writes},
	{Candidate: Writes, History: Reads},
	{Candidate: Reads, History: Writes},
}

// Violation describes the first chain break found for a candidate view.
//
// First and Last are the window views whose intersections with the
// candidate are incomparable; First is the newer of the two (lower window
// index). FirstSet and LastSet are those conflicting intersections.
type Violation struct {
	Family     Family
	FirstIndex int
	LastIndex  int
	FirstSet   view.AddressSet
	LastSet    view.AddressSet
	First      *view.View
	Last       *view.View
}

// Intersect computes, for each view u in the window (newest first), the
// intersection of the candidate's selected set with u's selected set.
func Intersect(candidate, hist Accessor, v *view.View, w history.Window) []view.AddressSet {
	out := make([]view.AddressSet, 0, w.Len())
	cset := candidate.Of(v)
	for i := 0; i < w.Len(); i++ {
		out = append(out, cset.Intersect(hist.Of(w.At(i))))
	}
	return out
}

// IsChain reports whether every pair of sets in the sequence is ordered by
// inclusion. Equal sets satisfy the chain. When the sequence is not a
// chain, the first violating pair by increasing (i, j) index order is
// returned.
//
// Empty and single-element sequences are trivially chains.
func IsChain(sets []view.AddressSet) (ok bool, first, last int) {
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			// One set includes the other exactly when their intersection
			// equals one of them; comparing sizes suffices for sets.
			n := sets[i].Intersect(sets[j]).Len()
			if n != sets[i].Len() && n != sets[j].Len() {
				return false, i, j
			}
		}
	}
	return true, 0, 0
}

// Check tests the candidate view v against the window w across the three
// accessor families, in order write/write, write/read, read/write, and
// returns the first violation found, or nil when every family forms a
// chain.
//
// Callers check w.Empty() first; on an empty window Check defensively
// reports no violation.
func Check(v *view.View, w history.Window) *Violation {
	if w.Empty() {
		return nil
	}
	for _, f := range families {
		sets := Intersect(f.Candidate, f.History, v, w)
		if ok, i, j := IsChain(sets); !ok {
			return &Violation{
				Family:     f,
				FirstIndex: i,
				LastIndex:  j,
				FirstSet:   sets[i],
				LastSet:    sets[j],
				First:      w.At(i),
				Last:       w.At(j),
			}
		}
	}
	return nil
}
