package view

import (
	"fmt"
	"slices"
	"strings"
)

// Address identifies one memory location touched inside an atomic region.
// Values come from the instrumentation engine and are opaque to the
// detector; only equality matters.
type Address uint64

// InstructionID identifies the instruction that performed an access. It is
// assigned by the instrumentation engine and used only for reporting.
type InstructionID uint64

// AddressSet is a set of accessed addresses. The chain check works entirely
// in terms of intersections and subset tests over these sets.
//
// An AddressSet owned by a Building view is mutated only by the owning
// thread; once the view freezes the set is read-only and safe to share
// without synchronization.
type AddressSet map[Address]struct{}

// NewAddressSet returns a set containing the given addresses.
func NewAddressSet(addrs ...Address) AddressSet {
	s := make(AddressSet, len(addrs))
	for _, a := range addrs {
		s[a] = struct{}{}
	}
	return s
}

// Add inserts addr into the set.
func (s AddressSet) Add(addr Address) { s[addr] = struct{}{} }

// Contains reports whether addr is in the set.
func (s AddressSet) Contains(addr Address) bool {
	_, ok := s[addr]
	return ok
}

// Len returns the number of addresses in the set.
func (s AddressSet) Len() int { return len(s) }

// Empty reports whether the set has no addresses.
func (s AddressSet) Empty() bool { return len(s) == 0 }

// Intersect returns a new set with the addresses present in both s and
// other. It always iterates the smaller operand.
func (s AddressSet) Intersect(other AddressSet) AddressSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(AddressSet)
	for a := range small {
		if _, ok := large[a]; ok {
			out[a] = struct{}{}
		}
	}
	return out
}

// SubsetOf reports whether every address in s is also in other.
func (s AddressSet) SubsetOf(other AddressSet) bool {
	if len(s) > len(other) {
		return false
	}
	for a := range s {
		if _, ok := other[a]; !ok {
			return false
		}
	}
	return true
}

// Equal reports whether s and other contain exactly the same addresses.
func (s AddressSet) Equal(other AddressSet) bool {
	return len(s) == len(other) && s.SubsetOf(other)
}

// Union returns a new set with the addresses present in either operand.
func (s AddressSet) Union(other AddressSet) AddressSet {
	out := make(AddressSet, len(s)+len(other))
	for a := range s {
		out[a] = struct{}{}
	}
	for a := range other {
		out[a] = struct{}{}
	}
	return out
}

// Sorted returns the addresses in ascending order. Reports and dumps go
// through Sorted so their output is deterministic.
func (s AddressSet) Sorted() []Address {
	out := make([]Address, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// String formats the set as "{0x10, 0x20}" with addresses in ascending
// order.
func (s AddressSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, a := range s.Sorted() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "0x%x", uint64(a))
	}
	b.WriteByte('}')
	return b.String()
}
