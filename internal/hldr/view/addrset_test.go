package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressSetIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b AddressSet
		want AddressSet
	}{
		{
			name: "disjoint",
			a:    NewAddressSet(0x10),
			b:    NewAddressSet(0x20),
			want: NewAddressSet(),
		},
		{
			name: "overlap",
			a:    NewAddressSet(0x10, 0x20, 0x30),
			b:    NewAddressSet(0x20, 0x30, 0x40),
			want: NewAddressSet(0x20, 0x30),
		},
		{
			name: "subset",
			a:    NewAddressSet(0x10),
			b:    NewAddressSet(0x10, 0x20),
			want: NewAddressSet(0x10),
		},
		{
			name: "empty operand",
			a:    NewAddressSet(),
			b:    NewAddressSet(0x10),
			want: NewAddressSet(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Intersect(tt.b)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)

			// Intersection is symmetric.
			rev := tt.b.Intersect(tt.a)
			assert.True(t, rev.Equal(tt.want), "reversed: got %s, want %s", rev, tt.want)
		})
	}
}

func TestAddressSetSubsetOf(t *testing.T) {
	tests := []struct {
		name string
		a, b AddressSet
		want bool
	}{
		{name: "empty of anything", a: NewAddressSet(), b: NewAddressSet(0x10), want: true},
		{name: "proper subset", a: NewAddressSet(0x10), b: NewAddressSet(0x10, 0x20), want: true},
		{name: "equal sets", a: NewAddressSet(0x10), b: NewAddressSet(0x10), want: true},
		{name: "superset", a: NewAddressSet(0x10, 0x20), b: NewAddressSet(0x10), want: false},
		{name: "disjoint", a: NewAddressSet(0x10), b: NewAddressSet(0x20), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.SubsetOf(tt.b))
		})
	}
}

func TestAddressSetEqual(t *testing.T) {
	assert.True(t, NewAddressSet(0x10, 0x20).Equal(NewAddressSet(0x20, 0x10)))
	assert.False(t, NewAddressSet(0x10).Equal(NewAddressSet(0x10, 0x20)))
	assert.True(t, NewAddressSet().Equal(NewAddressSet()))
}

func TestAddressSetUnion(t *testing.T) {
	got := NewAddressSet(0x10).Union(NewAddressSet(0x20, 0x10))
	assert.True(t, got.Equal(NewAddressSet(0x10, 0x20)), "got %s", got)
}

func TestAddressSetSortedAndString(t *testing.T) {
	s := NewAddressSet(0x30, 0x10, 0x20)
	assert.Equal(t, []Address{0x10, 0x20, 0x30}, s.Sorted())
	assert.Equal(t, "{0x10, 0x20, 0x30}", s.String())
	assert.Equal(t, "{}", NewAddressSet().String())
}
