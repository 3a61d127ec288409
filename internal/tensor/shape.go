package tensor

import (
	"slices"
	"strconv"
	"strings"
)

// Shape is {n} for a vector of dimension n and {m, n} for an m x n matrix.
type Shape []int

// NumElements returns the product of the dimensions (1 for an empty shape).
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Equal reports whether both shapes have the same dimensions.
func (s Shape) Equal(other Shape) bool { return slices.Equal(s, other) }

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape { return slices.Clone(s) }

// String formats the shape as "4" or "3x2".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, dim := range s {
		parts[i] = strconv.Itoa(dim)
	}
	return strings.Join(parts, "x")
}
