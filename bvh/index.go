package bvh

import (
	"golang.org/x/exp/constraints"
)

// IndexBuffer holds vertex index triples. Its element width is the smallest
// of 16 or 32 bits that can address every vertex of the mesh.
type IndexBuffer interface {
	// Number of indices (3 per triangle).
	Len() int

	// Get the index at position i.
	At(i int) uint32

	// Element width in bytes.
	Width() int

	// Copy the contents into a new uint32 slice.
	Uint32() []uint32

	set(i int, v uint32)
}

type indexSlice[T constraints.Unsigned] []T

func (s indexSlice[T]) Len() int            { return len(s) }
func (s indexSlice[T]) At(i int) uint32     { return uint32(s[i]) }
func (s indexSlice[T]) set(i int, v uint32) { s[i] = T(v) }

func (s indexSlice[T]) Width() int {
	var zero T
	switch any(zero).(type) {
	case uint16:
		return 2
	case uint8:
		return 1
	case uint64, uint:
		return 8
	}
	return 4
}

func (s indexSlice[T]) Uint32() []uint32 {
	out := make([]uint32, len(s))
	for i, v := range s {
		out[i] = uint32(v)
	}
	return out
}

func newIndexBuffer(vertexCount, length int) IndexBuffer {
	if vertexCount < 1<<16 {
		return make(indexSlice[uint16], length)
	}
	return make(indexSlice[uint32], length)
}

// Create an index buffer sized for vertexCount vertices holding a copy of
// the supplied indices.
func NewIndexBuffer(vertexCount int, indices []uint32) IndexBuffer {
	buf := newIndexBuffer(vertexCount, len(indices))
	for i, v := range indices {
		buf.set(i, v)
	}
	return buf
}
