// Package vectorindex defines the nearest-neighbor backend used for one
// indexed field, and ships an exact flat L2 implementation.
package vectorindex

import (
	"encoding"
	"errors"
)

// Errors returned by vector index operations.
var (
	ErrNotReady          = errors.New("vector index not initialized")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrInvalidDimension  = errors.New("invalid vector dimension")
	ErrInvalidK          = errors.New("k must be positive")
	ErrRowOutOfRange     = errors.New("row out of range")
	ErrCorrupt           = errors.New("corrupt vector index data")
)

// Neighbor is one k-NN hit.
type Neighbor struct {
	Row      int     `json:"row"`
	Distance float32 `json:"distance"` // Euclidean (L2) distance to the query
}

// Index stores the vectors of one field and answers k-NN queries.
// Rows are assigned in insertion order starting at 0 and are never reused.
type Index interface {
	// Init fixes the dimension. Calling it again with the same dimension is a
	// no-op; a different dimension fails with ErrDimensionMismatch.
	Init(dim int) error

	// Dimension returns the established dimension, or 0 before Init.
	Dimension() int

	// Len returns the number of stored rows.
	Len() int

	// Add appends a vector and returns its row.
	// A failed Add leaves the index unchanged.
	Add(vec []float32) (int, error)

	// Search returns up to k neighbors ordered by ascending distance.
	Search(query []float32, k int) ([]Neighbor, error)

	// Vector returns a copy of the vector stored at row.
	Vector(row int) ([]float32, error)

	// Truncate drops every row >= n. It exists to undo a partial lockstep
	// append and is not a general delete.
	Truncate(n int) error

	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// Factory creates an empty, uninitialized Index.
type Factory func() Index

// NewFlatIndex is the default Factory.
func NewFlatIndex() Index {
	return NewFlat()
}
