package vectorindex

import (
	"container/heap"
	"fmt"
	"math"
)

// Flat is an exact index that scans every row and ranks by L2 distance.
// Vectors are kept in one row-major slice.
type Flat struct {
	dim  int
	rows int
	data []float32
}

// NewFlat creates an uninitialized flat index.
func NewFlat() *Flat {
	return &Flat{}
}

// Init implements Index.
func (f *Flat) Init(dim int) error {
	if dim <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	if f.dim == 0 {
		f.dim = dim
		return nil
	}
	if f.dim != dim {
		return fmt.Errorf("%w: index initialized with %d, got %d", ErrDimensionMismatch, f.dim, dim)
	}
	return nil
}

// Dimension implements Index.
func (f *Flat) Dimension() int { return f.dim }

// Len implements Index.
func (f *Flat) Len() int { return f.rows }

// Add implements Index.
func (f *Flat) Add(vec []float32) (int, error) {
	if f.dim == 0 {
		return 0, ErrNotReady
	}
	if len(vec) != f.dim {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), f.dim)
	}
	f.data = append(f.data, vec...)
	row := f.rows
	f.rows++
	return row, nil
}

// Search implements Index.
func (f *Flat) Search(query []float32, k int) ([]Neighbor, error) {
	if f.dim == 0 {
		return nil, ErrNotReady
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), f.dim)
	}

	pq := make(candidateQueue, 0, min(k, f.rows)+1)
	for row := 0; row < f.rows; row++ {
		pq.pushWithLimit(candidate{row: row, dist: squaredL2(query, f.row(row))}, k)
	}

	results := make([]Neighbor, pq.Len())
	for i := len(results) - 1; i >= 0; i-- {
		c := heap.Pop(&pq).(candidate)
		results[i] = Neighbor{Row: c.row, Distance: float32(math.Sqrt(c.dist))}
	}
	return results, nil
}

// Vector implements Index.
func (f *Flat) Vector(row int) ([]float32, error) {
	if row < 0 || row >= f.rows {
		return nil, fmt.Errorf("%w: %d (rows: %d)", ErrRowOutOfRange, row, f.rows)
	}
	out := make([]float32, f.dim)
	copy(out, f.row(row))
	return out, nil
}

// Truncate implements Index.
func (f *Flat) Truncate(n int) error {
	if n < 0 || n > f.rows {
		return fmt.Errorf("%w: truncate to %d (rows: %d)", ErrRowOutOfRange, n, f.rows)
	}
	f.rows = n
	f.data = f.data[:n*f.dim]
	return nil
}

func (f *Flat) row(i int) []float32 {
	return f.data[i*f.dim : (i+1)*f.dim]
}

func squaredL2(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return s
}
