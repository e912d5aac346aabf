// Package idmap maintains the bijection between external paper IDs and the
// dense row positions shared by the per-field vector indices.
package idmap

import (
	"errors"
	"fmt"
	"sort"
)

// Errors returned by identifier map operations.
var (
	ErrDuplicateID = errors.New("paper ID already mapped")
	ErrEmptyID     = errors.New("paper ID is empty")
	ErrUnknownRow  = errors.New("row has no mapped paper ID")
	ErrUnknownID   = errors.New("paper ID is not mapped")
	ErrCorruptMap  = errors.New("identifier map is not a dense bijection")
)

// Map is a bidirectional paper ID <-> row mapping. Rows are assigned from a
// single counter starting at 0, so the rows in use are always 0..Len()-1.
type Map struct {
	toRow map[string]int
	toID  []string
}

// New creates an empty map.
func New() *Map {
	return &Map{toRow: make(map[string]int)}
}

// Assign maps id to the next row and returns that row.
// An already-mapped id fails with ErrDuplicateID and leaves the map unchanged.
func (m *Map) Assign(id string) (int, error) {
	if id == "" {
		return 0, ErrEmptyID
	}
	if row, exists := m.toRow[id]; exists {
		return 0, fmt.Errorf("%w: %s (row %d)", ErrDuplicateID, id, row)
	}
	row := len(m.toID)
	m.toRow[id] = row
	m.toID = append(m.toID, id)
	return row, nil
}

// LookupID returns the paper ID stored at row.
func (m *Map) LookupID(row int) (string, error) {
	if row < 0 || row >= len(m.toID) {
		return "", fmt.Errorf("%w: %d", ErrUnknownRow, row)
	}
	return m.toID[row], nil
}

// LookupRow returns the row assigned to id.
func (m *Map) LookupRow(id string) (int, error) {
	row, exists := m.toRow[id]
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	return row, nil
}

// Contains reports whether id is mapped.
func (m *Map) Contains(id string) bool {
	_, exists := m.toRow[id]
	return exists
}

// Len returns the number of mapped rows, which is also the next row to assign.
func (m *Map) Len() int {
	return len(m.toID)
}

// IDs returns the mapped paper IDs in row order.
func (m *Map) IDs() []string {
	return append([]string(nil), m.toID...)
}

// Forward returns a copy of the id -> row direction.
func (m *Map) Forward() map[string]int {
	out := make(map[string]int, len(m.toRow))
	for id, row := range m.toRow {
		out[id] = row
	}
	return out
}

// FromForward rebuilds a Map from its id -> row direction.
// The rows must be exactly 0..len(forward)-1, each used once.
func FromForward(forward map[string]int) (*Map, error) {
	m := &Map{
		toRow: make(map[string]int, len(forward)),
		toID:  make([]string, len(forward)),
	}

	// Sorted for deterministic error messages.
	ids := make([]string, 0, len(forward))
	for id := range forward {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		row := forward[id]
		if id == "" {
			return nil, fmt.Errorf("%w: empty paper ID at row %d", ErrCorruptMap, row)
		}
		if row < 0 || row >= len(forward) {
			return nil, fmt.Errorf("%w: row %d for %s outside 0..%d", ErrCorruptMap, row, id, len(forward)-1)
		}
		if prev := m.toID[row]; prev != "" {
			return nil, fmt.Errorf("%w: row %d claimed by both %s and %s", ErrCorruptMap, row, prev, id)
		}
		m.toID[row] = id
		m.toRow[id] = row
	}
	return m, nil
}
