package semantic

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/arxivindex/internal/embedding"
	"github.com/matsen/arxivindex/internal/idmap"
	"github.com/matsen/arxivindex/internal/paper"
	"github.com/matsen/arxivindex/internal/vectorindex"
)

// Manager owns one vector index per field and the identifier map that ties
// their rows to paper IDs. A paper occupies the same row in every field index.
//
// A Manager is not safe for concurrent use while Build or Load runs.
// Concurrent searches against a Manager that is no longer mutated are safe.
type Manager struct {
	provider embedding.Provider
	logger   *zap.Logger
	progress ProgressReporter
	newIndex vectorindex.Factory

	indices   map[paper.Field]vectorindex.Index
	ids       *idmap.Map
	modelName string
	createdAt time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for skipped papers and dropped rows.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithProgressReporter sets the progress reporter used by Build.
func WithProgressReporter(r ProgressReporter) Option {
	return func(m *Manager) {
		m.progress = r
	}
}

// WithIndexFactory selects the nearest-neighbor backend.
func WithIndexFactory(f vectorindex.Factory) Option {
	return func(m *Manager) {
		if f != nil {
			m.newIndex = f
		}
	}
}

// NewManager creates a Manager with empty, uninitialized indices.
// provider may be nil when only FindSimilar is needed.
func NewManager(provider embedding.Provider, opts ...Option) *Manager {
	m := &Manager{
		provider: provider,
		logger:   zap.NewNop(),
		newIndex: vectorindex.NewFlatIndex,
	}
	for _, opt := range opts {
		opt(m)
	}
	if provider != nil {
		m.modelName = provider.ModelName()
	}
	m.reset()
	return m
}

func (m *Manager) reset() {
	m.indices = make(map[paper.Field]vectorindex.Index, len(paper.Fields))
	for _, f := range paper.Fields {
		m.indices[f] = m.newIndex()
	}
	m.ids = idmap.New()
	m.createdAt = time.Now()
}

// index returns the vector index for field.
func (m *Manager) index(field paper.Field) (vectorindex.Index, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: %q (valid: title, abstract)", ErrInvalidField, field)
	}
	return m.indices[field], nil
}

// Len returns the number of indexed papers.
func (m *Manager) Len() int {
	return m.ids.Len()
}

// HasPaper checks if a paper is in the index.
func (m *Manager) HasPaper(paperID string) bool {
	return m.ids.Contains(paperID)
}

// PaperIDs returns the indexed paper IDs in row order.
func (m *Manager) PaperIDs() []string {
	return m.ids.IDs()
}

// ModelName returns the embedding model the index was built with.
func (m *Manager) ModelName() string {
	return m.modelName
}

// Stats returns counts and dimensions of the current state.
func (m *Manager) Stats() Stats {
	return Stats{
		ModelName:          m.modelName,
		Papers:             m.ids.Len(),
		TitleDimensions:    m.indices[paper.FieldTitle].Dimension(),
		AbstractDimensions: m.indices[paper.FieldAbstract].Dimension(),
		CreatedAt:          m.createdAt,
	}
}

// checkLockstep verifies every field index has exactly one row per mapped paper.
func (m *Manager) checkLockstep() error {
	want := m.ids.Len()
	for _, f := range paper.Fields {
		if got := m.indices[f].Len(); got != want {
			return fmt.Errorf("%w: %s index has %d rows, identifier map has %d", ErrLockstep, f, got, want)
		}
	}
	return nil
}
