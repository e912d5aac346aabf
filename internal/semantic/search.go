package semantic

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/arxivindex/internal/paper"
	"github.com/matsen/arxivindex/internal/vectorindex"
)

// Search returns the IDs of the k papers whose field embedding is closest to
// the embedding of query, nearest first.
func (m *Manager) Search(ctx context.Context, query string, field paper.Field, k int) ([]string, error) {
	results, err := m.SearchResults(ctx, query, field, k)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.PaperID
	}
	return ids, nil
}

// SearchResults is Search with the Euclidean distance of each hit.
func (m *Manager) SearchResults(ctx context.Context, query string, field paper.Field, k int) ([]Result, error) {
	idx, err := m.ready(field, k)
	if err != nil {
		return nil, err
	}
	if m.provider == nil {
		return nil, ErrNoProvider
	}

	emb, err := m.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrEmbeddingFailure, err)
	}

	neighbors, err := idx.Search(emb.Vector, k)
	if err != nil {
		return nil, fmt.Errorf("searching %s index: %w", field, err)
	}
	return m.resolve(field, neighbors), nil
}

// FindSimilar finds papers whose field embedding is closest to that of
// paperID. The source paper is excluded from results.
func (m *Manager) FindSimilar(paperID string, field paper.Field, k int) ([]Result, error) {
	idx, err := m.ready(field, k)
	if err != nil {
		return nil, err
	}

	row, err := m.ids.LookupRow(paperID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaperNotIndexed, err)
	}
	vec, err := idx.Vector(row)
	if err != nil {
		return nil, fmt.Errorf("reading %s vector for %s: %w", field, paperID, err)
	}

	k = min(k, idx.Len())

	// One extra neighbor because the source paper is its own nearest hit.
	neighbors, err := idx.Search(vec, k+1)
	if err != nil {
		return nil, fmt.Errorf("searching %s index: %w", field, err)
	}

	results := make([]Result, 0, k)
	for _, r := range m.resolve(field, neighbors) {
		if r.PaperID == paperID {
			continue
		}
		results = append(results, r)
	}
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// ready validates a query against field and returns its index.
func (m *Manager) ready(field paper.Field, k int) (vectorindex.Index, error) {
	idx, err := m.index(field)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	if idx.Dimension() == 0 || idx.Len() == 0 {
		return nil, fmt.Errorf("%w: %s index has no rows", ErrIndexNotReady, field)
	}
	return idx, nil
}

// resolve maps neighbor rows to paper IDs. Rows without a mapping are
// dropped with a warning.
func (m *Manager) resolve(field paper.Field, neighbors []vectorindex.Neighbor) []Result {
	results := make([]Result, 0, len(neighbors))
	for _, n := range neighbors {
		id, err := m.ids.LookupID(n.Row)
		if err != nil {
			if !errors.Is(err, ErrUnknownRow) {
				m.logger.Error("row lookup failed", zap.Int("row", n.Row), zap.Error(err))
			}
			m.logger.Warn("dropping unmapped row",
				zap.String("field", string(field)),
				zap.Int("row", n.Row),
			)
			continue
		}
		results = append(results, Result{PaperID: id, Distance: n.Distance})
	}
	return results
}
