package semantic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/arxivindex/internal/embedding"
	"github.com/matsen/arxivindex/internal/paper"
	"github.com/matsen/arxivindex/internal/vectorindex"
)

// Build embeds and indexes papers in the order given. Papers that cannot be
// indexed are skipped with a typed Outcome and the build continues. Build
// only returns an error when it cannot continue at all: no provider,
// cancellation, or a broken lockstep invariant.
func (m *Manager) Build(ctx context.Context, papers []paper.Paper) (*BuildReport, error) {
	if m.provider == nil {
		return nil, ErrNoProvider
	}
	startTime := time.Now()
	report := &BuildReport{}
	total := len(papers)

	for i, p := range papers {
		// Check for cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		outcome, err := m.add(ctx, p)
		if err != nil {
			return nil, err
		}
		if !outcome.Indexed() {
			m.logger.Warn("skipping paper",
				zap.String("id", p.ID),
				zap.String("reason", string(outcome.Skipped)),
				zap.Error(outcome.Err),
			)
		}
		report.record(outcome)

		if m.progress != nil {
			m.progress.OnProgress(i+1, total)
		}
	}

	report.Duration = time.Since(startTime)
	m.logger.Debug("build finished",
		zap.Int("processed", report.Processed),
		zap.Int("indexed", report.Indexed),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// add indexes one paper. Per-paper problems come back as a skipped Outcome;
// the error return is reserved for failures that must stop the build.
func (m *Manager) add(ctx context.Context, p paper.Paper) (Outcome, error) {
	skip := func(reason SkipReason, err error) (Outcome, error) {
		return Outcome{PaperID: p.ID, Row: -1, Skipped: reason, Err: err}, nil
	}

	if p.ID == "" {
		return skip(SkipMissingID, errors.New("paper has no ID"))
	}
	if m.ids.Contains(p.ID) {
		return skip(SkipDuplicateID, fmt.Errorf("%w: %s", ErrDuplicateIdentifier, p.ID))
	}
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Abstract) == "" {
		return skip(SkipEmptyText, errors.New("title or abstract is empty"))
	}

	vecs, err := m.embedFields(ctx, p)
	if err != nil {
		return skip(SkipEmbeddingFailed, err)
	}

	// Validate every field before touching any index.
	for _, f := range paper.Fields {
		if err := checkDimension(m.indices[f], vecs[f]); err != nil {
			return skip(SkipDimensionMismatch, fmt.Errorf("%s: %w", f, err))
		}
	}
	for _, f := range paper.Fields {
		if err := m.indices[f].Init(len(vecs[f])); err != nil {
			return skip(SkipDimensionMismatch, fmt.Errorf("%s: %w", f, err))
		}
	}

	want := m.ids.Len()
	var added []paper.Field
	for _, f := range paper.Fields {
		row, err := m.indices[f].Add(vecs[f])
		if err != nil {
			if rbErr := m.rollback(added, want); rbErr != nil {
				return Outcome{}, rbErr
			}
			return skip(SkipInsertFailed, fmt.Errorf("%s: %w", f, err))
		}
		added = append(added, f)
		if row != want {
			_ = m.rollback(added, want)
			return Outcome{}, fmt.Errorf("%w: %s row %d, expected %d", ErrLockstep, f, row, want)
		}
	}

	row, err := m.ids.Assign(p.ID)
	if err != nil {
		if rbErr := m.rollback(added, want); rbErr != nil {
			return Outcome{}, rbErr
		}
		return skip(SkipDuplicateID, err)
	}
	return Outcome{PaperID: p.ID, Row: row}, nil
}

// rollback truncates the given field indices back to n rows.
func (m *Manager) rollback(fields []paper.Field, n int) error {
	for _, f := range fields {
		if err := m.indices[f].Truncate(n); err != nil {
			return fmt.Errorf("%w: rolling back %s: %v", ErrLockstep, f, err)
		}
	}
	return nil
}

// embedFields embeds title and abstract, in one request when the provider batches.
func (m *Manager) embedFields(ctx context.Context, p paper.Paper) (map[paper.Field][]float32, error) {
	texts := make([]string, len(paper.Fields))
	for i, f := range paper.Fields {
		texts[i] = p.Text(f)
	}

	vecs := make(map[paper.Field][]float32, len(paper.Fields))
	if bp, ok := m.provider.(embedding.BatchProvider); ok {
		embs, err := bp.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailure, err)
		}
		if len(embs) != len(texts) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrEmbeddingFailure, len(embs), len(texts))
		}
		for i, f := range paper.Fields {
			vecs[f] = embs[i].Vector
		}
		return vecs, nil
	}

	for i, f := range paper.Fields {
		emb, err := m.provider.Embed(ctx, texts[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrEmbeddingFailure, f, err)
		}
		vecs[f] = emb.Vector
	}
	return vecs, nil
}

// checkDimension reports whether vec can be appended to idx, establishing
// the dimension if idx is still uninitialized.
func checkDimension(idx vectorindex.Index, vec []float32) error {
	dim := idx.Dimension()
	if dim == 0 {
		if len(vec) == 0 {
			return fmt.Errorf("%w: empty vector", vectorindex.ErrInvalidDimension)
		}
		return nil
	}
	if len(vec) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), dim)
	}
	return nil
}
