package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// EmbeddingMetadata records what a paper looked like when it was embedded.
type EmbeddingMetadata struct {
	PaperID     string
	ModelName   string
	IndexedAt   int64  // Unix timestamp
	ContentHash string // paper.Paper.ContentHash at indexing time
}

// SaveEmbeddingMetadata saves or updates embedding metadata in one transaction.
func (d *DB) SaveEmbeddingMetadata(metas ...EmbeddingMetadata) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO embedding_metadata (paper_id, model_name, indexed_at, content_hash)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing metadata insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range metas {
		if _, err := stmt.Exec(m.PaperID, m.ModelName, m.IndexedAt, m.ContentHash); err != nil {
			return fmt.Errorf("saving metadata for %s: %w", m.PaperID, err)
		}
	}
	return tx.Commit()
}

// GetEmbeddingMetadata retrieves embedding metadata for a paper.
// It returns nil, nil when the paper has none.
func (d *DB) GetEmbeddingMetadata(paperID string) (*EmbeddingMetadata, error) {
	var meta EmbeddingMetadata
	err := d.db.QueryRow(`
		SELECT paper_id, model_name, indexed_at, content_hash
		FROM embedding_metadata
		WHERE paper_id = ?
	`, paperID).Scan(&meta.PaperID, &meta.ModelName, &meta.IndexedAt, &meta.ContentHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &meta, nil
}

// ListEmbeddingMetadata returns all embedding metadata keyed by paper ID.
func (d *DB) ListEmbeddingMetadata() (map[string]EmbeddingMetadata, error) {
	rows, err := d.db.Query(`SELECT paper_id, model_name, indexed_at, content_hash FROM embedding_metadata`)
	if err != nil {
		return nil, fmt.Errorf("listing embedding metadata: %w", err)
	}
	defer rows.Close()

	out := make(map[string]EmbeddingMetadata)
	for rows.Next() {
		var m EmbeddingMetadata
		if err := rows.Scan(&m.PaperID, &m.ModelName, &m.IndexedAt, &m.ContentHash); err != nil {
			return nil, err
		}
		out[m.PaperID] = m
	}
	return out, rows.Err()
}

// ClearEmbeddingMetadata removes all embedding metadata.
func (d *DB) ClearEmbeddingMetadata() error {
	_, err := d.db.Exec("DELETE FROM embedding_metadata")
	return err
}

// CountEmbeddingMetadata returns the number of papers with embedding metadata.
func (d *DB) CountEmbeddingMetadata() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM embedding_metadata").Scan(&count)
	return count, err
}
