package semantic

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/arxivindex/internal/idmap"
	"github.com/matsen/arxivindex/internal/paper"
	"github.com/matsen/arxivindex/internal/vectorindex"
)

// Snapshot file names inside an index directory.
const (
	TitleIndexFile    = "title.bin"
	AbstractIndexFile = "abstract.bin"
	IDMapFile         = "id_map.json"
	MetaFile          = "meta.json"
)

// CurrentIndexVersion is the snapshot format version.
// Increment this when the on-disk layout changes.
const CurrentIndexVersion = 1

// Meta is the content of meta.json. It is written last and marks a
// complete snapshot.
type Meta struct {
	Version            int       `json:"version"`
	ModelName          string    `json:"model_name"`
	Papers             int       `json:"papers"`
	TitleDimensions    int       `json:"title_dimensions"`
	AbstractDimensions int       `json:"abstract_dimensions"`
	CreatedAt          time.Time `json:"created_at"`
}

func indexFile(f paper.Field) string {
	if f == paper.FieldTitle {
		return TitleIndexFile
	}
	return AbstractIndexFile
}

// Save writes both field indices, the identifier map and meta.json to dir.
// The previous meta.json is removed first and the new one is written last,
// each file through a temp file and rename. The in-memory state is not modified.
func (m *Manager) Save(dir string) error {
	if err := m.checkLockstep(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: creating index directory: %w", ErrPersistence, err)
	}
	// Without meta.json a partially rewritten directory reads as ErrIndexNotFound.
	if err := os.Remove(filepath.Join(dir, MetaFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: removing previous meta: %w", ErrPersistence, err)
	}

	for _, f := range paper.Fields {
		data, err := m.indices[f].MarshalBinary()
		if err != nil {
			return fmt.Errorf("%w: encoding %s index: %w", ErrPersistence, f, err)
		}
		if err := writeFileAtomic(filepath.Join(dir, indexFile(f)), data); err != nil {
			return err
		}
	}

	idData, err := json.MarshalIndent(m.ids.Forward(), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding identifier map: %w", ErrPersistence, err)
	}
	if err := writeFileAtomic(filepath.Join(dir, IDMapFile), idData); err != nil {
		return err
	}

	meta := Meta{
		Version:            CurrentIndexVersion,
		ModelName:          m.modelName,
		Papers:             m.ids.Len(),
		TitleDimensions:    m.indices[paper.FieldTitle].Dimension(),
		AbstractDimensions: m.indices[paper.FieldAbstract].Dimension(),
		CreatedAt:          m.createdAt.UTC(),
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding meta: %w", ErrPersistence, err)
	}
	if err := writeFileAtomic(filepath.Join(dir, MetaFile), metaData); err != nil {
		return err
	}

	m.logger.Debug("index saved", zap.String("dir", dir), zap.Int("papers", meta.Papers))
	return nil
}

// Load replaces the manager's state with the snapshot in dir. On error the
// current state is kept.
func (m *Manager) Load(dir string) error {
	meta, err := ReadMeta(dir)
	if err != nil {
		return err
	}
	if m.provider != nil && meta.ModelName != "" && meta.ModelName != m.provider.ModelName() {
		return fmt.Errorf("%w: index built with %q, provider uses %q (rebuild with 'axi index build')",
			ErrModelMismatch, meta.ModelName, m.provider.ModelName())
	}

	indices := make(map[paper.Field]vectorindex.Index, len(paper.Fields))
	for _, f := range paper.Fields {
		data, err := os.ReadFile(filepath.Join(dir, indexFile(f)))
		if err != nil {
			return fmt.Errorf("%w: reading %s index: %w", ErrPersistence, f, err)
		}
		idx := m.newIndex()
		if err := idx.UnmarshalBinary(data); err != nil {
			return fmt.Errorf("%w: decoding %s index: %w", ErrInconsistentSnapshot, f, err)
		}
		indices[f] = idx
	}

	idData, err := os.ReadFile(filepath.Join(dir, IDMapFile))
	if err != nil {
		return fmt.Errorf("%w: reading identifier map: %w", ErrPersistence, err)
	}
	var forward map[string]int
	if err := json.Unmarshal(idData, &forward); err != nil {
		return fmt.Errorf("%w: decoding identifier map: %w", ErrInconsistentSnapshot, err)
	}
	ids, err := idmap.FromForward(forward)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInconsistentSnapshot, err)
	}

	for _, f := range paper.Fields {
		if got := indices[f].Len(); got != ids.Len() {
			return fmt.Errorf("%w: %s index has %d rows, identifier map has %d",
				ErrInconsistentSnapshot, f, got, ids.Len())
		}
	}
	if meta.Papers != ids.Len() {
		return fmt.Errorf("%w: meta lists %d papers, identifier map has %d",
			ErrInconsistentSnapshot, meta.Papers, ids.Len())
	}

	m.indices = indices
	m.ids = ids
	m.modelName = meta.ModelName
	m.createdAt = meta.CreatedAt
	m.logger.Debug("index loaded", zap.String("dir", dir), zap.Int("papers", ids.Len()))
	return nil
}

// ReadMeta reads meta.json from dir without loading the indices.
func ReadMeta(dir string) (*Meta, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetaFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("%w: reading meta: %w", ErrPersistence, err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: decoding meta: %w", ErrInconsistentSnapshot, err)
	}
	if meta.Version != CurrentIndexVersion {
		return nil, fmt.Errorf("%w: got %d, want %d (rebuild with 'axi index build')",
			ErrUnsupportedVersion, meta.Version, CurrentIndexVersion)
	}
	return &meta, nil
}

// Exists checks if a complete snapshot exists in dir.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, MetaFile))
	return err == nil
}

// IndexSize returns the total size in bytes of the snapshot files in dir.
func IndexSize(dir string) (int64, error) {
	var total int64
	for _, name := range []string{TitleIndexFile, AbstractIndexFile, IDMapFile, MetaFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

func writeFileAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: writing %s: %w", ErrPersistence, filepath.Base(path), err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: renaming %s: %w", ErrPersistence, filepath.Base(path), err)
	}
	return nil
}
