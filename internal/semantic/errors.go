package semantic

import (
	"errors"

	"github.com/matsen/arxivindex/internal/idmap"
	"github.com/matsen/arxivindex/internal/vectorindex"
)

// Errors returned by semantic index operations.
var (
	ErrEmbeddingFailure     = errors.New("embedding failed")
	ErrInvalidField         = errors.New("invalid search field")
	ErrNoProvider           = errors.New("no embedding provider configured")
	ErrPaperNotIndexed      = errors.New("paper not in semantic index")
	ErrPersistence          = errors.New("index persistence failed")
	ErrIndexNotFound        = errors.New("semantic index not found")
	ErrUnsupportedVersion   = errors.New("unsupported index version")
	ErrInconsistentSnapshot = errors.New("index snapshot is inconsistent")
	ErrModelMismatch        = errors.New("embedding model differs from the index model")
	ErrLockstep             = errors.New("field indices out of lockstep")
)

// Errors shared with the index and identifier map packages.
var (
	ErrIndexNotReady       = vectorindex.ErrNotReady
	ErrDimensionMismatch   = vectorindex.ErrDimensionMismatch
	ErrInvalidK            = vectorindex.ErrInvalidK
	ErrDuplicateIdentifier = idmap.ErrDuplicateID
	ErrUnknownRow          = idmap.ErrUnknownRow
	ErrUnknownID           = idmap.ErrUnknownID
)
