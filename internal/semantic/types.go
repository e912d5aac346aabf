// Package semantic builds, persists, restores and queries the title and
// abstract embedding indices of a paper collection.
package semantic

import "time"

// SkipReason explains why a paper was left out of the index.
type SkipReason string

const (
	SkipMissingID         SkipReason = "missing_id"
	SkipDuplicateID       SkipReason = "duplicate_id"
	SkipEmptyText         SkipReason = "empty_text"
	SkipEmbeddingFailed   SkipReason = "embedding_failed"
	SkipDimensionMismatch SkipReason = "dimension_mismatch"
	SkipInsertFailed      SkipReason = "insert_failed"
)

// Outcome is the per-paper result of a build.
type Outcome struct {
	PaperID string     `json:"id"`
	Row     int        `json:"row"`               // -1 when skipped
	Skipped SkipReason `json:"skipped,omitempty"` // empty when indexed
	Err     error      `json:"-"`
}

// Indexed reports whether the paper was committed to both indices.
func (o Outcome) Indexed() bool {
	return o.Skipped == ""
}

// BuildReport aggregates the outcomes of one Build call.
type BuildReport struct {
	Processed       int                `json:"processed"`
	Indexed         int                `json:"indexed"`
	Skipped         int                `json:"skipped"`
	SkippedByReason map[SkipReason]int `json:"skipped_by_reason,omitempty"`
	Outcomes        []Outcome          `json:"-"`
	Duration        time.Duration      `json:"duration"`
}

func (r *BuildReport) record(o Outcome) {
	r.Processed++
	r.Outcomes = append(r.Outcomes, o)
	if o.Indexed() {
		r.Indexed++
		return
	}
	r.Skipped++
	if r.SkippedByReason == nil {
		r.SkippedByReason = make(map[SkipReason]int)
	}
	r.SkippedByReason[o.Skipped]++
}

// Result represents a paper found by semantic search.
type Result struct {
	PaperID  string  `json:"id"`
	Distance float32 `json:"distance"`
}

// Stats describes the current state of a Manager.
type Stats struct {
	ModelName          string    `json:"model_name"`
	Papers             int       `json:"papers"`
	TitleDimensions    int       `json:"title_dimensions"`
	AbstractDimensions int       `json:"abstract_dimensions"`
	CreatedAt          time.Time `json:"created_at"`
}

// ProgressReporter receives progress updates during index building.
type ProgressReporter interface {
	// OnProgress is called with the current progress.
	OnProgress(current, total int)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(current, total int)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(current, total int) {
	f(current, total)
}
