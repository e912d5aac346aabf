package semantic

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matsen/arxivindex/internal/paper"
)

func threePapers() []paper.Paper {
	return []paper.Paper{
		{ID: "a1", Title: "T1", Abstract: "A1"},
		{ID: "a2", Title: "T2", Abstract: "A2"},
		{ID: "a3", Title: "T3", Abstract: "A3"},
	}
}

func buildThree(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m := NewManager(newFakeProvider(), opts...)
	report, err := m.Build(context.Background(), threePapers())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if report.Indexed != 3 {
		t.Fatalf("Build() indexed %d, want 3", report.Indexed)
	}
	return m
}

func TestBuild_ThreePapers(t *testing.T) {
	m := buildThree(t)

	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
	for i, id := range []string{"a1", "a2", "a3"} {
		row, err := m.ids.LookupRow(id)
		if err != nil {
			t.Fatalf("LookupRow(%q) error = %v", id, err)
		}
		if row != i {
			t.Errorf("LookupRow(%q) = %d, want %d", id, row, i)
		}
	}
	for _, f := range paper.Fields {
		if got := m.indices[f].Len(); got != 3 {
			t.Errorf("%s index has %d rows, want 3", f, got)
		}
		if got := m.indices[f].Dimension(); got != fakeDim {
			t.Errorf("%s dimension = %d, want %d", f, got, fakeDim)
		}
	}
	stats := m.Stats()
	if stats.ModelName != "fake-model" || stats.Papers != 3 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestBuild_SecondAssignRejected(t *testing.T) {
	m := buildThree(t)

	_, err := m.ids.Assign("a1")
	if !errors.Is(err, ErrDuplicateIdentifier) {
		t.Fatalf("Assign(a1) error = %v, want ErrDuplicateIdentifier", err)
	}
	row, err := m.ids.LookupRow("a1")
	if err != nil || row != 0 {
		t.Errorf("a1 mapping = %d, %v; want 0, nil", row, err)
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}

func TestBuild_Skips(t *testing.T) {
	provider := newFakeProvider()
	provider.fail = map[string]bool{"bad title": true}
	provider.vectors = map[string][]float32{
		"short": {1, 2, 3},
	}

	papers := []paper.Paper{
		{ID: "a1", Title: "T1", Abstract: "A1"},
		{ID: "", Title: "no id", Abstract: "x"},
		{ID: "a2", Title: "bad title", Abstract: "A2"},
		{ID: "a1", Title: "T1 again", Abstract: "A1 again"},
		{ID: "a3", Title: "   ", Abstract: "A3"},
		{ID: "a4", Title: "T4", Abstract: "short"},
		{ID: "a5", Title: "T5", Abstract: "A5"},
	}

	m := NewManager(provider)
	report, err := m.Build(context.Background(), papers)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	wantSkipped := []SkipReason{"", SkipMissingID, SkipEmbeddingFailed, SkipDuplicateID, SkipEmptyText, SkipDimensionMismatch, ""}
	if len(report.Outcomes) != len(wantSkipped) {
		t.Fatalf("got %d outcomes, want %d", len(report.Outcomes), len(wantSkipped))
	}
	for i, want := range wantSkipped {
		o := report.Outcomes[i]
		if o.Skipped != want {
			t.Errorf("outcome %d skipped = %q, want %q (err %v)", i, o.Skipped, want, o.Err)
		}
		if want != "" && o.Row != -1 {
			t.Errorf("outcome %d row = %d, want -1", i, o.Row)
		}
	}
	if !errors.Is(report.Outcomes[2].Err, ErrEmbeddingFailure) {
		t.Errorf("embedding skip error = %v, want ErrEmbeddingFailure", report.Outcomes[2].Err)
	}
	if !errors.Is(report.Outcomes[5].Err, ErrDimensionMismatch) {
		t.Errorf("dimension skip error = %v, want ErrDimensionMismatch", report.Outcomes[5].Err)
	}

	if report.Processed != 7 || report.Indexed != 2 || report.Skipped != 5 {
		t.Errorf("report counts = %d/%d/%d, want 7/2/5", report.Processed, report.Indexed, report.Skipped)
	}
	if report.SkippedByReason[SkipDuplicateID] != 1 {
		t.Errorf("SkippedByReason = %v", report.SkippedByReason)
	}

	if got := m.PaperIDs(); len(got) != 2 || got[0] != "a1" || got[1] != "a5" {
		t.Errorf("PaperIDs() = %v, want [a1 a5]", got)
	}
	if m.HasPaper("a2") {
		t.Error("failed paper a2 should not be mapped")
	}
	if err := m.checkLockstep(); err != nil {
		t.Errorf("checkLockstep() error = %v", err)
	}
}

func TestBuild_PartialFailureKeepsOthersSearchable(t *testing.T) {
	provider := newFakeProvider()
	provider.fail = map[string]bool{"A2": true}

	m := NewManager(provider)
	if _, err := m.Build(context.Background(), threePapers()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, tc := range []struct{ query, want string }{{"T1", "a1"}, {"T3", "a3"}} {
		ids, err := m.Search(context.Background(), tc.query, paper.FieldTitle, 1)
		if err != nil {
			t.Fatalf("Search(%q) error = %v", tc.query, err)
		}
		if len(ids) != 1 || ids[0] != tc.want {
			t.Errorf("Search(%q) = %v, want [%s]", tc.query, ids, tc.want)
		}
	}
	if m.HasPaper("a2") {
		t.Error("a2 should not be mapped")
	}
}

func TestBuild_RollsBackOnInsertFailure(t *testing.T) {
	m := NewManager(newFakeProvider(), WithIndexFactory(factoryFailingSecond(2)))

	report, err := m.Build(context.Background(), threePapers())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if report.Outcomes[1].Skipped != SkipInsertFailed {
		t.Errorf("a2 skipped = %q, want %q", report.Outcomes[1].Skipped, SkipInsertFailed)
	}
	if !errors.Is(report.Outcomes[1].Err, errFakeInsert) {
		t.Errorf("a2 error = %v, want errFakeInsert", report.Outcomes[1].Err)
	}
	for _, f := range paper.Fields {
		if got := m.indices[f].Len(); got != 2 {
			t.Errorf("%s index has %d rows, want 2", f, got)
		}
	}

	// a3 must land on row 1 of both indices.
	ids, err := m.Search(context.Background(), "T3", paper.FieldTitle, 1)
	if err != nil || len(ids) != 1 || ids[0] != "a3" {
		t.Errorf("title Search(T3) = %v, %v; want [a3]", ids, err)
	}
	ids, err = m.Search(context.Background(), "A3", paper.FieldAbstract, 1)
	if err != nil || len(ids) != 1 || ids[0] != "a3" {
		t.Errorf("abstract Search(A3) = %v, %v; want [a3]", ids, err)
	}
}

func TestBuild_UsesBatchProvider(t *testing.T) {
	provider := &fakeBatchProvider{fakeProvider: newFakeProvider()}
	m := NewManager(provider)

	if _, err := m.Build(context.Background(), threePapers()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if provider.batches != 3 {
		t.Errorf("EmbedBatch called %d times, want 3", provider.batches)
	}
}

func TestBuild_NoProvider(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Build(context.Background(), threePapers())
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("Build() error = %v, want ErrNoProvider", err)
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewManager(newFakeProvider())
	_, err := m.Build(ctx, threePapers())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestBuild_LogsSkips(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := NewManager(newFakeProvider(), WithLogger(zap.New(core)))

	papers := append(threePapers(), paper.Paper{ID: "a1", Title: "dup", Abstract: "dup"})
	if _, err := m.Build(context.Background(), papers); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	entries := logs.FilterMessage("skipping paper").All()
	if len(entries) != 1 {
		t.Fatalf("got %d skip warnings, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["id"] != "a1" || fields["reason"] != string(SkipDuplicateID) {
		t.Errorf("warning fields = %v", fields)
	}
}

func TestBuild_ReportsProgress(t *testing.T) {
	var calls [][2]int
	progress := ProgressFunc(func(current, total int) {
		calls = append(calls, [2]int{current, total})
	})
	m := NewManager(newFakeProvider(), WithProgressReporter(progress))

	if _, err := m.Build(context.Background(), threePapers()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(calls) != 3 || calls[2] != [2]int{3, 3} {
		t.Errorf("progress calls = %v", calls)
	}
}
