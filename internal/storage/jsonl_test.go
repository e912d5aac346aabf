package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/arxivindex/internal/paper"
)

func TestReadAll_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papers.jsonl")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	papers, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(papers) != 0 {
		t.Errorf("ReadAll() returned %d papers, want 0", len(papers))
	}
}

func TestReadAll_NonExistentFile(t *testing.T) {
	papers, err := ReadAll("/nonexistent/path/papers.jsonl")
	if err != nil {
		t.Fatalf("ReadAll() error = %v (should return nil for nonexistent file)", err)
	}
	if len(papers) != 0 {
		t.Errorf("ReadAll() returned %v, want empty", papers)
	}
}

func TestReadAll_OriginalFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papers.jsonl")
	lines := `{"id":"2106.15928v2","title":"Paper A","abs":"Abstract A","authors":["Ann Author"],"cat":"cs.LG"}

{"id":"2107.00001v1","title":"Paper B","abs":"Abstract B"}
`
	if err := os.WriteFile(path, []byte(lines), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	papers, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("ReadAll() returned %d papers, want 2", len(papers))
	}
	p := papers[0]
	if p.ID != "2106.15928v2" || p.Abstract != "Abstract A" || p.Category != "cs.LG" {
		t.Errorf("papers[0] = %+v", p)
	}
	if len(p.Authors) != 1 || p.Authors[0] != "Ann Author" {
		t.Errorf("Authors = %v", p.Authors)
	}
}

func TestReadAll_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papers.jsonl")
	content := "{\"id\":\"a1\",\"title\":\"ok\"}\n{not json}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := ReadAll(path); err == nil {
		t.Error("ReadAll() should fail on invalid JSON")
	}
}

func TestAppendAndWriteAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papers.jsonl")

	if err := Append(path, paper.Paper{ID: "a1", Title: "T1"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := Append(path, paper.Paper{ID: "a2", Title: "T2"}, paper.Paper{ID: "a3", Title: "T3"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	papers, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(papers) != 3 || papers[2].ID != "a3" {
		t.Fatalf("after Append got %v", papers)
	}

	if err := WriteAll(path, papers[:1]); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	papers, err = ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(papers) != 1 || papers[0].ID != "a1" {
		t.Errorf("after WriteAll got %v", papers)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("WriteAll left a temp file behind")
	}
}

func TestFindByID(t *testing.T) {
	papers := []paper.Paper{{ID: "a1"}, {ID: "a2"}}

	tests := []struct {
		id    string
		want  int
		found bool
	}{
		{"a1", 0, true},
		{"a2", 1, true},
		{"a3", -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			idx, found := FindByID(papers, tt.id)
			if idx != tt.want || found != tt.found {
				t.Errorf("FindByID(%q) = %d, %v; want %d, %v", tt.id, idx, found, tt.want, tt.found)
			}
		})
	}
}

func TestMergeNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papers.jsonl")
	if err := WriteAll(path, []paper.Paper{{ID: "a1", Title: "original"}}); err != nil {
		t.Fatal(err)
	}

	incoming := []paper.Paper{
		{ID: "a1", Title: "changed"},
		{ID: "a2", Title: "T2"},
		{ID: "", Title: "no id"},
		{ID: "a2", Title: "T2 again"},
		{ID: "a3", Title: "T3"},
	}
	result, err := MergeNew(path, incoming)
	if err != nil {
		t.Fatalf("MergeNew() error = %v", err)
	}
	want := MergeResult{Added: 2, Duplicates: 2, MissingID: 1}
	if result != want {
		t.Errorf("MergeNew() = %+v, want %+v", result, want)
	}

	papers, err := ReadAll(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 3 {
		t.Fatalf("got %d papers, want 3", len(papers))
	}
	if papers[0].Title != "original" {
		t.Errorf("existing paper overwritten: %+v", papers[0])
	}
	if papers[1].Title != "T2" {
		t.Errorf("first occurrence should win: %+v", papers[1])
	}
}
