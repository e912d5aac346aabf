package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPathFunctions(t *testing.T) {
	root := "/test/repo"

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"RepoPath", RepoPath, "/test/repo/.arxivindex"},
		{"ConfigPath", ConfigPath, "/test/repo/.arxivindex/config.json"},
		{"PapersPath", PapersPath, "/test/repo/.arxivindex/papers.jsonl"},
		{"CachePath", CachePath, "/test/repo/.arxivindex/cache"},
		{"DBPath", DBPath, "/test/repo/.arxivindex/cache/papers.db"},
		{"IndexPath", IndexPath, "/test/repo/.arxivindex/index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(root)
			if got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.name, root, got, tt.want)
			}
		})
	}
}

func TestIsRepository(t *testing.T) {
	tmpDir := t.TempDir()

	if IsRepository(tmpDir) {
		t.Error("IsRepository() = true for non-repo directory")
	}

	if err := os.Mkdir(filepath.Join(tmpDir, RepoDir), 0755); err != nil {
		t.Fatalf("Failed to create .arxivindex: %v", err)
	}

	if !IsRepository(tmpDir) {
		t.Error("IsRepository() = false for repo directory")
	}
}

func TestIsRepository_FileNotDir(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, RepoDir), []byte("not a dir"), 0644); err != nil {
		t.Fatalf("Failed to create .arxivindex file: %v", err)
	}

	if IsRepository(tmpDir) {
		t.Error("IsRepository() = true when .arxivindex is a file")
	}
}

func TestFindRepository(t *testing.T) {
	tmpDir := t.TempDir()
	repoDir := filepath.Join(tmpDir, "repo")
	nestedDir := filepath.Join(repoDir, "src", "pkg")

	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatalf("Failed to create nested dirs: %v", err)
	}
	if err := os.Mkdir(filepath.Join(repoDir, RepoDir), 0755); err != nil {
		t.Fatalf("Failed to create .arxivindex: %v", err)
	}

	for _, start := range []string{nestedDir, repoDir} {
		found, err := FindRepository(start)
		if err != nil {
			t.Fatalf("FindRepository(%q) error = %v", start, err)
		}
		if found != repoDir {
			t.Errorf("FindRepository(%q) = %q, want %q", start, found, repoDir)
		}
	}
}

func TestFindRepository_NotFound(t *testing.T) {
	_, err := FindRepository(t.TempDir())
	if !errors.Is(err, ErrNotRepository) {
		t.Errorf("FindRepository() error = %v, want ErrNotRepository", err)
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(RepoPath(tmpDir), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{DefaultField: "title", DefaultK: 5, Category: "cs.LG"}
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}
}

func TestLoad_FillsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(RepoPath(tmpDir), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(tmpDir), []byte(`{"category": "math"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultField != "abstract" || cfg.DefaultK != DefaultK || cfg.Category != "math" {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", "{not json"},
		{"bad field", `{"default_field": "body"}`},
		{"bad k", `{"default_k": 0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			os.Mkdir(RepoPath(tmpDir), 0755)
			if err := os.WriteFile(ConfigPath(tmpDir), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(tmpDir); err == nil {
				t.Error("Load() should fail")
			}
		})
	}

	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load() should fail without config.json")
	}
}

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	tests := []struct {
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{"default_field", "abs", "abstract", false},
		{"default_field", "title", "title", false},
		{"default_field", "body", "title", true},
		{"default_k", "25", "25", false},
		{"default_k", "-1", "25", true},
		{"default_k", "many", "25", true},
		{"category", "math.ST", "math.ST", false},
		{"pdf_root", "/x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := cfg.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			got, err := cfg.Get(tt.key)
			if tt.key == "pdf_root" {
				if err == nil {
					t.Error("Get(pdf_root) should fail")
				}
				return
			}
			if got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~/papers"); got != filepath.Join(home, "papers") {
		t.Errorf("ExpandPath(~/papers) = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath(/abs/path) = %q", got)
	}
}
