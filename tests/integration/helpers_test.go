// Package integration provides integration tests for axi commands.
package integration

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

var (
	axiBinary     string
	axiBinaryOnce sync.Once
	axiBinaryErr  error
)

// getAxiBinary builds the axi binary once and returns its path.
func getAxiBinary(t *testing.T) string {
	t.Helper()
	axiBinaryOnce.Do(func() {
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			axiBinaryErr = os.ErrInvalid
			return
		}
		moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))

		tmpDir, err := os.MkdirTemp("", "axi-test-*")
		if err != nil {
			axiBinaryErr = err
			return
		}
		axiBinary = filepath.Join(tmpDir, "axi")

		cmd := exec.Command("go", "build", "-o", axiBinary, "./cmd/axi")
		cmd.Dir = moduleRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			axiBinaryErr = &buildError{output: string(output), err: err}
			return
		}
	})
	if axiBinaryErr != nil {
		t.Fatalf("failed to build axi: %v", axiBinaryErr)
	}
	return axiBinary
}

type buildError struct {
	output string
	err    error
}

func (e *buildError) Error() string {
	return e.err.Error() + ": " + e.output
}

const testPapers = `{"id":"2101.00001v1","url":"http://arxiv.org/abs/2101.00001v1","title":"Variational Inference for Phylogenetics","abs":"We develop variational methods for tree inference.","authors":["Ada Lovelace","Alan Turing"],"cat":"q-bio.PE","date":"2021-01-01T00:00:00Z"}
{"id":"2101.00002v1","url":"http://arxiv.org/abs/2101.00002v1","title":"Attention Is Most of What You Need","abs":"Transformers revisited with sparse attention.","authors":["Grace Hopper"],"cat":"cs.LG","date":"2021-01-02T00:00:00Z"}
{"id":"2101.00003v1","url":"http://arxiv.org/abs/2101.00003v1","title":"Markov Chain Monte Carlo at Scale","abs":"Sampling methods for large posterior distributions.","authors":["Claude Shannon"],"cat":"stat.CO","date":"2021-01-03T00:00:00Z"}
`

// setupTestRepo initializes a repository through the CLI and fills papers.jsonl.
// The global config directory is isolated under the temp dir.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, "config", "axi"), 0755); err != nil {
		t.Fatal(err)
	}
	if output, err := runAxi(t, tmpDir, "init"); err != nil {
		t.Fatalf("init failed: %v\nOutput: %s", err, output)
	}

	papersPath := filepath.Join(tmpDir, ".arxivindex", "papers.jsonl")
	if err := os.WriteFile(papersPath, []byte(testPapers), 0644); err != nil {
		t.Fatal(err)
	}
	return tmpDir
}

// runAxi executes axi with the given args and returns stdout.
// XDG_CONFIG_HOME points at a test-specific global config directory.
func runAxi(t *testing.T, repoDir string, args ...string) (string, error) {
	t.Helper()
	axi := getAxiBinary(t)
	cmd := exec.Command(axi, args...)
	cmd.Dir = repoDir
	cmd.Env = append(filterEnv(os.Environ(), "AXI_ROOT"), "XDG_CONFIG_HOME="+filepath.Join(repoDir, "config"))
	output, err := cmd.Output()
	return string(output), err
}

// exitCode extracts the process exit code from a runAxi error.
func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("unexpected error type %T: %v", err, err)
	}
	return exitErr.ExitCode()
}

func filterEnv(env []string, key string) []string {
	prefix := key + "="
	out := make([]string, 0, len(env))
	for _, e := range env {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			continue
		}
		out = append(out, e)
	}
	return out
}
