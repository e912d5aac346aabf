// Package storage handles paper persistence in JSONL and SQLite formats.
// The JSONL file is the source of truth; the SQLite database is a query
// cache rebuilt from it.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/arxivindex/internal/paper"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadAll reads all papers from a JSONL file.
// A missing file yields no papers and no error.
func ReadAll(path string) ([]paper.Paper, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening papers file: %w", err)
	}
	defer f.Close()

	var papers []paper.Paper
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var p paper.Paper
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		papers = append(papers, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading papers file: %w", err)
	}

	return papers, nil
}

// Append adds papers to the end of a JSONL file.
func Append(path string, papers ...paper.Paper) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening papers file for append: %w", err)
	}

	if err := writePapers(f, papers); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteAll writes all papers to a JSONL file, replacing existing content.
func WriteAll(path string, papers []paper.Paper) error {
	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating papers file: %w", err)
	}

	if err := writePapers(f, papers); err != nil {
		f.Close()
		os.Remove(tempPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing papers file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming papers file: %w", err)
	}
	return nil
}

func writePapers(f *os.File, papers []paper.Paper) error {
	w := bufio.NewWriter(f)
	for _, p := range papers {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding paper %s: %w", p.ID, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing paper %s: %w", p.ID, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing papers file: %w", err)
	}
	return nil
}

// FindByID searches for a paper by ID.
func FindByID(papers []paper.Paper, id string) (int, bool) {
	for i, p := range papers {
		if p.ID == id {
			return i, true
		}
	}
	return -1, false
}

// MergeResult counts what MergeNew did.
type MergeResult struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
	MissingID  int `json:"missing_id"`
}

// MergeNew appends the papers whose IDs are not yet in the file at path.
// Duplicates within incoming are also dropped, first occurrence wins.
func MergeNew(path string, incoming []paper.Paper) (MergeResult, error) {
	var result MergeResult

	existing, err := ReadAll(path)
	if err != nil {
		return result, err
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.ID] = true
	}

	var fresh []paper.Paper
	for _, p := range incoming {
		switch {
		case p.ID == "":
			result.MissingID++
		case seen[p.ID]:
			result.Duplicates++
		default:
			seen[p.ID] = true
			fresh = append(fresh, p)
		}
	}

	if len(fresh) == 0 {
		return result, nil
	}
	if err := Append(path, fresh...); err != nil {
		return result, err
	}
	result.Added = len(fresh)
	return result, nil
}
