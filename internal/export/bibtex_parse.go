package export

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// BibTeXIndex indexes existing BibTeX entries for deduplication.
type BibTeXIndex struct {
	// Keys maps citation keys to true for existence check
	Keys map[string]bool
	// Eprints maps version-less arXiv ids to citation keys
	Eprints map[string]string
}

// NewBibTeXIndex creates an empty BibTeX index.
func NewBibTeXIndex() *BibTeXIndex {
	return &BibTeXIndex{
		Keys:    make(map[string]bool),
		Eprints: make(map[string]string),
	}
}

// HasEntry returns true if the entry already exists (by eprint or key).
// Eprint is the primary match; citation key is the fallback.
func (idx *BibTeXIndex) HasEntry(key, eprint string) bool {
	if eprint != "" {
		if _, exists := idx.Eprints[normalizeEprint(eprint)]; exists {
			return true
		}
	}
	return idx.Keys[key]
}

// Add records an entry so later HasEntry calls see it.
func (idx *BibTeXIndex) Add(key, eprint string) {
	idx.Keys[key] = true
	if e := normalizeEprint(eprint); e != "" {
		idx.Eprints[e] = key
	}
}

var (
	entryStartRegex  = regexp.MustCompile(`@\w+\{([^,]+),`)
	eprintFieldRegex = regexp.MustCompile(`(?i)^\s*eprint\s*=\s*[\{"]([^\}"]+)[\}"]`)
)

// ParseBibTeXFile builds an index from an existing .bib file.
// Returns an empty index if the file doesn't exist or is empty.
func ParseBibTeXFile(path string) (*BibTeXIndex, error) {
	idx := NewBibTeXIndex()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var currentKey string

	for scanner.Scan() {
		line := scanner.Text()

		if matches := entryStartRegex.FindStringSubmatch(line); len(matches) > 1 {
			currentKey = strings.TrimSpace(matches[1])
			idx.Keys[currentKey] = true
		}

		if matches := eprintFieldRegex.FindStringSubmatch(line); len(matches) > 1 {
			eprint := normalizeEprint(matches[1])
			if eprint != "" && currentKey != "" {
				idx.Eprints[eprint] = currentKey
			}
		}
	}

	return idx, scanner.Err()
}

// normalizeEprint lowercases an arXiv id and drops the "arXiv:" prefix and version.
func normalizeEprint(eprint string) string {
	eprint = strings.TrimSpace(eprint)
	eprint = strings.TrimPrefix(eprint, "arXiv:")
	eprint = strings.TrimPrefix(eprint, "arxiv:")
	return strings.ToLower(BaseID(eprint))
}

// AppendToBibFile appends BibTeX content to a file.
func AppendToBibFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	// Ensure we start on a new line
	_, err = file.WriteString("\n" + content)
	return err
}
