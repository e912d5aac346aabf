package arxiv

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadIDList reads arXiv identifiers from a file with one abs URL or bare
// identifier per line. Blank lines and lines starting with # are ignored.
func ReadIDList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening id list: %w", err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if id := NormalizeID(line); id != "" {
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading id list: %w", err)
	}
	return ids, nil
}
