package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/matsen/arxivindex/internal/paper"
	"github.com/matsen/arxivindex/internal/semantic"
	"github.com/matsen/arxivindex/internal/storage"
)

// Constants for output formatting.
const (
	DefaultSearchLimit = 50 // Default limit for keyword search

	SearchTitleMaxLen = 70 // Used in search result summaries
	MaxAuthorsShown   = 3
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// outputError writes an error message to stderr and returns the exit code.
func outputError(code int, format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	return code
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// PaperResult is one paper in search output.
type PaperResult struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Category string   `json:"cat,omitempty"`
	Date     string   `json:"date,omitempty"`
	URL      string   `json:"url,omitempty"`
	Distance *float32 `json:"distance,omitempty"`
	Abstract string   `json:"abs,omitempty"`
}

func newPaperResult(p paper.Paper, includeAbstract bool) PaperResult {
	r := PaperResult{
		ID:       p.ID,
		Title:    p.Title,
		Authors:  p.Authors,
		Category: p.Category,
		Date:     p.Date,
		URL:      p.URL,
	}
	if r.Authors == nil {
		r.Authors = []string{}
	}
	if includeAbstract {
		r.Abstract = p.Abstract
	}
	return r
}

// buildSemanticResults joins semantic hits with paper metadata.
// Hits missing from the database still appear, with only ID and distance.
func buildSemanticResults(results []semantic.Result, db *storage.DB, includeAbstract bool) ([]PaperResult, error) {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.PaperID
	}
	papers, err := db.GetByIDs(ids)
	if err != nil {
		return nil, err
	}

	out := make([]PaperResult, 0, len(results))
	for _, r := range results {
		p, ok := papers[r.PaperID]
		if !ok {
			p = paper.Paper{ID: r.PaperID}
		}
		pr := newPaperResult(p, includeAbstract)
		d := r.Distance
		pr.Distance = &d
		out = append(out, pr)
	}
	return out, nil
}

// printResultsHuman prints search results in human-readable format.
func printResultsHuman(w io.Writer, results []PaperResult) {
	for i, r := range results {
		if r.Distance != nil {
			fmt.Fprintf(w, "%d. [%.3f] %s\n", i+1, *r.Distance, r.ID)
		} else {
			fmt.Fprintf(w, "%d. %s\n", i+1, r.ID)
		}
		fmt.Fprintf(w, "   %s\n", truncateString(r.Title, SearchTitleMaxLen))
		fmt.Fprintf(w, "   %s%s\n\n", formatAuthorsShort(r.Authors, MaxAuthorsShown), formatCategoryDate(r.Category, r.Date))
	}
}

// truncateString shortens s to maxLen runes, ending with "...".
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatAuthorsShort lists at most max authors, then "et al.".
func formatAuthorsShort(authors []string, max int) string {
	if len(authors) == 0 {
		return "(no authors)"
	}
	if len(authors) <= max {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:max], ", ") + " et al."
}

func formatCategoryDate(category, date string) string {
	var parts []string
	if category != "" {
		parts = append(parts, category)
	}
	if len(date) >= 10 {
		parts = append(parts, date[:10])
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// formatBytes formats bytes in a human-readable way.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
