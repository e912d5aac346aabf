// Package paper defines the core domain types for indexed paper metadata.
package paper

import (
	"crypto/sha256"
	"fmt"
	"io"
)

// Paper represents a paper record as held by the document store.
type Paper struct {
	// Identity
	ID  string `json:"id"`  // arXiv identifier, e.g. "2106.15928v2"
	URL string `json:"url"` // Canonical abs URL

	// Metadata
	Title    string   `json:"title"`
	Abstract string   `json:"abs"`
	Authors  []string `json:"authors"`
	Category string   `json:"cat"`  // Primary category, e.g. "cs.LG"
	Date     string   `json:"date"` // RFC3339 publication timestamp as reported by arXiv
}

// Text returns the paper's text for the given field.
func (p Paper) Text(f Field) string {
	switch f {
	case FieldTitle:
		return p.Title
	case FieldAbstract:
		return p.Abstract
	default:
		return ""
	}
}

// ContentHash returns a SHA256 hash over the title and abstract.
// Used to detect papers whose text changed after they were embedded.
func (p Paper) ContentHash() string {
	h := sha256.New()
	io.WriteString(h, p.Title)
	io.WriteString(h, "\x00")
	io.WriteString(h, p.Abstract)
	return fmt.Sprintf("%x", h.Sum(nil))
}
