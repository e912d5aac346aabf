package arxiv

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matsen/arxivindex/internal/paper"
)

// Atom feed as returned by the arXiv query API.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID              string         `xml:"id"`
	Title           string         `xml:"title"`
	Summary         string         `xml:"summary"`
	Published       string         `xml:"published"`
	Authors         []atomAuthor   `xml:"author"`
	PrimaryCategory atomCategory   `xml:"primary_category"`
	Categories      []atomCategory `xml:"category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// ParseFeed converts an arXiv Atom feed into papers.
// Error entries that arXiv embeds in the feed for bad queries are dropped.
func ParseFeed(data []byte) ([]paper.Paper, error) {
	var feed atomFeed
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	papers := make([]paper.Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		if strings.Contains(e.ID, "/api/errors") {
			continue
		}
		papers = append(papers, e.toPaper())
	}
	return papers, nil
}

func (e atomEntry) toPaper() paper.Paper {
	url := strings.TrimSpace(e.ID)
	p := paper.Paper{
		ID:       NormalizeID(url),
		URL:      url,
		Title:    collapseSpace(e.Title),
		Abstract: collapseSpace(e.Summary),
		Date:     strings.TrimSpace(e.Published),
		Category: strings.TrimSpace(e.PrimaryCategory.Term),
	}
	if p.Category == "" && len(e.Categories) > 0 {
		p.Category = strings.TrimSpace(e.Categories[0].Term)
	}
	for _, a := range e.Authors {
		if name := collapseSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	return p
}

// NormalizeID extracts the arXiv identifier from an abs or pdf URL.
// Bare identifiers are returned trimmed.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	for _, marker := range []string{"/abs/", "/pdf/"} {
		if i := strings.Index(s, marker); i >= 0 {
			s = s[i+len(marker):]
			break
		}
	}
	s = strings.TrimSuffix(s, ".pdf")
	return strings.Trim(s, "/")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
