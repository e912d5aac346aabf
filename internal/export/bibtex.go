// Package export provides functions to export papers to citation formats.
package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/matsen/arxivindex/internal/paper"
)

var versionSuffix = regexp.MustCompile(`v\d+$`)

// Options control optional BibTeX fields.
type Options struct {
	IncludeAbstract bool
}

// ToBibTeX converts a paper to an arXiv-style @misc entry.
func ToBibTeX(p paper.Paper, opts Options) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@misc{%s,\n", CitationKey(p)))

	if len(p.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatAuthors(p.Authors)))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(p.Title)))

	if year, month, ok := publicationDate(p.Date); ok {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", year))
		b.WriteString(fmt.Sprintf("  month = {%d},\n", month))
	}

	b.WriteString(fmt.Sprintf("  eprint = {%s},\n", BaseID(p.ID)))
	b.WriteString("  archivePrefix = {arXiv},\n")
	if p.Category != "" {
		b.WriteString(fmt.Sprintf("  primaryClass = {%s},\n", p.Category))
	}
	if p.URL != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", p.URL))
	}

	if opts.IncludeAbstract && p.Abstract != "" {
		b.WriteString(fmt.Sprintf("  abstract = {%s},\n", escapeLatex(p.Abstract)))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple papers to BibTeX format.
func ToBibTeXList(papers []paper.Paper, opts Options) string {
	var entries []string
	for _, p := range papers {
		entries = append(entries, ToBibTeX(p, opts))
	}
	return strings.Join(entries, "\n")
}

// CitationKey builds a key of the form "Lastname2021-2101.00001".
// Papers without authors fall back to "arXiv".
func CitationKey(p paper.Paper) string {
	name := "arXiv"
	if len(p.Authors) > 0 {
		last, _ := splitName(p.Authors[0])
		if cleaned := keySafe(last); cleaned != "" {
			name = cleaned
		}
	}
	year := ""
	if y, _, ok := publicationDate(p.Date); ok {
		year = fmt.Sprintf("%d", y)
	}
	return fmt.Sprintf("%s%s-%s", name, year, strings.ReplaceAll(BaseID(p.ID), "/", "_"))
}

// BaseID strips the version suffix from an arXiv identifier.
func BaseID(id string) string {
	return versionSuffix.ReplaceAllString(id, "")
}

func publicationDate(date string) (int, int, bool) {
	if date == "" {
		return 0, 0, false
	}
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		t, err = time.Parse("2006-01-02", date)
		if err != nil {
			return 0, 0, false
		}
	}
	return t.Year(), int(t.Month()), true
}

// splitName splits "First Middle Last" into last and given names.
func splitName(full string) (last, first string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[len(parts)-1], strings.Join(parts[:len(parts)-1], " ")
}

func keySafe(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// formatAuthors formats authors in BibTeX style: "Last, First and Last, First"
func formatAuthors(authors []string) string {
	var formatted []string
	for _, a := range authors {
		last, first := splitName(a)
		if last == "" {
			continue
		}
		if first != "" {
			formatted = append(formatted, fmt.Sprintf("%s, %s", escapeLatex(last), escapeLatex(first)))
		} else {
			formatted = append(formatted, escapeLatex(last))
		}
	}
	return strings.Join(formatted, " and ")
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// & first so later replacements are not re-escaped
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
