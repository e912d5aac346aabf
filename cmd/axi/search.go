package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/arxivindex/internal/paper"
)

var (
	searchLimit int
	searchField string
)

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	searchCmd.Flags().StringVarP(&searchField, "field", "f", "", "Restrict to one field: title, abstract, author")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search papers by keyword",
	Long: `Full-text keyword search over titles, abstracts and authors.

For search by meaning, use 'axi semantic'.

Examples:
  axi search "variational inference"
  axi search -f author Hinton`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

// SearchResponse is the response for the search command.
type SearchResponse struct {
	Query   string        `json:"query"`
	Field   string        `json:"field,omitempty"`
	Results []PaperResult `json:"results"`
	Total   int           `json:"total"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(args[0])
	if query == "" {
		exitWithError(ExitError, "Search query cannot be empty")
	}

	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	var papers []paper.Paper
	var err error
	if searchField != "" {
		papers, err = db.SearchField(searchField, query, searchLimit)
	} else {
		papers, err = db.Search(query, searchLimit)
	}
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	results := make([]PaperResult, len(papers))
	for i, p := range papers {
		results[i] = newPaperResult(p, false)
	}

	if humanOutput {
		outputHuman("Found %d papers for %q\n\n", len(results), query)
		printResultsHuman(os.Stdout, results)
	} else {
		outputJSON(SearchResponse{Query: query, Field: searchField, Results: results, Total: len(results)})
	}
	return nil
}
