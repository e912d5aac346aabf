package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/arxivindex/internal/paper"
)

var (
	semanticField    string
	semanticK        int
	semanticAbstract bool
)

func init() {
	rootCmd.AddCommand(semanticCmd)

	semanticCmd.Flags().StringVarP(&semanticField, "field", "f", "", "Field to search: title or abstract (default from config)")
	semanticCmd.Flags().IntVarP(&semanticK, "k", "k", 0, "Number of results (default from config)")
	semanticCmd.Flags().BoolVar(&semanticAbstract, "abstract", false, "Include abstracts in output")
}

// SemanticResponse is the response for the semantic search command.
type SemanticResponse struct {
	Query   string        `json:"query"`
	Field   paper.Field   `json:"field"`
	K       int           `json:"k"`
	Results []PaperResult `json:"results"`
	Total   int           `json:"total"`
	Model   string        `json:"model"`
}

var semanticCmd = &cobra.Command{
	Use:   "semantic <query>",
	Short: "Search papers by semantic similarity",
	Long: `Embed the query and return the k papers whose title or abstract
embedding is nearest to it (Euclidean distance, nearest first).

Requires the semantic index to be built first with 'axi index build'.

Examples:
  axi semantic "learning rate warmup for transformers"
  axi semantic -f title -k 5 "protein folding"`,
	Args: cobra.ExactArgs(1),
	RunE: runSemantic,
}

func runSemantic(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.TrimSpace(args[0])
	if query == "" {
		exitWithError(ExitError, "Search query cannot be empty")
	}

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	field, k, err := resolveFieldK(cfg, semanticField, semanticK)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	provider := newProvider()
	mustValidateOllama(ctx, provider, false)

	m := mustLoadManager(repoRoot, provider)
	hits, err := m.SearchResults(ctx, query, field, k)
	if err != nil {
		exitWithSemanticError("searching", err)
	}

	db := mustOpenDatabase(repoRoot)
	defer db.Close()
	results, err := buildSemanticResults(hits, db, semanticAbstract)
	if err != nil {
		exitWithError(ExitError, "loading paper metadata: %v", err)
	}

	if humanOutput {
		outputHuman("Search (%s): %q\n", field, query)
		outputHuman("Found %d papers\n\n", len(results))
		printResultsHuman(os.Stdout, results)
	} else {
		outputJSON(SemanticResponse{
			Query:   query,
			Field:   field,
			K:       k,
			Results: results,
			Total:   len(results),
			Model:   m.ModelName(),
		})
	}
	return nil
}
