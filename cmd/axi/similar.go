package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/arxivindex/internal/arxiv"
	"github.com/matsen/arxivindex/internal/paper"
)

var (
	similarField string
	similarK     int
)

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().StringVarP(&similarField, "field", "f", "", "Field to compare: title or abstract (default from config)")
	similarCmd.Flags().IntVarP(&similarK, "k", "k", 0, "Number of results (default from config)")
}

// SimilarResponse is the response for the similar command.
type SimilarResponse struct {
	PaperID string        `json:"paper_id"`
	Field   paper.Field   `json:"field"`
	Results []PaperResult `json:"results"`
	Total   int           `json:"total"`
}

var similarCmd = &cobra.Command{
	Use:   "similar <paper-id>",
	Short: "Find papers similar to an indexed paper",
	Long: `Find the papers nearest to an already indexed paper, using its stored
title or abstract embedding. Does not need Ollama.

Examples:
  axi similar 2106.15928v2
  axi similar -f title https://arxiv.org/abs/2106.15928v2`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func runSimilar(cmd *cobra.Command, args []string) error {
	paperID := arxiv.NormalizeID(args[0])

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	field, k, err := resolveFieldK(cfg, similarField, similarK)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	m := mustLoadManager(repoRoot, nil)
	hits, err := m.FindSimilar(paperID, field, k)
	if err != nil {
		exitWithSemanticError("finding similar papers", err)
	}

	db := mustOpenDatabase(repoRoot)
	defer db.Close()
	results, err := buildSemanticResults(hits, db, false)
	if err != nil {
		exitWithError(ExitError, "loading paper metadata: %v", err)
	}

	if humanOutput {
		outputHuman("Papers similar to %s (%s):\n\n", paperID, field)
		printResultsHuman(os.Stdout, results)
	} else {
		outputJSON(SimilarResponse{PaperID: paperID, Field: field, Results: results, Total: len(results)})
	}
	return nil
}
