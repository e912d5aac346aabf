package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/arxivindex/internal/paper"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a single paper by arXiv ID",
	Long: `Get a single paper by its arXiv ID.

Example:
  axi get 2106.15928v2`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	id := strings.TrimSpace(args[0])
	p, err := db.GetByID(id)
	if err != nil {
		exitWithError(ExitError, "getting paper: %v", err)
	}
	if p == nil {
		exitWithError(ExitError, "paper not found: %s", id)
	}

	if humanOutput {
		printPaperDetail(*p)
	} else {
		outputJSON(newPaperResult(*p, true))
	}
	return nil
}

func printPaperDetail(p paper.Paper) {
	fmt.Println(p.ID)
	fmt.Println(strings.Repeat("=", len(p.ID)))
	fmt.Println()
	fmt.Printf("Title:    %s\n", p.Title)
	fmt.Printf("Authors:  %s\n", formatAuthorsShort(p.Authors, len(p.Authors)))
	if p.Category != "" {
		fmt.Printf("Category: %s\n", p.Category)
	}
	if p.Date != "" {
		fmt.Printf("Date:     %s\n", p.Date)
	}
	if p.URL != "" {
		fmt.Printf("URL:      %s\n", p.URL)
	}
	if p.Abstract != "" {
		fmt.Println()
		fmt.Println(p.Abstract)
	}
}
