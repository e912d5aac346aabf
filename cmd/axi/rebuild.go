package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/arxivindex/internal/config"
	"github.com/matsen/arxivindex/internal/storage"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query database from papers.jsonl",
	Long: `Rebuild the SQLite query database from the JSONL source file.

Use this after pulling changes from git or if the database becomes corrupted.
The semantic index is not touched; run 'axi index build' for that.`,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status string `json:"status"`
	Papers int    `json:"papers"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	count := mustRebuildDatabase(repoRoot, db)

	if humanOutput {
		outputHuman("Rebuilt database with %d papers\n", count)
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Papers: count})
	}
	return nil
}

// mustRebuildDatabase reloads the papers tables from JSONL, exits on error.
func mustRebuildDatabase(repoRoot string, db *storage.DB) int {
	count, err := db.RebuildFromJSONL(config.PapersPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding database: %v", err)
	}
	return count
}
