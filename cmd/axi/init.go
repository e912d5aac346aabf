package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/arxivindex/internal/config"
)

var initCategory string

func init() {
	initCmd.Flags().StringVar(&initCategory, "category", config.DefaultCategory, "Default arXiv category for fetch")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a new repository",
	Long: `Create a .arxivindex directory with default configuration, an empty
papers.jsonl, and the cache directory for the query database.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	if config.IsRepository(root) {
		exitWithError(ExitConfigError, "repository already initialized at %s", config.RepoPath(root))
	}

	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating repository: %v", err)
	}

	cfg := config.Default()
	cfg.Category = initCategory
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	f, err := os.OpenFile(config.PapersPath(root), os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		exitWithError(ExitError, "creating papers file: %v", err)
	}
	f.Close()

	if humanOutput {
		outputHuman("Initialized arxivindex repository in %s\n", config.RepoPath(root))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.RepoPath(root)})
	}
	return nil
}
