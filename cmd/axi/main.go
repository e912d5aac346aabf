// Package main provides the axi CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/arxivindex/internal/config"
	"github.com/matsen/arxivindex/internal/embedding"
	"github.com/matsen/arxivindex/internal/logger"
	"github.com/matsen/arxivindex/internal/semantic"
	"github.com/matsen/arxivindex/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	debugLogs   bool

	appLogger = zap.NewNop()
)

func main() {
	defer func() { _ = appLogger.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "axi",
	Short: "Semantic index over arXiv paper metadata",
	Long: `axi fetches arXiv paper metadata and searches it by meaning.

Each paper's title and abstract are embedded separately into two
nearest-neighbor indices, so you can search either field.

Data is stored in git-versionable JSONL with an ephemeral SQLite cache.
All commands output JSON by default; pass --human for text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		appLogger = logger.New(debugLogs)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "Log debug details to stderr")
	rootCmd.Version = Version
}

// getStartingDirectory returns the directory to start searching for a repository.
// Checks the global repo_path (or AXI_ROOT) first, then the working directory.
func getStartingDirectory() (string, int) {
	global := mustLoadGlobalConfig()
	if global.RepoPath != "" {
		return global.RepoPath, 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindRepository finds and validates the repository, exits on error.
func mustFindRepository() string {
	start, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	repoRoot, err := config.FindRepository(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return repoRoot
}

// mustLoadGlobalConfig loads ~/.config/axi/config.yml, exits on error.
func mustLoadGlobalConfig() *config.GlobalConfig {
	global, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading global config: %v", err)
	}
	return global
}

// mustLoadConfig loads repository configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(repoRoot string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(repoRoot), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// newProvider builds the Ollama provider from global config.
func newProvider() *embedding.OllamaProvider {
	global := mustLoadGlobalConfig()
	var opts []embedding.OllamaOption
	if global.OllamaURL != "" {
		opts = append(opts, embedding.WithBaseURL(global.OllamaURL))
	}
	if global.EmbeddingModel != "" {
		opts = append(opts, embedding.WithModel(global.EmbeddingModel))
	}
	return embedding.NewOllamaProvider(opts...)
}

// mustValidateOllama checks that Ollama is running and optionally validates the model.
func mustValidateOllama(ctx context.Context, provider *embedding.OllamaProvider, checkModel bool) {
	if err := provider.IsAvailable(ctx); err != nil {
		exitWithError(ExitDataError, "Ollama is not running\n\nStart Ollama with 'ollama serve' or install from https://ollama.ai")
	}

	if checkModel {
		hasModel, err := provider.HasModel(ctx)
		if err != nil {
			exitWithError(ExitError, "checking model availability: %v", err)
		}
		if !hasModel {
			exitWithError(ExitModelNotFound, "embedding model %q not found\n\nRun 'ollama pull %s' to download it.", provider.ModelName(), provider.ModelName())
		}
	}
}

// mustLoadManager restores the semantic index, exits on error.
// provider may be nil for commands that never embed.
func mustLoadManager(repoRoot string, provider embedding.Provider) *semantic.Manager {
	m := semantic.NewManager(provider, semantic.WithLogger(appLogger))
	if err := m.Load(config.IndexPath(repoRoot)); err != nil {
		exitWithSemanticError("loading index", err)
	}
	return m
}

// exitWithSemanticError maps semantic errors to exit codes and exits.
func exitWithSemanticError(action string, err error) {
	switch {
	case errors.Is(err, semantic.ErrIndexNotFound):
		exitWithError(ExitConfigError, "Semantic index not found\n\nRun 'axi index build' to create the index.")
	case errors.Is(err, semantic.ErrModelMismatch), errors.Is(err, semantic.ErrUnsupportedVersion):
		exitWithError(ExitIndexStale, "%s: %v", action, err)
	case errors.Is(err, semantic.ErrIndexNotReady):
		exitWithError(ExitConfigError, "%s: %v\n\nRun 'axi fetch' and 'axi index build' first.", action, err)
	case errors.Is(err, semantic.ErrPaperNotIndexed):
		exitWithError(ExitNotIndexed, "%s: %v", action, err)
	case errors.Is(err, semantic.ErrEmbeddingFailure), errors.Is(err, semantic.ErrInconsistentSnapshot):
		exitWithError(ExitDataError, "%s: %v", action, err)
	default:
		exitWithError(ExitError, "%s: %v", action, err)
	}
}
