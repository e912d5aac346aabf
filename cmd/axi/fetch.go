package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/arxivindex/internal/arxiv"
	"github.com/matsen/arxivindex/internal/config"
	"github.com/matsen/arxivindex/internal/paper"
	"github.com/matsen/arxivindex/internal/storage"
)

var (
	fetchCategory string
	fetchCombine  bool
	fetchIDsFile  string
	fetchMax      int
)

func init() {
	fetchCmd.Flags().StringVarP(&fetchCategory, "category", "c", "", "arXiv category (default from config)")
	fetchCmd.Flags().BoolVar(&fetchCombine, "combine", false, "OR keywords into a single query")
	fetchCmd.Flags().StringVar(&fetchIDsFile, "ids", "", "File of arXiv URLs or IDs to fetch, one per line")
	fetchCmd.Flags().IntVar(&fetchMax, "max", 0, "Stop each query after this many papers (0 = no limit)")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [keyword...]",
	Short: "Fetch paper metadata from arXiv",
	Long: `Fetch paper metadata from the arXiv API and append new papers to
papers.jsonl. Papers already present (by ID) are left unchanged.

With no keywords, the whole category is paged through. Requests are spaced
by arxiv_delay_seconds from the global config (default 3s).

Examples:
  axi fetch "graph neural network"
  axi fetch transformer diffusion --combine -c cs.LG --max 500
  axi fetch --ids papers.txt`,
	RunE: runFetch,
}

// FetchResult is the response for the fetch command.
type FetchResult struct {
	Queries    []string `json:"queries,omitempty"`
	Fetched    int      `json:"fetched"`
	Added      int      `json:"added"`
	Duplicates int      `json:"duplicates"`
	Failed     []string `json:"failed,omitempty"`
	Papers     int      `json:"papers"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	client := newArxivClient()

	category := fetchCategory
	if category == "" {
		category = cfg.Category
	}

	var result FetchResult
	var fetched []paper.Paper

	if fetchIDsFile != "" {
		ids, err := arxiv.ReadIDList(fetchIDsFile)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		for _, id := range ids {
			p, err := client.FetchByID(ctx, id)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					break
				}
				appLogger.Warn("fetch failed", zap.String("id", id), zap.Error(err))
				result.Failed = append(result.Failed, id)
				continue
			}
			fetched = append(fetched, *p)
		}
	} else {
		result.Queries = arxiv.BuildSearchQuery(args, category, fetchCombine)
		for _, q := range result.Queries {
			if humanOutput {
				outputHuman("Fetching %s\n", q)
			}
			_, err := client.SearchAll(ctx, q, func(page []paper.Paper) error {
				fetched = append(fetched, page...)
				return nil
			})
			if err != nil {
				if errors.Is(err, context.Canceled) {
					break
				}
				exitWithError(exitCodeForArxiv(err), "fetching %s: %v", q, err)
			}
		}
	}

	merge, err := storage.MergeNew(config.PapersPath(repoRoot), fetched)
	if err != nil {
		exitWithError(ExitError, "saving papers: %v", err)
	}
	result.Fetched = len(fetched)
	result.Added = merge.Added
	result.Duplicates = merge.Duplicates

	db := mustOpenDatabase(repoRoot)
	defer db.Close()
	result.Papers = mustRebuildDatabase(repoRoot, db)

	if humanOutput {
		outputHuman("Fetched %d papers: %d new, %d already present\n", result.Fetched, result.Added, result.Duplicates)
		if len(result.Failed) > 0 {
			outputHuman("Failed: %s\n", strings.Join(result.Failed, ", "))
		}
		outputHuman("Repository now has %d papers\n", result.Papers)
	} else {
		outputJSON(result)
	}
	return nil
}

func newArxivClient() *arxiv.Client {
	global := mustLoadGlobalConfig()
	opts := []arxiv.ClientOption{
		arxiv.WithLogger(appLogger),
		arxiv.WithDelay(global.ArxivDelay(arxiv.DefaultDelay)),
		arxiv.WithMaxResults(fetchMax),
	}
	if global.ArxivPageSize > 0 {
		opts = append(opts, arxiv.WithPageSize(global.ArxivPageSize))
	}
	return arxiv.NewClient(opts...)
}

func exitCodeForArxiv(err error) int {
	var apiErr *arxiv.APIError
	if arxiv.IsRateLimited(err) || errors.Is(err, arxiv.ErrNetworkError) || errors.As(err, &apiErr) {
		return ExitArxivError
	}
	return ExitError
}
