package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/arxivindex/internal/config"
	"github.com/matsen/arxivindex/internal/paper"
	"github.com/matsen/arxivindex/internal/semantic"
	"github.com/matsen/arxivindex/internal/storage"
)

var noProgress bool

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexCheckCmd)

	indexBuildCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Suppress progress output")
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the semantic search index",
	Long:  `Commands for building and checking the semantic search index.`,
}

// IndexBuildResult is the response for index build command.
type IndexBuildResult struct {
	Status          string                      `json:"status"`
	PapersProcessed int                         `json:"papers_processed"`
	PapersIndexed   int                         `json:"papers_indexed"`
	PapersSkipped   int                         `json:"papers_skipped"`
	SkippedByReason map[semantic.SkipReason]int `json:"skipped_by_reason,omitempty"`
	DurationSeconds float64                     `json:"duration_seconds"`
	Model           string                      `json:"model"`
	Dimensions      int                         `json:"dimensions"`
	IndexSizeBytes  int64                       `json:"index_size_bytes"`
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build or rebuild the semantic index",
	Long: `Embed the title and abstract of every paper in papers.jsonl and write
the title and abstract indices with their identifier map.

Papers that cannot be embedded are skipped and counted by reason; the rest
are still indexed. Requires Ollama to be running with the embedding model
available (default nomic-embed-text).`,
	RunE: runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	repoRoot := mustFindRepository()

	provider := newProvider()
	mustValidateOllama(ctx, provider, true)

	papers, err := storage.ReadAll(config.PapersPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "reading papers: %v", err)
	}

	opts := []semantic.Option{semantic.WithLogger(appLogger)}
	progress := newProgress(!noProgress, "embedding")
	if progress != nil {
		opts = append(opts, semantic.WithProgressReporter(progress))
	}
	m := semantic.NewManager(provider, opts...)

	report, err := m.Build(ctx, papers)
	progress.Finish()
	if err != nil {
		exitWithSemanticError("building index", err)
	}

	indexDir := config.IndexPath(repoRoot)
	if err := m.Save(indexDir); err != nil {
		exitWithSemanticError("saving index", err)
	}

	db := mustOpenDatabase(repoRoot)
	defer db.Close()
	if err := recordEmbeddingMetadata(db, papers, report, m.ModelName()); err != nil {
		exitWithError(ExitError, "recording embedding metadata: %v", err)
	}

	var indexSize int64
	if size, err := semantic.IndexSize(indexDir); err == nil {
		indexSize = size
	} else if humanOutput {
		fmt.Fprintf(os.Stderr, "Warning: could not determine index size: %v\n", err)
	}

	stats := m.Stats()
	result := IndexBuildResult{
		Status:          "complete",
		PapersProcessed: report.Processed,
		PapersIndexed:   report.Indexed,
		PapersSkipped:   report.Skipped,
		SkippedByReason: report.SkippedByReason,
		DurationSeconds: report.Duration.Seconds(),
		Model:           stats.ModelName,
		Dimensions:      stats.AbstractDimensions,
		IndexSizeBytes:  indexSize,
	}

	if humanOutput {
		fmt.Printf("Build complete:\n")
		fmt.Printf("  Papers indexed: %d of %d\n", result.PapersIndexed, result.PapersProcessed)
		fmt.Printf("  Papers skipped: %d\n", result.PapersSkipped)
		for _, reason := range sortedReasons(result.SkippedByReason) {
			fmt.Printf("    %s: %d\n", reason, result.SkippedByReason[reason])
		}
		fmt.Printf("  Time elapsed: %s\n", formatDuration(report.Duration))
		fmt.Printf("  Index size: %s\n", formatBytes(indexSize))
		fmt.Printf("  Model: %s (%d dimensions)\n", result.Model, result.Dimensions)
	} else {
		outputJSON(result)
	}
	return nil
}

// recordEmbeddingMetadata replaces the stored content hashes with those of
// the papers indexed by this build.
func recordEmbeddingMetadata(db *storage.DB, papers []paper.Paper, report *semantic.BuildReport, model string) error {
	byID := make(map[string]paper.Paper, len(papers))
	for _, p := range papers {
		if _, seen := byID[p.ID]; !seen {
			byID[p.ID] = p
		}
	}

	now := time.Now().Unix()
	metas := make([]storage.EmbeddingMetadata, 0, report.Indexed)
	for _, o := range report.Outcomes {
		if !o.Indexed() {
			continue
		}
		metas = append(metas, storage.EmbeddingMetadata{
			PaperID:     o.PaperID,
			ModelName:   model,
			IndexedAt:   now,
			ContentHash: byID[o.PaperID].ContentHash(),
		})
	}

	if err := db.ClearEmbeddingMetadata(); err != nil {
		return err
	}
	return db.SaveEmbeddingMetadata(metas...)
}

func sortedReasons(m map[semantic.SkipReason]int) []semantic.SkipReason {
	reasons := make([]semantic.SkipReason, 0, len(m))
	for r := range m {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}

// IndexCheckResult is the response for index check command.
type IndexCheckResult struct {
	Status         string   `json:"status"`
	PapersTotal    int      `json:"papers_total"`
	PapersIndexed  int      `json:"papers_indexed"`
	PapersMissing  int      `json:"papers_missing"`
	PapersChanged  int      `json:"papers_changed"`
	PapersOrphaned int      `json:"papers_orphaned"`
	MissingIDs     []string `json:"missing_ids,omitempty"`
	ChangedIDs     []string `json:"changed_ids,omitempty"`
	Model          string   `json:"model"`
	IndexCreated   string   `json:"index_created"`
	IndexSizeBytes int64    `json:"index_size_bytes"`
	Recommendation string   `json:"recommendation,omitempty"`
}

var indexCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check semantic index health",
	Long: `Compare the semantic index with the papers in the database.

Reports papers that are missing from the index, papers whose title or
abstract changed since they were embedded, and indexed papers no longer in
the database. Exits with code 6 when the index is stale.`,
	RunE: runIndexCheck,
}

// indexDrift is the difference between stored papers and the index.
type indexDrift struct {
	missing  []string
	changed  []string
	orphaned []string
}

func (d indexDrift) stale() bool {
	return len(d.missing)+len(d.changed)+len(d.orphaned) > 0
}

// findDrift compares papers against the indexed IDs and the content hashes
// recorded at build time. Papers without a title or abstract can never be
// indexed and are not reported missing.
func findDrift(papers []paper.Paper, indexed []string, metas map[string]storage.EmbeddingMetadata) indexDrift {
	var d indexDrift
	inIndex := make(map[string]bool, len(indexed))
	for _, id := range indexed {
		inIndex[id] = true
	}

	inStore := make(map[string]bool, len(papers))
	for _, p := range papers {
		inStore[p.ID] = true
		if !inIndex[p.ID] {
			if strings.TrimSpace(p.Title) != "" && strings.TrimSpace(p.Abstract) != "" {
				d.missing = append(d.missing, p.ID)
			}
			continue
		}
		if meta, ok := metas[p.ID]; ok && meta.ContentHash != p.ContentHash() {
			d.changed = append(d.changed, p.ID)
		}
	}

	for _, id := range indexed {
		if !inStore[id] {
			d.orphaned = append(d.orphaned, id)
		}
	}
	return d
}

func runIndexCheck(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	indexDir := config.IndexPath(repoRoot)

	m := mustLoadManager(repoRoot, nil)
	stats := m.Stats()

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	papers, err := db.ListAll(0)
	if err != nil {
		exitWithError(ExitError, "listing papers: %v", err)
	}
	metas, err := db.ListEmbeddingMetadata()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	drift := findDrift(papers, m.PaperIDs(), metas)

	var indexSize int64
	if size, err := semantic.IndexSize(indexDir); err == nil {
		indexSize = size
	} else if humanOutput {
		fmt.Fprintf(os.Stderr, "Warning: could not determine index size: %v\n", err)
	}

	result := IndexCheckResult{
		Status:         "healthy",
		PapersTotal:    len(papers),
		PapersIndexed:  stats.Papers,
		PapersMissing:  len(drift.missing),
		PapersChanged:  len(drift.changed),
		PapersOrphaned: len(drift.orphaned),
		Model:          stats.ModelName,
		IndexCreated:   stats.CreatedAt.Format(time.RFC3339),
		IndexSizeBytes: indexSize,
	}
	exitCode := ExitSuccess
	if drift.stale() {
		result.Status = "stale"
		result.Recommendation = "Run 'axi index build' to update the index"
		exitCode = ExitIndexStale
	}
	if len(drift.missing) <= 10 {
		result.MissingIDs = drift.missing
	}
	if len(drift.changed) <= 10 {
		result.ChangedIDs = drift.changed
	}

	if humanOutput {
		fmt.Printf("Semantic Index Status: %s\n\n", result.Status)
		fmt.Printf("Papers:\n")
		fmt.Printf("  Total in database: %d\n", result.PapersTotal)
		fmt.Printf("  In semantic index: %d\n", result.PapersIndexed)
		fmt.Printf("  Missing from index: %d\n", result.PapersMissing)
		fmt.Printf("  Changed since indexing: %d\n", result.PapersChanged)
		fmt.Printf("  Indexed but not in database: %d\n", result.PapersOrphaned)
		fmt.Printf("\nIndex Info:\n")
		fmt.Printf("  Model: %s\n", result.Model)
		fmt.Printf("  Created: %s\n", result.IndexCreated)
		fmt.Printf("  Size: %s\n", formatBytes(result.IndexSizeBytes))
		if result.Recommendation != "" {
			fmt.Printf("\n%s\n", result.Recommendation)
		}
	} else {
		outputJSON(result)
	}

	if exitCode != ExitSuccess {
		os.Exit(exitCode)
	}
	return nil
}
