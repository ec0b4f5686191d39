package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the search index",
	Long:  `Rebuild the search index and show what it contains.`,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from stored documents",
	Long: `Drops the search index and re-indexes every published document from
the repository. Use after changing segmentation settings or when the
index is corrupt.`,
	RunE: runIndexRebuild,
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runIndexStats,
}

func init() {
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexStatsCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	cmd.Println("Rebuilding index...")

	count, err := indexService.Rebuild(context.Background())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Printf("Rebuilt index with %d documents.\n", count)
	return nil
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	stats, err := searchService.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get index stats: %w", err)
	}

	cmd.Printf("Indexed documents: %d\n", stats.TotalDocuments)

	if len(stats.Categories) > 0 {
		cmd.Println("\nBy category:")
		printCounts(cmd, stats.Categories)
	}
	if len(stats.SourceTypes) > 0 {
		cmd.Println("\nBy source type:")
		printCounts(cmd, stats.SourceTypes)
	}

	return nil
}

func printCounts(cmd *cobra.Command, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("  %s: %d\n", k, counts[k])
	}
}
