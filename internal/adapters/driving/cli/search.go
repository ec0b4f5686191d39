package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driving"
)

var (
	searchLimit      int
	searchOffset     int
	searchCategory   string
	searchSourceType string
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs full-text search across all indexed documents.
Queries are segmented with the same tokenizer as indexed content, so
Chinese and English terms both match. Matched terms in excerpts are
wrapped in markdown bold markers.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "number of ranked results to skip")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "filter by exact category")
	searchCmd.Flags().StringVar(&searchSourceType, "source-type", "", "filter by source type (local, git, github, confluence)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	ctx := context.Background()
	opts := domain.SearchOptions{
		Category:   searchCategory,
		SourceType: searchSourceType,
		Limit:      searchLimit,
		Offset:     searchOffset,
	}

	page, err := searchService.Search(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, page)
	}

	return outputSearchTable(cmd, page, searchOffset)
}

func outputSearchJSON(cmd *cobra.Command, page *driving.SearchPage) error {
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, page *driving.SearchPage, offset int) error {
	if len(page.Hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range page.Hits {
		hit := &page.Hits[i]

		title := hit.Title
		if title == "" {
			title = hit.ID
		}

		// Format: [N] Title (Score); N continues across pages.
		cmd.Printf("  [%d] %s (%.2f)\n", offset+i+1, title, hit.Score)
		if hit.Category != "" || hit.SourceType != "" {
			cmd.Printf("      %s", hit.SourceType)
			if hit.Category != "" {
				cmd.Printf(" / %s", hit.Category)
			}
			cmd.Println()
		}
		if hit.Excerpt != "" {
			cmd.Printf("      %s\n", hit.Excerpt)
		}
		cmd.Println()
	}

	cmd.Printf("%d of %d results (%s)\n", len(page.Hits), page.Total, page.Elapsed.Round(time.Millisecond))
	return nil
}
