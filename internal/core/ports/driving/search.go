package driving

import (
	"context"
	"time"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
//
// The read path degrades rather than fails: when the index is
// unavailable, Search returns an empty page and Stats returns zero
// stats, with the failure logged and counted. Only invalid input and
// context cancellation surface as errors.
type SearchService interface {
	// Search performs full-text search across all indexed documents.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*SearchPage, error)

	// Stats summarises the index contents.
	Stats(ctx context.Context) (*domain.IndexStats, error)
}

// SearchPage is one page of ranked results.
type SearchPage struct {
	// Hits are the ranked results for the requested page.
	Hits []domain.SearchHit

	// Total is the number of matches before pagination.
	Total int

	// Elapsed is how long the query took.
	Elapsed time.Duration
}
