package services

import (
	"context"
	"strings"
	"time"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
	"github.com/corpora-labs/docseek/internal/core/ports/driving"
	"github.com/corpora-labs/docseek/internal/logger"
	"github.com/corpora-labs/docseek/internal/metrics"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService serves the search read path.
// Index failures degrade to an empty page instead of surfacing to the
// caller; each degradation is logged and counted so operators see it
// out of band. Only invalid input and context cancellation return
// errors.
type SearchService struct {
	searchIndex driven.SearchIndex
}

// NewSearchService creates a new search service.
func NewSearchService(searchIndex driven.SearchIndex) *SearchService {
	return &SearchService{searchIndex: searchIndex}
}

// Search performs full-text search across all indexed documents.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*driving.SearchPage, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Return empty for empty query
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return &driving.SearchPage{Hits: []domain.SearchHit{}}, nil
	}

	opts = opts.Normalise()
	logger.Debug("Limit: %d, Offset: %d, Category: %q, SourceType: %q",
		opts.Limit, opts.Offset, opts.Category, opts.SourceType)

	if s.searchIndex == nil {
		metrics.RecordSearchError()
		logger.Error("Search degraded to empty results: no search index configured")
		return &driving.SearchPage{Hits: []domain.SearchHit{}}, nil
	}

	start := time.Now()
	hits, total, err := s.searchIndex.Search(ctx, query, opts)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.RecordSearchError()
		logger.Error("Search %q degraded to empty results: %v", query, err)
		return &driving.SearchPage{Hits: []domain.SearchHit{}, Elapsed: elapsed}, nil
	}

	metrics.RecordSearch()
	logger.Info("Search %q: %d of %d hit(s) in %s", query, len(hits), total, elapsed)

	if hits == nil {
		hits = []domain.SearchHit{}
	}
	return &driving.SearchPage{Hits: hits, Total: total, Elapsed: elapsed}, nil
}

// Stats summarises the index contents.
func (s *SearchService) Stats(ctx context.Context) (*domain.IndexStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.searchIndex == nil {
		metrics.RecordSearchError()
		logger.Error("Stats degraded to empty: no search index configured")
		return emptyIndexStats(), nil
	}

	stats, err := s.searchIndex.Stats(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.RecordSearchError()
		logger.Error("Stats degraded to empty: %v", err)
		return emptyIndexStats(), nil
	}

	if stats == nil {
		stats = emptyIndexStats()
	}
	return stats, nil
}

// emptyIndexStats is the degraded Stats response: zero counts with
// non-nil maps so callers can range without checking.
func emptyIndexStats() *domain.IndexStats {
	return &domain.IndexStats{
		Categories:  make(map[string]int),
		SourceTypes: make(map[string]int),
	}
}
