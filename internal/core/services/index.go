package services

import (
	"context"
	"fmt"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
	"github.com/corpora-labs/docseek/internal/core/ports/driving"
	"github.com/corpora-labs/docseek/internal/logger"
	"github.com/corpora-labs/docseek/internal/metrics"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService rebuilds the search index from the document store.
// Unlike the search read path these operations report errors honestly.
type IndexService struct {
	docStore    driven.DocumentStore
	searchIndex driven.SearchIndex
}

// NewIndexService creates a new index service.
func NewIndexService(docStore driven.DocumentStore, searchIndex driven.SearchIndex) *IndexService {
	return &IndexService{
		docStore:    docStore,
		searchIndex: searchIndex,
	}
}

// Rebuild drops the index and re-indexes every published document from
// the store. Returns the number of documents indexed.
func (s *IndexService) Rebuild(ctx context.Context) (int, error) {
	logger.Section("Index Rebuild")

	docs, err := s.docStore.ListPublished(ctx)
	if err != nil {
		return 0, fmt.Errorf("list published documents: %w", err)
	}
	logger.Info("Rebuilding index from %d published document(s)", len(docs))

	ptrs := make([]*domain.Document, len(docs))
	for i := range docs {
		ptrs[i] = &docs[i]
	}

	if err := s.searchIndex.Rebuild(ctx, ptrs); err != nil {
		metrics.RecordIndexWriteError()
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	metrics.RecordDocumentsIndexed(len(ptrs))

	logger.Info("Index rebuild complete: %d document(s)", len(ptrs))
	return len(ptrs), nil
}
