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

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages documents within sources, including the
// publish lifecycle that controls search visibility.
type DocumentService struct {
	docStore    driven.DocumentStore
	sourceStore driven.SourceStore
	searchIndex driven.SearchIndex
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	docStore driven.DocumentStore,
	sourceStore driven.SourceStore,
	searchIndex driven.SearchIndex,
) *DocumentService {
	return &DocumentService{
		docStore:    docStore,
		sourceStore: sourceStore,
		searchIndex: searchIndex,
	}
}

// ListBySource returns all documents for a source.
func (s *DocumentService) ListBySource(ctx context.Context, sourceID string) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx, sourceID)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// GetDetails returns connector-agnostic metadata for display.
func (s *DocumentService) GetDetails(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	// Source lookup is best effort; a missing source leaves the name
	// blank rather than failing the whole view.
	var sourceName string
	sourceType := doc.SourceType
	if s.sourceStore != nil {
		source, err := s.sourceStore.Get(ctx, doc.SourceID)
		if err == nil && source != nil {
			sourceName = source.Name
			if sourceType == "" {
				sourceType = source.Type
			}
		}
	}

	// Flatten metadata to string map
	metadata := make(map[string]string, len(doc.Metadata))
	for key, value := range doc.Metadata {
		metadata[key] = fmt.Sprintf("%v", value)
	}

	return &driving.DocumentDetails{
		ID:         doc.ID,
		SourceID:   doc.SourceID,
		SourceName: sourceName,
		SourceType: sourceType,
		Title:      doc.Title,
		URI:        doc.URI,
		Category:   doc.Category,
		Author:     doc.Author,
		Published:  doc.Published,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
		Metadata:   metadata,
	}, nil
}

// Publish makes a document searchable again. Publishing an already
// published document re-indexes it, which is harmless.
func (s *DocumentService) Publish(ctx context.Context, documentID string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.docStore.SetPublished(ctx, documentID, true); err != nil {
		return fmt.Errorf("set published: %w", err)
	}

	doc.Published = true
	if err := s.searchIndex.Add(ctx, doc); err != nil {
		metrics.RecordIndexWriteError()
		return fmt.Errorf("index document: %w", err)
	}

	logger.Info("Published document %s (%s)", documentID, doc.DisplayTitle())
	return nil
}

// Unpublish retracts a document from search while keeping it stored.
func (s *DocumentService) Unpublish(ctx context.Context, documentID string) error {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return err
	}

	if err := s.docStore.SetPublished(ctx, documentID, false); err != nil {
		return fmt.Errorf("set published: %w", err)
	}

	if err := s.searchIndex.Delete(ctx, documentID); err != nil {
		metrics.RecordIndexWriteError()
		return fmt.Errorf("retract document: %w", err)
	}

	logger.Info("Unpublished document %s", documentID)
	return nil
}

// Delete removes a document from the store and the index.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return err
	}

	// An index miss is recoverable via rebuild.
	if err := s.searchIndex.Delete(ctx, documentID); err != nil {
		metrics.RecordIndexWriteError()
		logger.Warn("Failed to remove %s from index: %v", documentID, err)
	}

	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	logger.Info("Deleted document %s", documentID)
	return nil
}

// Categories returns document counts per category from the store.
func (s *DocumentService) Categories(ctx context.Context) (map[string]int, error) {
	return s.docStore.CountByCategory(ctx)
}
