package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *doc
	if existing, ok := s.documents[doc.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	s.documents[doc.ID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByURI retrieves a document by its source and original location.
func (s *DocumentStore) GetDocumentByURI(_ context.Context, sourceID, uri string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.documents {
		doc := s.documents[id]
		if doc.SourceID == sourceID && doc.URI == uri {
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListDocuments returns documents for a source, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context, sourceID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if doc.SourceID == sourceID {
			result = append(result, doc)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

// ListPublished returns every published document, newest first.
func (s *DocumentStore) ListPublished(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for id := range s.documents {
		doc := s.documents[id]
		if doc.Published {
			result = append(result, doc)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

// SetPublished flips a document's published flag.
func (s *DocumentStore) SetPublished(_ context.Context, id string, published bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Published = published
	s.documents[id] = doc
	return nil
}

// DeleteDocument removes a document.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	return nil
}

// DeleteBySource removes all documents for a source and returns the
// removed IDs.
func (s *DocumentStore) DeleteBySource(_ context.Context, sourceID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id := range s.documents {
		if s.documents[id].SourceID == sourceID {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		delete(s.documents, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// CountByCategory returns document counts grouped by category.
// Documents without a category land in the "unknown" bucket.
func (s *DocumentStore) CountByCategory(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for id := range s.documents {
		category := s.documents[id].Category
		if category == "" {
			category = "unknown"
		}
		counts[category]++
	}
	return counts, nil
}

// sortNewestFirst orders documents by update time descending, with ID as
// the tie-break so results are deterministic.
func sortNewestFirst(docs []domain.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UpdatedAt.Equal(docs[j].UpdatedAt) {
			return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
}
