package driven

import (
	"context"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// DocumentStore persists documents.
// Backed by SQLite. The store is the system of record; the search index
// is derived from it and can always be rebuilt from ListPublished.
type DocumentStore interface {
	// SaveDocument stores or updates a document by ID.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound when it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByURI retrieves a document by its source and original
	// location. Returns domain.ErrNotFound when it does not exist.
	GetDocumentByURI(ctx context.Context, sourceID, uri string) (*domain.Document, error)

	// ListDocuments returns documents for a source, newest first.
	ListDocuments(ctx context.Context, sourceID string) ([]domain.Document, error)

	// ListPublished returns every published document. This feeds index
	// rebuilds.
	ListPublished(ctx context.Context) ([]domain.Document, error)

	// SetPublished flips a document's published flag.
	// Returns domain.ErrNotFound when the document does not exist.
	SetPublished(ctx context.Context, id string, published bool) error

	// DeleteDocument removes a document.
	DeleteDocument(ctx context.Context, id string) error

	// DeleteBySource removes all documents for a source and returns
	// the IDs removed, so the caller can retract them from the index.
	DeleteBySource(ctx context.Context, sourceID string) ([]string, error)

	// CountByCategory returns document counts grouped by category.
	CountByCategory(ctx context.Context) (map[string]int, error)
}
