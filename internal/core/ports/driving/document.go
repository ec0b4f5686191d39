package driving

import (
	"context"
	"time"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// DocumentService manages documents within sources.
type DocumentService interface {
	// ListBySource returns all documents for a source.
	ListBySource(ctx context.Context, sourceID string) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// GetDetails returns connector-agnostic metadata for display.
	GetDetails(ctx context.Context, documentID string) (*DocumentDetails, error)

	// Publish makes a document searchable again.
	Publish(ctx context.Context, documentID string) error

	// Unpublish retracts a document from search while keeping it stored.
	Unpublish(ctx context.Context, documentID string) error

	// Delete removes a document from the store and the index.
	Delete(ctx context.Context, documentID string) error

	// Categories returns document counts per category from the store.
	Categories(ctx context.Context) (map[string]int, error)
}

// DocumentDetails provides a standardised view of document metadata.
type DocumentDetails struct {
	// ID is the unique document identifier.
	ID string

	// SourceID links to the parent source.
	SourceID string

	// SourceName is the human-readable source name.
	SourceName string

	// SourceType is the connector type (e.g., "git").
	SourceType string

	// Title is the document title.
	Title string

	// URI is the original location.
	URI string

	// Category is the assigned category.
	Category string

	// Author is the document author, when known.
	Author string

	// Published indicates whether the document is searchable.
	Published bool

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time

	// Metadata contains flattened key-value pairs for display.
	Metadata map[string]string
}
