package driven

import (
	"context"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// SearchIndex provides full-text search over indexed documents.
// Backed by Bleve with Chinese-aware segmentation.
//
// Writes are serialised internally; reads run concurrently with
// writes and see the last committed state.
type SearchIndex interface {
	// Add indexes a new document. Indexing an existing ID overwrites it.
	Add(ctx context.Context, doc *domain.Document) error

	// Update re-indexes a document, inserting it if absent.
	Update(ctx context.Context, doc *domain.Document) error

	// Delete removes a document from the index. Unknown IDs are not an error.
	Delete(ctx context.Context, id string) error

	// Rebuild discards the index and re-creates it from the given
	// documents. Reads during a rebuild fail with domain.ErrIndexClosed.
	Rebuild(ctx context.Context, docs []*domain.Document) error

	// Search returns ranked hits for a query plus the total number of
	// matches before pagination.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, int, error)

	// Stats summarises the index by enumerating stored documents.
	Stats(ctx context.Context) (*domain.IndexStats, error)

	// Close releases index resources. Further calls fail with
	// domain.ErrIndexClosed.
	Close() error
}
