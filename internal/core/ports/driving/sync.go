package driving

import (
	"context"
	"time"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// SyncOrchestrator coordinates document synchronisation from sources.
type SyncOrchestrator interface {
	// Sync triggers synchronisation for a source.
	Sync(ctx context.Context, sourceID string) error

	// SyncAll triggers synchronisation for all configured sources.
	SyncAll(ctx context.Context) error

	// Watch streams change events from watch-capable sources and applies
	// them as they arrive. Blocks until the context is cancelled.
	Watch(ctx context.Context) error

	// Status returns sync status for a source.
	Status(ctx context.Context, sourceID string) (*SyncStatus, error)

	// History returns recent sync runs, newest first. An empty sourceID
	// returns runs for all sources.
	History(ctx context.Context, sourceID string, limit int) ([]domain.SyncLog, error)
}

// SyncStatus represents the current state of a sync operation.
type SyncStatus struct {
	// SourceID identifies the source.
	SourceID string

	// Running indicates if sync is currently in progress.
	Running bool

	// DocumentsProcessed is the count of documents processed.
	DocumentsProcessed int

	// ErrorCount is the number of errors encountered.
	ErrorCount int

	// LastSync is when the last successful sync completed.
	LastSync time.Time
}
