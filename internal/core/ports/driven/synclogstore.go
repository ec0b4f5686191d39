package driven

import (
	"context"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// SyncLogStore persists the history of sync runs.
// A row is written when a run starts and updated when it finishes.
type SyncLogStore interface {
	// Save stores or updates a log entry by ID.
	Save(ctx context.Context, log *domain.SyncLog) error

	// List returns recent entries across all sources, newest first.
	List(ctx context.Context, limit int) ([]domain.SyncLog, error)

	// ListBySource returns recent entries for one source, newest first.
	ListBySource(ctx context.Context, sourceID string, limit int) ([]domain.SyncLog, error)

	// Prune removes old entries, keeping the most recent 'keep' per source.
	Prune(ctx context.Context, keep int) error
}
