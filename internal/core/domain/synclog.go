package domain

import "time"

// Sync run statuses recorded in the sync log.
const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// SyncLog records a single synchronisation run for a source.
// One row is written when a run starts and updated when it finishes.
type SyncLog struct {
	// ID is the unique identifier for the log entry.
	ID string

	// SourceID links to the synced source.
	SourceID string

	// SourceType is the connector kind of the source.
	SourceType string

	// SourceName is the display name at the time of the run.
	SourceName string

	// Status is one of SyncStatusRunning, SyncStatusSuccess,
	// SyncStatusError.
	Status string

	// Message carries the error text for failed runs.
	Message string

	// DocumentsSynced is the total number of documents processed.
	DocumentsSynced int

	// DocumentsAdded counts newly created documents.
	DocumentsAdded int

	// DocumentsUpdated counts replaced documents.
	DocumentsUpdated int

	// DocumentsDeleted counts retracted documents.
	DocumentsDeleted int

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run completed. Zero while running.
	FinishedAt time.Time
}

// Duration returns the elapsed run time, or zero while running.
func (l *SyncLog) Duration() time.Duration {
	if l.FinishedAt.IsZero() {
		return 0
	}
	return l.FinishedAt.Sub(l.StartedAt)
}
