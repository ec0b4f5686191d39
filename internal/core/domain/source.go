package domain

import (
	"strings"
	"time"
)

// Source represents a configured data source.
// Each source produces documents via a connector of its Type.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Type identifies the connector type (e.g., "local", "git",
	// "github", "confluence").
	Type string

	// Name is the human-readable name for this source.
	Name string

	// Category is the category assigned to documents from this source.
	// Connectors may override it per document (front matter).
	Category string

	// Config contains connector-specific configuration
	// (paths, repository URLs, space keys).
	Config map[string]string

	// CreatedAt is when the source was created.
	CreatedAt time.Time

	// UpdatedAt is when the source was last updated.
	UpdatedAt time.Time
}

// Validate checks the fields every connector needs.
func (s *Source) Validate() error {
	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Type) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrInvalidInput
	}
	return nil
}

// ConfigValue returns a config entry, or the empty string when unset.
func (s *Source) ConfigValue(key string) string {
	if s.Config == nil {
		return ""
	}
	return s.Config[key]
}

// SyncState tracks the synchronisation progress for a source.
type SyncState struct {
	// SourceID links to the Source being synced.
	SourceID string

	// Cursor is an opaque token for incremental sync.
	Cursor string

	// LastSync is when the last successful sync completed.
	LastSync time.Time
}
