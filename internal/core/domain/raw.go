package domain

import "time"

// RawDocument represents opaque bytes fetched by a connector.
// It is the connector's output before normalisation.
type RawDocument struct {
	// SourceID links to the Source that produced this document.
	SourceID string

	// URI is the original location (file path, URL, etc).
	URI string

	// MIMEType is the content type (e.g., "text/markdown").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// ParentURI links to a parent for hierarchical sources
	// (wiki page ancestors, directories).
	ParentURI *string

	// Author is the document author when the connector knows it
	// (commit author, page creator).
	Author string

	// ModifiedAt is the source-side modification time, when known.
	ModifiedAt time.Time

	// Metadata contains connector-specific key-value pairs.
	Metadata map[string]any
}

// ChangeType represents the type of document change.
type ChangeType int

const (
	// ChangeCreated indicates a new document.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified document.
	ChangeUpdated

	// ChangeDeleted indicates a removed document.
	ChangeDeleted
)

// RawDocumentChange represents a change event from a connector.
// Used for incremental sync and watch operations.
type RawDocumentChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Document is the affected document. For ChangeDeleted only the
	// SourceID and URI are meaningful.
	Document RawDocument
}
