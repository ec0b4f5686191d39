package domain

import (
	"strings"
	"time"
)

// Known source types. Each corresponds to a connector implementation.
const (
	SourceTypeLocal      = "local"
	SourceTypeGit        = "git"
	SourceTypeGitHub     = "github"
	SourceTypeConfluence = "confluence"
)

// Document represents a knowledge-base document with metadata.
// It is the canonical representation after normalisation and the
// record shape fed to both the repository and the search index.
type Document struct {
	// ID is the unique identifier for the document.
	// Derived deterministically from (SourceID, URI) so that re-syncing
	// the same document replaces it instead of duplicating it.
	ID string

	// SourceID links to the Source that produced this document.
	SourceID string

	// URI is the original location (file path, URL, etc).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	Content string

	// Summary is a short sentence-aware extract of Content.
	Summary string

	// Category is the exact-match classification used as a search filter.
	Category string

	// SourceType identifies the connector kind ("local", "git",
	// "github", "confluence"). Exact-match search filter.
	SourceType string

	// Author is the document author, when the source reports one.
	Author string

	// FilePath is the path of the document within its source.
	FilePath string

	// SourceURL is a web-viewable link to the original, when one exists.
	SourceURL string

	// Language is the primary language code ("zh", "en").
	Language string

	// Tags are extracted or front-matter supplied keywords.
	Tags []string

	// Metadata contains arbitrary key-value pairs from the connector.
	Metadata map[string]any

	// Published controls whether the document participates in search.
	// Unpublished documents stay in the repository but are retracted
	// from the index.
	Published bool

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Validate checks the fields the index and repository both require.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Content) == "" {
		return ErrInvalidInput
	}
	return nil
}

// DisplayTitle returns the title, falling back to the file path and
// finally the ID so lists never render an empty row.
func (d *Document) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	if d.FilePath != "" {
		return d.FilePath
	}
	return d.ID
}
