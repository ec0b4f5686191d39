package domain

import "time"

// Pagination bounds applied by SearchOptions.Normalise.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

// SearchOptions configures a search query.
type SearchOptions struct {
	// Category filters hits to an exact category value. Empty means all.
	Category string

	// SourceType filters hits to an exact source type. Empty means all.
	SourceType string

	// Limit is the maximum number of results.
	Limit int

	// Offset is the number of ranked results to skip.
	Offset int
}

// Normalise clamps pagination to sane bounds. A zero or negative limit
// becomes the default; a negative offset becomes zero.
func (o SearchOptions) Normalise() SearchOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultSearchLimit
	}
	if o.Limit > MaxSearchLimit {
		o.Limit = MaxSearchLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// SearchHit represents a single ranked search result.
// All fields come from the index's stored fields, not the repository.
type SearchHit struct {
	// ID is the document identifier, the join key back to the repository.
	ID string

	// Title is the stored document title.
	Title string

	// Category is the stored exact-match category.
	Category string

	// SourceType is the stored connector kind.
	SourceType string

	// Author is the stored document author.
	Author string

	// FilePath is the stored path within the source.
	FilePath string

	// UpdatedAt is the stored last-update timestamp.
	UpdatedAt time.Time

	// Score is the relevance score. Non-negative, higher is more
	// relevant, no fixed upper bound.
	Score float64

	// Excerpt is a query-centred snippet with matched terms wrapped
	// in markdown bold markers.
	Excerpt string
}

// IndexStats summarises the state of the search index, derived by
// enumerating stored documents. It reflects the index, which may lag
// the repository.
type IndexStats struct {
	// TotalDocuments is the number of documents in the index.
	TotalDocuments int

	// Categories maps category value to document count.
	Categories map[string]int

	// SourceTypes maps source type to document count.
	SourceTypes map[string]int
}
