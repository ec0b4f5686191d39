package mcp

import (
	"github.com/corpora-labs/docseek/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides search capabilities.
	Search driving.SearchService

	// Document manages documents within sources.
	Document driving.DocumentService

	// Source manages source configurations.
	Source driving.SourceService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Document and Source are optional; tools and resources that need
	// them report that at call time.
	return nil
}
