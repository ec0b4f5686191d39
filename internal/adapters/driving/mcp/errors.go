// Package mcp provides an MCP (Model Context Protocol) server adapter for docseek.
// It enables AI assistants to search and read the shared knowledge base.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
