package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// maxToolLimit caps result counts for tool calls. Assistants paginate
// poorly; a tighter cap than the search API keeps responses readable.
const maxToolLimit = 50

// ErrMissingDocumentService is returned by tools that need document access.
var ErrMissingDocumentService = errors.New("mcp: document service not configured")

// SearchInput is the input schema for the search_knowledge tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"the search query, Chinese and English terms both match"`
	Category   string `json:"category,omitempty" jsonschema:"restrict results to one category"`
	SourceType string `json:"source_type,omitempty" jsonschema:"restrict results to one source type (local, git, github, confluence)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 10, max 50)"`
}

// SearchOutput is the output schema for the search_knowledge tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Total   int                  `json:"total"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Category   string  `json:"category,omitempty"`
	SourceType string  `json:"source_type,omitempty"`
	Author     string  `json:"author,omitempty"`
	Score      float64 `json:"score"`
	Excerpt    string  `json:"excerpt,omitempty"`
	UpdatedAt  string  `json:"updated_at,omitempty"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	ID string `json:"id" jsonschema:"the document ID from a search result"`
}

// DocumentOutput is the output schema for the get_document tool.
type DocumentOutput struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Category   string   `json:"category,omitempty"`
	SourceType string   `json:"source_type,omitempty"`
	Author     string   `json:"author,omitempty"`
	SourceURL  string   `json:"source_url,omitempty"`
	Language   string   `json:"language,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Content    string   `json:"content"`
	UpdatedAt  string   `json:"updated_at,omitempty"`
}

// CategoriesOutput is the output schema for the get_categories tool.
type CategoriesOutput struct {
	Categories map[string]int `json:"categories"`
}

// StatsOutput is the output schema for the get_stats tool.
type StatsOutput struct {
	TotalDocuments int            `json:"total_documents"`
	Categories     map[string]int `json:"categories"`
	SourceTypes    map[string]int `json:"source_types"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Search the knowledge base. Returns ranked results with excerpts.",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Fetch the full content of a document by ID.",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_categories",
		Description: "List document categories with counts.",
	}, s.handleGetCategories)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_stats",
		Description: "Summarise the search index: document count, categories, source types.",
	}, s.handleGetStats)
}

// handleSearch handles the search_knowledge tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	if limit > maxToolLimit {
		limit = maxToolLimit
	}

	opts := domain.SearchOptions{
		Category:   input.Category,
		SourceType: input.SourceType,
		Limit:      limit,
	}
	page, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(page.Hits)),
		Total:   page.Total,
	}

	for i := range page.Hits {
		hit := &page.Hits[i]
		output.Results[i] = SearchResultOutput{
			DocumentID: hit.ID,
			Title:      hit.Title,
			Category:   hit.Category,
			SourceType: hit.SourceType,
			Author:     hit.Author,
			Score:      hit.Score,
			Excerpt:    hit.Excerpt,
			UpdatedAt:  formatTime(hit.UpdatedAt),
		}
	}

	return nil, output, nil
}

// handleGetDocument handles the get_document tool invocation.
func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	if s.ports.Document == nil {
		return nil, DocumentOutput{}, ErrMissingDocumentService
	}

	doc, err := s.ports.Document.Get(ctx, input.ID)
	if err != nil {
		return nil, DocumentOutput{}, fmt.Errorf("getting document: %w", err)
	}

	return nil, DocumentOutput{
		ID:         doc.ID,
		Title:      doc.DisplayTitle(),
		Category:   doc.Category,
		SourceType: doc.SourceType,
		Author:     doc.Author,
		SourceURL:  doc.SourceURL,
		Language:   doc.Language,
		Tags:       doc.Tags,
		Content:    doc.Content,
		UpdatedAt:  formatTime(doc.UpdatedAt),
	}, nil
}

// handleGetCategories handles the get_categories tool invocation.
func (s *Server) handleGetCategories(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, CategoriesOutput, error) {
	if s.ports.Document == nil {
		return nil, CategoriesOutput{}, ErrMissingDocumentService
	}

	categories, err := s.ports.Document.Categories(ctx)
	if err != nil {
		return nil, CategoriesOutput{}, fmt.Errorf("listing categories: %w", err)
	}

	return nil, CategoriesOutput{Categories: categories}, nil
}

// handleGetStats handles the get_stats tool invocation.
func (s *Server) handleGetStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Search.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, fmt.Errorf("getting stats: %w", err)
	}

	return nil, StatsOutput{
		TotalDocuments: stats.TotalDocuments,
		Categories:     stats.Categories,
		SourceTypes:    stats.SourceTypes,
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
