package bleveidx

import (
	"time"

	bleve "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/corpora-labs/docseek/internal/adapters/driven/index/segment"
	"github.com/corpora-labs/docseek/internal/core/domain"
)

// textAnalyzer lowercases the segment tokenizer's output for the two
// ranked text fields.
const textAnalyzer = "docseek_text"

// indexedDocument is the stored shape of one index entry. The document ID
// lives outside it as the bleve document key. Content is stored verbatim
// because excerpts are computed from the index at query time, and the
// timestamps are stored as RFC3339 UTC strings, which sort lexically.
type indexedDocument struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Category   string `json:"category"`
	SourceType string `json:"source_type"`
	Author     string `json:"author"`
	FilePath   string `json:"file_path"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func toIndexed(doc *domain.Document) *indexedDocument {
	return &indexedDocument{
		Title:      doc.Title,
		Content:    doc.Content,
		Category:   doc.Category,
		SourceType: doc.SourceType,
		Author:     doc.Author,
		FilePath:   doc.FilePath,
		CreatedAt:  doc.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  doc.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// buildIndexMapping defines the canonical schema: title and content are
// segmented, lowercased and stored; category and source_type are indexed
// whole for exact filtering; the rest is stored for display only. The
// tokenizer config travels inside the mapping, so bleve persists it in
// the index metadata and reopening restores identical analysis.
func buildIndexMapping(segCfg segment.Config) (*mapping.IndexMappingImpl, error) {
	m := bleve.NewIndexMapping()

	if err := m.AddCustomTokenizer(segment.TokenizerName, segment.BleveConfig(segCfg)); err != nil {
		return nil, err
	}
	if err := m.AddCustomAnalyzer(textAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     segment.TokenizerName,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		return nil, err
	}

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false

	text := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = textAnalyzer
		f.Store = true
		f.IncludeInAll = false
		return f
	}
	doc.AddFieldMappingsAt("title", text())
	doc.AddFieldMappingsAt("content", text())

	exact := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		f.Store = true
		f.IncludeInAll = false
		return f
	}
	doc.AddFieldMappingsAt("category", exact())
	doc.AddFieldMappingsAt("source_type", exact())

	stored := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Index = false
		f.Store = true
		f.IncludeInAll = false
		return f
	}
	doc.AddFieldMappingsAt("author", stored())
	doc.AddFieldMappingsAt("file_path", stored())
	doc.AddFieldMappingsAt("created_at", stored())
	doc.AddFieldMappingsAt("updated_at", stored())

	m.DefaultMapping = doc
	return m, nil
}
