// Package bleveidx implements the full-text index over a bleve store:
// schema-typed persistence, the ranked query tree, excerpt generation and
// the maintenance operations that keep the index aligned with the
// document store.
package bleveidx

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	bleve "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"

	"github.com/corpora-labs/docseek/internal/adapters/driven/index/segment"
	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
	"github.com/corpora-labs/docseek/internal/logger"
	"github.com/corpora-labs/docseek/internal/metrics"
)

// Ensure Engine implements the interface.
var _ driven.SearchIndex = (*Engine)(nil)

// Config locates the index and fixes its analysis settings. The segment
// settings must not change for the life of an index directory; a rebuild
// picks up new ones.
type Config struct {
	Path    string
	Segment segment.Config
}

// Engine owns one on-disk bleve index. Writes go through single-batch
// transactions serialised by writeMu; reads run concurrently against the
// last committed snapshot. handleMu only guards the handle itself, which
// rebuild swaps out.
type Engine struct {
	cfg Config

	writeMu  sync.Mutex
	handleMu sync.RWMutex
	idx      bleve.Index

	tokenizer *segment.Tokenizer
}

// Open opens the index at cfg.Path, creating an empty one when the path
// does not exist. A path holding unreadable or incompatible data fails
// with domain.ErrIndexCorrupt.
func Open(cfg Config) (*Engine, error) {
	tokenizer, err := segment.New(cfg.Segment)
	if err != nil {
		return nil, err
	}

	idx, err := openOrCreate(cfg)
	if err != nil {
		return nil, err
	}

	return &Engine{cfg: cfg, idx: idx, tokenizer: tokenizer}, nil
}

func openOrCreate(cfg Config) (bleve.Index, error) {
	idx, err := bleve.Open(cfg.Path)
	if err == nil {
		return idx, nil
	}
	if err != bleve.ErrorIndexPathDoesNotExist {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrIndexCorrupt, cfg.Path, err)
	}

	m, err := buildIndexMapping(cfg.Segment)
	if err != nil {
		return nil, err
	}
	idx, err = bleve.New(cfg.Path, m)
	if err != nil {
		return nil, fmt.Errorf("create index at %s: %w", cfg.Path, err)
	}
	return idx, nil
}

func (e *Engine) handle() (bleve.Index, error) {
	e.handleMu.RLock()
	defer e.handleMu.RUnlock()
	if e.idx == nil {
		return nil, domain.ErrIndexClosed
	}
	return e.idx, nil
}

// writeBatch runs fn against a fresh batch and commits it. The batch is
// all-or-nothing: on any error it is dropped uncommitted and the index
// stays at its last committed state. The deferred unlock releases the
// writer on every exit path.
func (e *Engine) writeBatch(ctx context.Context, fn func(b *bleve.Batch) error) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	idx, err := e.handle()
	if err != nil {
		return err
	}

	batch := idx.NewBatch()
	if err := fn(batch); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteTransaction, err)
	}
	// A caller that gave up before the commit started gets a clean
	// cancel; once idx.Batch runs, the commit goes through whole.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := idx.Batch(batch); err != nil {
		metrics.RecordIndexWriteError()
		return fmt.Errorf("%w: %v", domain.ErrWriteTransaction, err)
	}
	return nil
}

// Add indexes a document.
func (e *Engine) Add(ctx context.Context, doc *domain.Document) error {
	return e.Update(ctx, doc)
}

// Update replaces the indexed document with the same ID, superseding all
// its previous postings; an unknown ID is added.
func (e *Engine) Update(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	err := e.writeBatch(ctx, func(b *bleve.Batch) error {
		return b.Index(doc.ID, toIndexed(doc))
	})
	if err != nil {
		return err
	}
	metrics.RecordDocumentsIndexed(1)
	return nil
}

// Delete removes a document from the index. Deleting an absent ID is not
// an error.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	return e.writeBatch(ctx, func(b *bleve.Batch) error {
		b.Delete(id)
		return nil
	})
}

// Rebuild discards the index entirely and writes the given snapshot in
// one batch. Searches issued between the discard and the commit see an
// empty or closed index; a failed batch leaves the index empty for the
// caller to retry.
func (e *Engine) Rebuild(ctx context.Context, docs []*domain.Document) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.handleMu.Lock()
	old := e.idx
	e.idx = nil
	e.handleMu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			return fmt.Errorf("close index before rebuild: %w", err)
		}
	}
	if err := os.RemoveAll(e.cfg.Path); err != nil {
		return fmt.Errorf("remove index at %s: %w", e.cfg.Path, err)
	}

	m, err := buildIndexMapping(e.cfg.Segment)
	if err != nil {
		return err
	}
	idx, err := bleve.New(e.cfg.Path, m)
	if err != nil {
		return fmt.Errorf("create index at %s: %w", e.cfg.Path, err)
	}

	e.handleMu.Lock()
	e.idx = idx
	e.handleMu.Unlock()

	batch := idx.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, toIndexed(doc)); err != nil {
			metrics.RecordIndexWriteError()
			return fmt.Errorf("%w: index %s: %v", domain.ErrWriteTransaction, doc.ID, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := idx.Batch(batch); err != nil {
		metrics.RecordIndexWriteError()
		return fmt.Errorf("%w: %v", domain.ErrWriteTransaction, err)
	}
	metrics.RecordDocumentsIndexed(len(docs))
	return nil
}

// Search executes the ranked query and returns the requested page plus
// the total number of matches before pagination. Ranking retrieves the
// limit+offset superset and slices it, so deeper pages cost more.
func (e *Engine) Search(ctx context.Context, queryStr string, opts domain.SearchOptions) ([]domain.SearchHit, int, error) {
	opts = opts.Normalise()

	idx, err := e.handle()
	if err != nil {
		return nil, 0, err
	}

	q := e.buildQuery(queryStr, opts.Category, opts.SourceType)
	req := bleve.NewSearchRequestOptions(q, opts.Limit+opts.Offset, 0, false)
	req.Fields = []string{"title", "content", "category", "source_type", "author", "file_path", "updated_at"}
	req.SortBy([]string{"-_score"})

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("search %q: %w", queryStr, err)
	}

	terms := e.queryTerms(queryStr)
	hits := make([]domain.SearchHit, 0, opts.Limit)
	for i := opts.Offset; i < len(res.Hits) && len(hits) < opts.Limit; i++ {
		hits = append(hits, e.toHit(res.Hits[i], terms))
	}
	return hits, int(res.Total), nil
}

func (e *Engine) toHit(match *search.DocumentMatch, terms []string) domain.SearchHit {
	hit := domain.SearchHit{ID: match.ID, Score: match.Score}
	if v, ok := match.Fields["title"].(string); ok {
		hit.Title = v
	}
	if v, ok := match.Fields["category"].(string); ok {
		hit.Category = v
	}
	if v, ok := match.Fields["source_type"].(string); ok {
		hit.SourceType = v
	}
	if v, ok := match.Fields["author"].(string); ok {
		hit.Author = v
	}
	if v, ok := match.Fields["file_path"].(string); ok {
		hit.FilePath = v
	}
	if v, ok := match.Fields["updated_at"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			hit.UpdatedAt = ts
		}
	}

	content, ok := match.Fields["content"].(string)
	if !ok && hit.Title == "" {
		logger.Warn("no stored fields for excerpt: document=%s", match.ID)
		metrics.RecordExcerptError()
	}
	hit.Excerpt = GenerateExcerpt(content, hit.Title, terms, DefaultExcerptLength)
	return hit
}

// Stats enumerates the stored documents and aggregates their category and
// source type counts. It reflects the index, which may lag the document
// store between sync and indexing.
func (e *Engine) Stats(ctx context.Context) (*domain.IndexStats, error) {
	idx, err := e.handle()
	if err != nil {
		return nil, err
	}

	count, err := idx.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	stats := &domain.IndexStats{
		TotalDocuments: int(count),
		Categories:     map[string]int{},
		SourceTypes:    map[string]int{},
	}
	if count == 0 {
		return stats, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	req.Fields = []string{"category", "source_type"}
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("enumerate index: %w", err)
	}

	for _, match := range res.Hits {
		category, _ := match.Fields["category"].(string)
		if category == "" {
			category = "unknown"
		}
		sourceType, _ := match.Fields["source_type"].(string)
		if sourceType == "" {
			sourceType = "unknown"
		}
		stats.Categories[category]++
		stats.SourceTypes[sourceType]++
	}
	return stats, nil
}

// Close releases the index. Further calls on the engine return
// domain.ErrIndexClosed.
func (e *Engine) Close() error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	e.handleMu.Lock()
	defer e.handleMu.Unlock()

	if e.idx == nil {
		return nil
	}
	err := e.idx.Close()
	e.idx = nil
	if err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	return nil
}

// Tokenizer exposes the engine's segmenter so other components reuse
// the same dictionary state.
func (e *Engine) Tokenizer() *segment.Tokenizer {
	return e.tokenizer
}

// queryTerms tokenizes the query the same way the index analyses text.
// When segmentation yields nothing, the trimmed raw string is the single
// term, so unusual queries still match literally.
func (e *Engine) queryTerms(queryStr string) []string {
	terms := e.tokenizer.Terms(queryStr)
	if len(terms) == 0 {
		if raw := strings.TrimSpace(queryStr); raw != "" {
			terms = []string{raw}
		}
	}
	return terms
}
