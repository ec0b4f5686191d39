// Package summary provides a sentence-aware document summary processor.
package summary

import (
	"context"
	"strings"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// DefaultMaxLength is the default summary length in runes.
const DefaultMaxLength = 200

// sentenceTerminators end a sentence in Chinese or English prose.
const sentenceTerminators = "。！？.!?\n"

// Processor fills Document.Summary from the content.
// It implements the PostProcessor interface.
type Processor struct {
	maxLength int
}

// Option configures the summary processor.
type Option func(*Processor)

// WithMaxLength sets the maximum summary length in runes.
func WithMaxLength(length int) Option {
	return func(p *Processor) {
		if length > 0 {
			p.maxLength = length
		}
	}
}

// New creates a new summary processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxLength: DefaultMaxLength,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "summary"
}

// Process derives a summary from the document content.
// Documents that already carry a summary are left untouched.
func (p *Processor) Process(_ context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}
	if doc.Summary != "" {
		return nil
	}

	doc.Summary = Summarise(doc.Content, p.maxLength)
	return nil
}

// Summarise produces a sentence-aware extract of at most maxLength runes.
// The cut prefers the last sentence terminator past the midpoint; when
// none exists the text is truncated hard and marked with an ellipsis.
func Summarise(content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= maxLength {
		return collapseWhitespace(string(runes))
	}

	for i := maxLength - 1; i >= maxLength/2; i-- {
		if strings.ContainsRune(sentenceTerminators, runes[i]) {
			return collapseWhitespace(string(runes[:i+1]))
		}
	}

	return collapseWhitespace(string(runes[:maxLength])) + "..."
}

// collapseWhitespace flattens runs of whitespace to single spaces so
// summaries render on one line in result lists.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
