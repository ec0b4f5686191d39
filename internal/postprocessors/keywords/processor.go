// Package keywords provides a frequency-based keyword extraction processor.
package keywords

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// DefaultMaxKeywords is the default number of keywords extracted per document.
const DefaultMaxKeywords = 5

// minKeywordRunes filters out single-rune terms, which carry no topical
// signal in either Chinese or English.
const minKeywordRunes = 2

// Segmenter splits text into terms. The search index tokenizer
// satisfies this, giving keyword extraction dictionary-backed Chinese
// segmentation; without one a rune-class splitter is used.
type Segmenter interface {
	Terms(text string) []string
}

// Processor extracts the most frequent content terms into Document.Tags.
// It implements the PostProcessor interface.
type Processor struct {
	maxKeywords int
	segmenter   Segmenter
}

// Option configures the keywords processor.
type Option func(*Processor)

// WithMaxKeywords sets how many keywords are extracted.
func WithMaxKeywords(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxKeywords = n
		}
	}
}

// WithSegmenter sets the segmenter used to split content into terms.
func WithSegmenter(s Segmenter) Option {
	return func(p *Processor) {
		p.segmenter = s
	}
}

// New creates a new keywords processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxKeywords: DefaultMaxKeywords,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "keywords"
}

// Process merges extracted keywords into the document tags.
// Tags already present (from front matter or labels) are kept first and
// never duplicated.
func (p *Processor) Process(_ context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}

	seen := make(map[string]struct{}, len(doc.Tags))
	for _, tag := range doc.Tags {
		seen[strings.ToLower(tag)] = struct{}{}
	}

	for _, keyword := range p.Extract(doc.Content) {
		if _, ok := seen[keyword]; ok {
			continue
		}
		seen[keyword] = struct{}{}
		doc.Tags = append(doc.Tags, keyword)
	}

	return nil
}

// Extract returns the top keywords of the text, most frequent first.
// Ties break alphabetically so extraction is deterministic.
func (p *Processor) Extract(text string) []string {
	var terms []string
	if p.segmenter != nil {
		terms = p.segmenter.Terms(text)
	} else {
		terms = splitTerms(text)
	}

	counts := make(map[string]int)
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if utf8.RuneCountInString(term) < minKeywordRunes {
			continue
		}
		if isNumeric(term) || isStopword(term) {
			continue
		}
		counts[term]++
	}

	ranked := make([]string, 0, len(counts))
	for term := range counts {
		ranked = append(ranked, term)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	if len(ranked) > p.maxKeywords {
		ranked = ranked[:p.maxKeywords]
	}
	return ranked
}

// splitTerms is the dictionary-less fallback: ASCII alphanumeric runs
// become lowercase words, Han runs become overlapping bigrams.
func splitTerms(text string) []string {
	var terms []string
	runes := []rune(text)

	i := 0
	for i < len(runes) {
		switch {
		case isASCIIAlnum(runes[i]):
			j := i
			for j < len(runes) && isASCIIAlnum(runes[j]) {
				j++
			}
			terms = append(terms, strings.ToLower(string(runes[i:j])))
			i = j
		case unicode.Is(unicode.Han, runes[i]):
			j := i
			for j < len(runes) && unicode.Is(unicode.Han, runes[j]) {
				j++
			}
			for k := i; k+2 <= j; k++ {
				terms = append(terms, string(runes[k:k+2]))
			}
			i = j
		default:
			i++
		}
	}

	return terms
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isNumeric(term string) bool {
	for _, r := range term {
		if r < '0' || r > '9' {
			return false
		}
	}
	return term != ""
}

func isStopword(term string) bool {
	_, ok := stopwords[term]
	return ok
}

// stopwords are high-frequency function words excluded from keyword
// ranking, covering English and Chinese.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// English
		"the", "be", "to", "of", "and", "in", "that", "have", "it",
		"for", "not", "on", "with", "he", "as", "you", "do", "at",
		"this", "but", "his", "by", "from", "they", "we", "say", "her",
		"she", "or", "an", "will", "my", "one", "all", "would", "there",
		"their", "what", "so", "up", "out", "if", "about", "who", "get",
		"which", "go", "me", "when", "can", "like", "time", "just",
		"him", "know", "take", "into", "your", "some", "could", "them",
		"than", "then", "its", "also", "these", "was", "were", "are",
		"been", "has", "had", "is", "any", "each", "more", "other",
		// Chinese
		"的", "了", "和", "是", "在", "我", "有", "这", "个", "们",
		"中", "也", "为", "以", "及", "与", "或", "等", "对", "就",
		"不", "都", "而", "要", "于", "会", "可", "能", "该", "着",
		"之", "其", "被", "把", "让", "向", "但", "并", "很", "再",
		"我们", "你们", "他们", "这个", "那个", "可以", "没有",
		"什么", "怎么", "以及", "或者", "因为", "所以", "但是",
		"如果", "就是", "还是", "一个", "这些", "那些", "进行",
		"通过", "对于", "由于", "其中", "以下", "以上", "时候",
	} {
		stopwords[w] = struct{}{}
	}
}
