package bleveidx

import (
	"strings"
	"unicode/utf8"

	bleve "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// titleBoost weights title matches over content matches. Titles carry
// more meaning than body text in technical documentation.
const titleBoost = 2.0

// buildQuery translates a free-text query plus exact filters into the
// ranked query tree. Every term contributes an exact match, a substring
// wildcard and, from two runes up, an edit-distance-one fuzzy match,
// unioned per field and across terms. The title union is boosted against
// the content union, and filters are intersected on top. An empty or
// untokenizable query degrades to an exact title match on the raw string
// rather than matching everything.
func (e *Engine) buildQuery(queryStr, category, sourceType string) query.Query {
	terms := e.queryTerms(queryStr)

	var text query.Query
	if len(terms) == 0 {
		fallback := bleve.NewTermQuery(strings.ToLower(strings.TrimSpace(queryStr)))
		fallback.SetField("title")
		text = fallback
	} else {
		title := fieldDisjunction("title", terms)
		title.SetBoost(titleBoost)
		content := fieldDisjunction("content", terms)
		text = bleve.NewDisjunctionQuery(title, content)
	}

	filters := make([]query.Query, 0, 2)
	if category != "" {
		f := bleve.NewTermQuery(category)
		f.SetField("category")
		filters = append(filters, f)
	}
	if sourceType != "" {
		f := bleve.NewTermQuery(sourceType)
		f.SetField("source_type")
		filters = append(filters, f)
	}
	if len(filters) == 0 {
		return text
	}
	return bleve.NewConjunctionQuery(append([]query.Query{text}, filters...)...)
}

// fieldDisjunction unions the per-term sub-queries against one field.
// Terms are lowercased here because term, wildcard and fuzzy queries
// bypass the analyzer and the index stores lowercased terms.
func fieldDisjunction(field string, terms []string) *query.DisjunctionQuery {
	disj := bleve.NewDisjunctionQuery()
	for _, term := range terms {
		lowered := strings.ToLower(term)

		exact := bleve.NewTermQuery(lowered)
		exact.SetField(field)
		disj.AddQuery(exact)

		wildcard := bleve.NewWildcardQuery("*" + lowered + "*")
		wildcard.SetField(field)
		disj.AddQuery(wildcard)

		if utf8.RuneCountInString(term) >= 2 {
			fuzzy := bleve.NewFuzzyQuery(lowered)
			fuzzy.SetField(field)
			fuzzy.SetFuzziness(1)
			disj.AddQuery(fuzzy)
		}
	}
	return disj
}
