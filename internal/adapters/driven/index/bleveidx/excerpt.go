package bleveidx

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultExcerptLength is the excerpt window budget in runes,
	// before sentence alignment and markers.
	DefaultExcerptLength = 200

	// sentenceReach bounds how far a window edge stretches outward to
	// land on a sentence boundary.
	sentenceReach = 50

	ellipsis = "..."
)

func isSentenceEnd(r rune) bool {
	switch r {
	case '。', '！', '？', '\n':
		return true
	}
	return false
}

// GenerateExcerpt builds a query-centred snippet of content. The window
// sits around the first occurrence of the longest query term found
// verbatim, stretches to nearby sentence boundaries, and wraps every
// term occurrence inside it in markdown bold. Ellipses mark cut edges.
// Content without any literal term match truncates from the start, and
// empty content falls back to the truncated title. All positions are in
// runes, never bytes.
func GenerateExcerpt(content, title string, terms []string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}
	if strings.TrimSpace(content) == "" {
		return truncate([]rune(title), maxLength)
	}

	runes := []rune(content)
	term, pos := bestTerm(runes, terms)
	if term == nil {
		return truncate(runes, maxLength)
	}

	start, end := window(runes, pos, maxLength)
	snippet := strings.TrimSpace(highlight(runes[start:end], terms))
	if start > 0 {
		snippet = ellipsis + snippet
	}
	if end < len(runes) {
		snippet += ellipsis
	}
	return snippet
}

// bestTerm returns the longest term occurring verbatim in content and
// the rune position of its first occurrence. Equal lengths keep the
// first term seen.
func bestTerm(content []rune, terms []string) ([]rune, int) {
	var best []rune
	bestPos := -1
	for _, term := range terms {
		t := []rune(term)
		if len(t) == 0 || len(t) <= len(best) {
			continue
		}
		if pos := indexRunesAt(content, t, 0); pos >= 0 {
			best, bestPos = t, pos
		}
	}
	return best, bestPos
}

// window centres a maxLength span on pos, clamps it to the content, then
// stretches each edge outward up to sentenceReach runes so the snippet
// starts after and ends on a sentence boundary when one is near.
func window(content []rune, pos, maxLength int) (int, int) {
	half := maxLength / 2
	start := pos - half
	if start < 0 {
		start = 0
	}
	end := pos + half
	if end > len(content) {
		end = len(content)
	}

	for i := start - 1; i >= 0 && start-i <= sentenceReach; i-- {
		if isSentenceEnd(content[i]) {
			start = i + 1
			break
		}
	}
	for i := end; i < len(content) && i-end < sentenceReach; i++ {
		if isSentenceEnd(content[i]) {
			end = i + 1
			break
		}
	}
	return start, end
}

// highlight wraps term occurrences in the window with markdown bold.
// Occurrences are claimed as rune intervals, longest terms first, so a
// short term never splits the marker of a longer term containing it.
func highlight(window []rune, terms []string) string {
	type span struct{ start, end int }

	sorted := make([]string, len(terms))
	copy(sorted, terms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i]) > utf8.RuneCountInString(sorted[j])
	})

	taken := make([]bool, len(window))
	var spans []span
	for _, term := range sorted {
		t := []rune(term)
		if len(t) == 0 {
			continue
		}
		for from := 0; ; {
			at := indexRunesAt(window, t, from)
			if at < 0 {
				break
			}
			free := true
			for i := at; i < at+len(t); i++ {
				if taken[i] {
					free = false
					break
				}
			}
			if !free {
				from = at + 1
				continue
			}
			for i := at; i < at+len(t); i++ {
				taken[i] = true
			}
			spans = append(spans, span{start: at, end: at + len(t)})
			from = at + len(t)
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	prev := 0
	for _, s := range spans {
		b.WriteString(string(window[prev:s.start]))
		b.WriteString("**")
		b.WriteString(string(window[s.start:s.end]))
		b.WriteString("**")
		prev = s.end
	}
	b.WriteString(string(window[prev:]))
	return b.String()
}

// truncate cuts content to maxLength runes, ending on the last sentence
// boundary past the midpoint when one exists, else hard-cutting with a
// trailing ellipsis.
func truncate(content []rune, maxLength int) string {
	if len(content) <= maxLength {
		return strings.TrimSpace(string(content))
	}
	cut := content[:maxLength]
	for i := maxLength - 1; i > maxLength/2; i-- {
		if isSentenceEnd(cut[i]) {
			return strings.TrimSpace(string(cut[:i+1]))
		}
	}
	return strings.TrimSpace(string(cut)) + ellipsis
}

// indexRunesAt returns the rune index of the first occurrence of needle
// in haystack at or after from, or -1.
func indexRunesAt(haystack, needle []rune, from int) int {
	if len(needle) == 0 || from < 0 {
		return -1
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
