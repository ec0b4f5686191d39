// Package segment tokenizes mixed Chinese and Latin text into terms with
// byte offsets into the original string. Chinese runs are cut with a
// dictionary-driven segmenter in search mode, which favours recall by
// emitting the dictionary n-grams inside each word alongside the word
// itself. Latin runs split on whitespace and punctuation.
package segment

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/wangbin/jiebago"
)

// LanguageChinese enables dictionary segmentation for Han runs. Any other
// language value splits on whitespace only.
const LanguageChinese = "zh"

// Token is one indexable term with its byte span in the original text.
// text[Start:End] == Term always holds.
type Token struct {
	Term  string
	Start int
	End   int
}

// Config controls segmentation behaviour.
type Config struct {
	// Language selects the segmentation mode. Empty defaults to
	// LanguageChinese.
	Language string
	// DictPath is the main frequency dictionary. When empty, Chinese runs
	// fall back to unigram plus bigram emission.
	DictPath string
	// UserDictPath is an optional supplementary dictionary merged on top
	// of the main one.
	UserDictPath string
	// MinTermLength drops terms shorter than this many runes. Zero or one
	// keeps everything.
	MinTermLength int
}

// Tokenizer segments text. Output is deterministic for identical input and
// dictionary state.
type Tokenizer struct {
	cfg Config
	seg *jiebago.Segmenter
}

// nonIndexable matches every rune that neither carries search meaning nor
// already separates terms. Matches are blanked with spaces of the same
// byte width so token offsets stay valid against the original text.
var nonIndexable = regexp.MustCompile(`[^\p{Han}a-zA-Z0-9\s]`)

// Dictionaries are immutable after load and shared process-wide, keyed by
// their file paths.
var (
	dictMu    sync.Mutex
	dictCache = map[string]*jiebago.Segmenter{}
)

func loadSegmenter(dictPath, userDictPath string) (*jiebago.Segmenter, error) {
	dictMu.Lock()
	defer dictMu.Unlock()

	key := dictPath + "\x00" + userDictPath
	if seg, ok := dictCache[key]; ok {
		return seg, nil
	}

	seg := new(jiebago.Segmenter)
	if err := seg.LoadDictionary(dictPath); err != nil {
		return nil, fmt.Errorf("segment: load dictionary %s: %w", dictPath, err)
	}
	if userDictPath != "" {
		if err := seg.LoadUserDictionary(userDictPath); err != nil {
			return nil, fmt.Errorf("segment: load user dictionary %s: %w", userDictPath, err)
		}
	}
	dictCache[key] = seg
	return seg, nil
}

// New builds a Tokenizer. Dictionaries load lazily on first use of their
// paths and are shared across instances, so repeated construction with the
// same configuration is cheap.
func New(cfg Config) (*Tokenizer, error) {
	if cfg.Language == "" {
		cfg.Language = LanguageChinese
	}
	t := &Tokenizer{cfg: cfg}
	if cfg.Language == LanguageChinese && cfg.DictPath != "" {
		seg, err := loadSegmenter(cfg.DictPath, cfg.UserDictPath)
		if err != nil {
			return nil, err
		}
		t.seg = seg
	}
	return t, nil
}

// Tokenize splits text into terms with byte offsets. Terms keep their
// original casing.
func (t *Tokenizer) Tokenize(text string) []Token {
	if text == "" {
		return nil
	}
	cleaned := clean(text)

	var tokens []Token
	switch {
	case t.cfg.Language != LanguageChinese:
		tokens = splitFields(cleaned)
	case t.seg != nil:
		tokens = t.cutSearch(cleaned)
	default:
		tokens = cutNGrams(cleaned)
	}

	if t.cfg.MinTermLength > 1 {
		kept := tokens[:0]
		for _, tok := range tokens {
			if utf8.RuneCountInString(tok.Term) >= t.cfg.MinTermLength {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}
	return tokens
}

// Terms returns the term strings from Tokenize, deduplicated in first-seen
// order. Query building and excerpt matching work on terms alone.
func (t *Tokenizer) Terms(text string) []string {
	toks := t.Tokenize(text)
	seen := make(map[string]struct{}, len(toks))
	terms := make([]string, 0, len(toks))
	for _, tok := range toks {
		if _, ok := seen[tok.Term]; ok {
			continue
		}
		seen[tok.Term] = struct{}{}
		terms = append(terms, tok.Term)
	}
	return terms
}

func clean(text string) string {
	return nonIndexable.ReplaceAllStringFunc(text, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
}

// cutSearch walks the accurate cut of the whole text to locate each word,
// then expands every word into its search-mode terms. The accurate cut
// partitions the input left to right, so a single advancing cursor
// recovers exact byte positions.
func (t *Tokenizer) cutSearch(text string) []Token {
	var out []Token
	cursor := 0
	for word := range t.seg.Cut(text, true) {
		idx := strings.Index(text[cursor:], word)
		if idx < 0 {
			continue
		}
		wordStart := cursor + idx
		cursor = wordStart + len(word)
		if strings.TrimSpace(word) == "" {
			continue
		}
		out = append(out, t.subTerms(word, wordStart)...)
	}
	return out
}

// subTerms emits the search-mode terms of one cut word: the dictionary
// n-grams inside it followed by the word itself. Grams of equal length
// arrive left to right, so the scan cursor resets whenever the gram length
// changes and otherwise advances one rune past each match, which keeps
// overlapping grams anchored to distinct positions.
func (t *Tokenizer) subTerms(word string, wordStart int) []Token {
	runes := []rune(word)
	if len(runes) <= 2 {
		return []Token{{Term: word, Start: wordStart, End: wordStart + len(word)}}
	}

	offs := make([]int, 0, len(runes)+1)
	for i := range word {
		offs = append(offs, i)
	}
	offs = append(offs, len(word))

	var out []Token
	searchFrom := 0
	lastLen := 0
	for gram := range t.seg.CutForSearch(word, true) {
		gramRunes := []rune(gram)
		if len(gramRunes) != lastLen {
			searchFrom = 0
			lastLen = len(gramRunes)
		}
		at := indexRunes(runes, gramRunes, searchFrom)
		if at < 0 {
			at = indexRunes(runes, gramRunes, 0)
			if at < 0 {
				continue
			}
		}
		out = append(out, Token{
			Term:  gram,
			Start: wordStart + offs[at],
			End:   wordStart + offs[at+len(gramRunes)],
		})
		searchFrom = at + 1
	}
	return out
}

// indexRunes returns the rune index of the first occurrence of needle in
// haystack at or after from, or -1.
func indexRunes(haystack, needle []rune, from int) int {
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

// cutNGrams is the dictionary-free fallback: Han runs emit every unigram
// plus every adjacent bigram, Latin runs emit whole words.
func cutNGrams(text string) []Token {
	var out []Token
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case unicode.Is(unicode.Han, r):
			j := i
			var offs []int
			for j < len(text) {
				rr, ss := utf8.DecodeRuneInString(text[j:])
				if !unicode.Is(unicode.Han, rr) {
					break
				}
				offs = append(offs, j)
				j += ss
			}
			offs = append(offs, j)
			for k := 0; k+1 < len(offs); k++ {
				out = append(out, Token{Term: text[offs[k]:offs[k+1]], Start: offs[k], End: offs[k+1]})
				if k+2 < len(offs) {
					out = append(out, Token{Term: text[offs[k]:offs[k+2]], Start: offs[k], End: offs[k+2]})
				}
			}
			i = j
		case isASCIIAlnum(r):
			j := i
			for j < len(text) {
				rr, ss := utf8.DecodeRuneInString(text[j:])
				if !isASCIIAlnum(rr) {
					break
				}
				j += ss
			}
			out = append(out, Token{Term: text[i:j], Start: i, End: j})
			i = j
		default:
			i += size
		}
	}
	return out
}

// splitFields splits on whitespace runs, for deployments indexing Latin
// text only.
func splitFields(text string) []Token {
	var out []Token
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}
		j := i
		for j < len(text) {
			rr, ss := utf8.DecodeRuneInString(text[j:])
			if unicode.IsSpace(rr) {
				break
			}
			j += ss
		}
		out = append(out, Token{Term: text[i:j], Start: i, End: j})
		i = j
	}
	return out
}

func isASCIIAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
