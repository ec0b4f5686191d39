package segment

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

// TokenizerName identifies this tokenizer in the bleve registry. Index
// mappings reference it through AddCustomTokenizer with the map produced
// by BleveConfig, which bleve serialises into the index metadata so a
// reopened index reconstructs the same segmentation.
const TokenizerName = "docseek_segment"

// BleveConfig renders cfg as a bleve tokenizer config map.
func BleveConfig(cfg Config) map[string]interface{} {
	return map[string]interface{}{
		"type":            TokenizerName,
		"language":        cfg.Language,
		"dict_path":       cfg.DictPath,
		"user_dict_path":  cfg.UserDictPath,
		"min_term_length": cfg.MinTermLength,
	}
}

type bleveTokenizer struct {
	inner *Tokenizer
}

func (b *bleveTokenizer) Tokenize(input []byte) analysis.TokenStream {
	toks := b.inner.Tokenize(string(input))
	stream := make(analysis.TokenStream, 0, len(toks))
	for i, tok := range toks {
		typ := analysis.AlphaNumeric
		if r, _ := utf8.DecodeRuneInString(tok.Term); unicode.Is(unicode.Han, r) {
			typ = analysis.Ideographic
		}
		stream = append(stream, &analysis.Token{
			Term:     []byte(tok.Term),
			Start:    tok.Start,
			End:      tok.End,
			Position: i + 1,
			Type:     typ,
		})
	}
	return stream
}

func tokenizerConstructor(config map[string]interface{}, _ *registry.Cache) (analysis.Tokenizer, error) {
	var cfg Config
	if v, ok := config["language"].(string); ok {
		cfg.Language = v
	}
	if v, ok := config["dict_path"].(string); ok {
		cfg.DictPath = v
	}
	if v, ok := config["user_dict_path"].(string); ok {
		cfg.UserDictPath = v
	}
	// Numbers decode as float64 when the mapping comes back from the
	// index metadata JSON.
	switch v := config["min_term_length"].(type) {
	case int:
		cfg.MinTermLength = v
	case float64:
		cfg.MinTermLength = int(v)
	}

	inner, err := New(cfg)
	if err != nil {
		return nil, fmt.Errorf("segment: build tokenizer: %w", err)
	}
	return &bleveTokenizer{inner: inner}, nil
}

func init() {
	if err := registry.RegisterTokenizer(TokenizerName, tokenizerConstructor); err != nil {
		panic(err)
	}
}
