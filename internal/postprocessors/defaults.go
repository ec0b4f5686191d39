package postprocessors

import (
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
	"github.com/corpora-labs/docseek/internal/postprocessors/keywords"
	"github.com/corpora-labs/docseek/internal/postprocessors/summary"
)

// DefaultProcessorNames is the standard enrichment chain in execution order.
var DefaultProcessorNames = []string{"summary", "keywords"}

// RegisterDefaults registers all built-in processors with the registry.
// The segmenter, when non-nil, backs keyword extraction with the same
// dictionary segmentation the search index uses; pass nil for the
// rune-class fallback.
func RegisterDefaults(r *Registry, segmenter keywords.Segmenter) {
	r.Register("summary", buildSummary)
	r.Register("keywords", func(cfg map[string]any) (driven.PostProcessor, error) {
		return buildKeywords(cfg, segmenter)
	})
}

// NewDefaultPipeline builds the standard pipeline from the default
// processor names.
func NewDefaultPipeline(segmenter keywords.Segmenter) (*Pipeline, error) {
	registry := NewRegistry()
	RegisterDefaults(registry, segmenter)

	pipeline := NewPipeline()
	for _, name := range DefaultProcessorNames {
		processor, err := registry.Build(name, nil)
		if err != nil {
			return nil, err
		}
		pipeline.Add(processor)
	}
	return pipeline, nil
}

// buildSummary creates a summary processor from generic config.
// Supported config keys:
//   - max_length (int): Summary length in runes (default: 200)
func buildSummary(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []summary.Option

	if cfg != nil {
		if length := getIntFromConfig(cfg, "max_length"); length > 0 {
			opts = append(opts, summary.WithMaxLength(length))
		}
	}

	return summary.New(opts...), nil
}

// buildKeywords creates a keywords processor from generic config.
// Supported config keys:
//   - max_keywords (int): Keywords extracted per document (default: 5)
func buildKeywords(cfg map[string]any, segmenter keywords.Segmenter) (driven.PostProcessor, error) {
	opts := []keywords.Option{keywords.WithSegmenter(segmenter)}

	if cfg != nil {
		if n := getIntFromConfig(cfg, "max_keywords"); n > 0 {
			opts = append(opts, keywords.WithMaxKeywords(n))
		}
	}

	return keywords.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
