package normalisers

import (
	"github.com/corpora-labs/docseek/internal/normalisers/html"
	"github.com/corpora-labs/docseek/internal/normalisers/markdown"
	"github.com/corpora-labs/docseek/internal/normalisers/plaintext"
)

// DefaultRegistry returns a registry with all built-in normalisers registered.
// Call this during application initialisation.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(plaintext.New())
	return r
}
