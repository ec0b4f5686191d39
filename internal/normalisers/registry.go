package normalisers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches raw documents to the best matching normaliser.
// Candidates are matched on MIME type and ranked by Priority.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty normaliser registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(normaliser driven.Normaliser) {
	if normaliser == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, normaliser)
}

// Normalise transforms a raw document using the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	normaliser := r.selectFor(raw.MIMEType)
	if normaliser == nil {
		return nil, fmt.Errorf("%w: no normaliser for mime type %q", domain.ErrUnsupportedType, raw.MIMEType)
	}

	return normaliser.Normalise(ctx, raw)
}

// SupportedMIMETypes returns the union of all registered MIME types, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, n := range r.normalisers {
		for _, mt := range n.SupportedMIMETypes() {
			seen[canonicalMIME(mt)] = struct{}{}
		}
	}

	types := make([]string, 0, len(seen))
	for mt := range seen {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// selectFor returns the highest-priority normaliser claiming the MIME type.
func (r *Registry) selectFor(mimeType string) driven.Normaliser {
	want := canonicalMIME(mimeType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var best driven.Normaliser
	for _, n := range r.normalisers {
		if !claims(n, want) {
			continue
		}
		if best == nil || n.Priority() > best.Priority() {
			best = n
		}
	}
	return best
}

func claims(n driven.Normaliser, mimeType string) bool {
	for _, mt := range n.SupportedMIMETypes() {
		if canonicalMIME(mt) == mimeType {
			return true
		}
	}
	return false
}

// canonicalMIME lowercases a MIME type and drops parameters such as charset.
func canonicalMIME(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
