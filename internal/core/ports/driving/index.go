package driving

import "context"

// IndexService exposes index maintenance to external actors.
// Unlike the search read path, these operations report errors honestly;
// an operator running a rebuild needs to know it failed.
type IndexService interface {
	// Rebuild drops the index and re-indexes every published document
	// from the store. Returns the number of documents indexed.
	Rebuild(ctx context.Context) (int, error)
}
