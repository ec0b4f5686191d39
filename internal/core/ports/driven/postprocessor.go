package driven

import (
	"context"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// PostProcessor enriches a normalised document before it is stored and
// indexed. PostProcessors are chained in a pipeline (e.g., summary
// extraction, keyword tagging).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process inspects and mutates the document in place.
	// A processor must leave fields it does not own untouched.
	Process(ctx context.Context, doc *domain.Document) error
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	Process(ctx context.Context, doc *domain.Document) error
}
