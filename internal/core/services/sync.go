package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corpora-labs/docseek/internal/connectors"
	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
	"github.com/corpora-labs/docseek/internal/core/ports/driving"
	"github.com/corpora-labs/docseek/internal/logger"
	"github.com/corpora-labs/docseek/internal/metrics"
)

// keepSyncLogs is how many history rows are retained per source.
const keepSyncLogs = 50

// defaultHistoryLimit is used when History is called with limit <= 0.
const defaultHistoryLimit = 20

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator coordinates document synchronisation.
// Raw documents flow from a connector through normalisation and the
// post-processor pipeline into the document store and the search index.
type SyncOrchestrator struct {
	sourceStore  driven.SourceStore
	syncStore    driven.SyncStateStore
	docStore     driven.DocumentStore
	syncLogStore driven.SyncLogStore
	factory      driven.ConnectorFactory
	registry     driven.NormaliserRegistry
	pipeline     driven.PostProcessorPipeline
	searchIndex  driven.SearchIndex

	// defaultLanguage is assigned to documents whose normaliser did not
	// detect one.
	defaultLanguage string

	// Status tracking
	mu          sync.RWMutex
	activeSyncs map[string]*driving.SyncStatus
}

// syncCounters accumulates per-run change totals for the sync log.
type syncCounters struct {
	added   int
	updated int
	deleted int
}

// NewSyncOrchestrator creates a new sync orchestrator.
func NewSyncOrchestrator(
	sourceStore driven.SourceStore,
	syncStore driven.SyncStateStore,
	docStore driven.DocumentStore,
	syncLogStore driven.SyncLogStore,
	factory driven.ConnectorFactory,
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	searchIndex driven.SearchIndex,
	defaultLanguage string,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		sourceStore:     sourceStore,
		syncStore:       syncStore,
		docStore:        docStore,
		syncLogStore:    syncLogStore,
		factory:         factory,
		registry:        registry,
		pipeline:        pipeline,
		searchIndex:     searchIndex,
		defaultLanguage: defaultLanguage,
		activeSyncs:     make(map[string]*driving.SyncStatus),
	}
}

// Sync triggers synchronisation for a source. At most one sync runs per
// source at a time; a second call returns domain.ErrSyncInProgress.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) Sync(ctx context.Context, sourceID string) error {
	// 1. Get source configuration
	source, err := o.sourceStore.Get(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("get source: %w", err)
	}

	// 2. Claim the source
	status, err := o.beginSync(sourceID)
	if err != nil {
		return err
	}
	defer o.clearStatus(sourceID)

	// 3. Create connector from source
	if o.factory == nil {
		return fmt.Errorf("create connector: connector factory not configured")
	}
	connector, err := o.factory.Create(ctx, *source)
	if err != nil {
		return fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	// 4. Validate connector (auth, configuration, connectivity)
	if err := connector.Validate(ctx); err != nil {
		return fmt.Errorf("validate source: %w", err)
	}

	// 5. Get sync state (for incremental sync)
	syncState, err := o.syncStore.Get(ctx, sourceID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get sync state: %w", err)
	}

	// 6. Record the run
	run := &domain.SyncLog{
		ID:         uuid.NewString(),
		SourceID:   source.ID,
		SourceType: source.Type,
		SourceName: source.Name,
		Status:     domain.SyncStatusRunning,
		StartedAt:  time.Now(),
	}
	if err := o.syncLogStore.Save(ctx, run); err != nil {
		return fmt.Errorf("record sync start: %w", err)
	}

	logger.Info("Starting sync for source %s (%s)", source.Name, source.Type)

	// 7. Choose sync strategy based on connector capabilities
	counts := &syncCounters{}
	caps := connector.Capabilities()
	var newCursor string

	if caps.SupportsIncremental && syncState != nil && syncState.Cursor != "" {
		changesCh, errsCh := connector.IncrementalSync(ctx, *syncState)
		newCursor, err = o.processChanges(ctx, source, changesCh, errsCh, status, counts)
	} else {
		docsCh, errsCh := connector.FullSync(ctx)
		seen := make(map[string]bool)
		newCursor, err = o.processDocuments(ctx, source, docsCh, errsCh, status, counts, seen)
		if err == nil {
			// A completed full sync is a complete listing, so anything
			// stored but unseen no longer exists upstream.
			err = o.pruneUnseen(ctx, source.ID, seen, status, counts)
		}
	}

	if err != nil {
		o.finishRun(ctx, run, status, counts, err)
		return err
	}

	// 8. Update sync state with new cursor
	newState := domain.SyncState{
		SourceID: sourceID,
		Cursor:   newCursor,
		LastSync: time.Now(),
	}
	if err := o.syncStore.Save(ctx, newState); err != nil {
		o.finishRun(ctx, run, status, counts, err)
		return fmt.Errorf("save sync state: %w", err)
	}

	o.finishRun(ctx, run, status, counts, nil)
	logger.Info("Sync complete for %s: %d documents (%d added, %d updated, %d deleted), %d errors",
		source.Name, status.DocumentsProcessed, counts.added, counts.updated, counts.deleted, status.ErrorCount)
	return nil
}

// SyncAll triggers synchronisation for all configured sources.
// Sources are synced sequentially; failures are collected and do not
// stop the remaining sources.
func (o *SyncOrchestrator) SyncAll(ctx context.Context) error {
	sources, err := o.sourceStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	var errs []error
	for _, source := range sources {
		if err := o.Sync(ctx, source.ID); err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", source.ID, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Watch streams change events from watch-capable sources and applies
// them as they arrive. Blocks until the context is cancelled.
func (o *SyncOrchestrator) Watch(ctx context.Context) error {
	sources, err := o.sourceStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	var wg sync.WaitGroup
	watching := 0

	for i := range sources {
		source := sources[i]

		connector, err := o.factory.Create(ctx, source)
		if err != nil {
			logger.Warn("Watch: skipping source %s: %v", source.ID, err)
			continue
		}
		if !connector.Capabilities().SupportsWatch {
			connector.Close()
			continue
		}

		changes, err := connector.Watch(ctx)
		if err != nil {
			logger.Warn("Watch: cannot watch source %s: %v", source.ID, err)
			connector.Close()
			continue
		}

		watching++
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer connector.Close()
			o.applyWatchEvents(ctx, &source, changes)
		}()
	}

	if watching == 0 {
		logger.Warn("Watch: no watch-capable sources configured")
	} else {
		logger.Info("Watching %d source(s) for changes", watching)
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// Status returns sync status for a source. When no sync is running the
// status carries the completion time of the last successful sync.
func (o *SyncOrchestrator) Status(ctx context.Context, sourceID string) (*driving.SyncStatus, error) {
	o.mu.RLock()
	if status, ok := o.activeSyncs[sourceID]; ok {
		snapshot := *status
		o.mu.RUnlock()
		return &snapshot, nil
	}
	o.mu.RUnlock()

	idle := &driving.SyncStatus{SourceID: sourceID}
	state, err := o.syncStore.Get(ctx, sourceID)
	switch {
	case err == nil:
		idle.LastSync = state.LastSync
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get sync state: %w", err)
	}
	return idle, nil
}

// History returns recent sync runs, newest first. An empty sourceID
// returns runs for all sources.
func (o *SyncOrchestrator) History(ctx context.Context, sourceID string, limit int) ([]domain.SyncLog, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if sourceID == "" {
		return o.syncLogStore.List(ctx, limit)
	}
	return o.syncLogStore.ListBySource(ctx, sourceID, limit)
}

// processDocuments handles full sync. Every URI the connector reports is
// recorded in seen, including documents that later fail to process, so
// that pruning never removes a document that still exists upstream.
// Returns the new cursor from SyncComplete if the connector provides one.
//
//nolint:gocognit // Orchestration function coordinating multiple async operations
func (o *SyncOrchestrator) processDocuments(
	ctx context.Context,
	source *domain.Source,
	docsCh <-chan domain.RawDocument,
	errsCh <-chan error,
	status *driving.SyncStatus,
	counts *syncCounters,
	seen map[string]bool,
) (string, error) {
	var newCursor string

	// Drain both channels fully. The completion cursor arrives on the
	// error channel and may still be buffered when the document channel
	// closes.
	for docsCh != nil || errsCh != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if sc, done := driven.IsSyncComplete(err); done {
				newCursor = sc.NewCursor
				continue
			}
			if err != nil {
				return "", fmt.Errorf("connector error: %w", err)
			}

		case rawDoc, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}

			seen[rawDoc.URI] = true
			logger.Debug("Processing: %s", rawDoc.URI)
			created, err := o.processOneDocument(ctx, source, &rawDoc)
			if err != nil {
				o.recordError(status)
				if errors.Is(err, domain.ErrUnsupportedType) {
					logger.Debug("Skipping %s: %v", rawDoc.URI, err)
				} else {
					logger.Warn("Failed to process %s: %v", rawDoc.URI, err)
				}
				continue
			}
			if created {
				counts.added++
			} else {
				counts.updated++
			}
			o.recordProcessed(status)
		}
	}

	return newCursor, nil
}

// processChanges handles incremental sync.
// Returns the new cursor from SyncComplete if the connector provides one.
//
//nolint:gocognit // Orchestration function coordinating multiple async operations
func (o *SyncOrchestrator) processChanges(
	ctx context.Context,
	source *domain.Source,
	changesCh <-chan domain.RawDocumentChange,
	errsCh <-chan error,
	status *driving.SyncStatus,
	counts *syncCounters,
) (string, error) {
	var newCursor string

	for changesCh != nil || errsCh != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if sc, done := driven.IsSyncComplete(err); done {
				newCursor = sc.NewCursor
				continue
			}
			if err != nil {
				return "", fmt.Errorf("connector error: %w", err)
			}

		case change, ok := <-changesCh:
			if !ok {
				changesCh = nil
				continue
			}

			switch change.Type {
			case domain.ChangeCreated, domain.ChangeUpdated:
				logger.Debug("Processing: %s", change.Document.URI)
				created, err := o.processOneDocument(ctx, source, &change.Document)
				if err != nil {
					o.recordError(status)
					if errors.Is(err, domain.ErrUnsupportedType) {
						logger.Debug("Skipping %s: %v", change.Document.URI, err)
					} else {
						logger.Warn("Failed to process %s: %v", change.Document.URI, err)
					}
					continue
				}
				if created {
					counts.added++
				} else {
					counts.updated++
				}

			case domain.ChangeDeleted:
				logger.Debug("Deleting: %s", change.Document.URI)
				if err := o.deleteDocumentByURI(ctx, source.ID, change.Document.URI); err != nil {
					o.recordError(status)
					logger.Warn("Failed to delete %s: %v", change.Document.URI, err)
					continue
				}
				counts.deleted++
			}
			o.recordProcessed(status)
		}
	}

	return newCursor, nil
}

// processOneDocument runs one raw document through the ingest pipeline:
// normalise, enrich, persist, index. Reports whether the document was
// new to the store.
func (o *SyncOrchestrator) processOneDocument(
	ctx context.Context,
	source *domain.Source,
	raw *domain.RawDocument,
) (bool, error) {
	// 1. NORMALISE (produces Document with Title and Content)
	result, err := o.registry.Normalise(ctx, raw)
	if err != nil {
		return false, fmt.Errorf("normalise: %w", err)
	}
	doc := &result.Document

	// 2. FILL SOURCE-LEVEL FIELDS the normaliser cannot know
	doc.SourceType = source.Type
	if doc.Category == "" {
		doc.Category = source.Category
	}
	if doc.Language == "" {
		doc.Language = o.defaultLanguage
	}
	if doc.SourceURL == "" {
		doc.SourceURL = connectors.ResolveWebURL(source.Type, raw.URI, raw.Metadata)
	}

	// 3. RUN POST-PROCESSOR PIPELINE (summary, keywords)
	if err := o.pipeline.Process(ctx, doc); err != nil {
		return false, fmt.Errorf("post-process: %w", err)
	}

	if err := doc.Validate(); err != nil {
		return false, fmt.Errorf("invalid document %s: %w", raw.URI, err)
	}

	// 4. UPSERT, preserving the original creation time
	created := false
	existing, err := o.docStore.GetDocument(ctx, doc.ID)
	switch {
	case err == nil:
		doc.CreatedAt = existing.CreatedAt
	case errors.Is(err, domain.ErrNotFound):
		created = true
	default:
		return false, fmt.Errorf("load document: %w", err)
	}

	if err := o.docStore.SaveDocument(ctx, doc); err != nil {
		return false, fmt.Errorf("save document: %w", err)
	}

	// 5. INDEX FOR SEARCH
	if err := o.searchIndex.Update(ctx, doc); err != nil {
		metrics.RecordIndexWriteError()
		return created, fmt.Errorf("index document: %w", err)
	}
	metrics.RecordDocumentsIndexed(1)

	return created, nil
}

// deleteDocumentByURI removes a document from the store and the index.
// An already-absent document is not an error.
func (o *SyncOrchestrator) deleteDocumentByURI(ctx context.Context, sourceID, uri string) error {
	doc, err := o.docStore.GetDocumentByURI(ctx, sourceID, uri)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find document: %w", err)
	}

	// An index miss is recoverable via rebuild, so it does not block the
	// store delete.
	if err := o.searchIndex.Delete(ctx, doc.ID); err != nil {
		metrics.RecordIndexWriteError()
		logger.Warn("Failed to remove %s from index: %v", doc.ID, err)
	}

	if err := o.docStore.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// pruneUnseen retracts stored documents a completed full sync did not
// report. Runs only after the connector finished without error, so a
// partial listing never triggers deletions.
func (o *SyncOrchestrator) pruneUnseen(
	ctx context.Context,
	sourceID string,
	seen map[string]bool,
	status *driving.SyncStatus,
	counts *syncCounters,
) error {
	docs, err := o.docStore.ListDocuments(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	for i := range docs {
		if seen[docs[i].URI] {
			continue
		}
		logger.Debug("Pruning: %s", docs[i].URI)
		if err := o.deleteDocumentByURI(ctx, sourceID, docs[i].URI); err != nil {
			o.recordError(status)
			logger.Warn("Failed to prune %s: %v", docs[i].URI, err)
			continue
		}
		counts.deleted++
		o.recordProcessed(status)
	}
	return nil
}

// applyWatchEvents consumes one connector's change stream until the
// context is cancelled or the connector closes the channel.
func (o *SyncOrchestrator) applyWatchEvents(
	ctx context.Context,
	source *domain.Source,
	changes <-chan domain.RawDocumentChange,
) {
	for {
		select {
		case <-ctx.Done():
			return

		case change, ok := <-changes:
			if !ok {
				return
			}

			switch change.Type {
			case domain.ChangeCreated, domain.ChangeUpdated:
				if _, err := o.processOneDocument(ctx, source, &change.Document); err != nil {
					logger.Warn("Watch: failed to process %s: %v", change.Document.URI, err)
					continue
				}
				logger.Debug("Watch: updated %s", change.Document.URI)

			case domain.ChangeDeleted:
				if err := o.deleteDocumentByURI(ctx, source.ID, change.Document.URI); err != nil {
					logger.Warn("Watch: failed to delete %s: %v", change.Document.URI, err)
					continue
				}
				logger.Debug("Watch: deleted %s", change.Document.URI)
			}
		}
	}
}

// finishRun closes out the history row for a sync run. The row is
// written even when the run's context was cancelled.
func (o *SyncOrchestrator) finishRun(
	ctx context.Context,
	run *domain.SyncLog,
	status *driving.SyncStatus,
	counts *syncCounters,
	runErr error,
) {
	logCtx := context.WithoutCancel(ctx)

	run.Status = domain.SyncStatusSuccess
	if runErr != nil {
		run.Status = domain.SyncStatusError
		run.Message = runErr.Error()
	}
	run.DocumentsSynced = status.DocumentsProcessed
	run.DocumentsAdded = counts.added
	run.DocumentsUpdated = counts.updated
	run.DocumentsDeleted = counts.deleted
	run.FinishedAt = time.Now()

	if err := o.syncLogStore.Save(logCtx, run); err != nil {
		logger.Warn("Failed to update sync log %s: %v", run.ID, err)
	}
	if err := o.syncLogStore.Prune(logCtx, keepSyncLogs); err != nil {
		logger.Debug("Failed to prune sync logs: %v", err)
	}
}

// beginSync claims the source for a run. Returns the live status record,
// or domain.ErrSyncInProgress when a sync for the source is running.
func (o *SyncOrchestrator) beginSync(sourceID string) (*driving.SyncStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, running := o.activeSyncs[sourceID]; running {
		return nil, fmt.Errorf("%w: source %s", domain.ErrSyncInProgress, sourceID)
	}

	status := &driving.SyncStatus{
		SourceID: sourceID,
		Running:  true,
	}
	o.activeSyncs[sourceID] = status
	return status, nil
}

// clearStatus removes the sync status for a source.
func (o *SyncOrchestrator) clearStatus(sourceID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeSyncs, sourceID)
}

// recordProcessed bumps the processed counter under the status lock so
// Status can snapshot a running sync.
func (o *SyncOrchestrator) recordProcessed(status *driving.SyncStatus) {
	o.mu.Lock()
	status.DocumentsProcessed++
	o.mu.Unlock()
}

// recordError bumps the error counter under the status lock.
func (o *SyncOrchestrator) recordError(status *driving.SyncStatus) {
	o.mu.Lock()
	status.ErrorCount++
	o.mu.Unlock()
}
