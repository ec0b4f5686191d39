package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corpora-labs/docseek/internal/connectors"
	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
	"github.com/corpora-labs/docseek/internal/core/ports/driving"
	"github.com/corpora-labs/docseek/internal/logger"
	"github.com/corpora-labs/docseek/internal/metrics"
)

// Ensure SourceService implements the interface.
var _ driving.SourceService = (*SourceService)(nil)

// SourceService manages source configurations. Removing a source also
// retracts its documents from the store and the search index.
type SourceService struct {
	sourceStore driven.SourceStore
	syncStore   driven.SyncStateStore
	docStore    driven.DocumentStore
	searchIndex driven.SearchIndex
}

// NewSourceService creates a new source service.
func NewSourceService(
	sourceStore driven.SourceStore,
	syncStore driven.SyncStateStore,
	docStore driven.DocumentStore,
	searchIndex driven.SearchIndex,
) *SourceService {
	return &SourceService{
		sourceStore: sourceStore,
		syncStore:   syncStore,
		docStore:    docStore,
		searchIndex: searchIndex,
	}
}

// Add creates a new source configuration.
func (s *SourceService) Add(ctx context.Context, source domain.Source) error {
	if err := source.Validate(); err != nil {
		return err
	}
	if err := s.ValidateConfig(ctx, source.Type, source.Config); err != nil {
		return err
	}

	existing, err := s.sourceStore.Get(ctx, source.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check source: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("%w: source %s", domain.ErrAlreadyExists, source.ID)
	}

	now := time.Now()
	source.CreatedAt = now
	source.UpdatedAt = now

	if err := s.sourceStore.Save(ctx, source); err != nil {
		return fmt.Errorf("save source: %w", err)
	}
	logger.Info("Added source %s (%s)", source.ID, source.Type)
	return nil
}

// Get retrieves a source by ID.
func (s *SourceService) Get(ctx context.Context, id string) (*domain.Source, error) {
	return s.sourceStore.Get(ctx, id)
}

// List returns all configured sources.
func (s *SourceService) List(ctx context.Context) ([]domain.Source, error) {
	return s.sourceStore.List(ctx)
}

// Update modifies an existing source configuration. The creation time
// survives the update.
func (s *SourceService) Update(ctx context.Context, source domain.Source) error {
	if err := source.Validate(); err != nil {
		return err
	}
	if err := s.ValidateConfig(ctx, source.Type, source.Config); err != nil {
		return err
	}

	existing, err := s.sourceStore.Get(ctx, source.ID)
	if err != nil {
		return err
	}

	source.CreatedAt = existing.CreatedAt
	source.UpdatedAt = time.Now()

	if err := s.sourceStore.Save(ctx, source); err != nil {
		return fmt.Errorf("save source: %w", err)
	}
	return nil
}

// Remove deletes a source, its documents and their index entries. The
// store delete runs first so a crash mid-removal leaves index orphans
// that the next rebuild clears, never store rows without a source.
func (s *SourceService) Remove(ctx context.Context, id string) error {
	if _, err := s.sourceStore.Get(ctx, id); err != nil {
		return err
	}

	ids, err := s.docStore.DeleteBySource(ctx, id)
	if err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	for _, docID := range ids {
		if err := s.searchIndex.Delete(ctx, docID); err != nil {
			metrics.RecordIndexWriteError()
			logger.Warn("Failed to remove %s from index: %v", docID, err)
		}
	}

	if err := s.syncStore.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete sync state: %w", err)
	}
	if err := s.sourceStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}

	logger.Info("Removed source %s and %d document(s)", id, len(ids))
	return nil
}

// ValidateConfig validates source configuration for a connector type.
func (s *SourceService) ValidateConfig(_ context.Context, connectorType string, config map[string]string) error {
	ct := connectors.TypeByID(connectorType)
	if ct == nil {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedType, connectorType)
	}

	for _, key := range ct.ConfigKeys {
		if !key.Required {
			continue
		}
		if strings.TrimSpace(config[key.Key]) == "" {
			return fmt.Errorf("%w: %s source needs %q", domain.ErrInvalidInput, connectorType, key.Key)
		}
	}
	return nil
}

// Types describes the supported connector types and their configuration
// fields.
func (s *SourceService) Types() []domain.ConnectorType {
	return connectors.Types()
}
