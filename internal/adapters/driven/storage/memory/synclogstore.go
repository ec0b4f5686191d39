package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
)

// Ensure SyncLogStore implements the interface.
var _ driven.SyncLogStore = (*SyncLogStore)(nil)

// SyncLogStore is an in-memory implementation of driven.SyncLogStore.
type SyncLogStore struct {
	mu   sync.RWMutex
	logs map[string]domain.SyncLog
}

// NewSyncLogStore creates a new in-memory sync log store.
func NewSyncLogStore() *SyncLogStore {
	return &SyncLogStore{
		logs: make(map[string]domain.SyncLog),
	}
}

// Save stores or updates a log entry by ID.
func (s *SyncLogStore) Save(_ context.Context, log *domain.SyncLog) error {
	if log == nil || log.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[log.ID] = *log
	return nil
}

// List returns recent entries across all sources, newest first.
func (s *SyncLogStore) List(_ context.Context, limit int) ([]domain.SyncLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(domain.SyncLog) bool { return true }, limit), nil
}

// ListBySource returns recent entries for one source, newest first.
func (s *SyncLogStore) ListBySource(_ context.Context, sourceID string, limit int) ([]domain.SyncLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(l domain.SyncLog) bool { return l.SourceID == sourceID }, limit), nil
}

// Prune removes old entries, keeping the most recent 'keep' per source.
func (s *SyncLogStore) Prune(_ context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	bySource := make(map[string][]domain.SyncLog)
	for id := range s.logs {
		log := s.logs[id]
		bySource[log.SourceID] = append(bySource[log.SourceID], log)
	}

	for _, logs := range bySource {
		if len(logs) <= keep {
			continue
		}
		sortLogsNewestFirst(logs)
		for _, log := range logs[keep:] {
			delete(s.logs, log.ID)
		}
	}
	return nil
}

// collect filters, sorts and limits under a held read lock.
func (s *SyncLogStore) collect(match func(domain.SyncLog) bool, limit int) []domain.SyncLog {
	var result []domain.SyncLog
	for id := range s.logs {
		if log := s.logs[id]; match(log) {
			result = append(result, log)
		}
	}
	sortLogsNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// sortLogsNewestFirst orders entries by start time descending, with ID as
// the tie-break so results are deterministic.
func sortLogsNewestFirst(logs []domain.SyncLog) {
	sort.Slice(logs, func(i, j int) bool {
		if !logs[i].StartedAt.Equal(logs[j].StartedAt) {
			return logs[i].StartedAt.After(logs[j].StartedAt)
		}
		return logs[i].ID < logs[j].ID
	})
}
