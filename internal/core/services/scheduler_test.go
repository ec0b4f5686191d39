package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
	"github.com/corpora-labs/docseek/internal/core/ports/driving"
)

// --- Mock implementations for scheduler testing ---

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu       sync.RWMutex
	tasks    map[string]*domain.ScheduledTask
	results  map[string][]domain.TaskResult
	saveErr  error
	listErr  error
	getErr   error
	pruneErr error
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks:   make(map[string]*domain.ScheduledTask),
		results: make(map[string][]domain.TaskResult),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, nil
	}
	// Return a copy
	taskCopy := *task
	return &taskCopy, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if task == nil {
		return domain.ErrInvalidInput
	}
	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *mockSchedulerStore) DeleteTask(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, taskID)
	return nil
}

func (m *mockSchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == nil {
		return domain.ErrInvalidInput
	}
	m.results[result.TaskID] = append(m.results[result.TaskID], *result)
	return nil
}

func (m *mockSchedulerStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := m.results[taskID]
	if len(results) > limit {
		results = results[len(results)-limit:]
	}
	return results, nil
}

func (m *mockSchedulerStore) PruneHistory(_ context.Context, _ int) error {
	return m.pruneErr
}

// mockSyncOrchestrator implements driving.SyncOrchestrator for testing.
type mockSyncOrchestrator struct {
	mu          sync.Mutex
	syncAllRuns int
	syncAllErr  error
}

func (m *mockSyncOrchestrator) Sync(_ context.Context, _ string) error {
	return nil
}

func (m *mockSyncOrchestrator) SyncAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncAllRuns++
	return m.syncAllErr
}

func (m *mockSyncOrchestrator) Watch(_ context.Context) error {
	return nil
}

func (m *mockSyncOrchestrator) Status(_ context.Context, _ string) (*driving.SyncStatus, error) {
	return &driving.SyncStatus{}, nil
}

func (m *mockSyncOrchestrator) History(_ context.Context, _ string, _ int) ([]domain.SyncLog, error) {
	return nil, nil
}

func (m *mockSyncOrchestrator) runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncAllRuns
}

// Ensure mocks implement interfaces
var _ driven.SchedulerStore = (*mockSchedulerStore)(nil)
var _ driving.SyncOrchestrator = (*mockSyncOrchestrator)(nil)

// ==================== Scheduler Tests ====================

func TestScheduler_StartStop(t *testing.T) {
	store := newMockSchedulerStore()
	syncOrch := &mockSyncOrchestrator{}
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, syncOrch)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	cancel()
	err := scheduler.Stop()
	require.NoError(t, err)

	wg.Wait()
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), &mockSyncOrchestrator{})

	err := scheduler.Stop()
	require.NoError(t, err)
}

func TestScheduler_DoubleStart(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), &mockSyncOrchestrator{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = scheduler.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	// Second start returns immediately (already running)
	err := scheduler.Start(context.Background())
	assert.NoError(t, err)

	cancel()
	scheduler.Stop() //nolint:errcheck
	wg.Wait()
}

func TestScheduler_InitialiseTasks(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, &mockSyncOrchestrator{})

	ctx := context.Background()
	err := scheduler.initialiseTasks(ctx)
	require.NoError(t, err)

	docTask, err := store.GetTask(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)
	require.NotNil(t, docTask)
	assert.Equal(t, "Document Sync", docTask.Name)
	assert.Equal(t, "@every 1h", docTask.Schedule)
	assert.True(t, docTask.Enabled)
	// Next run comes from the cron schedule, roughly an hour out.
	assert.True(t, docTask.NextRun.After(time.Now().Add(50*time.Minute)))
}

func TestScheduler_EnsureTask_UpdateSchedule(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, &mockSyncOrchestrator{})
	ctx := context.Background()

	taskCfg := domain.TaskConfig{Enabled: true, Schedule: "@every 1h"}
	require.NoError(t, scheduler.ensureTask(ctx, "test-task", "Test Task", taskCfg))

	before, err := store.GetTask(ctx, "test-task")
	require.NoError(t, err)

	taskCfg.Schedule = "@every 10m"
	require.NoError(t, scheduler.ensureTask(ctx, "test-task", "Test Task", taskCfg))

	task, err := store.GetTask(ctx, "test-task")
	require.NoError(t, err)
	assert.Equal(t, "@every 10m", task.Schedule)
	assert.True(t, task.NextRun.Before(before.NextRun), "shorter schedule moves the next run earlier")
}

func TestScheduler_EnsureTask_BadSchedule(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), &mockSyncOrchestrator{})

	err := scheduler.ensureTask(context.Background(), "test-task", "Test Task", domain.TaskConfig{
		Enabled:  true,
		Schedule: "whenever",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "whenever")
}

func TestScheduler_EnsureTask_CronExpression(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, &mockSyncOrchestrator{})
	ctx := context.Background()

	// Five-field cron expressions parse too, not just @every.
	require.NoError(t, scheduler.ensureTask(ctx, "nightly", "Nightly Sync", domain.TaskConfig{
		Enabled:  true,
		Schedule: "0 3 * * *",
	}))

	task, err := store.GetTask(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, 3, task.NextRun.Hour())
}

func TestScheduler_RunNow(t *testing.T) {
	store := newMockSchedulerStore()
	syncOrch := &mockSyncOrchestrator{}
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, syncOrch)
	ctx := context.Background()

	require.NoError(t, scheduler.initialiseTasks(ctx))

	err := scheduler.RunNow(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)
	assert.Equal(t, 1, syncOrch.runs())

	task, err := store.GetTask(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)
	assert.False(t, task.LastRun.IsZero())
	assert.False(t, task.LastSuccess.IsZero())
	assert.Empty(t, task.LastError)

	history, err := store.GetTaskHistory(ctx, domain.TaskIDDocumentSync, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
}

func TestScheduler_RunNow_UnknownTask(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), &mockSyncOrchestrator{})

	err := scheduler.RunNow(context.Background(), "ghost-task")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduler_RunNow_SyncFailureRecorded(t *testing.T) {
	store := newMockSchedulerStore()
	syncOrch := &mockSyncOrchestrator{syncAllErr: domain.ErrSearchUnavailable}
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, syncOrch)
	ctx := context.Background()

	require.NoError(t, scheduler.initialiseTasks(ctx))

	// Task failures land in state and history, not in the return value.
	err := scheduler.RunNow(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)

	task, err := store.GetTask(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)
	assert.NotEmpty(t, task.LastError)
	assert.True(t, task.LastSuccess.IsZero())

	history, err := store.GetTaskHistory(ctx, domain.TaskIDDocumentSync, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
	assert.NotEmpty(t, history[0].Error)
}

func TestScheduler_RunNow_AlreadyInFlight(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, &mockSyncOrchestrator{})
	ctx := context.Background()

	require.NoError(t, scheduler.initialiseTasks(ctx))
	require.True(t, scheduler.claim(domain.TaskIDDocumentSync))
	defer scheduler.release(domain.TaskIDDocumentSync)

	err := scheduler.RunNow(ctx, domain.TaskIDDocumentSync)

	assert.ErrorIs(t, err, domain.ErrSyncInProgress)
}

func TestScheduler_Tasks(t *testing.T) {
	store := newMockSchedulerStore()
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, &mockSyncOrchestrator{})
	ctx := context.Background()

	require.NoError(t, scheduler.initialiseTasks(ctx))

	tasks, err := scheduler.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.TaskIDDocumentSync, tasks[0].ID)
}

func TestScheduler_CheckAndRunDueTasks(t *testing.T) {
	store := newMockSchedulerStore()
	syncOrch := &mockSyncOrchestrator{}
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, syncOrch)
	ctx := context.Background()

	dueTask := &domain.ScheduledTask{
		ID:       domain.TaskIDDocumentSync,
		Name:     "Document Sync",
		Schedule: "@every 1h",
		NextRun:  time.Now().Add(-1 * time.Minute), // Already past due
		Enabled:  true,
	}
	require.NoError(t, store.SaveTask(ctx, dueTask))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	assert.Equal(t, 1, syncOrch.runs())

	task, err := store.GetTask(ctx, domain.TaskIDDocumentSync)
	require.NoError(t, err)
	assert.True(t, task.NextRun.After(time.Now()), "next run pushed out after execution")
}

func TestScheduler_CheckAndRunDueTasks_SkipsDisabled(t *testing.T) {
	store := newMockSchedulerStore()
	syncOrch := &mockSyncOrchestrator{}
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, syncOrch)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDDocumentSync,
		Name:     "Document Sync",
		Schedule: "@every 1h",
		NextRun:  time.Now().Add(-1 * time.Minute),
		Enabled:  false,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	assert.Zero(t, syncOrch.runs())
}

func TestScheduler_CheckAndRunDueTasks_SkipsFuture(t *testing.T) {
	store := newMockSchedulerStore()
	syncOrch := &mockSyncOrchestrator{}
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), store, syncOrch)
	ctx := context.Background()

	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDDocumentSync,
		Name:     "Document Sync",
		Schedule: "@every 1h",
		NextRun:  time.Now().Add(30 * time.Minute),
		Enabled:  true,
	}))

	scheduler.checkAndRunDueTasks(ctx)
	scheduler.wg.Wait()

	assert.Zero(t, syncOrch.runs())
}

func TestScheduler_RunDocumentSync_NilOrchestrator(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), nil)

	_, err := scheduler.runDocumentSync(context.Background())
	require.NoError(t, err)
}

func TestScheduler_Execute_UnknownTaskID(t *testing.T) {
	scheduler := NewScheduler(domain.DefaultSchedulerConfig(), newMockSchedulerStore(), nil)

	err := scheduler.execute(context.Background(), &domain.ScheduledTask{
		ID:      "unknown-task",
		Name:    "Unknown",
		Enabled: true,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown task ID")
}
