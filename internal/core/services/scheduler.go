package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
	"github.com/corpora-labs/docseek/internal/core/ports/driving"
	"github.com/corpora-labs/docseek/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention is how many results are kept per task.
const historyRetention = 100

// Scheduler runs recurring background tasks on cron schedules.
// Task state is persisted so runs survive restarts.
type Scheduler struct {
	config   domain.SchedulerConfig
	store    driven.SchedulerStore
	syncOrch driving.SyncOrchestrator

	mu       sync.Mutex
	running  bool
	inFlight map[string]bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	syncOrch driving.SyncOrchestrator,
) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		syncOrch: syncOrch,
		inFlight: make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is
// called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("Scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// Tasks returns the registered tasks with their persisted state.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	return s.store.ListTasks(ctx)
}

// RunNow executes a task immediately, outside its schedule. The next
// scheduled run is pushed out from the completion time.
func (s *Scheduler) RunNow(ctx context.Context, taskID string) error {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}

	if !s.claim(task.ID) {
		return fmt.Errorf("%w: task %s", domain.ErrSyncInProgress, taskID)
	}
	defer s.release(task.ID)

	return s.execute(ctx, task)
}

// initialiseTasks ensures all configured tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDDocumentSync); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDDocumentSync, "Document Sync", taskCfg); err != nil {
			return err
		}
	}

	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	sched, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return fmt.Errorf("task %s: parse schedule %q: %w", id, cfg.Schedule, err)
	}

	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Schedule: cfg.Schedule,
			Enabled:  cfg.Enabled,
			NextRun:  sched.Next(time.Now()),
		}
	} else {
		if task.Schedule != cfg.Schedule {
			task.Schedule = cfg.Schedule
			task.NextRun = sched.Next(time.Now())
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Catch up on tasks that came due while we were down
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("Scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		// A zero NextRun counts as due.
		if !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task in the background. Tasks still running
// from a previous tick are not started again.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	if !s.claim(task.ID) {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(task.ID)

		if err := s.execute(ctx, task); err != nil {
			logger.Warn("Scheduler: task %s: %v", task.ID, err)
		}
	}()
}

// execute runs a task, updates its state, and records the result.
// The returned error reports bookkeeping failures; task failures land
// in the task state and result history instead.
func (s *Scheduler) execute(ctx context.Context, task *domain.ScheduledTask) error {
	result := &domain.TaskResult{
		TaskID:    task.ID,
		StartedAt: time.Now(),
	}

	var err error
	switch task.ID {
	case domain.TaskIDDocumentSync:
		result.ItemsProcessed, err = s.runDocumentSync(ctx)
	default:
		return fmt.Errorf("unknown task ID: %s", task.ID)
	}

	result.EndedAt = time.Now()
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		task.LastError = err.Error()
	} else {
		result.Success = true
		task.LastError = ""
		task.LastSuccess = result.EndedAt
	}

	task.LastRun = result.StartedAt
	if sched, parseErr := cron.ParseStandard(task.Schedule); parseErr == nil {
		task.NextRun = sched.Next(result.EndedAt)
	} else {
		// The schedule was valid at registration; a task that can no
		// longer be scheduled must not spin on every tick.
		logger.Warn("Scheduler: task %s: unparseable schedule %q, disabling", task.ID, task.Schedule)
		task.Enabled = false
	}

	if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
		return fmt.Errorf("save task %s: %w", task.ID, saveErr)
	}

	if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
		return fmt.Errorf("record result for %s: %w", task.ID, recordErr)
	}

	if pruneErr := s.store.PruneHistory(ctx, historyRetention); pruneErr != nil {
		return fmt.Errorf("prune history: %w", pruneErr)
	}

	return nil
}

// claim marks a task as in flight. Returns false if it already is.
func (s *Scheduler) claim(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[taskID] {
		return false
	}
	s.inFlight[taskID] = true
	return true
}

func (s *Scheduler) release(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, taskID)
}

// runDocumentSync syncs all sources.
//
//nolint:unparam // itemsProcessed always 0 until SyncAll returns count
func (s *Scheduler) runDocumentSync(ctx context.Context) (int, error) {
	if s.syncOrch == nil {
		return 0, nil
	}

	err := s.syncOrch.SyncAll(ctx)
	return 0, err
}
