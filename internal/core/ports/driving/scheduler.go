package driving

import (
	"context"

	"github.com/corpora-labs/docseek/internal/core/domain"
)

// Scheduler manages background tasks like periodic document sync.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or an error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// Tasks returns the registered tasks with their persisted state.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// RunNow executes a task immediately, outside its schedule.
	RunNow(ctx context.Context, taskID string) error
}
