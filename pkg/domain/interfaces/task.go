package interfaces

import (
	"context"
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
)

// TaskRepository provides persistence for the pending scheduled-task set
type TaskRepository interface {
	// Put inserts a scheduled task into the pending set
	Put(ctx context.Context, task *model.ScheduledTask) error

	// PopDue atomically removes and returns every task whose ExecuteAt is at
	// or before now. Removal happens before the caller executes anything, so
	// a crash mid-execution loses tasks instead of duplicating them.
	PopDue(ctx context.Context, now time.Time) ([]*model.ScheduledTask, error)

	// List retrieves all pending tasks without removing them
	List(ctx context.Context) ([]*model.ScheduledTask, error)
}
