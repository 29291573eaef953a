package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/model"
	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type taskRepository struct {
	mu      sync.Mutex
	pending map[types.TaskID]*model.ScheduledTask
}

func newTaskRepository() *taskRepository {
	return &taskRepository{
		pending: make(map[types.TaskID]*model.ScheduledTask),
	}
}

// Put inserts a scheduled task into the pending set
func (r *taskRepository) Put(ctx context.Context, task *model.ScheduledTask) error {
	if task == nil {
		return goerr.New("task is nil")
	}
	if err := task.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid task ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending[task.ID] = task.Clone()
	return nil
}

// PopDue removes and returns all due tasks in a single critical section, so
// a task scheduled during a tick is never lost or double-claimed.
func (r *taskRepository) PopDue(ctx context.Context, now time.Time) ([]*model.ScheduledTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*model.ScheduledTask
	for id, task := range r.pending {
		if task.Due(now) {
			due = append(due, task.Clone())
			delete(r.pending, id)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].ExecuteAt.Before(due[j].ExecuteAt)
	})

	return due, nil
}

// List retrieves all pending tasks without removing them
func (r *taskRepository) List(ctx context.Context) ([]*model.ScheduledTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*model.ScheduledTask, 0, len(r.pending))
	for _, task := range r.pending {
		result = append(result, task.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ExecuteAt.Before(result[j].ExecuteAt)
	})

	return result, nil
}
