package model

import (
	"time"

	"github.com/DubeyAkshat/ms-teams-obo-bot/pkg/domain/types"
)

// ScheduledTask is a unit of deferred work bound to a captured conversation
// reference. The reference is a copy taken at schedule time and is not
// affected by later UserContext updates. A task executes at most once and is
// never rescheduled automatically.
type ScheduledTask struct {
	ID                    types.TaskID
	UserID                types.UserID
	ConversationReference *ConversationReference
	TaskType              types.TaskType
	ExecuteAt             time.Time
	CreatedAt             time.Time
}

// NewScheduledTask creates a task due after the given delay
func NewScheduledTask(userID types.UserID, ref *ConversationReference, taskType types.TaskType, delay time.Duration) *ScheduledTask {
	now := time.Now().UTC()
	return &ScheduledTask{
		ID:                    types.NewTaskID(userID, now),
		UserID:                userID,
		ConversationReference: ref.Clone(),
		TaskType:              taskType,
		ExecuteAt:             now.Add(delay),
		CreatedAt:             now,
	}
}

// Due reports whether the task should fire at the given time
func (t *ScheduledTask) Due(now time.Time) bool {
	return !t.ExecuteAt.After(now)
}

// Clone returns a deep copy of the task
func (t *ScheduledTask) Clone() *ScheduledTask {
	if t == nil {
		return nil
	}
	copied := *t
	copied.ConversationReference = t.ConversationReference.Clone()
	return &copied
}
